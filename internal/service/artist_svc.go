package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"hualang_api/internal/model"
	"hualang_api/internal/repository"
)

// UpdateArtistInput 更新画家资料，空值字段保持不变
type UpdateArtistInput struct {
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Address         string           `json:"address"`
	WeChat          string           `json:"weChat"`
	QQ              string           `json:"qq"`
	Bio             string           `json:"bio"`
	Achievements    string           `json:"achievements"`
	SignPrice       *decimal.Decimal `json:"signPrice"`
	ExhibitionsHeld *int             `json:"exhibitionsHeld"`
}

// ArtistStats 画家销售统计
type ArtistStats struct {
	SignPrice          decimal.Decimal `json:"signPrice"`
	TotalSalesVolume   int64           `json:"totalSalesVolume"` // 成交笔数
	TotalSalesAmount   decimal.Decimal `json:"totalSalesAmount"`
	TotalArtistPayment decimal.Decimal `json:"totalArtistPayment"`
	SettledAmount      decimal.Decimal `json:"settledAmount"`
}

// ArtistService 画家
type ArtistService struct {
	uow     *repository.LedgerUnitOfWork
	storage StorageProvider
}

func NewArtistService(uow *repository.LedgerUnitOfWork, storage StorageProvider) *ArtistService {
	return &ArtistService{uow: uow, storage: storage}
}

func (s *ArtistService) mustGetByUserID(ctx context.Context, repo repository.ArtistRepository, userID int64) (*model.Artist, error) {
	artist, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	if artist == nil {
		return nil, ErrNotFound("画家不存在")
	}
	return artist, nil
}

func (s *ArtistService) GetByUserID(ctx context.Context, userID int64) (*model.Artist, error) {
	return s.mustGetByUserID(ctx, s.uow.Artists, userID)
}

func (s *ArtistService) List(ctx context.Context) ([]model.Artist, error) {
	list, err := s.uow.Artists.List(ctx)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	return list, nil
}

// SearchUnaffiliated 按名字搜索未签约画家
func (s *ArtistService) SearchUnaffiliated(ctx context.Context, name string) ([]model.Artist, error) {
	list, err := s.uow.Artists.SearchUnaffiliated(ctx, name)
	if err != nil {
		return nil, ErrInternal("搜索画家失败", err)
	}
	return list, nil
}

// UpdateProfile 更新资料。签约关系只能通过邀请/解约变更
func (s *ArtistService) UpdateProfile(ctx context.Context, userID int64, in *UpdateArtistInput) (*model.Artist, error) {
	artist, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	setString := func(column, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fields[column] = v
		}
	}
	setString("name", in.Name)
	setString("email", in.Email)
	setString("phone", in.Phone)
	setString("address", in.Address)
	setString("we_chat", in.WeChat)
	setString("qq", in.QQ)
	setString("bio", in.Bio)
	setString("achievements", in.Achievements)

	if in.SignPrice != nil {
		if in.SignPrice.IsNegative() {
			return nil, ErrValidation("签约价不能为负")
		}
		fields["sign_price"] = in.SignPrice.Round(2)
	}
	if in.ExhibitionsHeld != nil {
		if *in.ExhibitionsHeld < 1 {
			return nil, ErrValidation("办展数至少为 1")
		}
		fields["exhibitions_held"] = *in.ExhibitionsHeld
	}

	if len(fields) > 0 {
		if err := s.uow.Artists.UpdateFields(ctx, artist.ID, fields); err != nil {
			return nil, ErrInternal("更新画家失败", err)
		}
	}
	return s.GetByUserID(ctx, userID)
}

// AddSettledAmount 累加已结算金额，结果不能为负
func (s *ArtistService) AddSettledAmount(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var settled decimal.Decimal
	err := s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		// 行锁保证并发累加不丢失
		artist, err := tx.Artists.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return ErrInternal("查询画家失败", err)
		}
		if artist == nil {
			return ErrNotFound("画家不存在")
		}
		settled = artist.SettledAmount.Add(amount).Round(2)
		if settled.IsNegative() {
			return ErrValidation("已结算金额不能为负")
		}
		return tx.Artists.UpdateFields(ctx, artist.ID, map[string]interface{}{"settled_amount": settled})
	})
	if err != nil {
		return decimal.Zero, wrapInternal("更新结算金额失败", err)
	}
	return settled, nil
}

// Stats 销售统计，含已被清理作品的成交台账
func (s *ArtistService) Stats(ctx context.Context, userID int64) (*ArtistStats, error) {
	artist, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sales, err := s.uow.Sales.StatsByArtist(ctx, artist.ID)
	if err != nil {
		return nil, ErrInternal("统计成交失败", err)
	}
	return &ArtistStats{
		SignPrice:          artist.SignPrice,
		TotalSalesVolume:   sales.Count,
		TotalSalesAmount:   sales.TotalSalesAmount,
		TotalArtistPayment: sales.TotalArtistPayment,
		SettledAmount:      artist.SettledAmount,
	}, nil
}

// UploadAvatar 上传新头像，旧头像尽力删除
func (s *ArtistService) UploadAvatar(ctx context.Context, userID int64, file *UploadedFile) (*model.Artist, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, ErrValidation("未上传头像")
	}
	if len(file.Data) > MaxUploadSize {
		return nil, ErrValidation("头像不能超过 5MB")
	}
	artist, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.Upload(ctx, file.Data, file.Filename, file.ContentType)
	if err != nil {
		return nil, ErrExternal("头像上传失败", err)
	}
	if err := s.uow.Artists.UpdateFields(ctx, artist.ID, map[string]interface{}{"avatar": url}); err != nil {
		_ = s.storage.Delete(ctx, url)
		return nil, ErrInternal("更新头像失败", err)
	}

	if old := artist.Avatar; old != "" && old != url {
		if err := s.storage.Delete(ctx, old); err != nil && !errors.Is(err, ErrObjectNotFound) {
			log.Printf("[Artist] 删除旧头像 %s 失败: %v", old, err)
		}
	}
	artist.Avatar = url
	return artist, nil
}

// ListByCompanyUser 公司旗下画家及作品数
func (s *ArtistService) ListByCompanyUser(ctx context.Context, companyUserID int64) ([]repository.ArtistWithCount, error) {
	company, err := s.uow.Companies.GetByUserID(ctx, companyUserID)
	if err != nil {
		return nil, ErrInternal("查询公司失败", err)
	}
	if company == nil {
		return nil, ErrNotFound("公司不存在")
	}
	list, err := s.uow.Artists.ListByCompanyWithCounts(ctx, company.ID)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	if list == nil {
		list = []repository.ArtistWithCount{}
	}
	return list, nil
}
