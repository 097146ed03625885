package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hualang_api/internal/model"
	"hualang_api/internal/repository"
)

// MaxUploadSize 作品图片/头像大小上限
const MaxUploadSize = 5 << 20

// 序号冲突（多实例下锁失效等）时的重试次数
const serialInsertRetries = 3

// UploadArtworkInput 上传作品的元数据
type UploadArtworkInput struct {
	Title          string
	Description    string
	Theme          string
	Size           string
	EstimatedPrice string
	CreationDate   *time.Time
}

// UploadedFile 上传的文件
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult 上传结果，Warnings 为办展检查等非关键步骤的失败信息
type UploadResult struct {
	Artwork    *model.Artwork    `json:"artwork"`
	Exhibition *model.Exhibition `json:"exhibition,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// ArtworkService 作品
type ArtworkService struct {
	uow         *repository.LedgerUnitOfWork
	storage     StorageProvider
	locker      Locker
	exhibitions *ExhibitionService
}

func NewArtworkService(uow *repository.LedgerUnitOfWork, storage StorageProvider, locker Locker, exhibitions *ExhibitionService) *ArtworkService {
	return &ArtworkService{uow: uow, storage: storage, locker: locker, exhibitions: exhibitions}
}

type validatedUpload struct {
	size     model.Size
	estimate decimal.Decimal
}

func validateUpload(in *UploadArtworkInput, file *UploadedFile) (*validatedUpload, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return nil, ErrValidation("标题不能为空")
	}
	if in.Description == "" {
		return nil, ErrValidation("描述不能为空")
	}
	size, err := model.ParseSize(in.Size)
	if err != nil {
		return nil, ErrValidation(fmt.Sprintf("尺寸格式错误: %q，应为如 3平方尺", in.Size))
	}

	estimate := decimal.Zero
	if raw := strings.TrimSpace(in.EstimatedPrice); raw != "" {
		estimate, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, ErrValidation("估价格式错误")
		}
	}
	if estimate.IsNegative() {
		return nil, ErrValidation("估价不能为负")
	}

	if file == nil || len(file.Data) == 0 {
		return nil, ErrValidation("未上传图片")
	}
	if len(file.Data) > MaxUploadSize {
		return nil, ErrValidation("图片不能超过 5MB")
	}
	return &validatedUpload{size: size, estimate: estimate.Round(2)}, nil
}

// UploadArtwork 上传作品
//
// 顺序：校验 → 查画家 → 上传对象存储 → 画家锁内分配序号并入库 → 释放锁 → 办展检查。
// 入库失败时尽力删除已上传对象；办展检查失败只记入 Warnings。
func (s *ArtworkService) UploadArtwork(ctx context.Context, artistUserID int64, in *UploadArtworkInput, file *UploadedFile) (*UploadResult, error) {
	v, err := validateUpload(in, file)
	if err != nil {
		return nil, err
	}

	artist, err := s.uow.Artists.GetByUserID(ctx, artistUserID)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	if artist == nil {
		return nil, ErrNotFound("画家不存在")
	}

	url, err := s.storage.Upload(ctx, file.Data, file.Filename, file.ContentType)
	if err != nil {
		return nil, ErrExternal("图片上传失败", err)
	}

	artwork := &model.Artwork{
		ArtistID:       artist.ID,
		ArtistName:     artist.Name,
		Title:          in.Title,
		Description:    in.Description,
		Theme:          strings.TrimSpace(in.Theme),
		EstimatedPrice: v.estimate,
		CreationDate:   time.Now(),
		Size:           strings.TrimSpace(in.Size),
		SizeValue:      v.size.Value,
		SizeUnit:       v.size.Unit,
		ImageURL:       url,
	}
	if in.CreationDate != nil {
		artwork.CreationDate = *in.CreationDate
	}

	if err := s.insertWithSerial(ctx, artwork); err != nil {
		if delErr := s.storage.Delete(ctx, url); delErr != nil && !errors.Is(delErr, ErrObjectNotFound) {
			log.Printf("[Artwork] 回滚上传对象 %s 失败: %v", url, delErr)
		}
		return nil, wrapInternal("保存作品失败", err)
	}

	result := &UploadResult{Artwork: artwork}
	exhibition, err := s.exhibitions.EvaluateThreshold(ctx, artist.ID)
	if err != nil {
		log.Printf("[Artwork] 画家 %d 办展检查失败: %v", artist.ID, err)
		result.Warnings = append(result.Warnings, "办展检查失败: "+MessageOf(err))
	}
	result.Exhibition = exhibition
	return result, nil
}

// insertWithSerial 画家锁内分配最小未用序号并插入
func (s *ArtworkService) insertWithSerial(ctx context.Context, artwork *model.Artwork) error {
	unlock, err := s.locker.Lock(ctx, ArtistLockKey(artwork.ArtistID))
	if err != nil {
		return ErrInternal("获取画家锁失败", err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		err = s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
			used, err := tx.Artworks.ListSerialNumbers(ctx, artwork.ArtistID)
			if err != nil {
				return err
			}
			artwork.ID = 0
			artwork.SerialNumber = NextSerialNumber(used)
			return tx.Artworks.Create(ctx, artwork)
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= serialInsertRetries {
			return err
		}
		log.Printf("[Artwork] 画家 %d 序号 %d 冲突，重试第 %d 次", artwork.ArtistID, artwork.SerialNumber, attempt)
	}
}

// Get 作品详情
func (s *ArtworkService) Get(ctx context.Context, id int64) (*model.Artwork, error) {
	artwork, err := s.uow.Artworks.GetByID(ctx, id)
	if err != nil {
		return nil, ErrInternal("查询作品失败", err)
	}
	if artwork == nil {
		return nil, ErrNotFound("作品不存在")
	}
	return artwork, nil
}

// ListByArtistUser 画家名下全部作品
func (s *ArtworkService) ListByArtistUser(ctx context.Context, artistUserID int64) ([]model.Artwork, error) {
	artist, err := s.uow.Artists.GetByUserID(ctx, artistUserID)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	if artist == nil {
		return nil, ErrNotFound("画家不存在")
	}
	list, err := s.uow.Artworks.ListByArtist(ctx, artist.ID)
	if err != nil {
		return nil, ErrInternal("查询作品失败", err)
	}
	return list, nil
}

// Search 在公司旗下画家的作品中按标题或画家名搜索
func (s *ArtworkService) Search(ctx context.Context, companyUserID int64, query string) ([]model.Artwork, error) {
	company, err := s.uow.Companies.GetByUserID(ctx, companyUserID)
	if err != nil {
		return nil, ErrInternal("查询公司失败", err)
	}
	if company == nil {
		return nil, ErrNotFound("公司不存在")
	}
	artists, err := s.uow.Artists.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	ids := make([]int64, 0, len(artists))
	for _, a := range artists {
		ids = append(ids, a.ID)
	}
	list, err := s.uow.Artworks.Search(ctx, ids, query)
	if err != nil {
		return nil, ErrInternal("搜索作品失败", err)
	}
	return list, nil
}

// Delete 删除作品：先删存储对象（不存在视为成功），再在事务内删成交记录与作品
func (s *ArtworkService) Delete(ctx context.Context, id int64) error {
	artwork, err := s.uow.Artworks.GetByID(ctx, id)
	if err != nil {
		return ErrInternal("查询作品失败", err)
	}
	if artwork == nil {
		return ErrNotFound("作品不存在")
	}

	if artwork.ImageURL != "" {
		if err := s.storage.Delete(ctx, artwork.ImageURL); err != nil {
			if !errors.Is(err, ErrObjectNotFound) {
				return ErrExternal("删除作品图片失败", err)
			}
			log.Printf("[Artwork] 作品 %d 图片已不存在: %s", artwork.ID, artwork.ImageURL)
		}
	}

	err = s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		if err := tx.Sales.DeleteByArtworkID(ctx, id); err != nil {
			return err
		}
		return tx.Artworks.Delete(ctx, id)
	})
	if err != nil {
		return ErrInternal("删除作品失败", err)
	}
	return nil
}

// CanManage 作品的画家本人、其签约公司与管理员可以结算/删除
func (s *ArtworkService) CanManage(ctx context.Context, userID int64, role model.UserRole, artworkID int64) (bool, error) {
	if role == model.RoleAdmin {
		return true, nil
	}
	artwork, err := s.Get(ctx, artworkID)
	if err != nil {
		return false, err
	}
	artist, err := s.uow.Artists.GetByID(ctx, artwork.ArtistID)
	if err != nil {
		return false, ErrInternal("查询画家失败", err)
	}
	if artist == nil {
		return false, nil
	}
	if artist.UserID == userID {
		return true, nil
	}
	if role != model.RoleCompany || !artist.IsAffiliated() {
		return false, nil
	}
	company, err := s.uow.Companies.GetByUserID(ctx, userID)
	if err != nil {
		return false, ErrInternal("查询公司失败", err)
	}
	return company != nil && artist.AffiliatedWith(company.ID), nil
}
