package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"hualang_api/internal/model"
	"hualang_api/internal/repository"
)

// ExhibitionService 办展
type ExhibitionService struct {
	uow           *repository.LedgerUnitOfWork
	locker        Locker
	notifications *NotificationService
}

func NewExhibitionService(uow *repository.LedgerUnitOfWork, locker Locker, notifications *NotificationService) *ExhibitionService {
	return &ExhibitionService{uow: uow, locker: locker, notifications: notifications}
}

// ThresholdAlertContent 达到办展要求时发给公司的提醒
func ThresholdAlertContent(artistName string, count int64) string {
	return fmt.Sprintf("画家 %s 已达到办展要求，目前作品数量为 %d 件。", artistName, count)
}

// EvaluateThreshold 作品入库提交后调用
// 作品数达到办展数时：更新筹备中的展览或新建一个；已签约则提醒公司
// 未达到时返回 (nil, nil)
func (s *ExhibitionService) EvaluateThreshold(ctx context.Context, artistID int64) (*model.Exhibition, error) {
	unlock, err := s.locker.Lock(ctx, ArtistLockKey(artistID))
	if err != nil {
		return nil, ErrInternal("获取画家锁失败", err)
	}
	defer unlock()

	var (
		exhibition *model.Exhibition
		alert      *model.Notification
	)
	err = s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		artist, err := tx.Artists.GetByID(ctx, artistID)
		if err != nil {
			return err
		}
		if artist == nil {
			return ErrNotFound("画家不存在")
		}

		count, err := tx.Artworks.CountByArtist(ctx, artistID)
		if err != nil {
			return err
		}
		quota := artist.ExhibitionsHeld
		if quota < 1 {
			quota = model.DefaultExhibitionQuota
		}
		if count < int64(quota) {
			return nil
		}

		exhibition, err = tx.Exhibitions.FindOpenByArtist(ctx, artistID)
		if err != nil {
			return err
		}
		if exhibition != nil {
			exhibition.ArtworkCount = int(count)
			exhibition.CompanyID = artist.CompanyID
			exhibition.ArtistName = artist.Name
			if err := tx.Exhibitions.Update(ctx, exhibition); err != nil {
				return err
			}
		} else {
			exhibition = &model.Exhibition{
				ArtistID:     artist.ID,
				ArtistUserID: artist.UserID,
				ArtistName:   artist.Name,
				CompanyID:    artist.CompanyID,
				ArtworkCount: int(count),
				Date:         time.Now(),
				Status:       model.ExhibitionStatusOpen,
			}
			if err := tx.Exhibitions.Create(ctx, exhibition); err != nil {
				return err
			}
		}

		if !artist.IsAffiliated() {
			return nil
		}
		company, err := tx.Companies.GetByID(ctx, *artist.CompanyID)
		if err != nil {
			return err
		}
		if company == nil {
			log.Printf("[Exhibition] 画家 %d 的签约公司 %d 不存在，跳过提醒", artist.ID, *artist.CompanyID)
			return nil
		}
		alert = &model.Notification{
			SenderID:   artist.UserID,
			ReceiverID: company.UserID,
			Type:       model.NotificationAlert,
			Status:     model.NotificationPending,
			Content:    ThresholdAlertContent(artist.Name, count),
			Payload: map[string]interface{}{
				"artist_id":     artist.ID,
				"exhibition_id": exhibition.ID,
				"artwork_count": count,
			},
		}
		return tx.Notifications.Create(ctx, alert)
	})
	if err != nil {
		return nil, wrapInternal("办展检查失败", err)
	}

	s.notifications.Publish(ctx, alert)
	return exhibition, nil
}

// ==================== 管理接口 ====================

// CreateExhibitionInput 手动创建展览
type CreateExhibitionInput struct {
	ArtistUserID  int64     `json:"artistUserId" binding:"required"`
	ArtworkCount  int       `json:"artworkCount"`
	Date          time.Time `json:"date"`
	CompanyUserID int64     `json:"companyUserId"`
}

func (s *ExhibitionService) Create(ctx context.Context, in *CreateExhibitionInput) (*model.Exhibition, error) {
	artist, err := s.uow.Artists.GetByUserID(ctx, in.ArtistUserID)
	if err != nil {
		return nil, ErrInternal("查询画家失败", err)
	}
	if artist == nil {
		return nil, ErrNotFound("画家不存在")
	}
	if in.ArtworkCount < 0 {
		return nil, ErrValidation("作品数不能为负")
	}

	companyID := artist.CompanyID
	if in.CompanyUserID > 0 {
		company, err := s.uow.Companies.GetByUserID(ctx, in.CompanyUserID)
		if err != nil {
			return nil, ErrInternal("查询公司失败", err)
		}
		if company == nil {
			return nil, ErrNotFound("公司不存在")
		}
		companyID = &company.ID
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	exhibition := &model.Exhibition{
		ArtistID:     artist.ID,
		ArtistUserID: artist.UserID,
		ArtistName:   artist.Name,
		CompanyID:    companyID,
		ArtworkCount: in.ArtworkCount,
		Date:         date,
		Status:       model.ExhibitionStatusOpen,
	}
	if err := s.uow.Exhibitions.Create(ctx, exhibition); err != nil {
		return nil, ErrInternal("创建展览失败", err)
	}
	return exhibition, nil
}

func (s *ExhibitionService) List(ctx context.Context) ([]model.Exhibition, error) {
	list, err := s.uow.Exhibitions.List(ctx)
	if err != nil {
		return nil, ErrInternal("查询展览失败", err)
	}
	return list, nil
}

// ListByCompanyUser 按公司用户 ID 查询
func (s *ExhibitionService) ListByCompanyUser(ctx context.Context, companyUserID int64) ([]model.Exhibition, error) {
	company, err := s.uow.Companies.GetByUserID(ctx, companyUserID)
	if err != nil {
		return nil, ErrInternal("查询公司失败", err)
	}
	if company == nil {
		return nil, ErrNotFound("公司不存在")
	}
	list, err := s.uow.Exhibitions.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, ErrInternal("查询展览失败", err)
	}
	return list, nil
}

// Close 结束展览，之后达到办展数会新建展览
func (s *ExhibitionService) Close(ctx context.Context, id int64) (*model.Exhibition, error) {
	exhibition, err := s.uow.Exhibitions.GetByID(ctx, id)
	if err != nil {
		return nil, ErrInternal("查询展览失败", err)
	}
	if exhibition == nil {
		return nil, ErrNotFound("展览不存在")
	}
	if exhibition.Status == model.ExhibitionStatusClosed {
		return exhibition, nil
	}
	exhibition.Status = model.ExhibitionStatusClosed
	if err := s.uow.Exhibitions.Update(ctx, exhibition); err != nil {
		return nil, ErrInternal("更新展览失败", err)
	}
	return exhibition, nil
}

func (s *ExhibitionService) Delete(ctx context.Context, id int64) error {
	exhibition, err := s.uow.Exhibitions.GetByID(ctx, id)
	if err != nil {
		return ErrInternal("查询展览失败", err)
	}
	if exhibition == nil {
		return ErrNotFound("展览不存在")
	}
	if err := s.uow.Exhibitions.Delete(ctx, id); err != nil {
		return ErrInternal("删除展览失败", err)
	}
	return nil
}

// CanManage 管理员、所属公司或画家本人可以结束/删除展览
func (s *ExhibitionService) CanManage(ctx context.Context, userID int64, role model.UserRole, exhibitionID int64) (bool, error) {
	exhibition, err := s.uow.Exhibitions.GetByID(ctx, exhibitionID)
	if err != nil {
		return false, ErrInternal("查询展览失败", err)
	}
	if exhibition == nil {
		return false, ErrNotFound("展览不存在")
	}

	switch role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleArtist:
		return exhibition.ArtistUserID == userID, nil
	case model.RoleCompany:
		if exhibition.CompanyID == nil {
			return false, nil
		}
		company, err := s.uow.Companies.GetByUserID(ctx, userID)
		if err != nil {
			return false, ErrInternal("查询公司失败", err)
		}
		return company != nil && company.ID == *exhibition.CompanyID, nil
	default:
		return false, nil
	}
}
