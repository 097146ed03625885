package service

import (
	"context"
	"fmt"
	"strings"

	"hualang_api/internal/model"
	"hualang_api/internal/repository"
)

// AffiliationService 画家与公司的签约/解约
type AffiliationService struct {
	uow           *repository.LedgerUnitOfWork
	notifications *NotificationService
}

func NewAffiliationService(uow *repository.LedgerUnitOfWork, notifications *NotificationService) *AffiliationService {
	return &AffiliationService{uow: uow, notifications: notifications}
}

// parties 邀请双方的档案
type parties struct {
	artist  *model.Artist
	company *model.Company
}

// resolveParties 收发双方必须一方为画家一方为公司，顺序不限
// lockArtist 为 true 时在事务内锁住画家行
func resolveParties(ctx context.Context, tx *repository.LedgerUnitOfWork, userA, userB int64, lockArtist bool) (*parties, error) {
	a, err := tx.Users.GetByID(ctx, userA)
	if err != nil {
		return nil, err
	}
	b, err := tx.Users.GetByID(ctx, userB)
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, ErrNotFound("用户不存在")
	}

	var artistUser, companyUser *model.User
	switch {
	case a.Role == model.RoleArtist && b.Role == model.RoleCompany:
		artistUser, companyUser = a, b
	case a.Role == model.RoleCompany && b.Role == model.RoleArtist:
		artistUser, companyUser = b, a
	default:
		return nil, ErrValidation("邀请双方必须分别为画家和公司")
	}

	getArtist := tx.Artists.GetByUserID
	if lockArtist {
		getArtist = tx.Artists.GetByUserIDForUpdate
	}
	artist, err := getArtist(ctx, artistUser.ID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, ErrNotFound("画家不存在")
	}
	company, err := tx.Companies.GetByUserID(ctx, companyUser.ID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound("公司不存在")
	}
	return &parties{artist: artist, company: company}, nil
}

// Invite 发出签约邀请
func (s *AffiliationService) Invite(ctx context.Context, senderID, receiverID int64, content string) (*model.Notification, error) {
	if senderID == receiverID {
		return nil, ErrValidation("不能邀请自己")
	}
	p, err := resolveParties(ctx, s.uow, senderID, receiverID, false)
	if err != nil {
		return nil, wrapInternal("查询邀请双方失败", err)
	}
	if p.artist.AffiliatedWith(p.company.ID) {
		return nil, ErrConflict("画家已签约该公司")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		content = fmt.Sprintf("%s 邀请 %s 签约。", p.company.Name, p.artist.Name)
	}
	n := &model.Notification{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       model.NotificationInvitation,
		Status:     model.NotificationPending,
		Content:    content,
		Payload: map[string]interface{}{
			"artist_id":  p.artist.ID,
			"company_id": p.company.ID,
		},
	}
	if err := s.uow.Notifications.Create(ctx, n); err != nil {
		return nil, ErrInternal("创建邀请失败", err)
	}
	s.notifications.Publish(ctx, n)
	return n, nil
}

// ParseDecision 解析状态参数，rejected 视为 declined
func ParseDecision(raw string) (model.NotificationStatus, error) {
	status := model.NotificationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if status == "rejected" {
		status = model.NotificationDeclined
	}
	if !status.IsValid() {
		return "", ErrValidation("无效的通知状态: " + raw)
	}
	return status, nil
}

// Respond 处理通知状态更新：邀请的接受/拒绝走签约流程，其余只改状态
func (s *AffiliationService) Respond(ctx context.Context, callerID, notificationID int64, rawStatus string) (*model.Notification, error) {
	status, err := ParseDecision(rawStatus)
	if err != nil {
		return nil, err
	}
	if status == model.NotificationAccepted || status == model.NotificationDeclined {
		return s.ResolveInvitation(ctx, callerID, notificationID, status == model.NotificationAccepted)
	}
	return s.notifications.UpdateStatus(ctx, callerID, notificationID, status)
}

// ResolveInvitation 接受或拒绝邀请
// 同一事务内：（接受时）写入签约关系，删除邀请，给邀请方发回执
// 返回回执通知
func (s *AffiliationService) ResolveInvitation(ctx context.Context, callerID, notificationID int64, accepted bool) (*model.Notification, error) {
	var receipt *model.Notification

	err := s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		invitation, err := tx.Notifications.GetByID(ctx, notificationID)
		if err != nil {
			return err
		}
		if invitation == nil {
			return ErrNotFound("通知不存在")
		}
		if invitation.Type != model.NotificationInvitation {
			return ErrValidation("只有签约邀请可以接受或拒绝")
		}
		if invitation.ReceiverID != callerID {
			return ErrForbidden("只有被邀请方可以处理邀请")
		}

		p, err := resolveParties(ctx, tx, invitation.SenderID, invitation.ReceiverID, true)
		if err != nil {
			return err
		}

		content := fmt.Sprintf("%s 已拒绝您的邀请。", p.artist.Name)
		if accepted {
			if p.artist.IsAffiliated() && !p.artist.AffiliatedWith(p.company.ID) {
				return ErrConflict("画家已签约其他公司，请先解约")
			}
			companyID := p.company.ID
			if err := tx.Artists.SetCompany(ctx, p.artist.ID, &companyID); err != nil {
				return err
			}
			content = fmt.Sprintf("%s 已接受您的邀请。", p.artist.Name)
		}

		if err := tx.Notifications.Delete(ctx, invitation.ID); err != nil {
			return err
		}

		receipt = &model.Notification{
			SenderID:   invitation.ReceiverID,
			ReceiverID: invitation.SenderID,
			Type:       model.NotificationAlert,
			Status:     model.NotificationPending,
			Content:    content,
			Payload: map[string]interface{}{
				"artist_id":     p.artist.ID,
				"company_id":    p.company.ID,
				"invitation_id": invitation.ID,
				"accepted":      accepted,
			},
		}
		return tx.Notifications.Create(ctx, receipt)
	})
	if err != nil {
		return nil, wrapInternal("处理邀请失败", err)
	}

	s.notifications.Publish(ctx, receipt)
	return receipt, nil
}

// Unbind 公司与画家解约
func (s *AffiliationService) Unbind(ctx context.Context, companyUserID, artistUserID int64) error {
	company, err := s.uow.Companies.GetByUserID(ctx, companyUserID)
	if err != nil {
		return ErrInternal("查询公司失败", err)
	}
	if company == nil {
		return ErrNotFound("公司不存在")
	}

	err = s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		artist, err := tx.Artists.GetByUserIDForUpdate(ctx, artistUserID)
		if err != nil {
			return ErrInternal("查询画家失败", err)
		}
		if artist == nil {
			return ErrNotFound("画家不存在")
		}
		if !artist.AffiliatedWith(company.ID) {
			return ErrConflict("画家不属于该公司")
		}
		return tx.Artists.SetCompany(ctx, artist.ID, nil)
	})
	return wrapInternal("解约失败", err)
}
