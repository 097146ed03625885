package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hualang_api/internal/middleware"
	"hualang_api/internal/model"
	"hualang_api/internal/repository"
)

// ==================== AuthService 认证服务 ====================

// RegisterInput 注册参数
type RegisterInput struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=6"`
	Role     model.UserRole `json:"role" binding:"required"`
}

// LoginInput 登录参数
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResult 登录/刷新结果
type TokenResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *model.User `json:"user,omitempty"`
}

// AuthService 认证服务
type AuthService struct {
	uow *repository.LedgerUnitOfWork
}

// NewAuthService 创建认证服务
func NewAuthService(uow *repository.LedgerUnitOfWork) *AuthService {
	return &AuthService{uow: uow}
}

// Register 注册用户，同一事务内创建画家或公司档案
func (s *AuthService) Register(ctx context.Context, in *RegisterInput) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" {
		return nil, ErrValidation("姓名和邮箱不能为空")
	}
	// 管理员不开放注册
	if in.Role != model.RoleArtist && in.Role != model.RoleCompany {
		return nil, ErrValidation("角色只能是 artist 或 company")
	}
	if len(in.Password) < 6 {
		return nil, ErrValidation("密码至少 6 位")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternal("密码加密失败", err)
	}

	user := &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     in.Role,
		Status:   model.UserStatusActive,
	}

	err = s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		exists, err := tx.Users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrConflict("邮箱已被注册")
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}

		switch in.Role {
		case model.RoleArtist:
			return tx.Artists.Create(ctx, &model.Artist{
				UserID:          user.ID,
				Name:            user.Name,
				Email:           user.Email,
				ExhibitionsHeld: model.DefaultExhibitionQuota,
			})
		default:
			return tx.Companies.Create(ctx, &model.Company{
				UserID:     user.ID,
				Name:       user.Name,
				Email:      user.Email,
				Membership: model.MembershipTrial,
			})
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict("邮箱已被注册")
		}
		return nil, err
	}
	return user, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, in *LoginInput) (*TokenResult, error) {
	user, err := s.uow.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	_ = s.uow.Users.UpdateLastLogin(ctx, user.ID)
	result.User = user
	return result, nil
}

// Refresh 用 Refresh Token 换新 Token 对
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil || claims.Subject != middleware.TokenSubjectRefresh {
		return nil, ErrInvalidToken
	}

	// 确保用户仍然有效
	user, err := s.uow.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != model.UserStatusActive {
		return nil, ErrUserDisabled
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*TokenResult, error) {
	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, ErrInternal("生成 Token 失败", err)
	}
	return &TokenResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(middleware.GetJWTConfig().AccessTokenTTL),
	}, nil
}
