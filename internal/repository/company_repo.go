package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"hualang_api/internal/model"
)

// CompanyRepository 公司仓储接口
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id int64) (*model.Company, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Company, error)
	Update(ctx context.Context, company *model.Company) error
}

type companyRepo struct {
	db *gorm.DB
}

// NewCompanyRepository 创建公司仓储
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepo) GetByID(ctx context.Context, id int64) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).First(&company, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &company, err
}

func (r *companyRepo) GetByUserID(ctx context.Context, userID int64) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &company, err
}

func (r *companyRepo) Update(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}
