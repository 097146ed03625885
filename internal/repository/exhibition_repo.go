package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"hualang_api/internal/model"
)

// ExhibitionRepository 办展记录仓储接口
type ExhibitionRepository interface {
	Create(ctx context.Context, exhibition *model.Exhibition) error
	GetByID(ctx context.Context, id int64) (*model.Exhibition, error)
	Update(ctx context.Context, exhibition *model.Exhibition) error
	Delete(ctx context.Context, id int64) error

	// FindOpenByArtist 画家当前筹备中的展览，没有时返回 nil
	FindOpenByArtist(ctx context.Context, artistID int64) (*model.Exhibition, error)
	List(ctx context.Context) ([]model.Exhibition, error)
	ListByCompany(ctx context.Context, companyID int64) ([]model.Exhibition, error)
}

type exhibitionRepo struct {
	db *gorm.DB
}

// NewExhibitionRepository 创建办展记录仓储
func NewExhibitionRepository(db *gorm.DB) ExhibitionRepository {
	return &exhibitionRepo{db: db}
}

func (r *exhibitionRepo) Create(ctx context.Context, exhibition *model.Exhibition) error {
	return r.db.WithContext(ctx).Create(exhibition).Error
}

func (r *exhibitionRepo) GetByID(ctx context.Context, id int64) (*model.Exhibition, error) {
	var exhibition model.Exhibition
	err := r.db.WithContext(ctx).First(&exhibition, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &exhibition, err
}

func (r *exhibitionRepo) Update(ctx context.Context, exhibition *model.Exhibition) error {
	return r.db.WithContext(ctx).Save(exhibition).Error
}

func (r *exhibitionRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Exhibition{}, id).Error
}

func (r *exhibitionRepo) FindOpenByArtist(ctx context.Context, artistID int64) (*model.Exhibition, error) {
	var exhibition model.Exhibition
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND status = ?", artistID, model.ExhibitionStatusOpen).
		Order("id DESC").
		First(&exhibition).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &exhibition, err
}

func (r *exhibitionRepo) List(ctx context.Context) ([]model.Exhibition, error) {
	var exhibitions []model.Exhibition
	err := r.db.WithContext(ctx).Order("date DESC, id DESC").Find(&exhibitions).Error
	return exhibitions, err
}

func (r *exhibitionRepo) ListByCompany(ctx context.Context, companyID int64) ([]model.Exhibition, error) {
	var exhibitions []model.Exhibition
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("date DESC, id DESC").
		Find(&exhibitions).Error
	return exhibitions, err
}
