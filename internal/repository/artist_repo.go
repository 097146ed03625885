package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hualang_api/internal/model"
)

// ArtistRepository 画家仓储接口
type ArtistRepository interface {
	Create(ctx context.Context, artist *model.Artist) error
	GetByID(ctx context.Context, id int64) (*model.Artist, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Artist, error)
	// GetByUserIDForUpdate 事务内加行锁读取（仅 PostgreSQL 生效）
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.Artist, error)
	Update(ctx context.Context, artist *model.Artist) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	SetCompany(ctx context.Context, id int64, companyID *int64) error

	List(ctx context.Context) ([]model.Artist, error)
	SearchUnaffiliated(ctx context.Context, name string) ([]model.Artist, error)
	ListByCompany(ctx context.Context, companyID int64) ([]model.Artist, error)
	ListByCompanyWithCounts(ctx context.Context, companyID int64) ([]ArtistWithCount, error)
}

// ArtistWithCount 画家及其作品数
type ArtistWithCount struct {
	model.Artist
	ArtworksCount int64 `json:"artworks_count"`
}

type artistRepo struct {
	db *gorm.DB
}

// NewArtistRepository 创建画家仓储
func NewArtistRepository(db *gorm.DB) ArtistRepository {
	return &artistRepo{db: db}
}

func (r *artistRepo) Create(ctx context.Context, artist *model.Artist) error {
	return r.db.WithContext(ctx).Create(artist).Error
}

func (r *artistRepo) GetByID(ctx context.Context, id int64) (*model.Artist, error) {
	var artist model.Artist
	err := r.db.WithContext(ctx).First(&artist, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &artist, err
}

func (r *artistRepo) GetByUserID(ctx context.Context, userID int64) (*model.Artist, error) {
	var artist model.Artist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&artist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &artist, err
}

func (r *artistRepo) GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.Artist, error) {
	var artist model.Artist
	tx := r.db.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.Where("user_id = ?", userID).First(&artist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &artist, err
}

func (r *artistRepo) Update(ctx context.Context, artist *model.Artist) error {
	return r.db.WithContext(ctx).Save(artist).Error
}

func (r *artistRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Artist{}).Where("id = ?", id).Updates(fields).Error
}

// SetCompany 设置/清空签约公司，companyID 为 nil 时解约
func (r *artistRepo) SetCompany(ctx context.Context, id int64, companyID *int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Artist{}).
		Where("id = ?", id).
		Update("company_id", companyID).Error
}

func (r *artistRepo) List(ctx context.Context) ([]model.Artist, error) {
	var artists []model.Artist
	err := r.db.WithContext(ctx).Order("id ASC").Find(&artists).Error
	return artists, err
}

// SearchUnaffiliated 按名字模糊搜索未签约画家
func (r *artistRepo) SearchUnaffiliated(ctx context.Context, name string) ([]model.Artist, error) {
	var artists []model.Artist
	keyword := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? AND company_id IS NULL", keyword).
		Order("id ASC").
		Find(&artists).Error
	return artists, err
}

func (r *artistRepo) ListByCompany(ctx context.Context, companyID int64) ([]model.Artist, error) {
	var artists []model.Artist
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&artists).Error
	return artists, err
}

// ListByCompanyWithCounts 公司旗下画家及各自作品数
func (r *artistRepo) ListByCompanyWithCounts(ctx context.Context, companyID int64) ([]ArtistWithCount, error) {
	artists, err := r.ListByCompany(ctx, companyID)
	if err != nil || len(artists) == 0 {
		return nil, err
	}

	ids := make([]int64, 0, len(artists))
	for _, a := range artists {
		ids = append(ids, a.ID)
	}

	var rows []struct {
		ArtistID int64
		Total    int64
	}
	err = r.db.WithContext(ctx).
		Model(&model.Artwork{}).
		Select("artist_id, COUNT(*) AS total").
		Where("artist_id IN ?", ids).
		Group("artist_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.ArtistID] = row.Total
	}

	result := make([]ArtistWithCount, 0, len(artists))
	for _, a := range artists {
		result = append(result, ArtistWithCount{Artist: a, ArtworksCount: counts[a.ID]})
	}
	return result, nil
}
