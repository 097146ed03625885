package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hualang_api/internal/model"
)

// ArtworkRepository 作品仓储接口
type ArtworkRepository interface {
	Create(ctx context.Context, artwork *model.Artwork) error
	GetByID(ctx context.Context, id int64) (*model.Artwork, error)
	// GetByIDForUpdate 事务内加行锁读取（仅 PostgreSQL 生效）
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Artwork, error)
	Update(ctx context.Context, artwork *model.Artwork) error
	Delete(ctx context.Context, id int64) error

	ListByArtist(ctx context.Context, artistID int64) ([]model.Artwork, error)
	CountByArtist(ctx context.Context, artistID int64) (int64, error)
	ListSerialNumbers(ctx context.Context, artistID int64) ([]int, error)
	Search(ctx context.Context, artistIDs []int64, query string) ([]model.Artwork, error)
	FindSoldBefore(ctx context.Context, before time.Time, afterID int64, limit int) ([]model.Artwork, error)
}

type artworkRepo struct {
	db *gorm.DB
}

// NewArtworkRepository 创建作品仓储
func NewArtworkRepository(db *gorm.DB) ArtworkRepository {
	return &artworkRepo{db: db}
}

func (r *artworkRepo) Create(ctx context.Context, artwork *model.Artwork) error {
	return r.db.WithContext(ctx).Create(artwork).Error
}

func (r *artworkRepo) GetByID(ctx context.Context, id int64) (*model.Artwork, error) {
	var artwork model.Artwork
	err := r.db.WithContext(ctx).First(&artwork, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &artwork, err
}

func (r *artworkRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Artwork, error) {
	var artwork model.Artwork
	tx := r.db.WithContext(ctx)
	// sqlite 不支持 FOR UPDATE，单连接下本身即串行
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.First(&artwork, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &artwork, err
}

func (r *artworkRepo) Update(ctx context.Context, artwork *model.Artwork) error {
	return r.db.WithContext(ctx).Save(artwork).Error
}

func (r *artworkRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Artwork{}, id).Error
}

func (r *artworkRepo) ListByArtist(ctx context.Context, artistID int64) ([]model.Artwork, error) {
	var artworks []model.Artwork
	err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("serial_number ASC").
		Find(&artworks).Error
	return artworks, err
}

func (r *artworkRepo) CountByArtist(ctx context.Context, artistID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Artwork{}).
		Where("artist_id = ?", artistID).
		Count(&count).Error
	return count, err
}

// ListSerialNumbers 画家名下已占用的序号（升序）
func (r *artworkRepo) ListSerialNumbers(ctx context.Context, artistID int64) ([]int, error) {
	var serials []int
	err := r.db.WithContext(ctx).
		Model(&model.Artwork{}).
		Where("artist_id = ?", artistID).
		Order("serial_number ASC").
		Pluck("serial_number", &serials).Error
	return serials, err
}

// Search 在给定画家范围内按标题或画家名搜索
func (r *artworkRepo) Search(ctx context.Context, artistIDs []int64, query string) ([]model.Artwork, error) {
	var artworks []model.Artwork
	if len(artistIDs) == 0 {
		return artworks, nil
	}

	tx := r.db.WithContext(ctx).Where("artist_id IN ?", artistIDs)
	if q := strings.TrimSpace(query); q != "" {
		keyword := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(artist_name) LIKE ?", keyword, keyword)
	}
	err := tx.Order("artist_id ASC, serial_number ASC").Find(&artworks).Error
	return artworks, err
}

// FindSoldBefore 售出时间早于 before 且 id 大于 afterID 的作品，按 id 分页供定时清理使用
func (r *artworkRepo) FindSoldBefore(ctx context.Context, before time.Time, afterID int64, limit int) ([]model.Artwork, error) {
	var artworks []model.Artwork
	tx := r.db.WithContext(ctx).
		Where("is_sold = ? AND sale_date IS NOT NULL AND sale_date <= ?", true, before).
		Where("id > ?", afterID).
		Order("id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Find(&artworks).Error
	return artworks, err
}
