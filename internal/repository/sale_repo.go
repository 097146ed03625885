package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hualang_api/internal/model"
)

// SaleRepository 成交记录仓储接口
type SaleRepository interface {
	GetByArtworkID(ctx context.Context, artworkID int64) (*model.Sale, error)
	// Upsert 以 artwork_id 为键插入或原地更新
	Upsert(ctx context.Context, sale *model.Sale) error
	DeleteByArtworkID(ctx context.Context, artworkID int64) error
	// DetachArtwork 作品被清理时保留台账，只断开关联
	DetachArtwork(ctx context.Context, artworkID int64) error

	StatsByArtist(ctx context.Context, artistID int64) (*SaleStats, error)
	ListByCompanySince(ctx context.Context, companyID int64, since time.Time) ([]model.Sale, error)
}

// SaleStats 画家销售汇总
type SaleStats struct {
	TotalSalesAmount   decimal.Decimal
	TotalArtistPayment decimal.Decimal
	Count              int64
}

type saleRepo struct {
	db *gorm.DB
}

// NewSaleRepository 创建成交记录仓储
func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepo{db: db}
}

func (r *saleRepo) GetByArtworkID(ctx context.Context, artworkID int64) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).Where("artwork_id = ?", artworkID).First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepo) Upsert(ctx context.Context, sale *model.Sale) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "artwork_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sale_price", "artist_payment", "profit", "sale_date", "updated_at", "updated_by",
		}),
	}).Create(sale).Error
}

func (r *saleRepo) DeleteByArtworkID(ctx context.Context, artworkID int64) error {
	return r.db.WithContext(ctx).Where("artwork_id = ?", artworkID).Delete(&model.Sale{}).Error
}

func (r *saleRepo) DetachArtwork(ctx context.Context, artworkID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Sale{}).
		Where("artwork_id = ?", artworkID).
		Update("artwork_id", nil).Error
}

// StatsByArtist 汇总画家全部成交（含已清理作品的台账）
func (r *saleRepo) StatsByArtist(ctx context.Context, artistID int64) (*SaleStats, error) {
	var row struct {
		TotalSalesAmount   decimal.NullDecimal
		TotalArtistPayment decimal.NullDecimal
		Count              int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Sale{}).
		Select("COALESCE(SUM(sale_price), 0) AS total_sales_amount, COALESCE(SUM(artist_payment), 0) AS total_artist_payment, COUNT(*) AS count").
		Where("artist_id = ?", artistID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &SaleStats{
		TotalSalesAmount:   row.TotalSalesAmount.Decimal.Round(2),
		TotalArtistPayment: row.TotalArtistPayment.Decimal.Round(2),
		Count:              row.Count,
	}, nil
}

func (r *saleRepo) ListByCompanySince(ctx context.Context, companyID int64, since time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND sale_date >= ?", companyID, since).
		Order("sale_date ASC").
		Find(&sales).Error
	return sales, err
}
