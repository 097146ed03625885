package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hualang_api/internal/model"
	"hualang_api/internal/repository"
)

// SettlementResult 结算结果
type SettlementResult struct {
	Artwork       *model.Artwork   `json:"artwork"`
	ArtistPayment *decimal.Decimal `json:"artistPayment,omitempty"`
	Profit        *decimal.Decimal `json:"profit,omitempty"`
}

// SettlementService 作品售出结算
type SettlementService struct {
	uow *repository.LedgerUnitOfWork
	now func() time.Time
}

func NewSettlementService(uow *repository.LedgerUnitOfWork) *SettlementService {
	return &SettlementService{uow: uow, now: time.Now}
}

// SettleArtwork 标记作品售出或撤销售出
//
// 售出：画家报酬 = 签约价 × 面积(平方尺)，利润 = 成交价 − 画家报酬，
// 成交记录按作品 upsert；撤销：清空售出信息并删除成交记录（幂等）。
// 整个过程在一个事务内，作品行在 PostgreSQL 上加 FOR UPDATE 锁。
func (s *SettlementService) SettleArtwork(ctx context.Context, artworkID int64, isSold bool, salePrice *decimal.Decimal) (*SettlementResult, error) {
	if isSold {
		if salePrice == nil {
			return nil, ErrValidation("售出时必须提供成交价")
		}
		if salePrice.IsNegative() {
			return nil, ErrValidation("成交价不能为负")
		}
	}

	result := &SettlementResult{}
	err := s.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		artwork, err := tx.Artworks.GetByIDForUpdate(ctx, artworkID)
		if err != nil {
			return err
		}
		if artwork == nil {
			return ErrNotFound("作品不存在")
		}
		artist, err := tx.Artists.GetByID(ctx, artwork.ArtistID)
		if err != nil {
			return err
		}
		if artist == nil {
			return ErrNotFound("画家不存在")
		}

		if !isSold {
			artwork.MarkUnsold()
			if err := tx.Artworks.Update(ctx, artwork); err != nil {
				return err
			}
			if err := tx.Sales.DeleteByArtworkID(ctx, artwork.ID); err != nil {
				return err
			}
			result.Artwork = artwork
			return nil
		}

		payment := artist.SignPrice.Mul(artwork.ParsedSize().Area()).Round(2)
		price := salePrice.Round(2)
		profit := price.Sub(payment)
		now := s.now()

		artwork.MarkSold(price, now)
		if err := tx.Artworks.Update(ctx, artwork); err != nil {
			return err
		}

		artworkRef := artwork.ID
		sale := &model.Sale{
			ArtworkID:     &artworkRef,
			ArtistID:      artist.ID,
			CompanyID:     artist.CompanyID,
			ArtworkTitle:  artwork.Title,
			ArtworkSize:   artwork.Size,
			ArtworkTheme:  artwork.Theme,
			SalePrice:     price,
			ArtistPayment: payment,
			Profit:        profit,
			SaleDate:      now,
		}
		if err := tx.Sales.Upsert(ctx, sale); err != nil {
			return err
		}

		result.Artwork = artwork
		result.ArtistPayment = &payment
		result.Profit = &profit
		return nil
	})
	if err != nil {
		return nil, wrapInternal("结算失败", err)
	}
	return result, nil
}
