package repository

import (
	"context"

	"gorm.io/gorm"
)

// ==================== 事务支持 ====================

// LedgerUnitOfWork 台账工作单元（事务）
// 结算、签约、上传等跨表操作通过它在同一事务内拿到全部仓储
type LedgerUnitOfWork struct {
	db            *gorm.DB
	Users         UserRepository
	Artists       ArtistRepository
	Companies     CompanyRepository
	Artworks      ArtworkRepository
	Sales         SaleRepository
	Exhibitions   ExhibitionRepository
	Notifications NotificationRepository
}

// NewLedgerUnitOfWork 创建工作单元
func NewLedgerUnitOfWork(db *gorm.DB) *LedgerUnitOfWork {
	return newLedgerUnitOfWork(db)
}

func newLedgerUnitOfWork(db *gorm.DB) *LedgerUnitOfWork {
	return &LedgerUnitOfWork{
		db:            db,
		Users:         NewUserRepository(db),
		Artists:       NewArtistRepository(db),
		Companies:     NewCompanyRepository(db),
		Artworks:      NewArtworkRepository(db),
		Sales:         NewSaleRepository(db),
		Exhibitions:   NewExhibitionRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// Transaction 执行事务，fn 返回错误即回滚
func (u *LedgerUnitOfWork) Transaction(ctx context.Context, fn func(uow *LedgerUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newLedgerUnitOfWork(tx))
	})
}
