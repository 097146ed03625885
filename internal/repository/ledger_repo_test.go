package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hualang_api/internal/model"
)

func seedArtist(t *testing.T, db *gorm.DB, userID int64, name string, companyID *int64) *model.Artist {
	artist := &model.Artist{
		UserID:          userID,
		Name:            name,
		SignPrice:       decimal.NewFromInt(100),
		ExhibitionsHeld: model.DefaultExhibitionQuota,
		CompanyID:       companyID,
	}
	require.NoError(t, NewArtistRepository(db).Create(context.Background(), artist))
	return artist
}

func seedArtwork(t *testing.T, db *gorm.DB, artist *model.Artist, serial int, title string) *model.Artwork {
	artwork := &model.Artwork{
		ArtistID:     artist.ID,
		ArtistName:   artist.Name,
		Title:        title,
		Size:         "2平方尺",
		SizeValue:    decimal.NewFromInt(2),
		SizeUnit:     model.UnitSquareChi,
		ImageURL:     "/uploads/x.jpg",
		SerialNumber: serial,
		CreationDate: time.Now(),
	}
	require.NoError(t, NewArtworkRepository(db).Create(context.Background(), artwork))
	return artwork
}

func TestArtworkRepo_SerialNumbersAndUniqueness(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()
	repo := NewArtworkRepository(db)

	artist := seedArtist(t, db, 1, "张三", nil)
	seedArtwork(t, db, artist, 3, "山水")
	seedArtwork(t, db, artist, 1, "花鸟")

	serials, err := repo.ListSerialNumbers(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, serials)

	count, err := repo.CountByArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	dup := &model.Artwork{ArtistID: artist.ID, Title: "重复", Size: "1", SizeUnit: model.UnitSquareChi, ImageURL: "x", SerialNumber: 3}
	err = repo.Create(ctx, dup)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "重复序号应被唯一索引拦截: %v", err)
}

func TestArtworkRepo_Search(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()
	repo := NewArtworkRepository(db)

	a := seedArtist(t, db, 1, "齐白石", nil)
	b := seedArtist(t, db, 2, "徐悲鸿", nil)
	seedArtwork(t, db, a, 1, "虾")
	seedArtwork(t, db, b, 1, "奔马")

	list, err := repo.Search(ctx, []int64{a.ID, b.ID}, "马")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "奔马", list[0].Title)

	list, err = repo.Search(ctx, []int64{a.ID, b.ID}, "齐白")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "虾", list[0].Title)

	list, err = repo.Search(ctx, nil, "马")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestArtworkRepo_FindSoldBefore(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()
	repo := NewArtworkRepository(db)

	artist := seedArtist(t, db, 1, "张三", nil)
	old := seedArtwork(t, db, artist, 1, "旧")
	fresh := seedArtwork(t, db, artist, 2, "新")
	seedArtwork(t, db, artist, 3, "未售")

	now := time.Now()
	old.MarkSold(decimal.NewFromInt(300), now.AddDate(0, 0, -10))
	fresh.MarkSold(decimal.NewFromInt(300), now.AddDate(0, 0, -1))
	require.NoError(t, repo.Update(ctx, old))
	require.NoError(t, repo.Update(ctx, fresh))

	list, err := repo.FindSoldBefore(ctx, now.AddDate(0, 0, -7), 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, old.ID, list[0].ID)

	// 按 id 翻页，越过已处理的行
	list, err = repo.FindSoldBefore(ctx, now.AddDate(0, 0, -7), old.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.FindSoldBefore(ctx, now, 0, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, old.ID, list[0].ID)
	list, err = repo.FindSoldBefore(ctx, now, list[0].ID, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestSaleRepo_UpsertInPlaceAndDetach(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()
	repo := NewSaleRepository(db)

	artist := seedArtist(t, db, 1, "张三", nil)
	artwork := seedArtwork(t, db, artist, 1, "山水")
	artworkID := artwork.ID

	first := &model.Sale{
		ArtworkID: &artworkID, ArtistID: artist.ID,
		SalePrice: decimal.NewFromInt(300), ArtistPayment: decimal.NewFromInt(200), Profit: decimal.NewFromInt(100),
		SaleDate: time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &model.Sale{
		ArtworkID: &artworkID, ArtistID: artist.ID,
		SalePrice: decimal.NewFromInt(500), ArtistPayment: decimal.NewFromInt(200), Profit: decimal.NewFromInt(300),
		SaleDate: time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, second))

	var count int64
	db.Model(&model.Sale{}).Count(&count)
	assert.Equal(t, int64(1), count, "同一作品只能有一条成交记录")

	got, err := repo.GetByArtworkID(ctx, artworkID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, decimal.NewFromInt(500).Equal(got.SalePrice))
	assert.True(t, decimal.NewFromInt(300).Equal(got.Profit))

	require.NoError(t, repo.DetachArtwork(ctx, artworkID))
	got, err = repo.GetByArtworkID(ctx, artworkID)
	require.NoError(t, err)
	assert.Nil(t, got)

	stats, err := repo.StatsByArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Count)
	assert.True(t, decimal.NewFromInt(500).Equal(stats.TotalSalesAmount))
	assert.True(t, decimal.NewFromInt(200).Equal(stats.TotalArtistPayment))

	empty, err := repo.StatsByArtist(ctx, artist.ID+100)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.TotalSalesAmount.IsZero())
	assert.True(t, empty.TotalArtistPayment.IsZero())
}

func TestSaleRepo_StatsAggregatesMultipleSales(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()
	repo := NewSaleRepository(db)

	artist := seedArtist(t, db, 1, "张三", nil)
	for i, price := range []string{"300.50", "120.25", "79.25"} {
		artwork := seedArtwork(t, db, artist, i+1, "作品")
		artworkID := artwork.ID
		require.NoError(t, repo.Upsert(ctx, &model.Sale{
			ArtworkID: &artworkID, ArtistID: artist.ID,
			SalePrice: decimal.RequireFromString(price), ArtistPayment: decimal.NewFromInt(100), Profit: decimal.Zero,
			SaleDate: time.Now(),
		}))
	}

	stats, err := repo.StatsByArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, "500", stats.TotalSalesAmount.String())
	assert.Equal(t, "300", stats.TotalArtistPayment.String())
}

func TestArtistRepo_RosterAndSearch(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()
	repo := NewArtistRepository(db)

	companyID := int64(7)
	signed := seedArtist(t, db, 1, "Alice", &companyID)
	seedArtist(t, db, 2, "alina", nil)
	seedArtwork(t, db, signed, 1, "a")
	seedArtwork(t, db, signed, 2, "b")

	free, err := repo.SearchUnaffiliated(ctx, "AL")
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, "alina", free[0].Name)

	roster, err := repo.ListByCompanyWithCounts(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, int64(2), roster[0].ArtworksCount)

	require.NoError(t, repo.SetCompany(ctx, signed.ID, nil))
	roster, err = repo.ListByCompanyWithCounts(ctx, companyID)
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestLedgerUnitOfWork_Rollback(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()
	uow := NewLedgerUnitOfWork(db)

	boom := errors.New("boom")
	err := uow.Transaction(ctx, func(tx *LedgerUnitOfWork) error {
		if err := tx.Notifications.Create(ctx, &model.Notification{
			SenderID: 1, ReceiverID: 2, Type: model.NotificationMessage, Status: model.NotificationPending, Content: "hi",
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := uow.Notifications.ListUnread(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list, "事务回滚后不应留下通知")
}
