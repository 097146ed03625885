package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hualang_api/internal/model"
	"hualang_api/internal/notify"
	"hualang_api/internal/repository"
)

// ==================== 测试辅助 ====================

func setupLedgerDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// fakeStorage 内存对象存储
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	seq       int
	uploadErr error
	deleteErr error
	deleted   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.seq++
	url := fmt.Sprintf("https://cdn.test/%d-%s", f.seq, filename)
	f.objects[url] = data
	return url, nil
}

func (f *fakeStorage) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.objects[url]; !ok {
		return ErrObjectNotFound
	}
	delete(f.objects, url)
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// testEnv 组装好的服务
type testEnv struct {
	db            *gorm.DB
	uow           *repository.LedgerUnitOfWork
	storage       *fakeStorage
	broker        *notify.MemoryBroker
	notifications *NotificationService
	exhibitions   *ExhibitionService
	artworks      *ArtworkService
	settlement    *SettlementService
	affiliation   *AffiliationService
	artists       *ArtistService
	companies     *CompanyService
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupLedgerDB(t)
	uow := repository.NewLedgerUnitOfWork(db)
	storage := newFakeStorage()
	broker := notify.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	locker := NewLocalLocker()
	notifications := NewNotificationService(uow, broker)
	exhibitions := NewExhibitionService(uow, locker, notifications)
	return &testEnv{
		db:            db,
		uow:           uow,
		storage:       storage,
		broker:        broker,
		notifications: notifications,
		exhibitions:   exhibitions,
		artworks:      NewArtworkService(uow, storage, locker, exhibitions),
		settlement:    NewSettlementService(uow),
		affiliation:   NewAffiliationService(uow, notifications),
		artists:       NewArtistService(uow, storage),
		companies:     NewCompanyService(uow),
	}
}

func (e *testEnv) createUser(t *testing.T, name string, role model.UserRole) *model.User {
	u := &model.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@test.com",
		Password: "x",
		Role:     role,
		Status:   model.UserStatusActive,
	}
	require.NoError(t, e.uow.Users.Create(context.Background(), u))
	return u
}

func (e *testEnv) createArtist(t *testing.T, name string, signPrice int64, quota int) (*model.User, *model.Artist) {
	u := e.createUser(t, name, model.RoleArtist)
	a := &model.Artist{
		UserID:          u.ID,
		Name:            name,
		SignPrice:       decimal.NewFromInt(signPrice),
		ExhibitionsHeld: quota,
	}
	require.NoError(t, e.uow.Artists.Create(context.Background(), a))
	return u, a
}

func (e *testEnv) createCompany(t *testing.T, name string) (*model.User, *model.Company) {
	u := e.createUser(t, name, model.RoleCompany)
	c := &model.Company{UserID: u.ID, Name: name, Membership: model.MembershipTrial}
	require.NoError(t, e.uow.Companies.Create(context.Background(), c))
	return u, c
}

func (e *testEnv) affiliate(t *testing.T, artist *model.Artist, company *model.Company) {
	companyID := company.ID
	require.NoError(t, e.uow.Artists.SetCompany(context.Background(), artist.ID, &companyID))
	artist.CompanyID = &companyID
}

func (e *testEnv) upload(t *testing.T, artistUserID int64, title, size string) *UploadResult {
	res, err := e.artworks.UploadArtwork(context.Background(), artistUserID,
		&UploadArtworkInput{Title: title, Description: "desc", Size: size, EstimatedPrice: "1000", Theme: "山水"},
		&UploadedFile{Filename: title + ".jpg", Data: []byte("img")})
	require.NoError(t, err)
	return res
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var appErr *AppError
	if !errors.As(err, &appErr) && KindOf(err) == KindInternal {
		t.Fatalf("期望 %s 错误，实际未分类: %v", kind, err)
	}
	require.Equal(t, kind, KindOf(err), "错误: %v", err)
}
