package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hualang_api/internal/middleware"
	"hualang_api/internal/model"
	"hualang_api/internal/notify"
	"hualang_api/internal/repository"
	"hualang_api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

// memStorage 内存对象存储
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
}

func (m *memStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	url := fmt.Sprintf("https://cdn.test/%d-%s", m.seq, filename)
	m.objects[url] = data
	return url, nil
}

func (m *memStorage) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[url]; !ok {
		return service.ErrObjectNotFound
	}
	delete(m.objects, url)
	return nil
}

type testApp struct {
	router *gin.Engine
	uow    *repository.LedgerUnitOfWork
	notify *service.NotificationService
	notifs *NotificationController
}

func setupTestApp(t *testing.T) *testApp {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	uow := repository.NewLedgerUnitOfWork(db)
	storage := &memStorage{objects: map[string][]byte{}}
	broker := notify.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	locker := service.NewLocalLocker()
	notifications := service.NewNotificationService(uow, broker)
	exhibitions := service.NewExhibitionService(uow, locker, notifications)
	affiliation := service.NewAffiliationService(uow, notifications)
	companies := service.NewCompanyService(uow)
	artists := service.NewArtistService(uow, storage)

	authCtl := NewAuthController(service.NewAuthService(uow))
	artistCtl := NewArtistController(artists, companies)
	artworkCtl := NewArtworkController(service.NewArtworkService(uow, storage, locker, exhibitions), service.NewSettlementService(uow))
	companyCtl := NewCompanyController(companies, affiliation)
	exhibitionCtl := NewExhibitionController(exhibitions)
	notificationCtl := NewNotificationController(notifications, affiliation)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/register", authCtl.Register)
	api.POST("/auth/login", authCtl.Login)
	api.POST("/auth/refresh", authCtl.Refresh)

	authed := api.Group("", middleware.JWTAuth())
	authed.GET("/artists/:userid", artistCtl.Get)
	authed.GET("/artists/:userid/stats", artistCtl.Stats)
	authed.PUT("/artists/:userid", artistCtl.Update)
	authed.PUT("/artists/:userid/settled-amount", artistCtl.AddSettledAmount)
	authed.PUT("/artists/:userid/avatar", artistCtl.UploadAvatar)
	authed.POST("/upload/artwork", artworkCtl.Upload)
	authed.GET("/artworks/search", artworkCtl.Search)
	authed.GET("/artworks/:id", artworkCtl.Get)
	authed.PUT("/artworks/:id", artworkCtl.Settle)
	authed.DELETE("/artworks/:id", artworkCtl.Delete)
	authed.GET("/companies/alldata/:userid", companyCtl.Dashboard)
	authed.POST("/companies/membership/:userid/subscribe", companyCtl.Subscribe)
	authed.DELETE("/companies/unbind-artist/:companyuserid/:artistuserid", companyCtl.UnbindArtist)
	authed.POST("/exhibitions", exhibitionCtl.Create)
	authed.PUT("/exhibitions/:id/close", exhibitionCtl.Close)
	authed.POST("/notifications", notificationCtl.Create)
	authed.GET("/notifications/stream", notificationCtl.Stream)
	authed.GET("/notifications/user/:userId/unread", notificationCtl.ListUnread)
	authed.PUT("/notifications/:id", notificationCtl.Update)
	authed.DELETE("/notifications/:id", notificationCtl.Delete)

	return &testApp{router: r, uow: uow, notify: notifications, notifs: notificationCtl}
}

// testUser 已登录的测试用户
type testUser struct {
	ID    int64
	Token string
}

func (a *testApp) createUser(t *testing.T, name string, role model.UserRole) testUser {
	u := &model.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@test.com",
		Password: "x",
		Role:     role,
		Status:   model.UserStatusActive,
	}
	require.NoError(t, a.uow.Users.Create(context.Background(), u))

	switch role {
	case model.RoleArtist:
		require.NoError(t, a.uow.Artists.Create(context.Background(), &model.Artist{
			UserID: u.ID, Name: name, SignPrice: decimal.NewFromInt(100), ExhibitionsHeld: model.DefaultExhibitionQuota,
		}))
	case model.RoleCompany:
		require.NoError(t, a.uow.Companies.Create(context.Background(), &model.Company{
			UserID: u.ID, Name: name, Membership: model.MembershipTrial,
		}))
	}

	access, _, err := middleware.GenerateTokenPair(u.ID, u.Email, string(role))
	require.NoError(t, err)
	return testUser{ID: u.ID, Token: access}
}

func performRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func performUpload(r http.Handler, path string, fields map[string]string, fileField string, file []byte, token string) *httptest.ResponseRecorder {
	return performUploadMethod(r, http.MethodPost, path, fields, fileField, file, token)
}

func performUploadMethod(r http.Handler, method, path string, fields map[string]string, fileField string, file []byte, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		fw, _ := mw.CreateFormFile(fileField, "art.jpg")
		_, _ = fw.Write(file)
	}
	_ = mw.Close()

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// pngImage 最小的 PNG 文件头，足以被识别为 image/png
var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// envelope 解析统一响应
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "响应: %s", w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func artworkFields(title, size string) map[string]string {
	return map[string]string{
		"title":          title,
		"description":    "desc",
		"size":           size,
		"estimatedPrice": "1000",
		"theme":          "山水",
	}
}
