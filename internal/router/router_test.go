package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hualang_api/internal/controller"
	"hualang_api/internal/middleware"
	"hualang_api/internal/model"
	"hualang_api/internal/notify"
	"hualang_api/internal/repository"
	"hualang_api/internal/service"
	"hualang_api/internal/task"
)

func setupRouter(t *testing.T, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	uow := repository.NewLedgerUnitOfWork(db)
	storage, err := service.NewStorageProvider(&service.StorageConfig{
		Provider: "local",
		BasePath: t.TempDir(),
		Endpoint: "/uploads",
	})
	require.NoError(t, err)
	broker := notify.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	locker := service.NewLocalLocker()
	notifications := service.NewNotificationService(uow, broker)
	exhibitions := service.NewExhibitionService(uow, locker, notifications)
	affiliation := service.NewAffiliationService(uow, notifications)
	companies := service.NewCompanyService(uow)

	return SetupRouter(&Controllers{
		Auth:         controller.NewAuthController(service.NewAuthService(uow)),
		Artist:       controller.NewArtistController(service.NewArtistService(uow, storage), companies),
		Artwork:      controller.NewArtworkController(service.NewArtworkService(uow, storage, locker, exhibitions), service.NewSettlementService(uow)),
		Company:      controller.NewCompanyController(companies, affiliation),
		Exhibition:   controller.NewExhibitionController(exhibitions),
		Notification: controller.NewNotificationController(notifications, affiliation),
		Task:         controller.NewTaskController(task.NewTaskManager(&task.TaskManagerDeps{UnitOfWork: uow, Storage: storage}, nil)),
	}, opts)
}

func doJSON(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_AuthFlow(t *testing.T) {
	r := setupRouter(t, Options{})

	w := doJSON(r, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Alice", "email": "alice@test.com", "password": "secret1", "role": "artist",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		Data model.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))

	w = doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@test.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Data service.TokenResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)

	path := fmt.Sprintf("/api/artists/%d", registered.Data.ID)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, path, nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, path, nil, "bogus").Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, path, nil, login.Data.AccessToken).Code)

	// 画家不能创建展览
	w = doJSON(r, http.MethodPost, "/api/exhibitions", map[string]interface{}{
		"artistUserId": registered.Data.ID, "artworkCount": 10,
	}, login.Data.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_Swagger(t *testing.T) {
	r := setupRouter(t, Options{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BearerAuth")
}

func TestRouter_CORS(t *testing.T) {
	r := setupRouter(t, Options{CORSOrigins: []string{"http://gallery.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://gallery.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://gallery.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"http://a.test", "http://b.test"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Len(t, cfg.AllowOrigins, 2)
}

func TestRouter_AdminTasks(t *testing.T) {
	r := setupRouter(t, Options{})

	adminToken, _, err := middleware.GenerateTokenPair(1, "admin@test.com", string(model.RoleAdmin))
	require.NoError(t, err)
	artistToken, _, err := middleware.GenerateTokenPair(2, "alice@test.com", string(model.RoleArtist))
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPost, "/api/admin/tasks/cleanup", nil, artistToken).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/api/admin/tasks", nil, "").Code)

	w := doJSON(r, http.MethodGet, "/api/admin/tasks", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Data["cleanup"])

	w = doJSON(r, http.MethodPost, "/api/admin/tasks/cleanup", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats struct {
		Data task.CleanupStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.Data.Scanned)
}
