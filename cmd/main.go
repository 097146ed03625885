package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hualang_api/internal/config"
	"hualang_api/internal/controller"
	"hualang_api/internal/middleware"
	"hualang_api/internal/model"
	"hualang_api/internal/notify"
	"hualang_api/internal/repository"
	"hualang_api/internal/router"
	"hualang_api/internal/service"
	"hualang_api/internal/task"
	"hualang_api/pkg/database"
)

// @title 画廊管理系统 API
// @version 1.0
// @description 画家、公司、作品、成交结算、签约邀请与办展提醒
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logCloser, err := config.InitLogging(cfg.LogFile)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logCloser.Close()

	gin.SetMode(cfg.Server.GinMode)
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTTL,
		Issuer:          "hualang",
	})

	// 1. 初始化数据库
	db := initDatabase(cfg)

	// 2. 初始化依赖
	deps := initDependencies(cfg, db)
	defer deps.close()

	// 3. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		log.Fatalf("定时任务启动失败: %v", err)
	}
	defer deps.Tasks.Stop()

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers, router.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		UploadsDir:  deps.uploadsDir,
	})

	// 5. 启动服务
	startServer(cfg.Server.Port, r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	UnitOfWork  *repository.LedgerUnitOfWork
	Storage     service.StorageProvider
	Broker      notify.Broker
	Services    *Services
	Controllers *router.Controllers
	Tasks       *task.TaskManager

	redis      redis.UniversalClient
	uploadsDir string
}

// Services 服务集合
type Services struct {
	Auth         *service.AuthService
	Notification *service.NotificationService
	Exhibition   *service.ExhibitionService
	Artwork      *service.ArtworkService
	Settlement   *service.SettlementService
	Affiliation  *service.AffiliationService
	Artist       *service.ArtistService
	Company      *service.CompanyService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(database.Options{
		DSN:          cfg.Database.DSN,
		LogLevel:     cfg.Database.LogLevel,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Setup: func(db *gorm.DB) error {
			middleware.RegisterAuditCallbacks(db)
			return nil
		},
	}, model.AllModels()...)
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) *Dependencies {
	deps := &Dependencies{
		DB:         db,
		UnitOfWork: repository.NewLedgerUnitOfWork(db),
	}

	// -------- 基础设施 --------
	deps.Storage, deps.uploadsDir = initStorage(cfg)
	deps.Broker = initBroker(cfg)
	locker := initLocker(cfg, deps)

	// -------- 业务服务 --------
	uow := deps.UnitOfWork
	notifications := service.NewNotificationService(uow, deps.Broker)
	exhibitions := service.NewExhibitionService(uow, locker, notifications)
	deps.Services = &Services{
		Auth:         service.NewAuthService(uow),
		Notification: notifications,
		Exhibition:   exhibitions,
		Artwork:      service.NewArtworkService(uow, deps.Storage, locker, exhibitions),
		Settlement:   service.NewSettlementService(uow),
		Affiliation:  service.NewAffiliationService(uow, notifications),
		Artist:       service.NewArtistService(uow, deps.Storage),
		Company:      service.NewCompanyService(uow),
	}

	// -------- 定时任务 --------
	deps.Tasks = task.NewTaskManager(&task.TaskManagerDeps{
		UnitOfWork: uow,
		Storage:    deps.Storage,
	}, &task.TaskManagerConfig{
		CleanupEnabled: cfg.Cleanup.Enabled,
		CleanupSpec:    cfg.Cleanup.Spec,
		CleanupMaxAge:  cfg.Cleanup.MaxAge,
	})

	// -------- Controller 层 --------
	deps.Controllers = initControllers(deps.Services, deps.Tasks)

	return deps
}

// initStorage 初始化对象存储，local 时返回需要挂载的静态目录
func initStorage(cfg *config.Config) (service.StorageProvider, string) {
	sc := &service.StorageConfig{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		CDNDomain: cfg.Storage.CDNDomain,
		BasePath:  cfg.Storage.BasePath,
	}
	uploadsDir := ""
	if sc.Provider == "local" || sc.Provider == "" {
		sc.BasePath = cfg.Storage.LocalDir
		sc.Endpoint = "/uploads"
		uploadsDir = cfg.Storage.LocalDir
	}

	storage, err := service.NewStorageProvider(sc)
	if err != nil {
		log.Fatalf("存储服务初始化失败: %v", err)
	}
	log.Printf("[Storage] 使用 %s 存储", cfg.Storage.Provider)
	return storage, uploadsDir
}

// initBroker 配置了 Kafka 时跨实例推送，否则进程内推送
func initBroker(cfg *config.Config) notify.Broker {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Println("[Notify] 使用进程内通知")
		return notify.NewMemoryBroker()
	}
	broker, err := notify.NewKafkaBroker(notify.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	if err != nil {
		log.Fatalf("Kafka 通知初始化失败: %v", err)
	}
	broker.Start(context.Background())
	return broker
}

// initLocker 配置了 Redis 时使用分布式锁，否则进程内锁
func initLocker(cfg *config.Config, deps *Dependencies) service.Locker {
	if cfg.Redis.Addr == "" {
		log.Println("[Locker] 使用进程内锁")
		return service.NewLocalLocker()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis 连接失败: %v", err)
	}
	deps.redis = rdb
	log.Printf("[Locker] 使用 Redis 锁 %s", cfg.Redis.Addr)
	return service.NewRedisLocker(rdb)
}

// initControllers 初始化所有控制器
func initControllers(svc *Services, tasks *task.TaskManager) *router.Controllers {
	return &router.Controllers{
		Auth:         controller.NewAuthController(svc.Auth),
		Artist:       controller.NewArtistController(svc.Artist, svc.Company),
		Artwork:      controller.NewArtworkController(svc.Artwork, svc.Settlement),
		Company:      controller.NewCompanyController(svc.Company, svc.Affiliation),
		Exhibition:   controller.NewExhibitionController(svc.Exhibition),
		Notification: controller.NewNotificationController(svc.Notification, svc.Affiliation),
		Task:         controller.NewTaskController(tasks),
	}
}

// close 释放外部连接
func (d *Dependencies) close() {
	if err := d.Broker.Close(); err != nil {
		log.Printf("关闭通知通道失败: %v", err)
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Printf("关闭 Redis 失败: %v", err)
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后优雅关闭
func startServer(port string, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒；SSE 长连接随 Shutdown 超时断开
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}
