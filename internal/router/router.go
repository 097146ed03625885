package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"hualang_api/internal/controller"
	"hualang_api/internal/middleware"
	"hualang_api/internal/model"

	_ "hualang_api/docs"
)

// Controllers 路由依赖的控制器
type Controllers struct {
	Auth         *controller.AuthController
	Artist       *controller.ArtistController
	Artwork      *controller.ArtworkController
	Company      *controller.CompanyController
	Exhibition   *controller.ExhibitionController
	Notification *controller.NotificationController
	Task         *controller.TaskController
}

// Options 路由选项
type Options struct {
	CORSOrigins []string
	// 本地存储时挂载的静态目录，为空则不挂载
	UploadsDir string
	// 上传接口的冷却时间
	UploadCooldown time.Duration
}

// SetupRouter 创建 gin 引擎并注册所有路由
func SetupRouter(ctls *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.MaxMultipartMemory = 8 << 20

	// Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if opts.UploadsDir != "" {
		r.Static("/uploads", opts.UploadsDir)
	}

	InitRoutes(r, ctls, opts)
	return r
}

// InitRoutes 注册 /api 路由
func InitRoutes(r *gin.Engine, ctls *Controllers, opts Options) {
	cooldown := opts.UploadCooldown
	if cooldown <= 0 {
		cooldown = 3 * time.Second
	}
	limiter := middleware.NewCooldownLimiter()

	api := r.Group("/api")
	api.Use(middleware.SanitizeJSON())

	// auth 鉴权组，无需登录
	auth := api.Group("/auth")
	{
		auth.POST("/register", ctls.Auth.Register)
		auth.POST("/login", ctls.Auth.Login)
		auth.POST("/refresh", ctls.Auth.Refresh)
	}

	// 以下接口需要登录
	authed := api.Group("")
	authed.Use(middleware.JWTAuth(), middleware.AuditContext())

	artists := authed.Group("/artists")
	{
		artists.GET("/all", ctls.Artist.List)
		artists.GET("/search", ctls.Artist.Search)
		artists.GET("/company/:userid", ctls.Artist.ListByCompany)
		artists.GET("/:userid", ctls.Artist.Get)
		artists.GET("/:userid/stats", ctls.Artist.Stats)
		artists.PUT("/:userid", ctls.Artist.Update)
		artists.PUT("/:userid/settled-amount", ctls.Artist.AddSettledAmount)
		artists.PUT("/:userid/avatar", middleware.Cooldown(limiter, "avatar", cooldown), ctls.Artist.UploadAvatar)
	}

	upload := authed.Group("/upload")
	{
		upload.POST("/artwork",
			middleware.RequireRole(string(model.RoleArtist), string(model.RoleAdmin)),
			middleware.Cooldown(limiter, "artwork", cooldown),
			ctls.Artwork.Upload)
	}

	artworks := authed.Group("/artworks")
	{
		artworks.GET("/search", ctls.Artwork.Search)
		artworks.GET("/artist/:userid", ctls.Artwork.ListByArtist)
		artworks.GET("/:id", ctls.Artwork.Get)
		artworks.PUT("/:id", ctls.Artwork.Settle)
		artworks.DELETE("/:id", ctls.Artwork.Delete)
	}

	companies := authed.Group("/companies")
	{
		companies.GET("/alldata/:userid", ctls.Company.Dashboard)
		companies.GET("/:userid", ctls.Company.Get)
		companies.POST("/membership/:userid/subscribe", ctls.Company.Subscribe)
		companies.DELETE("/unbind-artist/:companyuserid/:artistuserid", ctls.Company.UnbindArtist)
	}

	exhibitions := authed.Group("/exhibitions")
	{
		exhibitions.GET("", ctls.Exhibition.List)
		exhibitions.GET("/company/:companyId", ctls.Exhibition.ListByCompany)
		exhibitions.POST("",
			middleware.RequireRole(string(model.RoleCompany), string(model.RoleAdmin)),
			ctls.Exhibition.Create)
		exhibitions.PUT("/:id/close", ctls.Exhibition.Close)
		exhibitions.DELETE("/:id", ctls.Exhibition.Delete)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.POST("", ctls.Notification.Create)
		notifications.GET("/stream", ctls.Notification.Stream)
		notifications.GET("/user/:userId/unread", ctls.Notification.ListUnread)
		notifications.PUT("/:id", ctls.Notification.Update)
		notifications.DELETE("/:id", ctls.Notification.Delete)
	}

	admin := authed.Group("/admin", middleware.RequireRole(string(model.RoleAdmin)))
	{
		admin.GET("/tasks", ctls.Task.Status)
		admin.POST("/tasks/cleanup", ctls.Task.TriggerCleanup)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
