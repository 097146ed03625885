package config

import (
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

// Config 服务运行配置
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Cleanup  CleanupConfig
	LogFile  string
}

type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	DSN          string
	LogLevel     logger.LogLevel
	MaxIdleConns int
	MaxOpenConns int
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type StorageConfig struct {
	Provider  string // s3 / cos / local
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	CDNDomain string
	BasePath  string
	LocalDir  string
}

// RedisConfig Addr 为空时使用进程内锁
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig Brokers 为空时使用进程内通知
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type CleanupConfig struct {
	Enabled bool
	Spec    string
	MaxAge  time.Duration
}

// Load 读取 .env（可选）与环境变量
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] 未找到 .env 文件，使用系统环境变量")
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			DSN:          getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=hualang port=5432 sslmode=disable TimeZone=Asia/Shanghai"),
			LogLevel:     parseLogLevel(getEnv("DB_LOG_LEVEL", "warn")),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "hualang-dev-secret"),
			AccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 2*time.Hour),
			RefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Storage: StorageConfig{
			Provider:  getEnv("STORAGE_PROVIDER", "local"),
			Bucket:    getEnv("STORAGE_BUCKET", ""),
			Region:    getEnv("STORAGE_REGION", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			CDNDomain: getEnv("STORAGE_CDN_DOMAIN", ""),
			BasePath:  getEnv("STORAGE_BASE_PATH", "hualang"),
			LocalDir:  getEnv("STORAGE_LOCAL_DIR", "./uploads"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_NOTIFY_TOPIC", "hualang-notifications"),
		},
		Cleanup: CleanupConfig{
			Enabled: getEnvBool("CLEANUP_ENABLED", true),
			Spec:    getEnv("CLEANUP_CRON", "0 0 0 * * *"),
			MaxAge:  getEnvDuration("CLEANUP_MAX_AGE", 7*24*time.Hour),
		},
		LogFile: getEnv("LOG_FILE", ""),
	}
}

// InitLogging 同时输出到控制台与日志文件，返回的 closer 在退出时关闭文件
func InitLogging(path string) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if path == "" {
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[Config] %s=%q 不是整数，使用默认值 %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("[Config] %s=%q 不是布尔值，使用默认值 %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[Config] %s=%q 不是有效时长，使用默认值 %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
