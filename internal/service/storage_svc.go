package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// ErrObjectNotFound 存储中不存在该对象
var ErrObjectNotFound = errors.New("存储对象不存在")

// ==================== 接口定义 ====================

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// Upload 上传文件，返回公开访问URL
	Upload(ctx context.Context, data []byte, filename string, contentType string) (url string, err error)

	// Delete 删除文件，对象不存在时返回 ErrObjectNotFound
	Delete(ctx context.Context, url string) error
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "s3" | "cos" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点 (腾讯云COS等)；local 时为访问前缀
	CDNDomain string // CDN域名 (可选)
	BasePath  string // 基础路径前缀；local 时为落盘目录
}

// NewStorageProvider 按配置创建存储提供者
func NewStorageProvider(cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg)
	case "cos":
		return NewCOSStorage(cfg)
	case "local", "":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== S3 兼容实现 (AWS S3 / 腾讯云COS) ====================

// ObjectStorage 基于 S3 协议的对象存储
type ObjectStorage struct {
	client     *s3.Client
	bucket     string
	basePath   string
	publicBase string // 公开访问前缀，不带末尾斜杠
}

// NewS3Storage AWS S3
func NewS3Storage(cfg *StorageConfig) (*ObjectStorage, error) {
	client, err := newS3Client(cfg, "")
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}
	publicBase := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	if cfg.CDNDomain != "" {
		publicBase = "https://" + cfg.CDNDomain
	}
	return &ObjectStorage{client: client, bucket: cfg.Bucket, basePath: cfg.BasePath, publicBase: publicBase}, nil
}

// NewCOSStorage 腾讯云COS，走 S3 兼容端点
func NewCOSStorage(cfg *StorageConfig) (*ObjectStorage, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://cos.%s.myqcloud.com", cfg.Region)
	}
	client, err := newS3Client(cfg, endpoint)
	if err != nil {
		return nil, fmt.Errorf("加载COS配置失败: %w", err)
	}
	publicBase := fmt.Sprintf("https://%s.cos.%s.myqcloud.com", cfg.Bucket, cfg.Region)
	if cfg.CDNDomain != "" {
		publicBase = "https://" + cfg.CDNDomain
	}
	return &ObjectStorage{client: client, bucket: cfg.Bucket, basePath: cfg.BasePath, publicBase: publicBase}, nil
}

func newS3Client(cfg *StorageConfig, endpoint string) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}
	if endpoint == "" {
		return s3.NewFromConfig(awsCfg), nil
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *ObjectStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	key := generateKey(s.basePath, filename)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传对象存储失败: %w", err)
	}
	return s.publicBase + "/" + key, nil
}

// Delete S3 的 DeleteObject 对不存在的 key 同样返回成功，先 HeadObject 判断
func (s *ObjectStorage) Delete(ctx context.Context, url string) error {
	key := s.extractKey(url)
	if key == "" {
		return fmt.Errorf("无法解析文件路径: %s", url)
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("查询对象失败: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("删除对象失败: %w", err)
	}
	return nil
}

func (s *ObjectStorage) extractKey(url string) string {
	if !strings.HasPrefix(url, s.publicBase+"/") {
		return ""
	}
	return strings.TrimPrefix(url, s.publicBase+"/")
}

func isS3NotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// ==================== 本地存储 (开发测试用) ====================

type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./uploads"
	}
	baseURL := strings.TrimSuffix(cfg.Endpoint, "/")
	if baseURL == "" {
		baseURL = "/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败: %w", err)
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	key := generateKey("", filename)
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return fmt.Errorf("无法解析文件路径: %s", url)
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if strings.Contains(key, "..") {
		return fmt.Errorf("非法文件路径: %s", url)
	}
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return ErrObjectNotFound
	}
	return err
}

// ==================== 工具函数 ====================

// generateKey basePath/2006/01/02/<uuid>.<ext>
func generateKey(basePath, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	datePath := time.Now().Format("2006/01/02")
	key := fmt.Sprintf("%s/%s%s", datePath, uuid.New().String(), ext)
	if basePath != "" {
		return strings.Trim(basePath, "/") + "/" + key
	}
	return key
}
