package task

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"hualang_api/internal/model"
	"hualang_api/internal/repository"
	"hualang_api/internal/service"

	"github.com/robfig/cron/v3"
)

// ==================== CleanupTask 已售作品清理 ====================

const (
	DefaultCleanupSpec   = "0 0 0 * * *"
	DefaultCleanupMaxAge = 7 * 24 * time.Hour
	cleanupBatchSize     = 200
)

// CleanupStats 单次清理结果
type CleanupStats struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// CleanupTask 定时删除售出超过保留期的作品及其图片
// 销售记录保留，仅解除与作品的关联
type CleanupTask struct {
	uow     *repository.LedgerUnitOfWork
	storage service.StorageProvider
	cron    *cron.Cron

	spec      string
	maxAge    time.Duration
	batchSize int
	now       func() time.Time

	running bool
	mutex   sync.Mutex
}

// NewCleanupTask 创建清理任务，spec 为空时每天 00:00 执行
func NewCleanupTask(uow *repository.LedgerUnitOfWork, storage service.StorageProvider, spec string, maxAge time.Duration) *CleanupTask {
	if spec == "" {
		spec = DefaultCleanupSpec
	}
	if maxAge <= 0 {
		maxAge = DefaultCleanupMaxAge
	}
	return &CleanupTask{
		uow:     uow,
		storage: storage,
		cron:    cron.New(cron.WithSeconds()),
		spec:      spec,
		maxAge:    maxAge,
		batchSize: cleanupBatchSize,
		now:       time.Now,
	}
}

// Start 启动定时任务
func (t *CleanupTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		t.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	log.Printf("[CleanupTask] 已启动，计划: %s，保留期: %s", t.spec, t.maxAge)
	return nil
}

// Stop 停止定时任务并等待正在执行的清理结束
func (t *CleanupTask) Stop() {
	<-t.cron.Stop().Done()
	log.Println("[CleanupTask] 已停止")
}

// RunOnce 执行一次清理，同一时刻只允许一个实例运行
func (t *CleanupTask) RunOnce(ctx context.Context) CleanupStats {
	var stats CleanupStats

	t.mutex.Lock()
	if t.running {
		t.mutex.Unlock()
		log.Println("[CleanupTask] 上一次清理尚未结束，跳过")
		return stats
	}
	t.running = true
	t.mutex.Unlock()

	defer func() {
		t.mutex.Lock()
		t.running = false
		t.mutex.Unlock()
	}()

	cutoff := t.now().Add(-t.maxAge)
	// 按 id 分批推进，失败的作品留到下次，不阻塞后面的批次
	var lastID int64
	for {
		artworks, err := t.uow.Artworks.FindSoldBefore(ctx, cutoff, lastID, t.batchSize)
		if err != nil {
			log.Printf("[CleanupTask] 查询待清理作品失败: %v", err)
			return stats
		}
		if len(artworks) == 0 {
			break
		}
		log.Printf("[CleanupTask] 处理 %d 件作品 (售出早于 %s)", len(artworks), cutoff.Format(time.DateTime))

		for i := range artworks {
			select {
			case <-ctx.Done():
				log.Println("[CleanupTask] 清理超时停止")
				return stats
			default:
			}

			stats.Scanned++
			if err := t.cleanupOne(ctx, &artworks[i]); err != nil {
				stats.Skipped++
				log.Printf("[CleanupTask] 作品 %d 清理失败，下次重试: %v", artworks[i].ID, err)
				continue
			}
			stats.Deleted++
		}

		lastID = artworks[len(artworks)-1].ID
		if len(artworks) < t.batchSize {
			break
		}
	}

	if stats.Scanned == 0 {
		return stats
	}
	log.Printf("[CleanupTask] 清理完成: 删除 %d, 跳过 %d", stats.Deleted, stats.Skipped)
	return stats
}

// cleanupOne 先删图片再删记录；图片不存在视为成功，其它存储错误放弃本条
func (t *CleanupTask) cleanupOne(ctx context.Context, artwork *model.Artwork) error {
	if artwork.ImageURL != "" {
		if err := t.storage.Delete(ctx, artwork.ImageURL); err != nil {
			if !errors.Is(err, service.ErrObjectNotFound) {
				return err
			}
			log.Printf("[CleanupTask] 作品 %d 图片已不存在: %s", artwork.ID, artwork.ImageURL)
		}
	}

	return t.uow.Transaction(ctx, func(tx *repository.LedgerUnitOfWork) error {
		if err := tx.Sales.DetachArtwork(ctx, artwork.ID); err != nil {
			return err
		}
		return tx.Artworks.Delete(ctx, artwork.ID)
	})
}
