package task

import (
	"context"
	"log"
	"time"

	"hualang_api/internal/repository"
	"hualang_api/internal/service"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理后台定时任务
type TaskManager struct {
	cleanupTask *CleanupTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	UnitOfWork *repository.LedgerUnitOfWork
	Storage    service.StorageProvider
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	CleanupEnabled bool
	CleanupSpec    string
	CleanupMaxAge  time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		CleanupEnabled: true,
		CleanupSpec:    DefaultCleanupSpec,
		CleanupMaxAge:  DefaultCleanupMaxAge,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	if cfg.CleanupEnabled && deps.UnitOfWork != nil && deps.Storage != nil {
		tm.cleanupTask = NewCleanupTask(deps.UnitOfWork, deps.Storage, cfg.CleanupSpec, cfg.CleanupMaxAge)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	log.Println("[TaskManager] 正在启动定时任务...")

	if tm.cleanupTask != nil {
		if err := tm.cleanupTask.Start(); err != nil {
			return err
		}
	}

	log.Println("[TaskManager] 定时任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止定时任务...")

	if tm.cleanupTask != nil {
		tm.cleanupTask.Stop()
	}

	log.Println("[TaskManager] 定时任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerCleanup 立即执行一次清理
func (tm *TaskManager) TriggerCleanup(ctx context.Context) (*CleanupStats, error) {
	if tm.cleanupTask == nil {
		return nil, ErrTaskDisabled
	}
	stats := tm.cleanupTask.RunOnce(ctx)
	return &stats, nil
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"cleanup": tm.cleanupTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
