package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hualang_api/internal/task"
)

// ==================== TaskController 定时任务管理 ====================

type TaskController struct {
	taskManager *task.TaskManager
}

func NewTaskController(taskManager *task.TaskManager) *TaskController {
	return &TaskController{taskManager: taskManager}
}

// Status 定时任务启用状态
// @Summary 定时任务状态
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response{data=map[string]bool}
// @Router /api/admin/tasks [get]
func (c *TaskController) Status(ctx *gin.Context) {
	ok(ctx, "获取成功", c.taskManager.Status())
}

// TriggerCleanup 立即执行一次已售作品清理
// @Summary 手动清理已售作品
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response{data=task.CleanupStats}
// @Failure 409 {object} dto.Response
// @Router /api/admin/tasks/cleanup [post]
func (c *TaskController) TriggerCleanup(ctx *gin.Context) {
	stats, err := c.taskManager.TriggerCleanup(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, task.ErrTaskDisabled) {
			abort(ctx, http.StatusConflict, "清理任务未启用")
			return
		}
		fail(ctx, err)
		return
	}
	ok(ctx, "清理完成", stats)
}
