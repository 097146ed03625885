package controller

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hualang_api/internal/api/dto"
	"hualang_api/internal/middleware"
	"hualang_api/internal/model"
	"hualang_api/internal/service"
)

// ==================== 统一响应 ====================

func ok(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{Code: 0, Message: message, Data: data})
}

func created(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusCreated, dto.Response{Code: 0, Message: message, Data: data})
}

func abort(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, dto.Response{Code: status, Message: message})
}

func badRequest(ctx *gin.Context, message string) {
	abort(ctx, http.StatusBadRequest, message)
}

func forbidden(ctx *gin.Context) {
	abort(ctx, http.StatusForbidden, "无权操作")
}

// fail 按业务错误类别映射状态码；Internal 不向客户端暴露底层错误
func fail(ctx *gin.Context, err error) {
	status := statusOf(service.KindOf(err))
	message := service.MessageOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s 失败: %v", ctx.Request.Method, ctx.FullPath(), err)
	}
	abort(ctx, status, message)
}

func statusOf(kind service.ErrorKind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindExternalFailure:
		return http.StatusBadGateway
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ==================== 参数解析 ====================

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// pathID 解析路径参数，失败时已写回 400
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := parseInt64(ctx.Param(name))
	if err != nil || id <= 0 {
		badRequest(ctx, "无效的 "+name)
		return 0, false
	}
	return id, true
}

// ==================== 权限辅助 ====================

type caller struct {
	userID int64
	role   model.UserRole
}

func currentCaller(ctx *gin.Context) caller {
	return caller{
		userID: middleware.GetUserID(ctx),
		role:   model.UserRole(middleware.GetUserRole(ctx)),
	}
}

func (c caller) isAdmin() bool {
	return c.role == model.RoleAdmin
}

// selfOrAdmin 仅本人或管理员可访问 userID 对应的资源，否则写回 403
func selfOrAdmin(ctx *gin.Context, userID int64) bool {
	c := currentCaller(ctx)
	if c.isAdmin() || c.userID == userID {
		return true
	}
	forbidden(ctx)
	return false
}
