package controller

import (
	"github.com/gin-gonic/gin"

	"hualang_api/internal/api/dto"
	"hualang_api/internal/service"
)

// ==================== AuthController 认证控制器 ====================

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(s *service.AuthService) *AuthController {
	return &AuthController{authService: s}
}

// Register 注册
// @Summary 注册画家或公司账号
// @Description 同时创建对应的画家/公司档案
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "注册信息"
// @Success 201 {object} dto.Response{data=model.User}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "邮箱已注册"
// @Router /api/auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, "注册成功", user)
}

// Login 登录
// @Summary 邮箱密码登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "登录信息"
// @Success 200 {object} dto.Response{data=service.TokenResult}
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "登录成功", result)
}

// Refresh 刷新 Token
// @Summary 刷新 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token"
// @Success 200 {object} dto.Response{data=service.TokenResult}
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}

	result, err := c.authService.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "刷新成功", result)
}
