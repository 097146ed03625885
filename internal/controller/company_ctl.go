package controller

import (
	"strings"

	"github.com/gin-gonic/gin"

	"hualang_api/internal/api/dto"
	"hualang_api/internal/model"
	"hualang_api/internal/service"
)

// ==================== CompanyController 公司 ====================

type CompanyController struct {
	companySvc     *service.CompanyService
	affiliationSvc *service.AffiliationService
}

func NewCompanyController(companySvc *service.CompanyService, affiliationSvc *service.AffiliationService) *CompanyController {
	return &CompanyController{companySvc: companySvc, affiliationSvc: affiliationSvc}
}

// Get 公司资料
// @Summary 公司资料
// @Tags Company
// @Produce json
// @Security BearerAuth
// @Param userid path int true "公司用户ID"
// @Success 200 {object} dto.Response{data=model.Company}
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/companies/{userid} [get]
func (c *CompanyController) Get(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	company, err := c.companySvc.GetByUserID(ctx.Request.Context(), userID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", company)
}

// Dashboard 公司看板
// @Summary 公司看板
// @Description 旗下画家、展览，以及近一周/一月/一年的销售额、利润、热门题材与尺寸
// @Tags Company
// @Produce json
// @Security BearerAuth
// @Param userid path int true "公司用户ID"
// @Success 200 {object} dto.Response{data=service.Dashboard}
// @Router /api/companies/alldata/{userid} [get]
func (c *CompanyController) Dashboard(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	if !selfOrAdmin(ctx, userID) {
		return
	}
	dashboard, err := c.companySvc.Dashboard(ctx.Request.Context(), userID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", dashboard)
}

// Subscribe 订阅会员
// @Summary 订阅会员
// @Tags Company
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userid path int true "公司用户ID"
// @Param request body dto.SubscribeRequest true "会员类型 trial/monthly/yearly"
// @Success 200 {object} dto.Response{data=model.Company}
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/companies/membership/{userid}/subscribe [post]
func (c *CompanyController) Subscribe(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	if !selfOrAdmin(ctx, userID) {
		return
	}

	var req dto.SubscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	membership := model.MembershipType(strings.ToLower(strings.TrimSpace(req.Type)))
	company, err := c.companySvc.Subscribe(ctx.Request.Context(), userID, membership)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "订阅成功", company)
}

// UnbindArtist 解约
// @Summary 与画家解约
// @Tags Company
// @Produce json
// @Security BearerAuth
// @Param companyuserid path int true "公司用户ID"
// @Param artistuserid path int true "画家用户ID"
// @Success 200 {object} dto.Response
// @Failure 409 {object} dto.ErrorResponse "画家未签约该公司"
// @Router /api/companies/unbind-artist/{companyuserid}/{artistuserid} [delete]
func (c *CompanyController) UnbindArtist(ctx *gin.Context) {
	companyUserID, valid := pathID(ctx, "companyuserid")
	if !valid {
		return
	}
	artistUserID, valid := pathID(ctx, "artistuserid")
	if !valid {
		return
	}
	if !selfOrAdmin(ctx, companyUserID) {
		return
	}

	if err := c.affiliationSvc.Unbind(ctx.Request.Context(), companyUserID, artistUserID); err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "解约成功", nil)
}
