package controller

import (
	"github.com/gin-gonic/gin"

	"hualang_api/internal/api/dto"
	"hualang_api/internal/model"
	"hualang_api/internal/service"
)

// ==================== ExhibitionController 展览 ====================

type ExhibitionController struct {
	exhibitionSvc *service.ExhibitionService
}

func NewExhibitionController(exhibitionSvc *service.ExhibitionService) *ExhibitionController {
	return &ExhibitionController{exhibitionSvc: exhibitionSvc}
}

// List 全部展览
// @Summary 展览列表
// @Tags Exhibition
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response{data=[]model.Exhibition}
// @Router /api/exhibitions [get]
func (c *ExhibitionController) List(ctx *gin.Context) {
	list, err := c.exhibitionSvc.List(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// ListByCompany 公司的展览
// @Summary 公司的展览
// @Tags Exhibition
// @Produce json
// @Security BearerAuth
// @Param companyId path int true "公司用户ID"
// @Success 200 {object} dto.Response{data=[]model.Exhibition}
// @Router /api/exhibitions/company/{companyId} [get]
func (c *ExhibitionController) ListByCompany(ctx *gin.Context) {
	companyUserID, valid := pathID(ctx, "companyId")
	if !valid {
		return
	}
	if !selfOrAdmin(ctx, companyUserID) {
		return
	}
	list, err := c.exhibitionSvc.ListByCompanyUser(ctx.Request.Context(), companyUserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// Create 手动创建展览
// @Summary 创建展览
// @Tags Exhibition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateExhibitionRequest true "展览信息"
// @Success 201 {object} dto.Response{data=model.Exhibition}
// @Router /api/exhibitions [post]
func (c *ExhibitionController) Create(ctx *gin.Context) {
	var req dto.CreateExhibitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}

	// 公司只能以自己的名义创建
	who := currentCaller(ctx)
	if who.role == model.RoleCompany {
		if req.CompanyID != 0 && req.CompanyID != who.userID {
			forbidden(ctx)
			return
		}
		req.CompanyID = who.userID
	}

	in := &service.CreateExhibitionInput{
		ArtistUserID:  req.ArtistUserID,
		ArtworkCount:  req.ArtworkCount,
		CompanyUserID: req.CompanyID,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	exhibition, err := c.exhibitionSvc.Create(ctx.Request.Context(), in)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, "创建成功", exhibition)
}

// Close 结束展览
// @Summary 结束展览
// @Tags Exhibition
// @Produce json
// @Security BearerAuth
// @Param id path int true "展览ID"
// @Success 200 {object} dto.Response{data=model.Exhibition}
// @Router /api/exhibitions/{id}/close [put]
func (c *ExhibitionController) Close(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if !c.canManage(ctx, id) {
		return
	}
	exhibition, err := c.exhibitionSvc.Close(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "展览已结束", exhibition)
}

// Delete 删除展览
// @Summary 删除展览
// @Tags Exhibition
// @Produce json
// @Security BearerAuth
// @Param id path int true "展览ID"
// @Success 200 {object} dto.Response
// @Router /api/exhibitions/{id} [delete]
func (c *ExhibitionController) Delete(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if !c.canManage(ctx, id) {
		return
	}
	if err := c.exhibitionSvc.Delete(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "展览已删除", nil)
}

func (c *ExhibitionController) canManage(ctx *gin.Context, exhibitionID int64) bool {
	who := currentCaller(ctx)
	allowed, err := c.exhibitionSvc.CanManage(ctx.Request.Context(), who.userID, who.role, exhibitionID)
	if err != nil {
		fail(ctx, err)
		return false
	}
	if !allowed {
		forbidden(ctx)
		return false
	}
	return true
}
