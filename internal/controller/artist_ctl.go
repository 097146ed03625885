package controller

import (
	"github.com/gin-gonic/gin"

	"hualang_api/internal/api/dto"
	"hualang_api/internal/model"
	"hualang_api/internal/service"
)

// ==================== ArtistController 画家 ====================

type ArtistController struct {
	artistSvc  *service.ArtistService
	companySvc *service.CompanyService
}

func NewArtistController(artistSvc *service.ArtistService, companySvc *service.CompanyService) *ArtistController {
	return &ArtistController{artistSvc: artistSvc, companySvc: companySvc}
}

// List 全部画家
// @Summary 画家列表
// @Tags Artist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response{data=[]model.Artist}
// @Router /api/artists/all [get]
func (c *ArtistController) List(ctx *gin.Context) {
	list, err := c.artistSvc.List(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// Search 按名字搜索未签约画家
// @Summary 搜索未签约画家
// @Description 供公司发出签约邀请前查找画家
// @Tags Artist
// @Produce json
// @Security BearerAuth
// @Param name query string false "画家名（模糊匹配）"
// @Success 200 {object} dto.Response{data=[]model.Artist}
// @Router /api/artists/search [get]
func (c *ArtistController) Search(ctx *gin.Context) {
	list, err := c.artistSvc.SearchUnaffiliated(ctx.Request.Context(), ctx.Query("name"))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// Get 画家详情
// @Summary 画家详情
// @Tags Artist
// @Produce json
// @Security BearerAuth
// @Param userid path int true "画家用户ID"
// @Success 200 {object} dto.Response{data=model.Artist}
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/artists/{userid} [get]
func (c *ArtistController) Get(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	artist, err := c.artistSvc.GetByUserID(ctx.Request.Context(), userID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", artist)
}

// Stats 画家销售统计
// @Summary 画家销售统计
// @Tags Artist
// @Produce json
// @Security BearerAuth
// @Param userid path int true "画家用户ID"
// @Success 200 {object} dto.Response{data=service.ArtistStats}
// @Router /api/artists/{userid}/stats [get]
func (c *ArtistController) Stats(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	if !c.canManageArtist(ctx, userID) {
		return
	}
	stats, err := c.artistSvc.Stats(ctx.Request.Context(), userID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", stats)
}

// Update 更新画家资料
// @Summary 更新画家资料
// @Description 空字段保持不变；签约公司只能通过邀请变更
// @Tags Artist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userid path int true "画家用户ID"
// @Param request body service.UpdateArtistInput true "资料"
// @Success 200 {object} dto.Response{data=model.Artist}
// @Router /api/artists/{userid} [put]
func (c *ArtistController) Update(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	if !c.canManageArtist(ctx, userID) {
		return
	}

	var req service.UpdateArtistInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	artist, err := c.artistSvc.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "更新成功", artist)
}

// AddSettledAmount 追加结算金额
// @Summary 追加结算金额
// @Tags Artist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userid path int true "画家用户ID"
// @Param request body dto.SettledAmountRequest true "本次结算金额"
// @Success 200 {object} dto.Response{data=dto.SettledAmountResponse}
// @Router /api/artists/{userid}/settled-amount [put]
func (c *ArtistController) AddSettledAmount(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	if !c.canManageArtist(ctx, userID) {
		return
	}

	var req dto.SettledAmountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	total, err := c.artistSvc.AddSettledAmount(ctx.Request.Context(), userID, *req.SettledAmount)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "结算成功", dto.SettledAmountResponse{SettledAmount: total})
}

// UploadAvatar 上传头像
// @Summary 上传头像
// @Tags Artist
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param userid path int true "画家用户ID"
// @Param avatar formData file true "头像图片（不超过 5MB）"
// @Success 200 {object} dto.Response{data=model.Artist}
// @Router /api/artists/{userid}/avatar [put]
func (c *ArtistController) UploadAvatar(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	if !selfOrAdmin(ctx, userID) {
		return
	}

	file, valid := readUploadedFile(ctx, "avatar")
	if !valid {
		return
	}
	artist, err := c.artistSvc.UploadAvatar(ctx.Request.Context(), userID, file)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "上传成功", artist)
}

// ListByCompany 公司旗下画家（含作品数）
// @Summary 公司旗下画家
// @Tags Artist
// @Produce json
// @Security BearerAuth
// @Param userid path int true "公司用户ID"
// @Success 200 {object} dto.Response{data=[]repository.ArtistWithCount}
// @Router /api/artists/company/{userid} [get]
func (c *ArtistController) ListByCompany(ctx *gin.Context) {
	companyUserID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	if !selfOrAdmin(ctx, companyUserID) {
		return
	}
	list, err := c.artistSvc.ListByCompanyUser(ctx.Request.Context(), companyUserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// canManageArtist 画家本人、其签约公司或管理员
func (c *ArtistController) canManageArtist(ctx *gin.Context, artistUserID int64) bool {
	who := currentCaller(ctx)
	if who.isAdmin() || who.userID == artistUserID {
		return true
	}
	if who.role == model.RoleCompany {
		artist, err := c.artistSvc.GetByUserID(ctx.Request.Context(), artistUserID)
		if err != nil {
			fail(ctx, err)
			return false
		}
		company, err := c.companySvc.GetByUserID(ctx.Request.Context(), who.userID)
		if err != nil {
			fail(ctx, err)
			return false
		}
		if artist.AffiliatedWith(company.ID) {
			return true
		}
	}
	forbidden(ctx)
	return false
}
