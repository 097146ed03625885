package controller

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hualang_api/internal/api/dto"
	"hualang_api/internal/service"
)

// ==================== ArtworkController 作品 ====================

type ArtworkController struct {
	artworkSvc    *service.ArtworkService
	settlementSvc *service.SettlementService
}

func NewArtworkController(artworkSvc *service.ArtworkService, settlementSvc *service.SettlementService) *ArtworkController {
	return &ArtworkController{artworkSvc: artworkSvc, settlementSvc: settlementSvc}
}

// Upload 上传作品
// @Summary 上传作品
// @Description 图片先上传到对象存储，再分配序号入库；作品数达到办展数时生成展览
// @Tags Artwork
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "作品图片（不超过 5MB）"
// @Param title formData string true "标题"
// @Param description formData string true "描述"
// @Param size formData string true "尺寸，如 3平方尺"
// @Param estimatedPrice formData string false "估价"
// @Param theme formData string false "题材"
// @Param creationDate formData string false "创作日期 YYYY-MM-DD"
// @Param artistId formData int false "画家用户ID（仅管理员代传）"
// @Success 201 {object} dto.Response{data=service.UploadResult}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse "对象存储失败"
// @Router /api/upload/artwork [post]
func (c *ArtworkController) Upload(ctx *gin.Context) {
	who := currentCaller(ctx)
	artistUserID := who.userID
	if raw := ctx.PostForm("artistId"); raw != "" {
		id, err := parseInt64(raw)
		if err != nil {
			badRequest(ctx, "无效的 artistId")
			return
		}
		if id != who.userID && !who.isAdmin() {
			forbidden(ctx)
			return
		}
		artistUserID = id
	}

	in := &service.UploadArtworkInput{
		Title:          ctx.PostForm("title"),
		Description:    ctx.PostForm("description"),
		Theme:          ctx.PostForm("theme"),
		Size:           ctx.PostForm("size"),
		EstimatedPrice: ctx.PostForm("estimatedPrice"),
	}
	if raw := strings.TrimSpace(ctx.PostForm("creationDate")); raw != "" {
		date, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			badRequest(ctx, "创作日期格式应为 YYYY-MM-DD")
			return
		}
		in.CreationDate = &date
	}

	file, valid := readUploadedFile(ctx, "file")
	if !valid {
		return
	}

	result, err := c.artworkSvc.UploadArtwork(ctx.Request.Context(), artistUserID, in, file)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, "上传成功", result)
}

// Search 搜索公司旗下作品
// @Summary 搜索作品
// @Description 在公司签约画家的作品中按标题或画家名搜索；公司用户默认搜索自己
// @Tags Artwork
// @Produce json
// @Security BearerAuth
// @Param query query string false "关键词"
// @Param companyId query int false "公司用户ID"
// @Success 200 {object} dto.Response{data=[]model.Artwork}
// @Router /api/artworks/search [get]
func (c *ArtworkController) Search(ctx *gin.Context) {
	var q dto.ArtworkSearchQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	if q.CompanyID == 0 {
		q.CompanyID = currentCaller(ctx).userID
	}
	if !selfOrAdmin(ctx, q.CompanyID) {
		return
	}

	list, err := c.artworkSvc.Search(ctx.Request.Context(), q.CompanyID, q.Query)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// ListByArtist 画家作品列表
// @Summary 画家作品列表
// @Tags Artwork
// @Produce json
// @Security BearerAuth
// @Param userid path int true "画家用户ID"
// @Success 200 {object} dto.Response{data=[]model.Artwork}
// @Router /api/artworks/artist/{userid} [get]
func (c *ArtworkController) ListByArtist(ctx *gin.Context) {
	userID, valid := pathID(ctx, "userid")
	if !valid {
		return
	}
	list, err := c.artworkSvc.ListByArtistUser(ctx.Request.Context(), userID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", list)
}

// Get 作品详情
// @Summary 作品详情
// @Tags Artwork
// @Produce json
// @Security BearerAuth
// @Param id path int true "作品ID"
// @Success 200 {object} dto.Response{data=model.Artwork}
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/artworks/{id} [get]
func (c *ArtworkController) Get(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	artwork, err := c.artworkSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "获取成功", artwork)
}

// Settle 售出结算 / 撤销售出
// @Summary 售出结算
// @Description isSold=true 时按 签约价×面积 计算画家报酬并写入成交记录；false 时撤销
// @Tags Artwork
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "作品ID"
// @Param request body dto.SettleArtworkRequest true "售出信息"
// @Success 200 {object} dto.Response{data=service.SettlementResult}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/artworks/{id} [put]
func (c *ArtworkController) Settle(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.SettleArtworkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	if !c.canManage(ctx, id) {
		return
	}

	result, err := c.settlementSvc.SettleArtwork(ctx.Request.Context(), id, *req.IsSold, req.SalePrice)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "更新成功", result)
}

// Delete 删除作品
// @Summary 删除作品
// @Description 同时删除图片与成交记录
// @Tags Artwork
// @Produce json
// @Security BearerAuth
// @Param id path int true "作品ID"
// @Success 200 {object} dto.Response
// @Failure 502 {object} dto.ErrorResponse "图片删除失败"
// @Router /api/artworks/{id} [delete]
func (c *ArtworkController) Delete(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if !c.canManage(ctx, id) {
		return
	}

	if err := c.artworkSvc.Delete(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, "作品已删除", nil)
}

func (c *ArtworkController) canManage(ctx *gin.Context, artworkID int64) bool {
	who := currentCaller(ctx)
	allowed, err := c.artworkSvc.CanManage(ctx.Request.Context(), who.userID, who.role, artworkID)
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

// ==================== 文件读取 ====================

// readUploadedFile 读取 multipart 文件，超过上限直接拒绝
func readUploadedFile(ctx *gin.Context, field string) (*service.UploadedFile, bool) {
	header, err := ctx.FormFile(field)
	if err != nil {
		badRequest(ctx, "未上传文件: "+field)
		return nil, false
	}
	if header.Size > service.MaxUploadSize {
		abort(ctx, http.StatusRequestEntityTooLarge, "文件不能超过 5MB")
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		badRequest(ctx, "读取文件失败")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxUploadSize+1))
	if err != nil {
		badRequest(ctx, "读取文件失败")
		return nil, false
	}

	// 以文件内容判断类型，只接受图片
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		abort(ctx, http.StatusUnsupportedMediaType, "只支持上传图片文件")
		return nil, false
	}
	return &service.UploadedFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, true
}
