package api

import (
	"strconv"

	"sisgeagro/config"
	"sisgeagro/database"
	"sisgeagro/middleware"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
)

// MovementHandler 收支处理器
type MovementHandler struct {
	mailer service.Mailer
}

// NewMovementHandler 创建收支处理器，邮件未启用时只写站内通知
func NewMovementHandler(cfg *config.Config) *MovementHandler {
	return &MovementHandler{mailer: mailerFor(cfg)}
}

func mailerFor(cfg *config.Config) service.Mailer {
	if cfg == nil || !cfg.Email.Enabled {
		return nil
	}
	return service.NewEmailService(&cfg.Email)
}

func (h *MovementHandler) service() *service.MovementService {
	return service.NewMovementService(database.DB, h.mailer)
}

// DeleteMovementRequest 删除收支请求
type DeleteMovementRequest struct {
	ID uint `json:"id" binding:"required" example:"11"`
}

// DeleteMovementResponse 删除结果
type DeleteMovementResponse struct {
	ID      uint `json:"id"`
	Deleted bool `json:"deleted"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "id inválido")
		return 0, false
	}
	return uint(id), true
}

// Create 创建收支
// @Summary 创建收支
// @Description 解析往来单位、支付方式、发票、类别，写入收支与税额明细，并向达到阈值的用户发送提醒
// @Tags 收支
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateMovementInput true "收支信息"
// @Success 201 {object} Response{data=service.MovementResult} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "引用的往来单位或税种不存在"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/v1/movements [post]
func (h *MovementHandler) Create(c *gin.Context) {
	var req service.CreateMovementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.service().Create(c.Request.Context(), middleware.GetCurrentUserID(c), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, "movimiento creado", result)
}

// Update 编辑收支
// @Summary 编辑收支
// @Description 合并补丁语义：只修改请求中出现的字段；taxes 出现时整体替换税额明细
// @Tags 收支
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "收支ID"
// @Param request body service.UpdateMovementInput true "要修改的字段"
// @Success 200 {object} Response{data=service.MovementView} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "收支不存在"
// @Failure 409 {object} Response "发票号或往来单位冲突"
// @Router /api/v1/movements/{id} [put]
func (h *MovementHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateMovementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	view, err := h.service().Update(c.Request.Context(), middleware.GetCurrentUserID(c), id, req)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessWithMessage(c, "movimiento actualizado", view)
}

// Delete 删除收支（请求体传 id）
// @Summary 删除收支
// @Description 级联删除税额明细、收支、支付方式、发票和关联记录；记录不存在时返回 deleted=false
// @Tags 收支
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteMovementRequest true "收支ID"
// @Success 200 {object} Response{data=DeleteMovementResponse} "删除成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/movements/delete [post]
func (h *MovementHandler) Delete(c *gin.Context) {
	var req DeleteMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.delete(c, req.ID)
}

// DeleteByPath 删除收支（路径传 id）
// @Summary 删除收支
// @Tags 收支
// @Produce json
// @Security BearerAuth
// @Param id path int true "收支ID"
// @Success 200 {object} Response{data=DeleteMovementResponse} "删除成功"
// @Router /api/v1/movements/{id} [delete]
func (h *MovementHandler) DeleteByPath(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.delete(c, id)
}

func (h *MovementHandler) delete(c *gin.Context, id uint) {
	deleted, err := h.service().Delete(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	message := "movimiento eliminado"
	if !deleted {
		message = "el movimiento ya fue eliminado"
	}
	SuccessWithMessage(c, message, DeleteMovementResponse{ID: id, Deleted: deleted})
}

// Get 获取收支详情
// @Summary 获取收支详情
// @Tags 收支
// @Produce json
// @Security BearerAuth
// @Param id path int true "收支ID"
// @Success 200 {object} Response{data=service.MovementView} "获取成功"
// @Failure 404 {object} Response "收支不存在"
// @Router /api/v1/movements/{id} [get]
func (h *MovementHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.service().Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, view)
}

// List 查询收支（query 参数）
// @Summary 查询收支列表
// @Description 按类型、日期范围、类别、往来单位、核对状态和关键字筛选，分页返回
// @Tags 收支
// @Produce json
// @Security BearerAuth
// @Param type query string false "ingreso / egreso / inversion"
// @Param from query string false "开始日期 (YYYY-MM-DD)"
// @Param to query string false "结束日期 (YYYY-MM-DD)"
// @Param category_id query int false "类别ID"
// @Param category query string false "类别名称"
// @Param subcategory query string false "子类别名称"
// @Param entity_id query int false "往来单位ID"
// @Param verified query bool false "是否已核对"
// @Param search query string false "关键字（描述/往来单位/发票号）"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} Response{data=PageResponse{list=[]service.MovementView}} "获取成功"
// @Router /api/v1/movements [get]
func (h *MovementHandler) List(c *gin.Context) {
	var f service.MovementFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		bindError(c, err)
		return
	}
	h.list(c, f)
}

// Search 查询收支（JSON 请求体）
// @Summary 查询收支列表（JSON）
// @Tags 收支
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.MovementFilter true "筛选条件"
// @Success 200 {object} Response{data=PageResponse{list=[]service.MovementView}} "获取成功"
// @Router /api/v1/movements/search [post]
func (h *MovementHandler) Search(c *gin.Context) {
	var f service.MovementFilter
	if err := c.ShouldBindJSON(&f); err != nil {
		bindError(c, err)
		return
	}
	h.list(c, f)
}

func (h *MovementHandler) list(c *gin.Context, f service.MovementFilter) {
	views, total, err := h.service().List(c.Request.Context(), f)
	if err != nil {
		Fail(c, err)
		return
	}
	page, size := f.PageBounds()
	Success(c, PageResponse{
		Total:    total,
		Page:     page,
		PageSize: size,
		List:     views,
	})
}
