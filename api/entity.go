package api

import (
	"sisgeagro/database"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
)

// EntityHandler 往来单位处理器
type EntityHandler struct{}

// NewEntityHandler 创建往来单位处理器
func NewEntityHandler() *EntityHandler {
	return &EntityHandler{}
}

// CreateEntityRequest 创建往来单位请求
type CreateEntityRequest struct {
	Name     string `json:"name" binding:"required,max=150" example:"Agro SA"`
	FiscalID string `json:"fiscal_id" binding:"required,max=20" example:"30-71234567-8"`
}

// Create 创建往来单位
// @Summary 创建往来单位
// @Description 税号已存在时返回已有记录；同名但税号不同视为冲突
// @Tags 往来单位
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEntityRequest true "往来单位信息"
// @Success 201 {object} Response{data=models.Entity} "创建成功"
// @Success 200 {object} Response{data=models.Entity} "已存在"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "同名往来单位已存在"
// @Router /api/v1/entities [post]
func (h *EntityHandler) Create(c *gin.Context) {
	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resolver := service.NewEntityResolver(database.DB)
	entity, created, err := resolver.ResolveStrict(c.Request.Context(), service.EntityRef{Name: req.Name, FiscalID: req.FiscalID})
	if err != nil {
		Fail(c, err)
		return
	}
	if created {
		Created(c, "entidad creada", entity)
		return
	}
	SuccessWithMessage(c, "la entidad ya existe", entity)
}

// List 往来单位列表
// @Summary 往来单位列表
// @Tags 往来单位
// @Produce json
// @Security BearerAuth
// @Param search query string false "名称或税号（模糊匹配）"
// @Success 200 {object} Response{data=[]models.Entity} "获取成功"
// @Router /api/v1/entities [get]
func (h *EntityHandler) List(c *gin.Context) {
	list, err := service.NewEntityResolver(database.DB).List(c.Request.Context(), c.Query("search"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, list)
}
