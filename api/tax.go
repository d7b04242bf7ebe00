package api

import (
	"sisgeagro/database"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
)

// TaxHandler 税种处理器
type TaxHandler struct{}

// NewTaxHandler 创建税种处理器
func NewTaxHandler() *TaxHandler {
	return &TaxHandler{}
}

// Create 创建税种
// @Summary 创建税种
// @Description percentage 为空表示只登记、不自动计算税额
// @Tags 税种
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateTaxInput true "税种信息"
// @Success 201 {object} Response{data=models.TaxDefinition} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/taxes [post]
func (h *TaxHandler) Create(c *gin.Context) {
	var req service.CreateTaxInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tax, err := service.NewTaxWriter(database.DB).CreateTax(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, "impuesto creado", tax)
}

// List 税种列表
// @Summary 税种列表
// @Tags 税种
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.TaxDefinition} "获取成功"
// @Router /api/v1/taxes [get]
func (h *TaxHandler) List(c *gin.Context) {
	list, err := service.NewTaxWriter(database.DB).ListTaxes(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, list)
}
