package api

import (
	"strings"

	"sisgeagro/database"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 类别/子类别处理器
type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// SubcategoryCreateRequest 创建子类别：category_id 与 category 二选一
type SubcategoryCreateRequest struct {
	CategoryID  uint   `json:"category_id" example:"5"`
	Category    string `json:"category" binding:"omitempty,max=100" example:"Combustibles"`
	Description string `json:"description" binding:"required,max=100" example:"Gasoil"`
}

// CreateSubcategory 创建子类别
// @Summary 创建子类别
// @Description 类别不存在时一并创建；同一类别下相同描述的子类别直接返回已有记录
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubcategoryCreateRequest true "子类别信息"
// @Success 201 {object} Response{data=models.Subcategory} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/subcategories [post]
func (h *CategoryHandler) CreateSubcategory(c *gin.Context) {
	var req SubcategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	taxonomy := service.NewTaxonomyResolver(database.DB)
	categoryID := req.CategoryID
	if categoryID == 0 {
		if strings.TrimSpace(req.Category) == "" {
			BadRequest(c, "se requiere category_id o category")
			return
		}
		cat, err := taxonomy.ResolveCategory(ctx, req.Category)
		if err != nil {
			Fail(c, err)
			return
		}
		categoryID = cat.ID
	}

	sub, err := taxonomy.ResolveSubcategory(ctx, req.Description, categoryID)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, "subcategoría registrada", sub)
}

// List 列出类别及子类别
// @Summary 类别列表
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]service.CategoryTree} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	tree, err := service.NewTaxonomyResolver(database.DB).Tree(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, tree)
}
