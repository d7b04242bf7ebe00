package service

import (
	"context"
	"errors"
	"strings"

	"sisgeagro/models"

	"gorm.io/gorm"
)

// TaxonomyResolver 类别/子类别解析器
type TaxonomyResolver struct {
	db *gorm.DB
}

// NewTaxonomyResolver 创建类别解析器
func NewTaxonomyResolver(db *gorm.DB) *TaxonomyResolver {
	return &TaxonomyResolver{db: db}
}

// NormalizeLabel 类别文本统一为去空格的大写
func NormalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Resolve 先解析类别，再在该类别下解析子类别
func (r *TaxonomyResolver) Resolve(ctx context.Context, category, subcategory string) (*models.Category, *models.Subcategory, error) {
	cat, err := r.ResolveCategory(ctx, category)
	if err != nil {
		return nil, nil, err
	}
	sub, err := r.ResolveSubcategory(ctx, subcategory, cat.ID)
	if err != nil {
		return nil, nil, err
	}
	return cat, sub, nil
}

// ResolveCategory 按描述（不区分大小写）查找类别，不存在则创建
func (r *TaxonomyResolver) ResolveCategory(ctx context.Context, text string) (*models.Category, error) {
	label := NormalizeLabel(text)
	if label == "" {
		return nil, validationError("la categoría es obligatoria")
	}

	var cat models.Category
	err := r.db.WithContext(ctx).Where("UPPER(description) = ?", label).First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cat = models.Category{Description: label}
	if err := r.db.WithContext(ctx).Create(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// ResolveSubcategory 在指定类别下查找子类别，不存在则创建
// 相同文本在不同类别下是不同的子类别
func (r *TaxonomyResolver) ResolveSubcategory(ctx context.Context, text string, categoryID uint) (*models.Subcategory, error) {
	label := NormalizeLabel(text)
	if label == "" {
		return nil, validationError("la subcategoría es obligatoria")
	}

	var sub models.Subcategory
	err := r.db.WithContext(ctx).
		Where("UPPER(description) = ? AND category_id = ?", label, categoryID).
		First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub = models.Subcategory{Description: label, CategoryID: categoryID}
	if err := r.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// TaxPaymentLabels 税费类收支的固定类别和子类别
func TaxPaymentLabels(relatedTax *models.TaxDefinition) (string, string) {
	if relatedTax == nil || strings.TrimSpace(relatedTax.Name) == "" {
		return models.TaxCategoryLabel, models.TaxFallbackSubcategory
	}
	return models.TaxCategoryLabel, relatedTax.Name
}

// CategoryTree 类别及其子类别
type CategoryTree struct {
	models.Category
	Subcategories []models.Subcategory `json:"subcategories"`
}

// Tree 列出所有类别及其子类别
func (r *TaxonomyResolver) Tree(ctx context.Context) ([]CategoryTree, error) {
	var cats []models.Category
	if err := r.db.WithContext(ctx).Order("description ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	var subs []models.Subcategory
	if err := r.db.WithContext(ctx).Order("description ASC").Find(&subs).Error; err != nil {
		return nil, err
	}

	byCategory := make(map[uint][]models.Subcategory)
	for _, s := range subs {
		byCategory[s.CategoryID] = append(byCategory[s.CategoryID], s)
	}
	tree := make([]CategoryTree, 0, len(cats))
	for _, c := range cats {
		children := byCategory[c.ID]
		if children == nil {
			children = []models.Subcategory{}
		}
		tree = append(tree, CategoryTree{Category: c, Subcategories: children})
	}
	return tree, nil
}
