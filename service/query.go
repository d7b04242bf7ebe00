package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MovementView 收支列表/详情视图
type MovementView struct {
	ID            uint          `json:"id"`
	Description   string        `json:"description"`
	Type          string        `json:"type"`
	Amount        float64       `json:"amount"`
	Date          time.Time     `json:"date"`
	BillNumber    string        `json:"bill_number"`
	EntityID      uint          `json:"entity_id"`
	EntityName    string        `json:"entity_name"`
	FiscalID      string        `json:"fiscal_id"`
	CategoryID    uint          `json:"category_id"`
	Category      string        `json:"category"`
	SubcategoryID uint          `json:"subcategory_id"`
	Subcategory   string        `json:"subcategory"`
	PaymentType   string        `json:"payment_type"`
	Verified      bool          `json:"verified"`
	IsTaxPayment  bool          `json:"is_tax_payment"`
	RelatedTaxID  *uint         `json:"related_tax_id"`
	CreatedBy     uint          `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	Taxes         []TaxLineView `json:"taxes" gorm:"-"`
}

// TaxLineView 税额明细视图
type TaxLineView struct {
	MovementID       uint     `json:"-"`
	TaxID            uint     `json:"tax_id"`
	Name             string   `json:"name"`
	Percentage       *float64 `json:"percentage"`
	CalculatedAmount float64  `json:"calculated_amount"`
}

// MovementFilter 收支筛选条件，同时支持 query 与 JSON
type MovementFilter struct {
	Type        string `form:"type" json:"type"`
	From        string `form:"from" json:"from"`
	To          string `form:"to" json:"to"`
	CategoryID  uint   `form:"category_id" json:"category_id"`
	Category    string `form:"category" json:"category"`
	Subcategory string `form:"subcategory" json:"subcategory"`
	EntityID    uint   `form:"entity_id" json:"entity_id"`
	Verified    *bool  `form:"verified" json:"verified"`
	Search      string `form:"search" json:"search"`
	Page        int    `form:"page" json:"page"`
	PageSize    int    `form:"page_size" json:"page_size"`
}

const movementViewColumns = `m.id, m.description, m.type, b.amount, b.date, b.number AS bill_number,
e.id AS entity_id, e.name AS entity_name, e.fiscal_id,
c.id AS category_id, c.description AS category, s.id AS subcategory_id, s.description AS subcategory,
p.type AS payment_type, m.verified, m.is_tax_payment, m.related_tax_id, m.created_by, m.created_at`

func (s *MovementService) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("movements AS m").
		Joins("JOIN operations o ON o.id = m.operation_id").
		Joins("JOIN bills b ON b.id = o.bill_id").
		Joins("JOIN payment_methods p ON p.id = o.payment_id").
		Joins("JOIN entities e ON e.id = b.entity_id").
		Joins("JOIN subcategories s ON s.id = m.subcategory_id").
		Joins("JOIN categories c ON c.id = s.category_id")
}

func applyMovementFilter(q *gorm.DB, f MovementFilter) *gorm.DB {
	if t := strings.ToLower(strings.TrimSpace(f.Type)); t != "" {
		q = q.Where("m.type = ?", t)
	}
	if f.From != "" {
		if d, err := time.Parse(DateLayout, f.From); err == nil {
			q = q.Where("b.date >= ?", d)
		}
	}
	if f.To != "" {
		if d, err := time.Parse(DateLayout, f.To); err == nil {
			q = q.Where("b.date <= ?", d)
		}
	}
	if f.CategoryID != 0 {
		q = q.Where("c.id = ?", f.CategoryID)
	}
	if c := NormalizeLabel(f.Category); c != "" {
		q = q.Where("c.description = ?", c)
	}
	if sc := NormalizeLabel(f.Subcategory); sc != "" {
		q = q.Where("s.description = ?", sc)
	}
	if f.EntityID != 0 {
		q = q.Where("e.id = ?", f.EntityID)
	}
	if f.Verified != nil {
		q = q.Where("m.verified = ?", *f.Verified)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + escapeLike(search) + "%"
		q = q.Where("(m.description LIKE ? OR e.name LIKE ? OR b.number LIKE ?)", like, like, like)
	}
	return q
}

// Get 获取单条收支详情
func (s *MovementService) Get(ctx context.Context, id uint) (*MovementView, error) {
	var views []MovementView
	err := s.joined(ctx).
		Select(movementViewColumns).
		Where("m.id = ?", id).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, notFoundError("movimiento %d no encontrado", id)
	}
	if err := s.attachTaxes(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// PageBounds 页码从 1 开始，每页默认 20 条，最多 200 条
func (f MovementFilter) PageBounds() (page, size int) {
	page, size = f.Page, f.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	return page, size
}

// List 分页查询收支
func (s *MovementService) List(ctx context.Context, f MovementFilter) ([]MovementView, int64, error) {
	f.Page, f.PageSize = f.PageBounds()

	filtered := applyMovementFilter(s.joined(ctx), f)

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	views := []MovementView{}
	err := filtered.Session(&gorm.Session{}).
		Select(movementViewColumns).
		Order("b.date DESC, m.id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Scan(&views).Error
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachTaxes(ctx, views); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// All 不分页查询全部符合条件的收支（导出使用）
func (s *MovementService) All(ctx context.Context, f MovementFilter) ([]MovementView, error) {
	views := []MovementView{}
	err := applyMovementFilter(s.joined(ctx), f).
		Select(movementViewColumns).
		Order("b.date ASC, m.id ASC").
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, s.attachTaxes(ctx, views)
}

func (s *MovementService) attachTaxes(ctx context.Context, views []MovementView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]uint, len(views))
	for i := range views {
		ids[i] = views[i].ID
		views[i].Taxes = []TaxLineView{}
	}

	var lines []TaxLineView
	err := s.db.WithContext(ctx).
		Table("movement_taxes AS mt").
		Select("mt.movement_id, mt.tax_id, t.name, mt.percentage, mt.calculated_amount").
		Joins("JOIN taxes t ON t.id = mt.tax_id").
		Where("mt.movement_id IN ?", ids).
		Scan(&lines).Error
	if err != nil {
		return err
	}

	index := make(map[uint]int, len(views))
	for i, v := range views {
		index[v.ID] = i
	}
	for _, l := range lines {
		if i, ok := index[l.MovementID]; ok {
			views[i].Taxes = append(views[i].Taxes, l)
		}
	}
	return nil
}
