package models

import "time"

// Category 收支类别，描述统一存为大写
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Description string    `json:"description" gorm:"size:100;not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Subcategory 子类别，(description, category_id) 唯一
type Subcategory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Description string    `json:"description" gorm:"size:100;not null;index:idx_subcategory_scope"`
	CategoryID  uint      `json:"category_id" gorm:"not null;index:idx_subcategory_scope"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}

// 税费类收支固定归入的类别
const (
	TaxCategoryLabel       = "Impuestos y Tasas"
	TaxFallbackSubcategory = "Impuestos Varios"
)
