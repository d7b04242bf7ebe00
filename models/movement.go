package models

import "time"

// 收支类型
const (
	MovementIncome     = "ingreso"
	MovementExpense    = "egreso"
	MovementInvestment = "inversion"
)

// Movement 收支记录
type Movement struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Description   string    `json:"description" gorm:"size:255;not null"`
	Type          string    `json:"type" gorm:"size:20;not null;index"`
	OperationID   uint      `json:"operation_id" gorm:"index;not null"`
	SubcategoryID uint      `json:"subcategory_id" gorm:"index;not null"`
	CreatedBy     uint      `json:"created_by" gorm:"index;not null"`
	Verified      bool      `json:"verified" gorm:"default:false"`
	IsTaxPayment  bool      `json:"is_tax_payment" gorm:"default:false"`
	RelatedTaxID  *uint     `json:"related_tax_id" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Movement) TableName() string {
	return "movements"
}

// GetMovementTypes 获取所有收支类型
func GetMovementTypes() []string {
	return []string{MovementIncome, MovementExpense, MovementInvestment}
}

// IsValidMovementType 判断收支类型是否合法
func IsValidMovementType(t string) bool {
	for _, v := range GetMovementTypes() {
		if v == t {
			return true
		}
	}
	return false
}
