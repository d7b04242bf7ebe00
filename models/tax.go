package models

import "time"

// TaxDefinition 税种，Percentage 为空表示只登记不自动计算
type TaxDefinition struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"size:100;not null;index"`
	Percentage *float64  `json:"percentage" gorm:"type:decimal(6,3)"`
	CreatedAt  time.Time `json:"created_at"`
}

func (TaxDefinition) TableName() string {
	return "taxes"
}

// MovementTax 收支的税额明细
type MovementTax struct {
	ID               uint    `json:"id" gorm:"primaryKey"`
	MovementID       uint    `json:"movement_id" gorm:"index;not null"`
	TaxID            uint    `json:"tax_id" gorm:"index;not null"`
	Percentage       float64 `json:"percentage" gorm:"type:decimal(6,3);not null;default:0"`
	CalculatedAmount float64 `json:"calculated_amount" gorm:"type:decimal(14,2);not null"`
}

func (MovementTax) TableName() string {
	return "movement_taxes"
}
