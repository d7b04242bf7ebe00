package models

import "time"

// AutoBillPrefix 未填写发票号时自动生成编号的前缀
const AutoBillPrefix = "AUTO-"

// Bill 发票/单据
type Bill struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Number    string    `json:"number" gorm:"size:50;not null;index"`
	Date      time.Time `json:"date" gorm:"type:date;not null"`
	Amount    float64   `json:"amount" gorm:"type:double;not null"` // 按提交值保存，不做舍入
	EntityID  uint      `json:"entity_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Bill) TableName() string {
	return "bills"
}

// Operation 支付方式与发票的一对一关联
type Operation struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	PaymentID uint `json:"payment_id" gorm:"index;not null"`
	BillID    uint `json:"bill_id" gorm:"index;not null"`
}

func (Operation) TableName() string {
	return "operations"
}
