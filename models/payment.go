package models

// 支付方式
const (
	PaymentCash     = "efectivo"
	PaymentTransfer = "transferencia"
	PaymentCheck    = "cheque"
	PaymentCard     = "tarjeta"
	PaymentOther    = "otro"
)

// PaymentMethod 每条收支对应一条支付方式记录
type PaymentMethod struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Type string `json:"type" gorm:"size:100;not null"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// GetPaymentTypes 获取所有预置支付方式
func GetPaymentTypes() []string {
	return []string{PaymentCash, PaymentTransfer, PaymentCheck, PaymentCard, PaymentOther}
}
