package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sisgeagro/models"

	"gorm.io/gorm"
)

// BillInput 发票写入参数
type BillInput struct {
	Number   string
	Date     time.Time
	Amount   float64
	EntityID uint
}

// PaymentWriter 支付方式与发票写入
type PaymentWriter struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPaymentWriter 创建支付/发票写入器
func NewPaymentWriter(db *gorm.DB) *PaymentWriter {
	return &PaymentWriter{db: db, now: time.Now}
}

// PaymentLabel 支付方式标签，选择“其他”时使用自定义文本
func PaymentLabel(paymentType, other string) string {
	paymentType = strings.TrimSpace(paymentType)
	if strings.EqualFold(paymentType, models.PaymentOther) {
		if custom := strings.TrimSpace(other); custom != "" {
			return custom
		}
	}
	return paymentType
}

// CreatePayment 创建支付方式记录
func (w *PaymentWriter) CreatePayment(ctx context.Context, paymentType, other string) (*models.PaymentMethod, error) {
	label := PaymentLabel(paymentType, other)
	if label == "" {
		return nil, validationError("el tipo de pago es obligatorio")
	}
	payment := models.PaymentMethod{Type: label}
	if err := w.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreateBill 创建发票，发票号为空时按时间戳生成
func (w *PaymentWriter) CreateBill(ctx context.Context, in BillInput) (*models.Bill, error) {
	number := strings.TrimSpace(in.Number)
	if number == "" {
		number = AutoBillNumber(w.now())
	}
	bill := models.Bill{
		Number:   number,
		Date:     in.Date,
		Amount:   in.Amount,
		EntityID: in.EntityID,
	}
	if err := w.db.WithContext(ctx).Create(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// AutoBillNumber 以毫秒时间戳生成发票号，同一毫秒内可能重复
func AutoBillNumber(t time.Time) string {
	return fmt.Sprintf("%s%d", models.AutoBillPrefix, t.UnixMilli())
}
