package service

import (
	"context"

	"sisgeagro/models"

	"gorm.io/gorm"
)

// OperationLinker 关联支付方式与发票
type OperationLinker struct {
	db *gorm.DB
}

// NewOperationLinker 创建关联器
func NewOperationLinker(db *gorm.DB) *OperationLinker {
	return &OperationLinker{db: db}
}

// Link 创建一条 operation 记录，不校验两者来源
func (l *OperationLinker) Link(ctx context.Context, paymentID, billID uint) (*models.Operation, error) {
	op := models.Operation{PaymentID: paymentID, BillID: billID}
	if err := l.db.WithContext(ctx).Create(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}
