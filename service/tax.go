package service

import (
	"context"
	"errors"
	"strings"

	"sisgeagro/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxSelection 收支选择的税种；Percentage 为空时取税种定义的税率
type TaxSelection struct {
	TaxID      uint     `json:"tax_id"`
	Percentage *float64 `json:"percentage"`
}

// TaxWriter 税额明细写入
type TaxWriter struct {
	db *gorm.DB
}

// NewTaxWriter 创建税额写入器
func NewTaxWriter(db *gorm.DB) *TaxWriter {
	return &TaxWriter{db: db}
}

var hundred = decimal.NewFromInt(100)

// CalculateTax amount * percentage / 100，保留两位小数
func CalculateTax(amount, percentage float64) float64 {
	v := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(percentage)).
		Div(hundred).
		Round(2)
	return v.InexactFloat64()
}

// BuildLines 计算税额明细，未定义税率的税种跳过
func (w *TaxWriter) BuildLines(ctx context.Context, movementID uint, amount float64, selections []TaxSelection) ([]models.MovementTax, error) {
	var missing []uint
	for _, s := range selections {
		if s.Percentage == nil {
			missing = append(missing, s.TaxID)
		}
	}
	defined := make(map[uint]*float64)
	if len(missing) > 0 {
		var taxes []models.TaxDefinition
		if err := w.db.WithContext(ctx).Where("id IN ?", missing).Find(&taxes).Error; err != nil {
			return nil, err
		}
		for _, t := range taxes {
			defined[t.ID] = t.Percentage
		}
	}

	lines := make([]models.MovementTax, 0, len(selections))
	for _, s := range selections {
		pct := s.Percentage
		if pct == nil {
			p, ok := defined[s.TaxID]
			if !ok {
				return nil, notFoundError("impuesto %d no encontrado", s.TaxID)
			}
			pct = p
		}
		if pct == nil {
			continue
		}
		lines = append(lines, models.MovementTax{
			MovementID:       movementID,
			TaxID:            s.TaxID,
			Percentage:       *pct,
			CalculatedAmount: CalculateTax(amount, *pct),
		})
	}
	return lines, nil
}

// WriteLines 计算并批量写入税额明细
func (w *TaxWriter) WriteLines(ctx context.Context, movementID uint, amount float64, selections []TaxSelection) ([]models.MovementTax, error) {
	lines, err := w.BuildLines(ctx, movementID, amount, selections)
	if err != nil || len(lines) == 0 {
		return lines, err
	}
	if err := w.db.WithContext(ctx).Create(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// ReplaceLines 删除收支全部税额明细后重新写入
func (w *TaxWriter) ReplaceLines(ctx context.Context, movementID uint, amount float64, selections []TaxSelection) ([]models.MovementTax, error) {
	lines, err := w.BuildLines(ctx, movementID, amount, selections)
	if err != nil {
		return nil, err
	}
	if err := w.replaceBuilt(ctx, movementID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// replaceBuilt 用已计算好的明细替换收支现有明细
func (w *TaxWriter) replaceBuilt(ctx context.Context, movementID uint, lines []models.MovementTax) error {
	db := w.db.WithContext(ctx)
	if err := db.Where("movement_id = ?", movementID).Delete(&models.MovementTax{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return db.Create(&lines).Error
}

// RecalculateLines 金额变化后按每条明细记录的税率重算税额，返回更新条数
func (w *TaxWriter) RecalculateLines(ctx context.Context, movementID uint, amount float64) (int, error) {
	db := w.db.WithContext(ctx)
	var lines []models.MovementTax
	if err := db.Where("movement_id = ?", movementID).Find(&lines).Error; err != nil {
		return 0, err
	}
	for _, l := range lines {
		v := CalculateTax(amount, l.Percentage)
		if err := db.Model(&models.MovementTax{}).Where("id = ?", l.ID).Update("calculated_amount", v).Error; err != nil {
			return 0, err
		}
	}
	return len(lines), nil
}

// CreateTaxInput 创建税种参数
type CreateTaxInput struct {
	Name       string   `json:"name" binding:"required,max=100"`
	Percentage *float64 `json:"percentage" binding:"omitempty,gte=0,lte=100"`
}

// CreateTax 创建税种
func (w *TaxWriter) CreateTax(ctx context.Context, in CreateTaxInput) (*models.TaxDefinition, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("el nombre del impuesto es obligatorio")
	}
	tax := models.TaxDefinition{Name: name, Percentage: in.Percentage}
	if err := w.db.WithContext(ctx).Create(&tax).Error; err != nil {
		return nil, err
	}
	return &tax, nil
}

// ListTaxes 列出税种
func (w *TaxWriter) ListTaxes(ctx context.Context) ([]models.TaxDefinition, error) {
	var list []models.TaxDefinition
	err := w.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

// GetTax 按 ID 获取税种
func (w *TaxWriter) GetTax(ctx context.Context, id uint) (*models.TaxDefinition, error) {
	var tax models.TaxDefinition
	if err := w.db.WithContext(ctx).First(&tax, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("impuesto %d no encontrado", id)
		}
		return nil, err
	}
	return &tax, nil
}
