package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sisgeagro/logger"
	"sisgeagro/models"

	"gorm.io/gorm"
)

// DateLayout 接口中日期统一使用 YYYY-MM-DD
const DateLayout = "2006-01-02"

// CreateMovementInput 创建收支请求
type CreateMovementInput struct {
	Description  string         `json:"description" example:"Compra de gasoil"`
	Amount       float64        `json:"amount" example:"1000"`
	Type         string         `json:"type" example:"egreso"`
	PaymentType  string         `json:"payment_type" example:"transferencia"`
	PaymentOther string         `json:"payment_other"`
	Category     string         `json:"category" example:"Combustibles"`
	Subcategory  string         `json:"subcategory" example:"Gasoil"`
	BillNumber   string         `json:"bill_number" example:"A-0001-00001234"`
	BillDate     string         `json:"bill_date" example:"2024-03-05"`
	Entity       EntityRef      `json:"entity"`
	Verified     bool           `json:"verified"`
	IsTaxPayment bool           `json:"is_tax_payment"`
	RelatedTaxID *uint          `json:"related_tax_id"`
	Taxes        []TaxSelection `json:"taxes"`
}

// Validate 校验 Draft -> Created 所需字段
func (in *CreateMovementInput) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.BillNumber = strings.TrimSpace(in.BillNumber)
	in.BillDate = strings.TrimSpace(in.BillDate)

	switch {
	case in.Description == "":
		return validationError("la descripción es obligatoria")
	case in.Amount <= 0:
		return validationError("el monto debe ser mayor a 0")
	case strings.TrimSpace(in.PaymentType) == "":
		return validationError("el tipo de pago es obligatorio")
	case !models.IsValidMovementType(in.Type):
		return validationError("tipo de movimiento inválido: %q", in.Type)
	case !in.IsTaxPayment && (strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Subcategory) == ""):
		return validationError("la categoría y la subcategoría son obligatorias")
	case in.BillNumber == "" && in.Type != models.MovementIncome:
		return validationError("el número de factura es obligatorio para %s", in.Type)
	case in.BillDate == "":
		return validationError("la fecha de factura es obligatoria")
	}
	if _, err := time.Parse(DateLayout, in.BillDate); err != nil {
		return validationError("fecha de factura inválida, formato esperado YYYY-MM-DD")
	}
	if in.Entity.ID == 0 && (strings.TrimSpace(in.Entity.Name) == "" || strings.TrimSpace(in.Entity.FiscalID) == "") {
		return validationError("la entidad requiere nombre y CUIT")
	}
	return nil
}

// UpdateMovementInput 编辑收支请求，nil 字段保留原值
type UpdateMovementInput struct {
	Description  *string         `json:"description"`
	Amount       *float64        `json:"amount"`
	Type         *string         `json:"type"`
	PaymentType  *string         `json:"payment_type"`
	PaymentOther *string         `json:"payment_other"`
	Category     *string         `json:"category"`
	Subcategory  *string         `json:"subcategory"`
	BillNumber   *string         `json:"bill_number"`
	BillDate     *string         `json:"bill_date"`
	Entity       *EntityRef      `json:"entity"`
	Verified     *bool           `json:"verified"`
	IsTaxPayment *bool           `json:"is_tax_payment"`
	RelatedTaxID *uint           `json:"related_tax_id"`
	Taxes        *[]TaxSelection `json:"taxes"`
}

// MovementResult 创建结果
type MovementResult struct {
	Movement    models.Movement      `json:"movement"`
	Entity      models.Entity        `json:"entity"`
	Payment     models.PaymentMethod `json:"payment"`
	Bill        models.Bill          `json:"bill"`
	Operation   models.Operation     `json:"operation"`
	Category    models.Category      `json:"category"`
	Subcategory models.Subcategory   `json:"subcategory"`
	Taxes       []models.MovementTax `json:"taxes"`
}

// MovementService 收支写入与查询
type MovementService struct {
	db         *gorm.DB
	entities   *EntityResolver
	taxonomy   *TaxonomyResolver
	payments   *PaymentWriter
	operations *OperationLinker
	taxes      *TaxWriter
	notifier   *Notifier
}

// NewMovementService 创建收支服务
func NewMovementService(db *gorm.DB, mailer Mailer) *MovementService {
	return &MovementService{
		db:         db,
		entities:   NewEntityResolver(db),
		taxonomy:   NewTaxonomyResolver(db),
		payments:   NewPaymentWriter(db),
		operations: NewOperationLinker(db),
		taxes:      NewTaxWriter(db),
		notifier:   NewNotifier(db, mailer),
	}
}

// Create 创建收支：entity -> payment -> bill -> category -> subcategory -> operation -> movement -> taxes
// 各步骤独立提交，中途失败会留下已写入的记录
func (s *MovementService) Create(ctx context.Context, actorID uint, in CreateMovementInput) (*MovementResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	billDate, _ := time.Parse(DateLayout, in.BillDate)

	entity, err := s.entities.Resolve(ctx, in.Entity)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.CreatePayment(ctx, in.PaymentType, in.PaymentOther)
	if err != nil {
		return nil, err
	}

	bill, err := s.payments.CreateBill(ctx, BillInput{
		Number:   in.BillNumber,
		Date:     billDate,
		Amount:   in.Amount,
		EntityID: entity.ID,
	})
	if err != nil {
		return nil, err
	}

	categoryText, subcategoryText := in.Category, in.Subcategory
	var relatedTaxID *uint
	if in.IsTaxPayment {
		var related *models.TaxDefinition
		if in.RelatedTaxID != nil {
			if related, err = s.taxes.GetTax(ctx, *in.RelatedTaxID); err != nil {
				return nil, err
			}
			relatedTaxID = &related.ID
		}
		categoryText, subcategoryText = TaxPaymentLabels(related)
	}
	category, subcategory, err := s.taxonomy.Resolve(ctx, categoryText, subcategoryText)
	if err != nil {
		return nil, err
	}

	op, err := s.operations.Link(ctx, payment.ID, bill.ID)
	if err != nil {
		return nil, err
	}

	movement := models.Movement{
		Description:   in.Description,
		Type:          in.Type,
		OperationID:   op.ID,
		SubcategoryID: subcategory.ID,
		CreatedBy:     actorID,
		Verified:      in.Verified,
		IsTaxPayment:  in.IsTaxPayment,
		RelatedTaxID:  relatedTaxID,
	}
	if err := s.db.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, err
	}

	// 税费类收支本身不再计税
	var lines []models.MovementTax
	if !in.IsTaxPayment && len(in.Taxes) > 0 {
		if lines, err = s.taxes.WriteLines(ctx, movement.ID, bill.Amount, in.Taxes); err != nil {
			return nil, err
		}
	}
	if lines == nil {
		lines = []models.MovementTax{}
	}

	s.notifier.NotifyMovement(ctx, &movement, bill, entity)

	log := logger.FromContext(ctx)
	log.Info().
		Uint("movement_id", movement.ID).
		Uint("actor", actorID).
		Str("type", movement.Type).
		Float64("amount", bill.Amount).
		Msg("movimiento creado")

	return &MovementResult{
		Movement:    movement,
		Entity:      *entity,
		Payment:     *payment,
		Bill:        *bill,
		Operation:   *op,
		Category:    *category,
		Subcategory: *subcategory,
		Taxes:       lines,
	}, nil
}

// Update 按合并补丁语义编辑收支
// 先完成全部校验和引用数据解析，之后才写入发票、支付方式、收支和税额明细
func (s *MovementService) Update(ctx context.Context, actorID, id uint, in UpdateMovementInput) (*MovementView, error) {
	db := s.db.WithContext(ctx)

	var movement models.Movement
	if err := db.First(&movement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("movimiento %d no encontrado", id)
		}
		return nil, err
	}
	var op models.Operation
	if err := db.First(&op, movement.OperationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("operación %d no encontrada", movement.OperationID)
		}
		return nil, err
	}
	var bill models.Bill
	if err := db.First(&bill, op.BillID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("factura %d no encontrada", op.BillID)
		}
		return nil, err
	}

	movementUpdates := map[string]interface{}{}
	billUpdates := map[string]interface{}{}

	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			return nil, validationError("la descripción no puede estar vacía")
		}
		movementUpdates["description"] = d
	}
	movementType := movement.Type
	if in.Type != nil {
		movementType = strings.ToLower(strings.TrimSpace(*in.Type))
		if !models.IsValidMovementType(movementType) {
			return nil, validationError("tipo de movimiento inválido: %q", *in.Type)
		}
		movementUpdates["type"] = movementType
	}
	if in.Verified != nil {
		movementUpdates["verified"] = *in.Verified
	}

	amount := bill.Amount
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, validationError("el monto debe ser mayor a 0")
		}
		amount = *in.Amount
		billUpdates["amount"] = amount
	}
	amountChanged := amount != bill.Amount
	if in.BillDate != nil {
		d, err := time.Parse(DateLayout, strings.TrimSpace(*in.BillDate))
		if err != nil {
			return nil, validationError("fecha de factura inválida, formato esperado YYYY-MM-DD")
		}
		billUpdates["date"] = d
	}

	paymentLabel := ""
	if in.PaymentType != nil {
		other := ""
		if in.PaymentOther != nil {
			other = *in.PaymentOther
		}
		paymentLabel = PaymentLabel(*in.PaymentType, other)
		if paymentLabel == "" {
			return nil, validationError("el tipo de pago no puede estar vacío")
		}
	}

	isTaxPayment := movement.IsTaxPayment
	if in.IsTaxPayment != nil {
		isTaxPayment = *in.IsTaxPayment
		movementUpdates["is_tax_payment"] = isTaxPayment
	}
	if !isTaxPayment {
		if in.Category != nil && NormalizeLabel(*in.Category) == "" {
			return nil, validationError("la categoría no puede estar vacía")
		}
		if in.Subcategory != nil && NormalizeLabel(*in.Subcategory) == "" {
			return nil, validationError("la subcategoría no puede estar vacía")
		}
	}

	number := bill.Number
	if in.BillNumber != nil {
		number = strings.TrimSpace(*in.BillNumber)
	}
	if number == "" {
		if movementType != models.MovementIncome {
			return nil, validationError("el número de factura es obligatorio para %s", movementType)
		}
		number = AutoBillNumber(time.Now())
	}
	if number != bill.Number {
		var clash int64
		if err := db.Model(&models.Bill{}).Where("number = ? AND id <> ?", number, bill.ID).Count(&clash).Error; err != nil {
			return nil, err
		}
		if clash > 0 {
			return nil, conflictError("ya existe una factura con número %s", number)
		}
		billUpdates["number"] = number
	}

	// 税费类收支不带税额明细：转为税费或重新提交 taxes 时清空
	var lines []models.MovementTax
	replaceTaxes := false
	switch {
	case isTaxPayment:
		replaceTaxes = in.Taxes != nil || (in.IsTaxPayment != nil && !movement.IsTaxPayment)
	case in.Taxes != nil:
		built, err := s.taxes.BuildLines(ctx, movement.ID, amount, *in.Taxes)
		if err != nil {
			return nil, err
		}
		lines, replaceTaxes = built, true
	}

	if in.Entity != nil {
		entity, _, err := s.entities.ResolveStrict(ctx, *in.Entity)
		if err != nil {
			return nil, err
		}
		if entity.ID != bill.EntityID {
			billUpdates["entity_id"] = entity.ID
		}
	}

	if isTaxPayment && (in.IsTaxPayment != nil || in.RelatedTaxID != nil) {
		var related *models.TaxDefinition
		relatedID := movement.RelatedTaxID
		if in.RelatedTaxID != nil {
			relatedID = in.RelatedTaxID
		}
		if relatedID != nil {
			t, err := s.taxes.GetTax(ctx, *relatedID)
			if err != nil {
				return nil, err
			}
			related = t
			movementUpdates["related_tax_id"] = t.ID
		}
		catText, subText := TaxPaymentLabels(related)
		_, sub, err := s.taxonomy.Resolve(ctx, catText, subText)
		if err != nil {
			return nil, err
		}
		if sub.ID != movement.SubcategoryID {
			movementUpdates["subcategory_id"] = sub.ID
		}
	} else if !isTaxPayment && (in.Category != nil || in.Subcategory != nil) {
		catText, subText, err := s.currentTaxonomy(ctx, movement.SubcategoryID)
		if err != nil {
			return nil, err
		}
		if in.Category != nil {
			catText = *in.Category
		}
		if in.Subcategory != nil {
			subText = *in.Subcategory
		}
		_, sub, err := s.taxonomy.Resolve(ctx, catText, subText)
		if err != nil {
			return nil, err
		}
		if sub.ID != movement.SubcategoryID {
			movementUpdates["subcategory_id"] = sub.ID
		}
	}
	if !isTaxPayment && in.IsTaxPayment != nil && movement.RelatedTaxID != nil {
		movementUpdates["related_tax_id"] = nil
	}

	if len(billUpdates) > 0 {
		if err := db.Model(&bill).Updates(billUpdates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, conflictError("factura duplicada: %s", number)
			}
			return nil, err
		}
	}
	if paymentLabel != "" {
		if err := db.Model(&models.PaymentMethod{}).Where("id = ?", op.PaymentID).Update("type", paymentLabel).Error; err != nil {
			return nil, err
		}
	}
	if len(movementUpdates) > 0 {
		if err := db.Model(&movement).Updates(movementUpdates).Error; err != nil {
			return nil, err
		}
	}

	recalculated := 0
	if replaceTaxes {
		if err := s.taxes.replaceBuilt(ctx, movement.ID, lines); err != nil {
			return nil, err
		}
	} else if amountChanged && !isTaxPayment {
		n, err := s.taxes.RecalculateLines(ctx, movement.ID, amount)
		if err != nil {
			return nil, err
		}
		recalculated = n
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("movement_id", movement.ID).
		Uint("actor", actorID).
		Int("movement_fields", len(movementUpdates)).
		Int("bill_fields", len(billUpdates)).
		Bool("taxes_replaced", replaceTaxes).
		Int("taxes_recalculated", recalculated).
		Msg("movimiento actualizado")

	return s.Get(ctx, movement.ID)
}

func (s *MovementService) currentTaxonomy(ctx context.Context, subcategoryID uint) (string, string, error) {
	var sub models.Subcategory
	if err := s.db.WithContext(ctx).First(&sub, subcategoryID).Error; err != nil {
		return "", "", err
	}
	var cat models.Category
	if err := s.db.WithContext(ctx).First(&cat, sub.CategoryID).Error; err != nil {
		return "", "", err
	}
	return cat.Description, sub.Description, nil
}

// Delete 级联删除：税额明细 -> 收支 -> 支付方式和发票 -> operation
// 返回 false 表示记录已不存在
func (s *MovementService) Delete(ctx context.Context, id uint) (bool, error) {
	db := s.db.WithContext(ctx)
	log := logger.FromContext(ctx)

	var movement models.Movement
	if err := db.First(&movement, id).Error; err != nil {
		log.Info().Err(err).Uint("movement_id", id).Msg("movimiento ya eliminado o inexistente")
		return false, nil
	}

	var ops []models.Operation
	if err := db.Where("id = ?", movement.OperationID).Limit(1).Find(&ops).Error; err != nil {
		return false, err
	}

	if err := db.Where("movement_id = ?", movement.ID).Delete(&models.MovementTax{}).Error; err != nil {
		return false, err
	}
	if err := db.Delete(&models.Movement{}, movement.ID).Error; err != nil {
		return false, err
	}
	if len(ops) == 1 {
		op := ops[0]
		if err := db.Delete(&models.PaymentMethod{}, op.PaymentID).Error; err != nil {
			return false, err
		}
		if err := db.Delete(&models.Bill{}, op.BillID).Error; err != nil {
			return false, err
		}
		if err := db.Delete(&models.Operation{}, op.ID).Error; err != nil {
			return false, err
		}
	}

	log.Info().Uint("movement_id", movement.ID).Msg("movimiento eliminado")
	return true, nil
}
