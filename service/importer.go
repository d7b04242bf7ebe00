package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sisgeagro/logger"
	"sisgeagro/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 500

// ImportResult 单行导入结果，Row 从 1 开始
type ImportResult struct {
	Row        int    `json:"row"`
	Success    bool   `json:"success"`
	MovementID uint   `json:"movement_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Importer CSV 批量导入
type Importer struct {
	db  *gorm.DB
	now func() time.Time
}

// NewImporter 创建批量导入器
func NewImporter(db *gorm.DB) *Importer {
	return &Importer{db: db, now: time.Now}
}

// importBatch 一次导入中通过校验的行，与 results 按位置对应
type importBatch struct {
	records []ImportRecord
	pos     []int
	results []ImportResult
}

func (b *importBatch) failAll(stage string, err error) {
	for _, p := range b.pos {
		b.results[p].Success = false
		b.results[p].Error = fmt.Sprintf("%s: %v", stage, err)
	}
}

// Import 批量导入收支。各阶段独立提交：某个阶段失败时该批所有行标记失败，
// 已提交的前序阶段数据不回滚；税额明细失败只影响相关行，收支本身保留
func (im *Importer) Import(ctx context.Context, actorID uint, rows []RawRow) []ImportResult {
	log := logger.FromContext(ctx)
	batch := &importBatch{results: make([]ImportResult, len(rows))}

	for i, raw := range rows {
		batch.results[i].Row = i + 1
		rec, err := BuildImportRecord(i+1, raw)
		if err != nil {
			batch.results[i].Error = err.Error()
			continue
		}
		batch.records = append(batch.records, rec)
		batch.pos = append(batch.pos, i)
	}
	if len(batch.records) == 0 {
		return batch.results
	}

	entityIDs, err := im.resolveEntities(ctx, batch.records)
	if err != nil {
		batch.failAll("entidades", err)
		log.Error().Err(err).Int("rows", len(batch.records)).Msg("importación: fallo al resolver entidades")
		return batch.results
	}
	subcategoryIDs, err := im.resolveSubcategories(ctx, batch.records)
	if err != nil {
		batch.failAll("categorías", err)
		log.Error().Err(err).Int("rows", len(batch.records)).Msg("importación: fallo al resolver categorías")
		return batch.results
	}
	taxIDs, err := im.resolveTaxes(ctx, batch.records)
	if err != nil {
		batch.failAll("impuestos", err)
		log.Error().Err(err).Int("rows", len(batch.records)).Msg("importación: fallo al resolver impuestos")
		return batch.results
	}

	db := im.db.WithContext(ctx)

	payments := make([]models.PaymentMethod, len(batch.records))
	for i, rec := range batch.records {
		payments[i] = models.PaymentMethod{Type: PaymentLabel(rec.PaymentType, "")}
	}
	if err := db.CreateInBatches(&payments, importBatchSize).Error; err != nil {
		batch.failAll("pagos", err)
		log.Error().Err(err).Msg("importación: fallo al insertar pagos")
		return batch.results
	}

	millis := im.now().UnixMilli()
	bills := make([]models.Bill, len(batch.records))
	for i, rec := range batch.records {
		number := rec.BillNumber
		if number == "" {
			number = fmt.Sprintf("%s%d-%d", models.AutoBillPrefix, millis, rec.Row)
		}
		bills[i] = models.Bill{
			Number:   number,
			Date:     rec.DateValue(),
			Amount:   rec.Amount,
			EntityID: entityIDs[rec.FiscalID],
		}
	}
	if err := db.CreateInBatches(&bills, importBatchSize).Error; err != nil {
		batch.failAll("facturas", err)
		log.Error().Err(err).Msg("importación: fallo al insertar facturas")
		return batch.results
	}

	ops := make([]models.Operation, len(batch.records))
	for i := range batch.records {
		ops[i] = models.Operation{PaymentID: payments[i].ID, BillID: bills[i].ID}
	}
	if err := db.CreateInBatches(&ops, importBatchSize).Error; err != nil {
		batch.failAll("operaciones", err)
		log.Error().Err(err).Msg("importación: fallo al insertar operaciones")
		return batch.results
	}

	movements := make([]models.Movement, len(batch.records))
	for i, rec := range batch.records {
		movements[i] = models.Movement{
			Description:   rec.Description,
			Type:          rec.Type,
			OperationID:   ops[i].ID,
			SubcategoryID: subcategoryIDs[taxonomyKey(rec.Category, rec.Subcategory)],
			CreatedBy:     actorID,
			Verified:      rec.Verified,
		}
	}
	if err := db.CreateInBatches(&movements, importBatchSize).Error; err != nil {
		batch.failAll("movimientos", err)
		log.Error().Err(err).Msg("importación: fallo al insertar movimientos")
		return batch.results
	}

	for i, p := range batch.pos {
		batch.results[p].Success = true
		batch.results[p].MovementID = movements[i].ID
	}

	var lines []models.MovementTax
	var contributing []int
	for i, rec := range batch.records {
		if len(rec.Taxes) == 0 {
			continue
		}
		for _, t := range rec.Taxes {
			lines = append(lines, models.MovementTax{
				MovementID:       movements[i].ID,
				TaxID:            taxIDs[taxKey(t.Name, t.Percentage)],
				Percentage:       t.Percentage,
				CalculatedAmount: CalculateTax(rec.Amount, t.Percentage),
			})
		}
		contributing = append(contributing, batch.pos[i])
	}
	if len(lines) > 0 {
		if err := db.CreateInBatches(&lines, importBatchSize).Error; err != nil {
			for _, p := range contributing {
				batch.results[p].Success = false
				batch.results[p].Error = fmt.Sprintf("impuestos del movimiento: %v", err)
			}
			log.Error().Err(err).Int("rows", len(contributing)).Msg("importación: fallo al insertar líneas de impuestos")
		}
	}

	log.Info().
		Uint("actor", actorID).
		Int("rows", len(rows)).
		Int("imported", len(batch.records)).
		Msg("importación finalizada")
	return batch.results
}

// resolveEntities 按税号去重后 upsert，再统一查询 ID
func (im *Importer) resolveEntities(ctx context.Context, records []ImportRecord) (map[string]uint, error) {
	var pending []models.Entity
	seen := make(map[string]bool)
	var fiscalIDs []string
	for _, rec := range records {
		if seen[rec.FiscalID] {
			continue
		}
		seen[rec.FiscalID] = true
		fiscalIDs = append(fiscalIDs, rec.FiscalID)
		pending = append(pending, models.Entity{Name: rec.EntityName, FiscalID: rec.FiscalID})
	}

	db := im.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fiscal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).CreateInBatches(&pending, importBatchSize).Error
	if err != nil {
		return nil, err
	}

	var stored []models.Entity
	if err := db.Where("fiscal_id IN ?", fiscalIDs).Find(&stored).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]uint, len(stored))
	for _, e := range stored {
		ids[e.FiscalID] = e.ID
	}
	for _, f := range fiscalIDs {
		if ids[f] == 0 {
			return nil, fmt.Errorf("entidad con CUIT %s no encontrada tras la inserción", f)
		}
	}
	return ids, nil
}

func taxonomyKey(category, subcategory string) string {
	return NormalizeLabel(category) + "\x00" + NormalizeLabel(subcategory)
}

// resolveSubcategories 先批量解析类别，再按类别 ID 解析子类别
func (im *Importer) resolveSubcategories(ctx context.Context, records []ImportRecord) (map[string]uint, error) {
	db := im.db.WithContext(ctx)

	var labels []string
	seen := make(map[string]bool)
	for _, rec := range records {
		l := NormalizeLabel(rec.Category)
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}

	var cats []models.Category
	if err := db.Where("UPPER(description) IN ?", labels).Find(&cats).Error; err != nil {
		return nil, err
	}
	catIDs := make(map[string]uint, len(labels))
	for _, c := range cats {
		catIDs[NormalizeLabel(c.Description)] = c.ID
	}
	var newCats []models.Category
	for _, l := range labels {
		if catIDs[l] == 0 {
			newCats = append(newCats, models.Category{Description: l})
		}
	}
	if len(newCats) > 0 {
		if err := db.CreateInBatches(&newCats, importBatchSize).Error; err != nil {
			return nil, err
		}
		for _, c := range newCats {
			catIDs[c.Description] = c.ID
		}
	}

	type pair struct {
		categoryID uint
		label      string
	}
	var pairs []pair
	var scopeIDs []uint
	var subLabels []string
	seenPair := make(map[pair]bool)
	seenScope := make(map[uint]bool)
	seenSub := make(map[string]bool)
	for _, rec := range records {
		p := pair{categoryID: catIDs[NormalizeLabel(rec.Category)], label: NormalizeLabel(rec.Subcategory)}
		if seenPair[p] {
			continue
		}
		seenPair[p] = true
		pairs = append(pairs, p)
		if !seenScope[p.categoryID] {
			seenScope[p.categoryID] = true
			scopeIDs = append(scopeIDs, p.categoryID)
		}
		if !seenSub[p.label] {
			seenSub[p.label] = true
			subLabels = append(subLabels, p.label)
		}
	}

	var subs []models.Subcategory
	if err := db.Where("category_id IN ? AND UPPER(description) IN ?", scopeIDs, subLabels).Find(&subs).Error; err != nil {
		return nil, err
	}
	subIDs := make(map[pair]uint, len(pairs))
	for _, s := range subs {
		subIDs[pair{categoryID: s.CategoryID, label: NormalizeLabel(s.Description)}] = s.ID
	}
	var newSubs []models.Subcategory
	for _, p := range pairs {
		if subIDs[p] == 0 {
			newSubs = append(newSubs, models.Subcategory{Description: p.label, CategoryID: p.categoryID})
		}
	}
	if len(newSubs) > 0 {
		if err := db.CreateInBatches(&newSubs, importBatchSize).Error; err != nil {
			return nil, err
		}
		for _, s := range newSubs {
			subIDs[pair{categoryID: s.CategoryID, label: s.Description}] = s.ID
		}
	}

	byText := make(map[string]uint, len(records))
	for _, rec := range records {
		p := pair{categoryID: catIDs[NormalizeLabel(rec.Category)], label: NormalizeLabel(rec.Subcategory)}
		byText[taxonomyKey(rec.Category, rec.Subcategory)] = subIDs[p]
	}
	return byText, nil
}

func taxKey(name string, percentage float64) string {
	return strings.ToUpper(strings.TrimSpace(name)) + "|" + strconv.FormatFloat(percentage, 'f', -1, 64)
}

// resolveTaxes 按名称 + 税率匹配税种，缺失的批量创建
func (im *Importer) resolveTaxes(ctx context.Context, records []ImportRecord) (map[string]uint, error) {
	ids := make(map[string]uint)
	var wanted []ImportTax
	var names []string
	seenName := make(map[string]bool)
	for _, rec := range records {
		for _, t := range rec.Taxes {
			k := taxKey(t.Name, t.Percentage)
			if _, ok := ids[k]; ok {
				continue
			}
			ids[k] = 0
			wanted = append(wanted, t)
			if n := strings.ToUpper(t.Name); !seenName[n] {
				seenName[n] = true
				names = append(names, n)
			}
		}
	}
	if len(wanted) == 0 {
		return ids, nil
	}

	db := im.db.WithContext(ctx)
	var defs []models.TaxDefinition
	if err := db.Where("UPPER(name) IN ?", names).Find(&defs).Error; err != nil {
		return nil, err
	}
	for _, d := range defs {
		if d.Percentage == nil {
			continue
		}
		k := taxKey(d.Name, *d.Percentage)
		if id, ok := ids[k]; ok && id == 0 {
			ids[k] = d.ID
		}
	}

	var created []models.TaxDefinition
	for _, t := range wanted {
		if ids[taxKey(t.Name, t.Percentage)] != 0 {
			continue
		}
		pct := t.Percentage
		created = append(created, models.TaxDefinition{Name: t.Name, Percentage: &pct})
	}
	if len(created) > 0 {
		if err := db.CreateInBatches(&created, importBatchSize).Error; err != nil {
			return nil, err
		}
		for _, d := range created {
			ids[taxKey(d.Name, *d.Percentage)] = d.ID
		}
	}
	return ids, nil
}
