package service

import (
	"context"
	"errors"
	"strings"

	"sisgeagro/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntityRef 往来单位引用：ID 优先，否则按税号解析
type EntityRef struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	FiscalID string `json:"fiscal_id"`
}

func (r EntityRef) normalized() EntityRef {
	r.Name = strings.TrimSpace(r.Name)
	r.FiscalID = strings.TrimSpace(r.FiscalID)
	return r
}

// EntityResolver 往来单位解析器
type EntityResolver struct {
	db *gorm.DB
}

// NewEntityResolver 创建往来单位解析器
func NewEntityResolver(db *gorm.DB) *EntityResolver {
	return &EntityResolver{db: db}
}

// Resolve 按税号查找往来单位，不存在则以 upsert 方式创建
func (r *EntityResolver) Resolve(ctx context.Context, ref EntityRef) (*models.Entity, error) {
	ref = ref.normalized()
	if ref.ID != 0 {
		return r.byID(ctx, ref.ID)
	}
	if ref.Name == "" || ref.FiscalID == "" {
		return nil, validationError("la entidad requiere nombre y CUIT")
	}

	existing, err := r.byFiscalID(ctx, ref.FiscalID)
	if err != nil || existing != nil {
		return existing, err
	}

	entity := models.Entity{Name: ref.Name, FiscalID: ref.FiscalID}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fiscal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&entity).Error
	if err != nil {
		return nil, err
	}
	if entity.ID == 0 {
		// 并发写入时命中了已有行，重新读取
		return r.byFiscalID(ctx, ref.FiscalID)
	}
	return &entity, nil
}

// ResolveStrict 编辑路径使用：同名但税号不同的单位视为冲突，不合并也不重复创建
func (r *EntityResolver) ResolveStrict(ctx context.Context, ref EntityRef) (*models.Entity, bool, error) {
	ref = ref.normalized()
	if ref.ID != 0 {
		e, err := r.byID(ctx, ref.ID)
		return e, false, err
	}
	if ref.Name == "" || ref.FiscalID == "" {
		return nil, false, validationError("la entidad requiere nombre y CUIT")
	}

	existing, err := r.byFiscalID(ctx, ref.FiscalID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var sameName models.Entity
	err = r.db.WithContext(ctx).Where("name = ? AND fiscal_id <> ?", ref.Name, ref.FiscalID).First(&sameName).Error
	if err == nil {
		return nil, false, conflictError("ya existe la entidad %q con otro CUIT (%s)", sameName.Name, sameName.FiscalID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	entity := models.Entity{Name: ref.Name, FiscalID: ref.FiscalID}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, conflictError("ya existe una entidad con CUIT %s", ref.FiscalID)
		}
		return nil, false, err
	}
	return &entity, true, nil
}

// List 列出往来单位
func (r *EntityResolver) List(ctx context.Context, search string) ([]models.Entity, error) {
	q := r.db.WithContext(ctx).Model(&models.Entity{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + escapeLike(s) + "%"
		q = q.Where("name LIKE ? OR fiscal_id LIKE ?", like, like)
	}
	var list []models.Entity
	err := q.Order("name ASC").Find(&list).Error
	return list, err
}

func (r *EntityResolver) byID(ctx context.Context, id uint) (*models.Entity, error) {
	var e models.Entity
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("entidad %d no encontrada", id)
		}
		return nil, err
	}
	return &e, nil
}

func (r *EntityResolver) byFiscalID(ctx context.Context, fiscalID string) (*models.Entity, error) {
	var e models.Entity
	err := r.db.WithContext(ctx).Where("fiscal_id = ?", fiscalID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// escapeLike 转义 LIKE 查询中的通配符
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
