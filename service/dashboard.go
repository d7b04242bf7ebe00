package service

import (
	"context"
	"time"

	"sisgeagro/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TypeTotal 按收支类型汇总
type TypeTotal struct {
	Type  string  `json:"type"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// CategoryTotal 按类别汇总，Percentage 为占同类型总额的百分比
type CategoryTotal struct {
	Type       string  `json:"type"`
	CategoryID uint    `json:"category_id"`
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

// MonthlyTotal 按月汇总
type MonthlyTotal struct {
	Month string  `json:"month"`
	Type  string  `json:"type"`
	Total float64 `json:"total"`
}

// Summary 看板汇总
type Summary struct {
	From       string          `json:"from,omitempty"`
	To         string          `json:"to,omitempty"`
	Totals     []TypeTotal     `json:"totals"`
	Categories []CategoryTotal `json:"categories"`
	Monthly    []MonthlyTotal  `json:"monthly"`
	Balance    float64         `json:"balance"`
}

// Dashboard 收支统计
type Dashboard struct {
	db *gorm.DB
}

// NewDashboard 创建统计服务
func NewDashboard(db *gorm.DB) *Dashboard {
	return &Dashboard{db: db}
}

func (d *Dashboard) base(ctx context.Context, from, to *time.Time) *gorm.DB {
	q := d.db.WithContext(ctx).
		Table("movements AS m").
		Joins("JOIN operations o ON o.id = m.operation_id").
		Joins("JOIN bills b ON b.id = o.bill_id")
	if from != nil {
		q = q.Where("b.date >= ?", *from)
	}
	if to != nil {
		q = q.Where("b.date <= ?", *to)
	}
	return q
}

// Summary 统计时间范围内各类型总额、类别占比与月度序列，from/to 为空表示不限
func (d *Dashboard) Summary(ctx context.Context, from, to string) (*Summary, error) {
	var fromT, toT *time.Time
	if from != "" {
		t, err := time.Parse(DateLayout, from)
		if err != nil {
			return nil, validationError("fecha desde inválida, formato esperado YYYY-MM-DD")
		}
		fromT = &t
	}
	if to != "" {
		t, err := time.Parse(DateLayout, to)
		if err != nil {
			return nil, validationError("fecha hasta inválida, formato esperado YYYY-MM-DD")
		}
		toT = &t
	}
	if fromT != nil && toT != nil && toT.Before(*fromT) {
		return nil, validationError("el rango de fechas es inválido")
	}

	out := &Summary{
		From:       from,
		To:         to,
		Totals:     []TypeTotal{},
		Categories: []CategoryTotal{},
		Monthly:    []MonthlyTotal{},
	}

	err := d.base(ctx, fromT, toT).
		Select("m.type AS type, COALESCE(SUM(b.amount), 0) AS total, COUNT(*) AS count").
		Group("m.type").
		Order("m.type").
		Scan(&out.Totals).Error
	if err != nil {
		return nil, err
	}

	err = d.base(ctx, fromT, toT).
		Joins("JOIN subcategories s ON s.id = m.subcategory_id").
		Joins("JOIN categories c ON c.id = s.category_id").
		Select("m.type AS type, c.id AS category_id, c.description AS category, COALESCE(SUM(b.amount), 0) AS total").
		Group("m.type, c.id, c.description").
		Order("m.type, total DESC").
		Scan(&out.Categories).Error
	if err != nil {
		return nil, err
	}

	err = d.base(ctx, fromT, toT).
		Select("DATE_FORMAT(b.date, '%Y-%m') AS month, m.type AS type, COALESCE(SUM(b.amount), 0) AS total").
		Group("month, m.type").
		Order("month, m.type").
		Scan(&out.Monthly).Error
	if err != nil {
		return nil, err
	}

	fillSummary(out)
	return out, nil
}

// fillSummary 计算类别占比与收支差额
func fillSummary(s *Summary) {
	byType := make(map[string]decimal.Decimal, len(s.Totals))
	for _, t := range s.Totals {
		byType[t.Type] = decimal.NewFromFloat(t.Total)
	}
	for i, c := range s.Categories {
		total := byType[c.Type]
		if total.IsZero() {
			continue
		}
		s.Categories[i].Percentage = decimal.NewFromFloat(c.Total).
			Mul(hundred).
			Div(total).
			Round(2).
			InexactFloat64()
	}

	balance := byType[models.MovementIncome].
		Sub(byType[models.MovementExpense]).
		Sub(byType[models.MovementInvestment])
	s.Balance = balance.Round(2).InexactFloat64()
}
