package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTax(t *testing.T) {
	tests := []struct {
		amount     float64
		percentage float64
		want       float64
	}{
		{1000, 21, 210},
		{1000, 10.5, 105},
		{1234.56, 10.5, 129.63},
		{99.99, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateTax(tt.amount, tt.percentage), "%v x %v%%", tt.amount, tt.percentage)
	}
}

func TestTaxWriter_BuildLinesUsesDefinitionPercentage(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewTaxWriter(db)

	mock.ExpectQuery("SELECT .* FROM `taxes`").
		WithArgs(1, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "percentage", "created_at"}).
			AddRow(1, "IVA 21%", 21.0, time.Now()).
			AddRow(4, "Ingresos Brutos", nil, time.Now()))

	override := 2.5
	lines, err := w.BuildLines(context.Background(), 11, 1000, []TaxSelection{
		{TaxID: 1},
		{TaxID: 4},
		{TaxID: 3, Percentage: &override},
	})
	require.NoError(t, err)

	// 未定义税率的税种不生成明细
	require.Len(t, lines, 2)
	assert.Equal(t, uint(1), lines[0].TaxID)
	assert.Equal(t, 210.0, lines[0].CalculatedAmount)
	assert.Equal(t, 21.0, lines[0].Percentage)
	assert.Equal(t, uint(3), lines[1].TaxID)
	assert.Equal(t, 2.5, lines[1].Percentage)
	assert.Equal(t, 25.0, lines[1].CalculatedAmount)
	assert.Equal(t, uint(11), lines[1].MovementID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxWriter_BuildLinesUnknownTax(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewTaxWriter(db)

	mock.ExpectQuery("SELECT .* FROM `taxes`").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "percentage", "created_at"}))

	_, err := w.BuildLines(context.Background(), 1, 100, []TaxSelection{{TaxID: 99}})
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxWriter_ReplaceLines(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewTaxWriter(db)

	pct := 21.0
	mock.ExpectExec("DELETE FROM `movement_taxes`").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO `movement_taxes`").
		WillReturnResult(sqlmock.NewResult(40, 1))

	lines, err := w.ReplaceLines(context.Background(), 11, 2000, []TaxSelection{{TaxID: 1, Percentage: &pct}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 420.0, lines[0].CalculatedAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxWriter_ReplaceLinesWithEmptySelection(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewTaxWriter(db)

	mock.ExpectExec("DELETE FROM `movement_taxes`").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 2))

	lines, err := w.ReplaceLines(context.Background(), 11, 2000, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxWriter_ReplaceLinesUnknownTaxKeepsExisting(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewTaxWriter(db)

	// 税种校验失败时不删除原有明细
	mock.ExpectQuery("SELECT .* FROM `taxes`").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "percentage", "created_at"}))

	_, err := w.ReplaceLines(context.Background(), 11, 2000, []TaxSelection{{TaxID: 99}})
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxWriter_RecalculateLines(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewTaxWriter(db)

	mock.ExpectQuery("SELECT .* FROM `movement_taxes`").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id", "movement_id", "tax_id", "percentage", "calculated_amount"}).
			AddRow(40, 11, 1, 21.0, 210.0).
			AddRow(41, 11, 2, 10.5, 105.0))
	mock.ExpectExec("UPDATE `movement_taxes` SET `calculated_amount`").
		WithArgs(259.26, 40).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `movement_taxes` SET `calculated_amount`").
		WithArgs(129.63, 41).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := w.RecalculateLines(context.Background(), 11, 1234.56)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
