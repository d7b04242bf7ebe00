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

func importRow(description, bill string) RawRow {
	return RawRow{
		"description":  description,
		"amount":       "1.500,50",
		"type":         "egreso",
		"date":         "05/03/2024",
		"bill_number":  bill,
		"payment_type": "efectivo",
		"entity_name":  "YPF",
		"fiscal_id":    "30-1",
		"category":     "Combustibles",
		"subcategory":  "Gasoil",
	}
}

func TestImporter_BatchFailureMarksEveryRow(t *testing.T) {
	db, mock := newMockDB(t)
	im := NewImporter(db)

	mock.ExpectExec("INSERT INTO `entities`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs("30-1").
		WillReturnRows(entityRows().AddRow(1, "YPF", "30-1", time.Now()))
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("COMBUSTIBLES").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "created_at"}))
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery("SELECT .* FROM `subcategories`").
		WithArgs(3, "GASOIL").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "category_id", "created_at"}))
	mock.ExpectExec("INSERT INTO `subcategories`").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectExec("INSERT INTO `payment_methods`").
		WillReturnResult(sqlmock.NewResult(10, 2))
	mock.ExpectExec("INSERT INTO `bills`").
		WillReturnError(errors.New("bills unavailable"))

	results := im.Import(context.Background(), 1, []RawRow{
		importRow("Gasoil lote 1", "A-1"),
		importRow("Gasoil lote 2", "A-2"),
		importRow("", "A-3"),
	})

	require.Len(t, results, 3)
	for _, r := range results[:2] {
		assert.False(t, r.Success)
		assert.Equal(t, "facturas: bills unavailable", r.Error)
		assert.Zero(t, r.MovementID)
	}
	assert.Equal(t, 3, results[2].Row)
	assert.False(t, results[2].Success)
	assert.Contains(t, results[2].Error, "descripción")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_TaxLineFailureOnlyAffectsContributingRows(t *testing.T) {
	db, mock := newMockDB(t)
	im := NewImporter(db)

	withTax := importRow("Semillas con IVA", "B-1")
	withTax["category"] = "Insumos"
	withTax["subcategory"] = "Semillas"
	withTax["taxes"] = `[{"name":"IVA","percentage":21}]`
	plain := importRow("Semillas sin IVA", "B-2")
	plain["category"] = "insumos"
	plain["subcategory"] = "semillas"

	mock.ExpectExec("INSERT INTO `entities`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT .* FROM `entities`").
		WillReturnRows(entityRows().AddRow(1, "YPF", "30-1", time.Now()))
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("INSUMOS").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "created_at"}).AddRow(3, "INSUMOS", time.Now()))
	mock.ExpectQuery("SELECT .* FROM `subcategories`").
		WithArgs(3, "SEMILLAS").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "category_id", "created_at"}).AddRow(4, "SEMILLAS", 3, time.Now()))
	mock.ExpectQuery("SELECT .* FROM `taxes`").
		WithArgs("IVA").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "percentage", "created_at"}).AddRow(7, "IVA", 21.0, time.Now()))
	mock.ExpectExec("INSERT INTO `payment_methods`").
		WillReturnResult(sqlmock.NewResult(10, 2))
	mock.ExpectExec("INSERT INTO `bills`").
		WillReturnResult(sqlmock.NewResult(20, 2))
	mock.ExpectExec("INSERT INTO `operations`").
		WillReturnResult(sqlmock.NewResult(30, 2))
	mock.ExpectExec("INSERT INTO `movements`").
		WillReturnResult(sqlmock.NewResult(40, 2))
	mock.ExpectExec("INSERT INTO `movement_taxes`").
		WillReturnError(errors.New("tax lines unavailable"))

	results := im.Import(context.Background(), 1, []RawRow{withTax, plain})

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, uint(40), results[0].MovementID)
	assert.Contains(t, results[0].Error, "tax lines unavailable")
	assert.True(t, results[1].Success)
	assert.Equal(t, uint(41), results[1].MovementID)
	assert.Empty(t, results[1].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_EntityStageFailure(t *testing.T) {
	db, mock := newMockDB(t)
	im := NewImporter(db)

	mock.ExpectExec("INSERT INTO `entities`").
		WillReturnError(errors.New("connection reset"))

	results := im.Import(context.Background(), 1, []RawRow{
		importRow("uno", "C-1"),
		importRow("dos", "C-2"),
	})
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, "entidades: connection reset", r.Error)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_AllRowsInvalid(t *testing.T) {
	db, mock := newMockDB(t)
	im := NewImporter(db)

	bad := importRow("Sin factura", "")
	results := im.Import(context.Background(), 1, []RawRow{bad})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "número de factura")
	require.NoError(t, mock.ExpectationsWereMet())
}
