package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillSummary(t *testing.T) {
	s := &Summary{
		Totals: []TypeTotal{
			{Type: "ingreso", Total: 1000},
			{Type: "egreso", Total: 300},
			{Type: "inversion", Total: 200},
		},
		Categories: []CategoryTotal{
			{Type: "egreso", Category: "COMBUSTIBLES", Total: 200},
			{Type: "egreso", Category: "SEMILLAS", Total: 100},
			{Type: "otro", Category: "X", Total: 5},
		},
	}
	fillSummary(s)

	assert.Equal(t, 66.67, s.Categories[0].Percentage)
	assert.Equal(t, 33.33, s.Categories[1].Percentage)
	assert.Zero(t, s.Categories[2].Percentage)
	assert.Equal(t, 500.0, s.Balance)
}

func TestDashboard_SummaryRejectsBadRange(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewDashboard(db)

	_, err := d.Summary(context.Background(), "2024-03-01", "2024-02-01")
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = d.Summary(context.Background(), "01/03/2024", "")
	assert.True(t, errors.Is(err, ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboard_Summary(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewDashboard(db)

	mock.ExpectQuery("SELECT m.type AS type, COALESCE\\(SUM\\(b.amount\\), 0\\) AS total, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"type", "total", "count"}).
			AddRow("egreso", 400.0, 2).
			AddRow("ingreso", 1000.0, 1))
	mock.ExpectQuery("c.description AS category").
		WillReturnRows(sqlmock.NewRows([]string{"type", "category_id", "category", "total"}).
			AddRow("egreso", 5, "COMBUSTIBLES", 300.0).
			AddRow("egreso", 6, "SEMILLAS", 100.0).
			AddRow("ingreso", 7, "VENTAS", 1000.0))
	mock.ExpectQuery("DATE_FORMAT").
		WillReturnRows(sqlmock.NewRows([]string{"month", "type", "total"}).
			AddRow("2024-03", "egreso", 400.0).
			AddRow("2024-03", "ingreso", 1000.0))

	s, err := d.Summary(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, s.Totals, 2)
	require.Len(t, s.Categories, 3)
	assert.Equal(t, 75.0, s.Categories[0].Percentage)
	assert.Equal(t, 100.0, s.Categories[2].Percentage)
	require.Len(t, s.Monthly, 2)
	assert.Equal(t, 600.0, s.Balance)
	require.NoError(t, mock.ExpectationsWereMet())
}
