package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true, TranslateError: true})
	require.NoError(t, err)
	return db, mock
}

func entityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "fiscal_id", "created_at"})
}

func TestEntityResolver_ResolveIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewEntityResolver(db)
	ctx := context.Background()

	// 首次：税号不存在，upsert 写入
	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs("20-12345678-9").
		WillReturnRows(entityRows())
	mock.ExpectExec("INSERT INTO `entities`").
		WillReturnResult(sqlmock.NewResult(7, 1))

	// 再次：直接命中已有行
	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs("20-12345678-9").
		WillReturnRows(entityRows().AddRow(7, "Agro SA", "20-12345678-9", time.Now()))

	first, err := r.Resolve(ctx, EntityRef{Name: " Agro SA ", FiscalID: "20-12345678-9"})
	require.NoError(t, err)
	second, err := r.Resolve(ctx, EntityRef{Name: "Agro SA", FiscalID: "20-12345678-9"})
	require.NoError(t, err)

	assert.Equal(t, uint(7), first.ID)
	assert.Equal(t, "Agro SA", first.Name)
	assert.Equal(t, first.ID, second.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityResolver_ResolveByID(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewEntityResolver(db)

	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs(3).
		WillReturnRows(entityRows())

	_, err := r.Resolve(context.Background(), EntityRef{ID: 3, Name: "ignorado"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityResolver_ResolveRequiresNameAndFiscalID(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewEntityResolver(db)

	_, err := r.Resolve(context.Background(), EntityRef{Name: "Sin CUIT"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityResolver_ResolveStrictNameClash(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewEntityResolver(db)

	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs("30-1").
		WillReturnRows(entityRows())
	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs("Agro SA", "30-1").
		WillReturnRows(entityRows().AddRow(7, "Agro SA", "20-12345678-9", time.Now()))

	_, created, err := r.ResolveStrict(context.Background(), EntityRef{Name: "Agro SA", FiscalID: "30-1"})
	require.Error(t, err)
	assert.False(t, created)
	assert.True(t, errors.Is(err, ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityResolver_ResolveStrictCreates(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewEntityResolver(db)

	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs("30-1").
		WillReturnRows(entityRows())
	mock.ExpectQuery("SELECT .* FROM `entities`").
		WithArgs("Campo Nuevo", "30-1").
		WillReturnRows(entityRows())
	mock.ExpectExec("INSERT INTO `entities`").
		WillReturnResult(sqlmock.NewResult(12, 1))

	e, created, err := r.ResolveStrict(context.Background(), EntityRef{Name: "Campo Nuevo", FiscalID: "30-1"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(12), e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
}
