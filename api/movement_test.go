package api

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movementRouter() *gin.Engine {
	h := NewMovementHandler(nil)
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/movements", h.Create)
	router.POST("/movements/delete", h.Delete)
	router.POST("/movements/search", h.Search)
	router.GET("/movements", h.List)
	router.GET("/movements/:id", h.Get)
	router.DELETE("/movements/:id", h.DeleteByPath)
	return router
}

func TestMovementHandler_CreateExpenseWithoutBill(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	body := `{"description":"Gasoil","amount":1000,"type":"egreso","payment_type":"efectivo",
		"category":"Combustibles","subcategory":"Gasoil","bill_date":"2024-03-05",
		"entity":{"name":"YPF","fiscal_id":"30-1"}}`
	req := httptest.NewRequest("POST", "/movements", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "solicitud inválida", resp["message"])
	assert.Contains(t, resp["error"], "número de factura")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMovementHandler_CreateMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/movements", bytes.NewBufferString(`{"amount":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "parámetros inválidos", decodeResponse(t, w)["message"])
}

func TestMovementHandler_GetNotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("FROM movements AS m JOIN operations").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest("GET", "/movements/99", nil)
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	assert.Contains(t, decodeResponse(t, w)["error"], "movimiento 99 no encontrado")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMovementHandler_GetInvalidID(t *testing.T) {
	req := httptest.NewRequest("GET", "/movements/abc", nil)
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestMovementHandler_GetWithTaxes(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	billDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM movements AS m JOIN operations").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "type", "amount", "date", "bill_number", "entity_name"}).
			AddRow(11, "Gasoil", "egreso", 1000.0, billDate, "A-1", "YPF"))
	mock.ExpectQuery("FROM movement_taxes AS mt").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"movement_id", "tax_id", "name", "percentage", "calculated_amount"}).
			AddRow(11, 1, "IVA 21%", 21.0, 210.0))

	req := httptest.NewRequest("GET", "/movements/11", nil)
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "A-1", data["bill_number"])
	taxes := data["taxes"].([]interface{})
	require.Len(t, taxes, 1)
	assert.Equal(t, 210.0, taxes[0].(map[string]interface{})["calculated_amount"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMovementHandler_DeleteAlreadyGone(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `movements`").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest("POST", "/movements/delete", bytes.NewBufferString(`{"id":7}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "el movimiento ya fue eliminado", resp["message"])
	assert.Equal(t, false, resp["data"].(map[string]interface{})["deleted"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMovementHandler_DeleteRequiresID(t *testing.T) {
	req := httptest.NewRequest("POST", "/movements/delete", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestMovementHandler_ListEmptyPage(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM movements AS m").
		WithArgs("egreso").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM movements AS m JOIN operations").
		WithArgs("egreso").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest("GET", "/movements?type=egreso&page_size=500", nil)
	w := httptest.NewRecorder()
	movementRouter().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])
	assert.Equal(t, float64(1), data["page"])
	assert.Equal(t, float64(200), data["page_size"])
	assert.Empty(t, data["list"])
	require.NoError(t, mock.ExpectationsWereMet())
}
