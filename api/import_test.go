package api

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"sisgeagro/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/movements/import", NewImportHandler(cfg).Import)
	return router
}

func importConfig(maxRows int) *config.Config {
	return &config.Config{Import: config.ImportConfig{MaxRows: maxRows, MaxFileSize: 1 << 20}}
}

func TestImportHandler_JSONRowLimit(t *testing.T) {
	body := `{"rows":[{"description":"a"},{"description":"b"},{"description":"c"}]}`
	req := httptest.NewRequest("POST", "/movements/import", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	importRouter(importConfig(2)).ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, decodeResponse(t, w)["message"], "máximo de filas")
}

func TestImportHandler_JSONRowsReportedPerRow(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 表头大小写不敏感；两行都缺发票号，不访问数据库
	body := `{"rows":[
		{"Description":"Gasoil","Amount":"100","Type":"egreso","Date":"05/03/2024","Payment_Type":"efectivo",
		 "Entity_Name":"YPF","Fiscal_ID":"30-1","Category":"Combustibles","Subcategory":"Gasoil"},
		{"description":"","amount":"x"}
	]}`
	req := httptest.NewRequest("POST", "/movements/import", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	importRouter(importConfig(10)).ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(0), data["imported"])
	assert.Equal(t, float64(2), data["failed"])

	results := data["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["row"])
	assert.Contains(t, first["error"], "número de factura")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportHandler_EmptyCSV(t *testing.T) {
	req := httptest.NewRequest("POST", "/movements/import", bytes.NewBufferString(""))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	importRouter(importConfig(10)).ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, decodeResponse(t, w)["error"], "vacío")
}

func TestImportHandler_HeaderOnlyCSV(t *testing.T) {
	req := httptest.NewRequest("POST", "/movements/import", bytes.NewBufferString("descripcion;monto;tipo\n"))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	importRouter(importConfig(10)).ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "el archivo no contiene filas", decodeResponse(t, w)["message"])
}

func TestImportHandler_MultipartMissingFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/movements/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	importRouter(importConfig(10)).ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, decodeResponse(t, w)["error"], "campo file")
}
