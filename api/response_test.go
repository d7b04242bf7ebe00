package api

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"sisgeagro/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFail_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &service.Error{Kind: service.ErrValidation, Message: "monto inválido"}, 400},
		{"conflict", &service.Error{Kind: service.ErrConflict, Message: "factura duplicada"}, 409},
		{"duplicated key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), 409},
		{"not found", &service.Error{Kind: service.ErrNotFound, Message: "no existe"}, 404},
		{"record not found", gorm.ErrRecordNotFound, 404},
		{"store failure", errors.New("connection refused"), 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)

			Fail(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, float64(tc.status), resp["code"])
			assert.Equal(t, tc.err.Error(), resp["error"])
		})
	}
}
