package service

import (
	"testing"

	"sisgeagro/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementAlertBodies(t *testing.T) {
	a := MovementAlert{
		Username:    "ana",
		Description: "Compra de semillas",
		Type:        "egreso",
		Amount:      150000,
		Threshold:   100000,
		Entity:      "Semillera <Norte>",
		Date:        "2024-03-05",
	}

	assert.Contains(t, a.subject(), "egreso")
	assert.Contains(t, a.subject(), "150000.00")

	text := a.text()
	assert.Contains(t, text, "ana")
	assert.Contains(t, text, "Compra de semillas")
	assert.Contains(t, text, "100000.00")

	body := a.html()
	assert.Contains(t, body, "Semillera &lt;Norte&gt;")
	assert.NotContains(t, body, "<Norte>")
	assert.Contains(t, body, "2024-03-05")
}

func TestEmailService_Disabled(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{Enabled: false})
	err := s.Send("a@example.com", "s", "t", "<p>h</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no está habilitado")
}
