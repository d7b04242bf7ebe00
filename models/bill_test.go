package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestBill_AmountColumnKeepsPrecision(t *testing.T) {
	s, err := schema.Parse(&Bill{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := s.LookUpField("Amount")
	require.NotNil(t, field)
	assert.Equal(t, "double", string(field.DataType))
}

func TestMovementTax_RecordsPercentage(t *testing.T) {
	s, err := schema.Parse(&MovementTax{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := s.LookUpField("Percentage")
	require.NotNil(t, field)
	assert.Equal(t, "percentage", field.DBName)
}
