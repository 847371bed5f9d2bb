package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string  `validate:"required,min=1"`
	Price float64 `validate:"gte=0"`
}

func TestValidateStruct_Valid(t *testing.T) {
	err := ValidateStruct(sampleRequest{Name: "Leche", Price: 4500})
	assert.NoError(t, err)
}

func TestValidateStruct_MissingRequired(t *testing.T) {
	err := ValidateStruct(sampleRequest{Price: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestValidateStruct_NegativePrice(t *testing.T) {
	err := ValidateStruct(sampleRequest{Name: "Pan", Price: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price must be at least 0")
}
