package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitRequest struct {
	AccountID int64   `json:"account_id" validate:"required,gt=0"`
	Merchant  string  `json:"merchant" validate:"required,notblank,max=255"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Email     string  `json:"email,omitempty" validate:"omitempty,email"`
	Status    string  `json:"status" validate:"omitempty,oneof=ACTIVE FROZEN"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      submitRequest
		wantFields map[string]string
	}{
		{
			name:  "valid",
			input: submitRequest{AccountID: 1, Merchant: "Starbucks", Amount: 4.5},
		},
		{
			name:  "missing fields reported by json name",
			input: submitRequest{},
			wantFields: map[string]string{
				"account_id": "account_id is required",
				"merchant":   "merchant is required",
				"amount":     "amount must be greater than 0",
			},
		},
		{
			name:  "blank merchant",
			input: submitRequest{AccountID: 1, Merchant: "   ", Amount: 1},
			wantFields: map[string]string{
				"merchant": "merchant is required",
			},
		},
		{
			name:  "bad email and status",
			input: submitRequest{AccountID: 1, Merchant: "m", Amount: 1, Email: "nope", Status: "LOST"},
			wantFields: map[string]string{
				"email":  "email must be a valid email",
				"status": "status must be one of: ACTIVE FROZEN",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Equal(t, tt.wantFields, GetValidationFields(err))
		})
	}
}

func TestValidationError_Details(t *testing.T) {
	err := &ValidationError{Message: "Validation failed", Fields: map[string]string{"amount": "amount is required"}}

	assert.Equal(t, "Validation failed", err.Error())
	assert.Equal(t, map[string]interface{}{"amount": "amount is required"}, err.Details())
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(errors.New("plain")))
	assert.Nil(t, GetValidationFields(errors.New("plain")))
}
