package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=1"`
	TOTP     string `json:"totp" validate:"omitempty,totp"`
}

func TestNew_RegistersCustomRules(t *testing.T) {
	var v *Validator
	require.NotPanics(t, func() { v = New() })

	// The totp rule must actually be active, not silently dropped.
	err := v.Validate(loginPayload{Username: "ada", Password: "secret", TOTP: "not-a-code"})
	require.Error(t, err)
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		payload   loginPayload
		wantErr   bool
		wantField string
	}{
		{
			name:    "valid without totp",
			payload: loginPayload{Username: "ada", Password: "secret"},
		},
		{
			name:    "valid with six digit totp",
			payload: loginPayload{Username: "ada", Password: "secret", TOTP: "123456"},
		},
		{
			name:    "valid with eight digit totp",
			payload: loginPayload{Username: "ada", Password: "secret", TOTP: "12345678"},
		},
		{
			name:      "missing username",
			payload:   loginPayload{Password: "secret"},
			wantErr:   true,
			wantField: "username",
		},
		{
			name:      "missing password",
			payload:   loginPayload{Username: "ada"},
			wantErr:   true,
			wantField: "password",
		},
		{
			name:      "totp too short",
			payload:   loginPayload{Username: "ada", Password: "secret", TOTP: "12345"},
			wantErr:   true,
			wantField: "totp",
		},
		{
			name:      "totp not numeric",
			payload:   loginPayload{Username: "ada", Password: "secret", TOTP: "12345a"},
			wantErr:   true,
			wantField: "totp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.payload)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Errors, tt.wantField)
		})
	}
}

func TestValidationError_UsesJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(loginPayload{})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, "username")
	assert.NotContains(t, verr.Errors, "Username")
	assert.Contains(t, verr.Error(), "validation failed")
}

func TestValidationError_TOTPMessage(t *testing.T) {
	v := New()

	err := v.Validate(loginPayload{Username: "ada", Password: "secret", TOTP: "bad"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "totp must be a 6 to 8 digit one-time code", verr.Errors["totp"])
}
