package ticketeta

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    ValidationKind
		length  int
		wantErr bool
	}{
		{"empty", "", ValidationEmpty, 0, true},
		{"whitespace", " \t\n ", ValidationEmpty, 0, true},
		{"short", "printer broken", ValidationTooShort, 14, true},
		{"short after trim", "   nineteen chars!!   ", ValidationTooShort, 16, true},
		{"exactly minimum", strings.Repeat("a", 20), "", 0, false},
		{"multibyte counted as characters", strings.Repeat("é", 19), ValidationTooShort, 19, true},
		{"long", "Printer on the 3rd floor shows paper jam", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
			assert.Equal(t, tt.kind, ve.Kind)
			assert.Equal(t, tt.length, ve.Length)
			assert.Equal(t, MinDescriptionLength, ve.Minimum)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := Validate("too short")
	assert.EqualError(t, err, "description too short: 9 characters, need at least 20")
	assert.EqualError(t, Validate(""), "description is empty")
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "printer jam on floor 3", normalizeDescription("  Printer   JAM\ton floor 3\n"))
}
