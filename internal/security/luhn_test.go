package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCardNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{
			name:   "valid visa test number",
			number: "4111111111111111",
			valid:  true,
		},
		{
			name:   "checksum off by one",
			number: "4111111111111112",
			valid:  false,
		},
		{
			name:   "valid mastercard test number",
			number: "5500005555555559",
			valid:  true,
		},
		{
			name:   "too short",
			number: "411111111111",
			valid:  false,
		},
		{
			name:   "too long",
			number: "41111111111111111111",
			valid:  false,
		},
		{
			name:   "non digit characters",
			number: "4111-1111-1111-111",
			valid:  false,
		},
		{
			name:   "empty string",
			number: "",
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateCardNumber(tt.number))
		})
	}
}
