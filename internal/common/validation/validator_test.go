package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIdentity(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		valid    bool
	}{
		{"plain address", "user@example.com", true},
		{"subdomain", "user@mail.example.com", true},
		{"plus tag", "user+habits@example.com", true},
		{"empty", "", false},
		{"no at sign", "userexample.com", false},
		{"no domain", "user@", false},
		{"spaces", "user @example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidIdentity(tt.identity))
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required,max=31"`
	}

	errs := Validate(payload{Email: "user@example.com", Name: "Meditate"})
	assert.Empty(t, errs)

	errs = Validate(payload{Email: "nope", Name: strings.Repeat("x", 40)})
	assert.Len(t, errs, 2)
}
