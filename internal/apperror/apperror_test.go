package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", Conflict("Email já cadastrado"))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindValidation))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Database(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestValidationDetails(t *testing.T) {
	err := Validation("Erro de validação", Detail{Field: "cpf", Message: "CPF deve ter 11 dígitos", Type: "len", Value: "123"})

	ae, ok := As(err)
	assert.True(t, ok)
	assert.Len(t, ae.Details, 1)
	assert.Equal(t, "cpf", ae.Details[0].Field)
	assert.Equal(t, "validation", ae.Kind.String())
}
