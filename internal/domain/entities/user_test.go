package entities

import (
	"strings"
	"testing"
	"time"

	"ecodescarte-user-service/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birth(t *testing.T) time.Time {
	t.Helper()
	d, err := ParseBirthDate("1990-05-17")
	require.NoError(t, err)
	return d
}

func TestNormalizeCPF(t *testing.T) {
	assert.Equal(t, "12345678900", NormalizeCPF("123.456.789-00"))
	assert.Equal(t, "12345678900", NormalizeCPF(" 123 456 789 00 "))
	assert.Equal(t, "", NormalizeCPF("abc"))
}

func TestNewUserNormalizesCPF(t *testing.T) {
	u := NewUser("Maria Silva", "123.456.789-00", birth(t), "maria@example.com", "segredo")
	assert.Equal(t, "12345678900", u.CPF)
	assert.True(t, u.Active)
}

func TestNewValidatedUser(t *testing.T) {
	u := NewUser("Maria Silva", "123.456.789-00", birth(t), "maria@example.com", "segredo")
	u.Address = NewAddress("01001-000", "Praça da Sé", "1", "", "Sé", "São Paulo", "sp")

	vu, err := NewValidatedUser(u)
	require.NoError(t, err)
	assert.Equal(t, "SP", vu.GetUser().Address.State)
}

func TestNewValidatedUserCollectsAllViolations(t *testing.T) {
	u := NewUser("", "123", time.Time{}, "not-an-email", "")
	u.Address = NewAddress("", "", "", "", "", "", "SPX")

	_, err := NewValidatedUser(u)
	require.Error(t, err)

	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, ae.Kind)

	fields := map[string]bool{}
	for _, d := range ae.Details {
		fields[d.Field] = true
	}
	for _, f := range []string{"nome_completo", "cpf", "data_nascimento", "email", "senha", "cep", "estado"} {
		assert.True(t, fields[f], "missing violation for %s", f)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.com"))
	assert.False(t, ValidEmail("Maria <a@b.com>"))
	assert.False(t, ValidEmail("a-at-b.com"))
}

func TestHashAndCheckPassword(t *testing.T) {
	u := NewUser("Maria Silva", "12345678900", birth(t), "maria@example.com", "segredo")
	require.NoError(t, u.HashPassword())

	assert.NotEqual(t, "segredo", u.Password)
	assert.NoError(t, u.CheckPassword("segredo"))
	assert.Error(t, u.CheckPassword("outra"))
}

func TestPasswordFingerprintChangesWithPassword(t *testing.T) {
	u := NewUser("Maria Silva", "12345678900", birth(t), "maria@example.com", "segredo")
	require.NoError(t, u.HashPassword())
	before := u.PasswordFingerprint()

	require.NoError(t, u.SetPassword("nova-senha"))
	assert.NotEqual(t, before, u.PasswordFingerprint())
	assert.NoError(t, u.CheckPassword("nova-senha"))
}

func TestSetPasswordRejectsBlank(t *testing.T) {
	u := NewUser("Maria Silva", "12345678900", birth(t), "maria@example.com", "segredo")
	err := u.SetPassword("   ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestParseBirthDate(t *testing.T) {
	for _, in := range []string{"1990-05-17", "1990-05-17T10:00:00Z", "17/05/1990"} {
		d, err := ParseBirthDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), d)
	}

	_, err := ParseBirthDate("ontem")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestUpdateProfileValidates(t *testing.T) {
	u := NewUser("Maria Silva", "12345678900", birth(t), "maria@example.com", "segredo")
	vu, err := NewValidatedUser(u)
	require.NoError(t, err)

	err = vu.UpdateProfile("Maria S.", birth(t), "bad")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestPasswordLongerThan72BytesIsRejected(t *testing.T) {
	u := NewUser("Maria Silva", "12345678900", birth(t), "maria@example.com", strings.Repeat("a", 73))
	_, err := NewValidatedUser(u)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, ae.Kind)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "senha", ae.Details[0].Field)
	assert.Equal(t, "len", ae.Details[0].Type)

	// 72 bytes is still accepted, counted in bytes rather than runes.
	u = NewUser("Maria Silva", "12345678900", birth(t), "maria@example.com", strings.Repeat("a", 72))
	_, err = NewValidatedUser(u)
	assert.NoError(t, err)

	err = u.SetPassword(strings.Repeat("é", 37))
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, strings.Repeat("a", 72), u.Password, "rejected password leaves the old one in place")
}
