package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"ecodescarte-user-service/internal/apperror"
	"golang.org/x/crypto/bcrypt"
)

const cpfLength = 11

type User struct {
	Id         uint
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FullName   string
	CPF        string
	BirthDate  time.Time
	Email      string
	Password   string
	Active     bool
	Address    *Address
	Preference *Preference
}

func NewUser(fullName, cpf string, birthDate time.Time, email, password string) *User {
	now := time.Now()
	return &User{
		CreatedAt: now,
		UpdatedAt: now,
		FullName:  strings.TrimSpace(fullName),
		CPF:       NormalizeCPF(cpf),
		BirthDate: birthDate,
		Email:     strings.TrimSpace(email),
		Password:  password,
		Active:    true,
	}
}

// NormalizeCPF keeps only the digits of a CPF, "123.456.789-00" -> "12345678900".
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	b.Grow(len(cpf))
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidEmail accepts a bare address, without display name.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (u *User) validate() error {
	var details []apperror.Detail

	if u.FullName == "" {
		details = append(details, apperror.Detail{Field: "nome_completo", Message: "Nome completo é obrigatório", Type: "notEmpty", Value: u.FullName})
	}
	if len(u.CPF) != cpfLength {
		details = append(details, apperror.Detail{Field: "cpf", Message: "CPF deve ter 11 dígitos", Type: "len", Value: u.CPF})
	}
	if u.BirthDate.IsZero() {
		details = append(details, apperror.Detail{Field: "data_nascimento", Message: "Data de nascimento é obrigatória", Type: "notNull"})
	}
	if u.Email == "" {
		details = append(details, apperror.Detail{Field: "email", Message: "Email é obrigatório", Type: "notEmpty"})
	} else if !ValidEmail(u.Email) {
		details = append(details, apperror.Detail{Field: "email", Message: "Email inválido", Type: "isEmail", Value: u.Email})
	}
	if u.Password == "" {
		details = append(details, apperror.Detail{Field: "senha", Message: "Senha é obrigatória", Type: "notEmpty"})
	} else if d, ok := passwordTooLong(u.Password); ok {
		details = append(details, d)
	}
	if u.CreatedAt.After(u.UpdatedAt) {
		details = append(details, apperror.Detail{Field: "updated_at", Message: "created_at must be before updated_at", Type: "order"})
	}
	if u.Address != nil {
		details = append(details, u.Address.validate()...)
	}

	if len(details) > 0 {
		return apperror.Validation("Erro de validação", details...)
	}
	return nil
}

// bcrypt rejects inputs longer than 72 bytes.
const maxPasswordBytes = 72

func passwordTooLong(password string) (apperror.Detail, bool) {
	if len([]byte(password)) <= maxPasswordBytes {
		return apperror.Detail{}, false
	}
	return apperror.Detail{
		Field:   "senha",
		Message: fmt.Sprintf("Senha deve ter no máximo %d bytes", maxPasswordBytes),
		Type:    "len",
	}, true
}

func (u *User) HashPassword() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// PasswordFingerprint identifies the current password hash without exposing it.
// Reset tokens carry it so they stop working once the password changes.
func (u *User) PasswordFingerprint() string {
	sum := sha256.Sum256([]byte(u.Password))
	return hex.EncodeToString(sum[:8])
}

func (u *User) SetPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperror.Validation("Erro de validação", apperror.Detail{Field: "senha", Message: "Senha é obrigatória", Type: "notEmpty"})
	}
	if d, ok := passwordTooLong(password); ok {
		return apperror.Validation("Erro de validação", d)
	}
	u.Password = password
	u.UpdatedAt = time.Now()
	return u.HashPassword()
}

func (u *User) UpdateProfile(fullName string, birthDate time.Time, email string) error {
	u.FullName = strings.TrimSpace(fullName)
	u.BirthDate = birthDate
	u.Email = strings.TrimSpace(email)
	u.UpdatedAt = time.Now()
	return u.validate()
}

// ParseBirthDate reads a date-only value.
func ParseBirthDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "02/01/2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, apperror.Validation("Erro de validação", apperror.Detail{
		Field:   "data_nascimento",
		Message: "Data de nascimento inválida",
		Type:    "isDate",
		Value:   value,
	})
}
