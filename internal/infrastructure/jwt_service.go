package infrastructure

import (
	"errors"
	"fmt"
	"time"

	"ecodescarte-user-service/internal/apperror"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser             = "user"
	PurposePasswordReset = "password_reset"
)

// SessionClaims are carried by the token issued on register and login.
type SessionClaims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"nome"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ResetClaims are carried by the password reset link. Fingerprint ties the
// token to the password hash it was issued against.
type ResetClaims struct {
	UserID      uint   `json:"id"`
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fpr"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secretKey  []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewJWTService(secret string, sessionTTL, resetTTL time.Duration) *JWTService {
	return &JWTService{
		secretKey:  []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used to stamp and verify tokens.
func (j *JWTService) WithClock(now func() time.Time) *JWTService {
	j.now = now
	return j
}

func (j *JWTService) GenerateToken(userID uint, email, name string) (string, error) {
	issued := j.now()
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(j.sessionTTL)),
		},
	}
	return j.sign(claims)
}

func (j *JWTService) ParseToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := j.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 || claims.Role != RoleUser {
		return nil, apperror.TokenInvalid(errors.New("not a session token"))
	}
	return claims, nil
}

func (j *JWTService) GenerateResetToken(userID uint, fingerprint string) (string, error) {
	issued := j.now()
	claims := ResetClaims{
		UserID:      userID,
		Purpose:     PurposePasswordReset,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(j.resetTTL)),
		},
	}
	return j.sign(claims)
}

func (j *JWTService) ParseResetToken(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := j.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != PurposePasswordReset || claims.UserID == 0 {
		return nil, apperror.TokenInvalid(errors.New("not a password reset token"))
	}
	return claims, nil
}

func (j *JWTService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", apperror.Internal(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

func (j *JWTService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return apperror.TokenExpired(err)
		}
		return apperror.TokenInvalid(err)
	}
	if !token.Valid {
		return apperror.TokenInvalid(errors.New("invalid token"))
	}
	return nil
}
