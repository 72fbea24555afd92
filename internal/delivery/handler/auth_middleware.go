package handler

import (
	"context"
	"strings"

	"ecodescarte-user-service/internal/apperror"
	"ecodescarte-user-service/internal/application/interfaces"
	"github.com/labstack/echo/v4"
)

const userIDKey = "userID"

type ctxKey struct{}

const missingTokenMessage = "Acesso não autorizado. Faça login para continuar."

// RequireAuth verifies the bearer session token and stores the caller's id
// on both the echo context and the request context.
func RequireAuth(tokens interfaces.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return apperror.Unauthorized(missingTokenMessage)
			}

			claims, err := tokens.ParseToken(raw)
			if err != nil {
				return err
			}

			c.Set(userIDKey, claims.UserID)
			req := c.Request()
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), ctxKey{}, claims.UserID)))
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserIDFrom returns the authenticated user id placed by RequireAuth.
func UserIDFrom(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(ctxKey{}).(uint)
	return id, ok && id != 0
}

func mustUserID(c echo.Context) (uint, error) {
	if id, ok := c.Get(userIDKey).(uint); ok && id != 0 {
		return id, nil
	}
	if id, ok := UserIDFrom(c.Request().Context()); ok {
		return id, nil
	}
	return 0, apperror.Unauthorized(missingTokenMessage)
}
