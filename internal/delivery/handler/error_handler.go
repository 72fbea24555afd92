package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ecodescarte-user-service/internal/apperror"
	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	Message   string            `json:"message,omitempty"`
	Details   []apperror.Detail `json:"details,omitempty"`
	Status    int               `json:"status"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
	Method    string            `json:"method"`
	Debug     *debugInfo        `json:"debug,omitempty"`
}

type debugInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorHandler is the single place errors become client-visible JSON.
func NewErrorHandler(production bool, log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := translate(err, production)
		req := c.Request()
		body.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
		body.Path = req.URL.Path
		body.Method = req.Method
		if !production {
			body.Debug = &debugInfo{Type: fmt.Sprintf("%T", err), Message: err.Error()}
		}

		attrs := []any{"status", body.Status, "path", body.Path, "method", body.Method, "error", err}
		if body.Status >= http.StatusInternalServerError {
			log.ErrorContext(req.Context(), "request failed", attrs...)
		} else {
			log.DebugContext(req.Context(), "request rejected", attrs...)
		}

		var writeErr error
		if req.Method == http.MethodHead {
			writeErr = c.NoContent(body.Status)
		} else {
			writeErr = c.JSON(body.Status, body)
		}
		if writeErr != nil {
			log.Error("failed to write error response", "error", writeErr)
		}
	}
}

func translate(err error, production bool) errorBody {
	if ae, ok := apperror.As(err); ok {
		return translateAppError(ae, production)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusForbidden {
			return errorBody{Status: http.StatusForbidden, Error: "Acesso não autorizado"}
		}
		if he.Code >= 400 && he.Code < 500 {
			return errorBody{Status: he.Code, Error: httpErrorMessage(he)}
		}
	}

	return internalBody(err, production)
}

func translateAppError(ae *apperror.Error, production bool) errorBody {
	switch ae.Kind {
	case apperror.KindValidation:
		return errorBody{Status: http.StatusBadRequest, Error: ae.Message, Details: ae.Details}
	case apperror.KindConflict:
		return errorBody{Status: http.StatusConflict, Error: "Conflito de dados", Message: ae.Message, Details: ae.Details}
	case apperror.KindTokenInvalid:
		return errorBody{Status: http.StatusUnauthorized, Error: "Token inválido", Message: "Falha na autenticação"}
	case apperror.KindTokenExpired:
		return errorBody{Status: http.StatusUnauthorized, Error: "Token expirado", Message: "Sessão expirada, faça login novamente"}
	case apperror.KindUnauthorized:
		return errorBody{Status: http.StatusUnauthorized, Error: ae.Message}
	case apperror.KindNotFound:
		return errorBody{Status: http.StatusNotFound, Error: "Recurso não encontrado", Message: ae.Message}
	case apperror.KindForbidden:
		return errorBody{Status: http.StatusForbidden, Error: "Acesso não autorizado"}
	case apperror.KindDatabase:
		return errorBody{Status: http.StatusInternalServerError, Error: "Erro no banco de dados", Message: "Ocorreu um problema ao acessar os dados"}
	default:
		return internalBody(ae, production)
	}
}

func internalBody(err error, production bool) errorBody {
	body := errorBody{Status: http.StatusInternalServerError, Error: "Erro interno no servidor"}
	if !production {
		body.Message = err.Error()
	}
	return body
}

func httpErrorMessage(he *echo.HTTPError) string {
	if s, ok := he.Message.(string); ok && s != "" {
		return s
	}
	return http.StatusText(he.Code)
}
