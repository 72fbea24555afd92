package handler

import (
	"log/slog"
	"net/http"
	"time"

	"ecodescarte-user-service/internal/application/command"
	"ecodescarte-user-service/internal/application/common"
	"ecodescarte-user-service/internal/application/interfaces"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	userService interfaces.UserService
	health      interfaces.HealthService
	env         string
	started     time.Time
	log         *slog.Logger
}

func NewHandler(userService interfaces.UserService, health interfaces.HealthService, env string, log *slog.Logger) *Handler {
	return &Handler{
		userService: userService,
		health:      health,
		env:         env,
		started:     time.Now(),
		log:         log,
	}
}

type registerRequest struct {
	Nome        string   `json:"nome"`
	CPF         string   `json:"cpf"`
	Nascimento  string   `json:"nascimento"`
	Email       string   `json:"email"`
	Senha       string   `json:"senha"`
	Cep         string   `json:"cep"`
	Logradouro  string   `json:"logradouro"`
	Numero      string   `json:"numero"`
	Complemento string   `json:"complemento"`
	Bairro      string   `json:"bairro"`
	Cidade      string   `json:"cidade"`
	Estado      string   `json:"estado"`
	Caminhao    flexBool `json:"caminhao"`
	Politicas   flexBool `json:"politicas"`
	Dicas       flexBool `json:"dicas"`
}

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type recoverPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token string `json:"token"`
	Senha string `json:"senha"`
}

type addressRequest struct {
	Cep         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Cidade      string `json:"cidade"`
	Estado      string `json:"estado"`
}

type preferencesRequest struct {
	AlertaCaminhao      flexBool `json:"alerta_caminhao"`
	PoliticasAmbientais flexBool `json:"politicas_ambientais"`
	DicasDescarte       flexBool `json:"dicas_descarte"`
}

type updateProfileRequest struct {
	NomeCompleto   string              `json:"nome_completo"`
	DataNascimento string              `json:"data_nascimento"`
	Email          string              `json:"email"`
	Endereco       *addressRequest     `json:"endereco"`
	Preferencias   *preferencesRequest `json:"preferencias"`
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON inválido")
	}
	return nil
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.userService.RegisterUser(c.Request().Context(), &command.RegisterUserCommand{
		Name:                  req.Nome,
		CPF:                   req.CPF,
		BirthDate:             req.Nascimento,
		Email:                 req.Email,
		Password:              req.Senha,
		PostalCode:            req.Cep,
		Street:                req.Logradouro,
		Number:                req.Numero,
		Complement:            req.Complemento,
		Neighborhood:          req.Bairro,
		City:                  req.Cidade,
		State:                 req.Estado,
		TruckAlert:            bool(req.Caminhao),
		EnvironmentalPolicies: bool(req.Politicas),
		DisposalTips:          bool(req.Dicas),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Usuário registrado com sucesso",
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.userService.LoginUser(c.Request().Context(), &command.LoginUserCommand{
		Email:    req.Email,
		Password: req.Senha,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *Handler) RecoverPassword(c echo.Context) error {
	var req recoverPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if _, err := h.userService.RecoverPassword(c.Request().Context(), &command.RecoverPasswordCommand{Email: req.Email}); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Instruções de recuperação enviadas para o e-mail cadastrado",
	})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.userService.ResetPassword(c.Request().Context(), &command.ResetPasswordCommand{
		Token:    req.Token,
		Password: req.Senha,
	}); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Senha redefinida com sucesso",
	})
}

func (h *Handler) GetProfile(c echo.Context) error {
	userID, err := mustUserID(c)
	if err != nil {
		return err
	}

	result, err := h.userService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    result.Result,
	})
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	userID, err := mustUserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cmd := &command.UpdateProfileCommand{
		UserId:    userID,
		FullName:  req.NomeCompleto,
		BirthDate: req.DataNascimento,
		Email:     req.Email,
	}
	if a := req.Endereco; a != nil {
		cmd.Address = &common.AddressResult{
			PostalCode:   a.Cep,
			Street:       a.Logradouro,
			Number:       a.Numero,
			Complement:   a.Complemento,
			Neighborhood: a.Bairro,
			City:         a.Cidade,
			State:        a.Estado,
		}
	}
	if p := req.Preferencias; p != nil {
		cmd.Preferences = &common.PreferenceResult{
			TruckAlert:            bool(p.AlertaCaminhao),
			EnvironmentalPolicies: bool(p.PoliticasAmbientais),
			DisposalTips:          bool(p.DicasDescarte),
		}
	}

	result, err := h.userService.UpdateProfile(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Perfil atualizado com sucesso",
		"user":    result.User,
	})
}

func (h *Handler) TestEmail(c echo.Context) error {
	result, err := h.userService.SendTestEmail(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Test email sent successfully",
		"messageId": result.MessageId,
	})
}

func (h *Handler) NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{
		"success":      false,
		"error":        "Endpoint not found",
		"requestedUrl": c.Request().URL.RequestURI(),
		"method":       c.Request().Method,
		"availableEndpoints": echo.Map{
			"auth":      "/api/auth",
			"health":    "/api/health",
			"testEmail": "/api/test-email",
		},
	})
}
