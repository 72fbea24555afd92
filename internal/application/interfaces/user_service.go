package interfaces

import (
	"context"

	"ecodescarte-user-service/internal/application/command"
	"ecodescarte-user-service/internal/application/common"
	"ecodescarte-user-service/internal/application/query"
	"ecodescarte-user-service/internal/infrastructure"
)

type UserService interface {
	RegisterUser(ctx context.Context, registerCommand *command.RegisterUserCommand) (*command.RegisterUserCommandResult, error)
	LoginUser(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error)
	GetProfile(ctx context.Context, id uint) (*query.UserQueryResult, error)
	UpdateProfile(ctx context.Context, updateCommand *command.UpdateProfileCommand) (*command.UpdateProfileCommandResult, error)
	RecoverPassword(ctx context.Context, recoverCommand *command.RecoverPasswordCommand) (*command.RecoverPasswordCommandResult, error)
	ResetPassword(ctx context.Context, resetCommand *command.ResetPasswordCommand) error
	SendTestEmail(ctx context.Context) (*command.SendTestEmailCommandResult, error)
}

// TokenService issues and verifies session and password reset tokens.
// Verification failures are apperror TokenInvalid or TokenExpired.
type TokenService interface {
	GenerateToken(userID uint, email, name string) (string, error)
	ParseToken(token string) (*infrastructure.SessionClaims, error)
	GenerateResetToken(userID uint, fingerprint string) (string, error)
	ParseResetToken(token string) (*infrastructure.ResetClaims, error)
}

// ProfileCache returns nil, nil on a miss.
type ProfileCache interface {
	GetProfile(ctx context.Context, userID uint) (*common.UserResult, error)
	SetProfile(ctx context.Context, user *common.UserResult) error
	DeleteProfile(ctx context.Context, userID uint) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type Mailer interface {
	Send(ctx context.Context, msg infrastructure.Message) (string, error)
}

// CacheProbe is the health view of the optional profile cache.
type CacheProbe interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

type HealthService interface {
	Probe(ctx context.Context) error
	// CacheStatus is "connected", "disabled" or "unavailable". The cache is
	// optional, so it never fails the probe.
	CacheStatus(ctx context.Context) string
}
