package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"ecodescarte-user-service/internal/apperror"
	"ecodescarte-user-service/internal/application/command"
	"ecodescarte-user-service/internal/application/common"
	"ecodescarte-user-service/internal/application/interfaces"
	"ecodescarte-user-service/internal/application/mapper"
	"ecodescarte-user-service/internal/application/query"
	"ecodescarte-user-service/internal/domain/entities"
	"ecodescarte-user-service/internal/domain/repositories"
	"ecodescarte-user-service/internal/infrastructure"
	"github.com/google/uuid"
)

const invalidCredentials = "Credenciais inválidas"

type Options struct {
	FrontendURL   string
	TestRecipient string
	// ResetTTL is the reset token lifetime quoted in the recovery e-mail.
	ResetTTL time.Duration
}

type UserService struct {
	userRepo repositories.UserRepository
	tokens   interfaces.TokenService
	cache    interfaces.ProfileCache
	mailer   interfaces.Mailer
	events   interfaces.EventPublisher
	log      *slog.Logger
	opts     Options
}

func NewUserService(
	userRepo repositories.UserRepository,
	tokens interfaces.TokenService,
	cache interfaces.ProfileCache,
	mailer interfaces.Mailer,
	events interfaces.EventPublisher,
	log *slog.Logger,
	opts Options,
) interfaces.UserService {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		cache:    cache,
		mailer:   mailer,
		events:   events,
		log:      log,
		opts:     opts,
	}
}

func (s *UserService) RegisterUser(ctx context.Context, registerCommand *command.RegisterUserCommand) (*command.RegisterUserCommandResult, error) {
	if err := requireFields("Campos obrigatórios faltando", map[string]string{
		"nome":  registerCommand.Name,
		"email": registerCommand.Email,
		"senha": registerCommand.Password,
		"cpf":   registerCommand.CPF,
	}); err != nil {
		return nil, err
	}

	var birthDate time.Time
	if strings.TrimSpace(registerCommand.BirthDate) != "" {
		d, err := entities.ParseBirthDate(registerCommand.BirthDate)
		if err != nil {
			return nil, err
		}
		birthDate = d
	}

	newUser := entities.NewUser(registerCommand.Name, registerCommand.CPF, birthDate, registerCommand.Email, registerCommand.Password)
	newUser.Address = entities.NewAddress(
		registerCommand.PostalCode,
		registerCommand.Street,
		registerCommand.Number,
		registerCommand.Complement,
		registerCommand.Neighborhood,
		registerCommand.City,
		registerCommand.State,
	)
	newUser.Preference = entities.NewPreference(
		registerCommand.TruckAlert,
		registerCommand.EnvironmentalPolicies,
		registerCommand.DisposalTips,
	)

	validatedUser, err := entities.NewValidatedUser(newUser)
	if err != nil {
		return nil, err
	}

	createdUser, err := s.userRepo.Create(ctx, validatedUser)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(createdUser.Id, createdUser.Email, createdUser.FullName)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, common.SubjectUserRegistered, createdUser)
	s.log.InfoContext(ctx, "user registered", "user_id", createdUser.Id)

	return &command.RegisterUserCommandResult{
		Token: token,
		User:  mapper.NewUserSummaryFromEntity(createdUser),
	}, nil
}

func (s *UserService) LoginUser(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error) {
	email := strings.TrimSpace(loginCommand.Email)
	password := strings.TrimSpace(loginCommand.Password)
	if err := requireFields("Email e senha são obrigatórios", map[string]string{
		"email": email,
		"senha": password,
	}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	// Unknown e-mail and wrong password must be indistinguishable.
	if user == nil || !user.Active || user.CheckPassword(password) != nil {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	token, err := s.tokens.GenerateToken(user.Id, user.Email, user.FullName)
	if err != nil {
		return nil, err
	}

	return &command.LoginUserCommandResult{
		Token: token,
		User:  mapper.NewUserResultFromEntity(user),
	}, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*query.UserQueryResult, error) {
	cached, err := s.cache.GetProfile(ctx, id)
	if err != nil {
		s.log.WarnContext(ctx, "profile cache read failed", "user_id", id, "error", err)
	}
	if cached != nil {
		return &query.UserQueryResult{Result: cached}, nil
	}

	user, err := s.userRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("Usuário não encontrado")
	}

	result := mapper.NewUserResultFromEntity(user)
	if err := s.cache.SetProfile(ctx, result); err != nil {
		s.log.WarnContext(ctx, "profile cache write failed", "user_id", id, "error", err)
	}
	return &query.UserQueryResult{Result: result}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, updateCommand *command.UpdateProfileCommand) (*command.UpdateProfileCommandResult, error) {
	if err := requireFields("Nome completo e email são obrigatórios", map[string]string{
		"nome_completo": updateCommand.FullName,
		"email":         updateCommand.Email,
	}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindById(ctx, updateCommand.UserId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("Usuário não encontrado")
	}

	birthDate := user.BirthDate
	if strings.TrimSpace(updateCommand.BirthDate) != "" {
		if birthDate, err = entities.ParseBirthDate(updateCommand.BirthDate); err != nil {
			return nil, err
		}
	}

	validatedUser := &entities.ValidatedUser{User: user}
	if updateCommand.Address != nil {
		validatedUser.Address = mapper.NewAddressFromResult(updateCommand.Address)
	}
	if updateCommand.Preferences != nil {
		validatedUser.Preference = mapper.NewPreferenceFromResult(updateCommand.Preferences)
	}
	if err := validatedUser.UpdateProfile(updateCommand.FullName, birthDate, updateCommand.Email); err != nil {
		return nil, err
	}

	updatedUser, err := s.userRepo.UpdateProfile(ctx, validatedUser)
	if err != nil {
		return nil, err
	}

	s.evict(ctx, updatedUser.Id)
	s.publish(ctx, common.SubjectUserProfileUpdated, updatedUser)

	return &command.UpdateProfileCommandResult{User: mapper.NewUserResultFromEntity(updatedUser)}, nil
}

func (s *UserService) RecoverPassword(ctx context.Context, recoverCommand *command.RecoverPasswordCommand) (*command.RecoverPasswordCommandResult, error) {
	email := strings.TrimSpace(recoverCommand.Email)
	if err := requireFields("Email é obrigatório", map[string]string{"email": email}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("E-mail não encontrado em nosso sistema")
	}

	token, err := s.tokens.GenerateResetToken(user.Id, user.PasswordFingerprint())
	if err != nil {
		return nil, err
	}

	messageId, err := s.mailer.Send(ctx, recoveryMessage(user, s.resetLink(token), s.opts.ResetTTL))
	if err != nil {
		return nil, fmt.Errorf("send recovery email: %w", err)
	}

	s.log.InfoContext(ctx, "password recovery sent", "user_id", user.Id, "message_id", messageId)
	return &command.RecoverPasswordCommandResult{MessageId: messageId}, nil
}

func (s *UserService) ResetPassword(ctx context.Context, resetCommand *command.ResetPasswordCommand) error {
	if err := requireFields("Token e senha são obrigatórios", map[string]string{
		"token": strings.TrimSpace(resetCommand.Token),
		"senha": strings.TrimSpace(resetCommand.Password),
	}); err != nil {
		return err
	}

	claims, err := s.tokens.ParseResetToken(resetCommand.Token)
	if err != nil {
		return err
	}

	user, err := s.userRepo.FindById(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("Usuário não encontrado")
	}
	// A changed password changes the fingerprint, so each link works once.
	if claims.Fingerprint != user.PasswordFingerprint() {
		return apperror.TokenInvalid(errors.New("reset token no longer matches password"))
	}

	if err := user.SetPassword(strings.TrimSpace(resetCommand.Password)); err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.Id, user.Password); err != nil {
		return err
	}

	s.evict(ctx, user.Id)
	s.log.InfoContext(ctx, "password reset", "user_id", user.Id)
	return nil
}

func (s *UserService) SendTestEmail(ctx context.Context) (*command.SendTestEmailCommandResult, error) {
	messageId, err := s.mailer.Send(ctx, infrastructure.Message{
		To:      s.opts.TestRecipient,
		Subject: "Test Email from EcoDescarte",
		Text:    "This is a test email from your EcoDescarte API",
		HTML:    "<h1>Test Email</h1><p>This is a test email from your EcoDescarte API</p>",
	})
	if err != nil {
		return nil, fmt.Errorf("send test email: %w", err)
	}
	return &command.SendTestEmailCommandResult{MessageId: messageId}, nil
}

func (s *UserService) resetLink(token string) string {
	return s.opts.FrontendURL + "/redefinir-senha?token=" + url.QueryEscape(token)
}

func (s *UserService) evict(ctx context.Context, userID uint) {
	if err := s.cache.DeleteProfile(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "profile cache eviction failed", "user_id", userID, "error", err)
	}
}

// publish is best effort; the write has already committed.
func (s *UserService) publish(ctx context.Context, subject string, user *entities.User) {
	event := common.UserEvent{
		EventId:    uuid.NewString(),
		Type:       subject,
		UserId:     user.Id,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, subject, event); err != nil {
		s.log.WarnContext(ctx, "event publish failed", "subject", subject, "user_id", user.Id, "error", err)
	}
}

func requireFields(msg string, fields map[string]string) error {
	var details []apperror.Detail
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if strings.TrimSpace(fields[name]) == "" {
			details = append(details, apperror.Detail{Field: name, Message: name + " é obrigatório", Type: "notEmpty"})
		}
	}
	if len(details) > 0 {
		return apperror.Validation(msg, details...)
	}
	return nil
}
