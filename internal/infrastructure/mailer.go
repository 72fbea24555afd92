package infrastructure

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ecodescarte-user-service/internal/config"
	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

const sendGridHost = "https://api.sendgrid.com"

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers one message and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewMailer picks the transport named by cfg.Provider and throttles it.
func NewMailer(cfg config.MailConfig, log *slog.Logger) (Mailer, error) {
	var m Mailer
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, errors.New("SMTP_HOST is required for the smtp provider")
		}
		m = NewSMTPMailer(cfg)
	case "sendgrid":
		if cfg.APIKey == "" {
			return nil, errors.New("EMAIL_API_KEY is required for the sendgrid provider")
		}
		m = NewSendGridMailer(cfg.APIKey, cfg.From, cfg.FromName)
	case "resend":
		if cfg.APIKey == "" {
			return nil, errors.New("EMAIL_API_KEY is required for the resend provider")
		}
		m = NewResendMailer(cfg.APIKey, cfg.From, cfg.FromName)
	case "log", "":
		m = NewLogMailer(log)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	log.Info("mailer configured", "provider", cfg.Provider, "from", cfg.From)
	if cfg.RatePerSecond <= 0 {
		return m, nil
	}
	return NewThrottledMailer(m, rate.Limit(cfg.RatePerSecond), cfg.MaxConnections), nil
}

// SMTPMailer dials per message; at most maxConnections dials are open at once.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	sem    *semaphore.Weighted
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.SSL = cfg.SMTPSecure
	dialer.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}

	conns := cfg.MaxConnections
	if conns <= 0 {
		conns = 1
	}
	return &SMTPMailer{
		dialer: dialer,
		from:   formatFrom(cfg.FromName, cfg.From),
		sem:    semaphore.NewWeighted(int64(conns)),
	}
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)

	id := fmt.Sprintf("<%s@ecodescarte>", uuid.NewString())

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return id, nil
}

type SendGridMailer struct {
	apiKey string
	host   string
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from, fromName string) *SendGridMailer {
	return &SendGridMailer{apiKey: apiKey, host: sendGridHost, from: mail.NewEmail(fromName, from)}
}

func (s *SendGridMailer) Send(ctx context.Context, msg Message) (string, error) {
	message := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)

	request := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid send: status %d: %s", response.StatusCode, response.Body)
	}
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from, fromName string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: formatFrom(fromName, from)}
}

func (r *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}
	response, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	return response.Id, nil
}

// LogMailer writes messages to the log instead of delivering them. Used when
// no transport is configured.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	id := "log-" + uuid.NewString()
	l.log.InfoContext(ctx, "email not delivered, no transport configured",
		"message_id", id, "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return id, nil
}

// ThrottledMailer spaces sends with a token bucket.
type ThrottledMailer struct {
	next    Mailer
	limiter *rate.Limiter
}

func NewThrottledMailer(next Mailer, limit rate.Limit, burst int) *ThrottledMailer {
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledMailer{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (t *ThrottledMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("mail throttle: %w", err)
	}
	return t.next.Send(ctx, msg)
}

func formatFrom(name, address string) string {
	if strings.TrimSpace(name) == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
