package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ecodescarte-user-service/internal/config"
	"ecodescarte-user-service/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.sent = append(r.sent, msg)
	return "id-1", nil
}

func TestNewMailerSelectsProvider(t *testing.T) {
	log := logging.Discard()

	m, err := NewMailer(config.MailConfig{Provider: "log"}, log)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	m, err = NewMailer(config.MailConfig{Provider: "smtp", SMTPHost: "smtp.example.com", SMTPPort: 587, RatePerSecond: 2, MaxConnections: 3}, log)
	require.NoError(t, err)
	throttled, ok := m.(*ThrottledMailer)
	require.True(t, ok)
	assert.IsType(t, &SMTPMailer{}, throttled.next)

	m, err = NewMailer(config.MailConfig{Provider: "resend", APIKey: "re_123"}, log)
	require.NoError(t, err)
	assert.IsType(t, &ResendMailer{}, m)

	_, err = NewMailer(config.MailConfig{Provider: "sendgrid"}, log)
	assert.Error(t, err)

	_, err = NewMailer(config.MailConfig{Provider: "pigeon"}, log)
	assert.Error(t, err)
}

func TestLogMailerReturnsID(t *testing.T) {
	id, err := NewLogMailer(logging.Discard()).Send(context.Background(), Message{To: "a@b.com", Subject: "Oi"})
	require.NoError(t, err)
	assert.Contains(t, id, "log-")
}

func TestThrottledMailerPassesThroughAndWaits(t *testing.T) {
	inner := &recordingMailer{}
	m := NewThrottledMailer(inner, rate.Every(time.Hour), 1)

	_, err := m.Send(context.Background(), Message{To: "a@b.com"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Send(ctx, Message{To: "c@d.com"})
	assert.Error(t, err)
	assert.Len(t, inner.sent, 1)
}

func TestThrottledMailerPropagatesErrors(t *testing.T) {
	boom := errors.New("smtp down")
	m := NewThrottledMailer(&recordingMailer{err: boom}, rate.Inf, 1)

	_, err := m.Send(context.Background(), Message{To: "a@b.com"})
	assert.ErrorIs(t, err, boom)
}

func TestSMTPMailerHonoursConnectionCap(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{SMTPHost: "127.0.0.1", SMTPPort: 1, MaxConnections: 1})
	require.NoError(t, m.sem.Acquire(context.Background(), 1))
	defer m.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Send(ctx, Message{To: "a@b.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendGridMailer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("X-Message-Id", "sg-42")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer("SG.key", "no-reply@ecodescarte.com.br", "EcoDescarte")
	m.host = srv.URL

	id, err := m.Send(context.Background(), Message{To: "maria@example.com", Subject: "Recuperação de Senha", Text: "oi", HTML: "<p>oi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "sg-42", id)
	assert.Equal(t, "Recuperação de Senha", body["subject"])
}

func TestSendGridMailerReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewSendGridMailer("bad", "no-reply@ecodescarte.com.br", "")
	m.host = srv.URL

	_, err := m.Send(context.Background(), Message{To: "maria@example.com", Subject: "x", Text: "y"})
	assert.Error(t, err)
}
