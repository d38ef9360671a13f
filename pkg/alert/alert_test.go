package alert

import (
	"bytes"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/soundprediction/lancong/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailAlerter(t *testing.T) {
	cfg := config.AlertConfig{
		Enabled:  true,
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		From:     "lancong@example.com",
		To:       []string{"ops@example.com", "oncall@example.com"},
	}
	a := NewEmailAlerter(cfg)

	var gotAddr string
	var gotMsg []byte
	a.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = msg
		assert.Nil(t, auth)
		assert.Equal(t, cfg.To, to)
		return nil
	}

	require.NoError(t, a.Alert("Circuit breaker open", "wikidata failing"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Contains(t, string(gotMsg), "Subject: [lancong] Circuit breaker open")
	assert.Contains(t, string(gotMsg), "To: ops@example.com,oncall@example.com")

	a.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.Error(t, a.Alert("x", "y"))
}

func TestEmailAlerterDisabled(t *testing.T) {
	a := NewEmailAlerter(config.AlertConfig{})
	a.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("disabled alerter must not send")
		return nil
	}
	assert.NoError(t, a.Alert("x", "y"))
}

func TestNew(t *testing.T) {
	_, isLog := New(config.AlertConfig{}, nil).(*LogAlerter)
	assert.True(t, isLog)

	_, isEmail := New(config.AlertConfig{Enabled: true, SMTPHost: "h", To: []string{"a@b"}}, nil).(*EmailAlerter)
	assert.True(t, isEmail)
}

func TestLogAlerter(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogAlerter(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, a.Alert("breaker open", "details"))
	assert.Contains(t, buf.String(), "breaker open")
	assert.Contains(t, buf.String(), "alert=details")
}
