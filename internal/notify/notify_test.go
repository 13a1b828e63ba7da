package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(11) 98888-7777", "5511988887777"},
		{"+55 11 98888-7777", "5511988887777"},
		{"5521999990000", "5521999990000"},
		{"abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestWhatsAppNotifier_PostsToZAPI(t *testing.T) {
	var got sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instances/abc/token/xyz/send-text", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Client-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(WhatsAppConfig{
		APIURL:     srv.URL + "/instances/abc/token/xyz/",
		InstanceID: "abc",
		Token:      "secret",
	}, zap.NewNop())

	ok := n.Send(context.Background(), "(11) 98888-7777", "olá")
	assert.True(t, ok)
	assert.Equal(t, "5511988887777", got.Phone)
	assert.Equal(t, "olá", got.Message)
}

func TestWhatsAppNotifier_FailureAndBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(WhatsAppConfig{APIURL: srv.URL, InstanceID: "abc", Token: "secret"}, zap.NewNop())

	for i := 0; i < 8; i++ {
		assert.False(t, n.Send(context.Background(), "11988887777", "olá"))
	}

	// После пяти подряд неудач цепь размыкается и запросы не уходят
	assert.Equal(t, int32(5), calls.Load())
}

func TestWhatsAppNotifier_SimulatedWhenUnconfigured(t *testing.T) {
	n := NewWhatsAppNotifier(WhatsAppConfig{}, zap.NewNop())
	assert.True(t, n.Send(context.Background(), "11988887777", "olá"))
	assert.False(t, n.Send(context.Background(), "no digits", "olá"))
}

type fakeTelegram struct {
	params []*bot.SendMessageParams
	err    error
}

func (f *fakeTelegram) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.params = append(f.params, params)
	return &models.Message{}, nil
}

func TestTelegramNotifier(t *testing.T) {
	fake := &fakeTelegram{}
	n := &TelegramNotifier{bot: fake, logger: zap.NewNop()}

	assert.True(t, n.Send(context.Background(), TelegramRecipient(4242), "oi"))
	require.Len(t, fake.params, 1)
	assert.Equal(t, int64(4242), fake.params[0].ChatID)
	assert.Equal(t, "oi", fake.params[0].Text)

	assert.False(t, n.Send(context.Background(), "tg:not-a-number", "oi"))

	fake.err = errors.New("forbidden: bot was blocked by the user")
	assert.False(t, n.Send(context.Background(), TelegramRecipient(4242), "oi"))
}

type countingSender struct {
	recipients []string
}

func (c *countingSender) Send(_ context.Context, recipient, _ string) bool {
	c.recipients = append(c.recipients, recipient)
	return true
}

func TestRouter(t *testing.T) {
	wa, tg := &countingSender{}, &countingSender{}
	r := NewRouter(wa, tg, zap.NewNop())

	r.Send(context.Background(), "tg:1", "x")
	r.Send(context.Background(), "11988887777", "x")

	assert.Equal(t, []string{"tg:1"}, tg.recipients)
	assert.Equal(t, []string{"11988887777"}, wa.recipients)

	noTelegram := NewRouter(wa, nil, zap.NewNop())
	assert.True(t, noTelegram.Send(context.Background(), "tg:1", "x"))
}
