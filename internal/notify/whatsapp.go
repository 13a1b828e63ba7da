// Package notify доставляет сообщения клиентам: WhatsApp через Z-API, Telegram, лог.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	// Код страны по умолчанию для номеров без него
	defaultCountryCode = "55"
	sendTimeout        = 10 * time.Second
)

// WhatsAppConfig параметры Z-API. Без URL, instance и токена отправка только логируется.
type WhatsAppConfig struct {
	APIURL     string
	InstanceID string
	Token      string
}

func (c WhatsAppConfig) Enabled() bool {
	return c.APIURL != "" && c.InstanceID != "" && c.Token != ""
}

// WhatsAppNotifier отправляет текст через Z-API /send-text
type WhatsAppNotifier struct {
	cfg     WhatsAppConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
}

func NewWhatsAppNotifier(cfg WhatsAppConfig, logger *zap.Logger) *WhatsAppNotifier {
	if !cfg.Enabled() {
		logger.Warn("Z-API WhatsApp not configured, messages will only be logged")
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "zapi",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &WhatsAppNotifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: sendTimeout},
		breaker: breaker,
		logger:  logger,
	}
}

// NormalizePhone оставляет только цифры и добавляет код страны, если его нет
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, defaultCountryCode) {
		digits = defaultCountryCode + digits
	}
	return digits
}

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send никогда не возвращает ошибку: неудача логируется и даёт false
func (n *WhatsAppNotifier) Send(ctx context.Context, recipient, message string) bool {
	phone := NormalizePhone(recipient)
	if phone == "" {
		n.logger.Warn("WhatsApp recipient has no digits", zap.String("recipient", recipient))
		return false
	}

	if !n.cfg.Enabled() {
		n.logger.Info("[SIMULATED] WhatsApp message",
			zap.String("phone", phone),
			zap.String("message", message),
		)
		return true
	}

	_, err := n.breaker.Execute(func() (any, error) {
		return nil, n.post(ctx, phone, message)
	})
	if err != nil {
		n.logger.Error("Failed to send WhatsApp message",
			zap.String("phone", phone),
			zap.Error(err),
		)
		return false
	}

	n.logger.Info("WhatsApp message sent", zap.String("phone", phone))
	return true
}

func (n *WhatsAppNotifier) post(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(sendTextRequest{Phone: phone, Message: message})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(n.cfg.APIURL, "/") + "/send-text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Token", n.cfg.Token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("z-api responded with status %d", resp.StatusCode)
	}

	return nil
}
