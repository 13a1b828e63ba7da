package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Sender тот же контракт, что и у уведомителя движка записи
type Sender interface {
	Send(ctx context.Context, recipient, message string) bool
}

// LogNotifier только пишет сообщение в лог
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, recipient, message string) bool {
	n.logger.Info("Notification",
		zap.String("recipient", recipient),
		zap.String("message", message),
	)
	return true
}

// Router выбирает канал по адресу получателя: "tg:..." в Telegram,
// остальное считается телефоном и уходит в WhatsApp
type Router struct {
	whatsapp Sender
	telegram Sender
	fallback Sender
}

// NewRouter nil-каналы заменяются fallback
func NewRouter(whatsapp, telegram Sender, logger *zap.Logger) *Router {
	return &Router{
		whatsapp: whatsapp,
		telegram: telegram,
		fallback: NewLogNotifier(logger),
	}
}

func (r *Router) Send(ctx context.Context, recipient, message string) bool {
	if strings.HasPrefix(recipient, TelegramPrefix) {
		if r.telegram == nil {
			return r.fallback.Send(ctx, recipient, message)
		}
		return r.telegram.Send(ctx, recipient, message)
	}

	if r.whatsapp == nil {
		return r.fallback.Send(ctx, recipient, message)
	}
	return r.whatsapp.Send(ctx, recipient, message)
}
