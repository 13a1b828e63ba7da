package notify

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// TelegramPrefix помечает получателя-чат Telegram: "tg:<chat id>"
const TelegramPrefix = "tg:"

// TelegramRecipient адрес для записи, созданной из чата
func TelegramRecipient(chatID int64) string {
	return TelegramPrefix + strconv.FormatInt(chatID, 10)
}

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier отправляет уведомления в чат, из которого сделана запись
type TelegramNotifier struct {
	bot    messageSender
	logger *zap.Logger
}

func NewTelegramNotifier(b *bot.Bot, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: b, logger: logger}
}

func (n *TelegramNotifier) Send(ctx context.Context, recipient, message string) bool {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(recipient, TelegramPrefix), 10, 64)
	if err != nil {
		n.logger.Warn("Invalid Telegram recipient", zap.String("recipient", recipient))
		return false
	}

	_, err = n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   message,
	})
	if err != nil {
		n.logger.Error("Failed to send Telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return false
	}

	return true
}
