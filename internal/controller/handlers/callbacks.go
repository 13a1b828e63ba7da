package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleCallbackQuery маршрутизирует нажатия на inline кнопки
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	chatID := callback.From.ID
	if msg := callback.Message.Message; msg != nil {
		chatID = msg.Chat.ID
	}
	c := clientFromUser(&callback.From, chatID)

	h.logger.Debug("Callback received",
		zap.Int64("telegram_id", callback.From.ID),
		zap.String("data", callback.Data),
	)

	var r reply
	switch {
	case strings.HasPrefix(callback.Data, CallbackBook):
		args, err := parseBookCallback(callback.Data)
		if err != nil {
			h.answer(ctx, b, callback.ID, "❌ Dados inválidos", true)
			return
		}
		r = h.reserve(ctx, c, args)
	case strings.HasPrefix(callback.Data, CallbackCancel):
		id, err := parseCancelCallback(callback.Data)
		if err != nil {
			h.answer(ctx, b, callback.ID, "❌ Dados inválidos", true)
			return
		}
		r = h.cancelReply(ctx, c, id)
	default:
		h.logger.Warn("Unknown callback data", zap.String("data", callback.Data))
		h.answer(ctx, b, callback.ID, "", false)
		return
	}

	h.answer(ctx, b, callback.ID, "", false)
	h.send(ctx, b, chatID, r)
}

// cancelReply отменяет запись клиента; чужая запись выглядит как отсутствующая
func (h *Handlers) cancelReply(ctx context.Context, c client, id uuid.UUID) reply {
	booking, err := h.bookingService.GetBooking(ctx, id)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		h.logger.Error("Failed to get booking", zap.String("booking_id", id.String()), zap.Error(err))
		return reply{text: textFailure}
	}
	if booking == nil || booking.ClientID != c.id {
		return reply{text: "❌ Agendamento não encontrado."}
	}
	if !booking.Status.IsActive() {
		return reply{text: "ℹ️ Este agendamento já foi cancelado."}
	}

	status := model.BookingStatusCancelled
	cancelled, err := h.bookingService.UpdateStatus(ctx, id, service.BookingUpdate{Status: &status})
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return reply{text: fmt.Sprintf("❌ Não é possível cancelar um agendamento com status %s.",
				strings.ToLower(bookingStatusDisplay(booking.Status).Text))}
		}
		h.logger.Error("Failed to cancel booking from telegram",
			zap.String("booking_id", id.String()),
			zap.Error(err),
		)
		return reply{text: textFailure}
	}

	return reply{text: "✅ Agendamento cancelado.\n\n" + formatBooking(cancelled)}
}

func (h *Handlers) answer(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}
