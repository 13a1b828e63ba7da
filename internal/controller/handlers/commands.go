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
	"go.uber.org/zap"
)

// Окно выдачи свободных слотов, если дата не указана
const availabilityWindowDays = 7

const (
	textUsageBook = "Use: /agendar <data> <hora> <online|presencial>\n" +
		"Exemplo: /agendar 04/03/2024 09:00 online"
	textUnavailable = "❌ Este horário não está mais disponível. Escolha outro em /horarios."
	textFailure     = "❌ Ocorreu um erro. Tente novamente mais tarde."
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	c := clientFromUser(update.Message.From, update.Message.Chat.ID)
	welcomeText := fmt.Sprintf(
		"👋 Olá, %s!\n\n"+
			"Aqui você agenda sua consulta com o escritório.\n\n"+
			"/horarios - Ver horários disponíveis\n"+
			"/agendar - Agendar um horário\n"+
			"/meus - Meus agendamentos\n"+
			"/help - Ajuda",
		c.name,
	)

	h.send(ctx, b, update.Message.Chat.ID, reply{text: welcomeText})
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Comandos:\n\n" +
		"/horarios [data] - Horários disponíveis nos próximos dias ou na data informada\n" +
		"/agendar <data> <hora> <online|presencial> - Agendar diretamente\n" +
		"/meus - Meus agendamentos e cancelamento\n\n" +
		"Você também pode tocar em um horário da lista de /horarios."

	h.send(ctx, b, update.Message.Chat.ID, reply{text: helpText})
}

// HandleAvailable обрабатывает /horarios [data]
func (h *Handlers) HandleAvailable(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.send(ctx, b, update.Message.Chat.ID, h.availableReply(ctx, commandArgs(update.Message.Text)))
}

// HandleBook обрабатывает /agendar <data> <hora> <formato>
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	c := clientFromUser(update.Message.From, update.Message.Chat.ID)
	h.send(ctx, b, update.Message.Chat.ID, h.bookReply(ctx, c, commandArgs(update.Message.Text)))
}

// HandleMyBookings обрабатывает /meus
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	c := clientFromUser(update.Message.From, update.Message.Chat.ID)
	h.send(ctx, b, update.Message.Chat.ID, h.myBookingsReply(ctx, c))
}

func (h *Handlers) today() model.Date {
	return model.DateOf(h.now())
}

func (h *Handlers) availableReply(ctx context.Context, args []string) reply {
	from := h.today()
	to := from.AddDays(availabilityWindowDays - 1)

	if len(args) > 0 {
		date, err := parseDateArg(args[0], from)
		if err != nil {
			return reply{text: "❌ Data inválida. Use o formato dd/mm/aaaa."}
		}
		from, to = date, date
	}

	slots, err := h.slotService.ListSlots(ctx, service.SlotQuery{From: &from, To: &to, AvailableOnly: true})
	if err != nil {
		h.logger.Error("Failed to list available slots", zap.Error(err))
		return reply{text: textFailure}
	}

	if len(slots) == 0 {
		return reply{text: fmt.Sprintf("😔 Nenhum horário disponível entre %s e %s.",
			service.FormatDate(from), service.FormatDate(to))}
	}

	shown := slots
	if len(shown) > maxSlotsInReply {
		shown = shown[:maxSlotsInReply]
	}

	kb := newKeyboard()
	for _, slot := range shown {
		kb.Row(slotButtons(slot)...)
	}

	text := formatSlots(shown)
	if len(slots) > len(shown) {
		text += fmt.Sprintf("\n…e mais %d. Informe uma data: /horarios dd/mm/aaaa", len(slots)-len(shown))
	}

	return reply{text: text, keyboard: kb.Build()}
}

func (h *Handlers) bookReply(ctx context.Context, c client, args []string) reply {
	parsed, err := parseBookArgs(args, h.today())
	if err != nil {
		if errors.Is(err, errUsage) {
			return reply{text: textUsageBook}
		}
		return reply{text: "❌ " + err.Error() + "\n\n" + textUsageBook}
	}

	return h.reserve(ctx, c, parsed)
}

func (h *Handlers) reserve(ctx context.Context, c client, args bookArgs) reply {
	booking, err := h.bookingService.Reserve(ctx, service.ReserveRequest{
		Date:         args.date,
		StartTime:    args.start,
		ClientID:     c.id,
		ClientName:   c.name,
		ContactPhone: c.contact,
		Modality:     args.modality,
		CreatedBy:    model.RoleClient,
		Origin:       model.OriginMessagingChannel,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSlotUnavailable):
			return reply{text: textUnavailable}
		case errors.Is(err, model.ErrValidation):
			return reply{text: "❌ " + err.Error()}
		default:
			h.logger.Error("Failed to reserve slot from telegram",
				zap.String("client_id", c.id),
				zap.Error(err),
			)
			return reply{text: textFailure}
		}
	}

	text := fmt.Sprintf("✅ Agendamento realizado!\n\n%s\n\nPara cancelar use /meus.", formatBooking(booking))
	return reply{text: text}
}

func (h *Handlers) myBookingsReply(ctx context.Context, c client) reply {
	bookings, err := h.bookingService.ListBookingsFiltered(ctx, model.BookingFilter{
		ClientID:   c.id,
		From:       h.today(),
		ActiveOnly: true,
	})
	if err != nil {
		h.logger.Error("Failed to list client bookings", zap.String("client_id", c.id), zap.Error(err))
		return reply{text: textFailure}
	}

	if len(bookings) == 0 {
		return reply{text: "📭 Você não tem agendamentos. Veja os horários em /horarios."}
	}

	var sb strings.Builder
	sb.WriteString("📋 Seus agendamentos:\n\n")

	kb := newKeyboard()
	for _, booking := range bookings {
		sb.WriteString(formatBooking(booking))
		sb.WriteString("\n")

		label := fmt.Sprintf("❌ Cancelar %s %s", service.FormatDate(booking.Date)[:5], booking.StartTime)
		kb.Row(button(label, cancelCallbackData(booking.ID)))
	}

	return reply{text: sb.String(), keyboard: kb.Build()}
}

func (h *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, r reply) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   r.text,
	}
	if r.keyboard != nil {
		params.ReplyMarkup = r.keyboard
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
