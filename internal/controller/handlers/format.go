package handlers

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/go-telegram/bot/models"
)

// Сколько слотов показываем в одном сообщении, чтобы клавиатура оставалась читаемой
const maxSlotsInReply = 12

var weekdayNames = [...]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// statusDisplay emoji и текст статуса записи
type statusDisplay struct {
	Emoji string
	Text  string
}

func bookingStatusDisplay(status model.BookingStatus) statusDisplay {
	displays := map[model.BookingStatus]statusDisplay{
		model.BookingStatusScheduled: {"🕐", "Agendada"},
		model.BookingStatusConfirmed: {"✅", "Confirmada"},
		model.BookingStatusCompleted: {"✔️", "Realizada"},
		model.BookingStatusCancelled: {"❌", "Cancelada"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return statusDisplay{"❓", "Desconhecido"}
}

func formatDay(d model.Date) string {
	return fmt.Sprintf("%s %s", weekdayNames[d.Time().Weekday()], service.FormatDate(d))
}

// formatSlots группирует слоты по дням
func formatSlots(slots []*model.Slot) string {
	var sb strings.Builder
	sb.WriteString("📅 Horários disponíveis\n")

	var day model.Date
	for _, slot := range slots {
		if !slot.Date.Equal(day) {
			day = slot.Date
			fmt.Fprintf(&sb, "\n%s\n", formatDay(day))
		}
		fmt.Fprintf(&sb, "  %s - %s · %s\n", slot.StartTime, slot.EndTime, service.ModalityLabel(slot.Modality))
	}

	return sb.String()
}

// slotButtons кнопки записи на слот; для слота без ограничения формата две кнопки
func slotButtons(slot *model.Slot) []models.InlineKeyboardButton {
	modalities := []model.Modality{slot.Modality}
	if slot.Modality == model.ModalityEither {
		modalities = []model.Modality{model.ModalityOnline, model.ModalityInPerson}
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(modalities))
	for _, m := range modalities {
		label := fmt.Sprintf("%s %s %s", modalityIcon(m), service.FormatDate(slot.Date)[:5], slot.StartTime)
		buttons = append(buttons, button(label, bookCallbackData(slot.Date, slot.StartTime, m)))
	}
	return buttons
}

func modalityIcon(m model.Modality) string {
	if m == model.ModalityInPerson {
		return "🏢"
	}
	return "💻"
}

func formatBooking(b *model.Booking) string {
	display := bookingStatusDisplay(b.Status)
	return fmt.Sprintf("%s %s %s - %s · %s (%s)",
		display.Emoji,
		formatDay(b.Date),
		b.StartTime,
		b.EndTime,
		service.ModalityLabel(b.Modality),
		display.Text,
	)
}
