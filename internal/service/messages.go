package service

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/office_scheduler/internal/model"
)

const messageFooter = "_Mensagem automática - Consultar Processos_"

// FormatDate дата в формате, привычном клиентам офиса (dd/mm/yyyy)
func FormatDate(d model.Date) string {
	return d.Time().Format("02/01/2006")
}

// ModalityLabel описание формата приёма для сообщений клиенту
func ModalityLabel(m model.Modality) string {
	switch m {
	case model.ModalityOnline:
		return "💻 Online (Videochamada)"
	case model.ModalityInPerson:
		return "🏢 Presencial (No Escritório)"
	default:
		return "Online ou Presencial"
	}
}

// ConfirmationMessage текст подтверждения записи
func ConfirmationMessage(b *model.Booking) string {
	var sb strings.Builder

	sb.WriteString("✅ *REUNIÃO AGENDADA*\n\n")
	fmt.Fprintf(&sb, "Olá, %s!\n\n", b.ClientName)
	sb.WriteString("Sua consulta foi agendada com sucesso:\n\n")
	fmt.Fprintf(&sb, "📅 Data: %s\n", FormatDate(b.Date))
	fmt.Fprintf(&sb, "⏰ Horário: %s\n", b.StartTime)
	fmt.Fprintf(&sb, "Tipo: %s", ModalityLabel(b.Modality))
	if b.CaseNumber != "" {
		fmt.Fprintf(&sb, "\n📄 Processo: %s", b.CaseNumber)
	}
	sb.WriteString("\n\n")

	if b.Modality == model.ModalityOnline {
		sb.WriteString("O link para a videochamada será enviado próximo ao horário.\n\n")
	} else {
		sb.WriteString("O endereço do escritório será confirmado por mensagem.\n\n")
	}

	sb.WriteString("Para reagendar ou cancelar, entre em contato conosco.\n\n")
	sb.WriteString("Até breve!\n\n")
	sb.WriteString(messageFooter)

	return sb.String()
}

// CancellationMessage текст об отмене записи
func CancellationMessage(b *model.Booking) string {
	var sb strings.Builder

	sb.WriteString("❌ *REUNIÃO CANCELADA*\n\n")
	fmt.Fprintf(&sb, "Olá, %s!\n\n", b.ClientName)
	fmt.Fprintf(&sb, "Sua consulta de %s às %s foi cancelada.\n\n", FormatDate(b.Date), b.StartTime)
	sb.WriteString("Para agendar um novo horário, entre em contato conosco.\n\n")
	sb.WriteString(messageFooter)

	return sb.String()
}
