package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/notify"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	slotService    *service.SlotService
	bookingService *service.BookingService
	now            func() time.Time
	logger         *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	slotService *service.SlotService,
	bookingService *service.BookingService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		slotService:    slotService,
		bookingService: bookingService,
		now:            time.Now,
		logger:         logger,
	}
}

// reply ответ бота: текст и необязательная inline клавиатура
type reply struct {
	text     string
	keyboard *models.InlineKeyboardMarkup
}

// client клиент офиса, пишущий боту
type client struct {
	id      string
	name    string
	contact string
}

func clientFromUser(user *models.User, chatID int64) client {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	return client{
		id:      fmt.Sprintf("telegram:%d", user.ID),
		name:    name,
		contact: notify.TelegramRecipient(chatID),
	}
}
