package controller

import (
	"context"

	"github.com/Freeeeeet/office_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// BotController канал самозаписи клиентов через Telegram
type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	slotService *service.SlotService,
	bookingService *service.BookingService,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: handlers.NewHandlers(slotService, bookingService, logger),
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/meus", bot.MatchTypeExact, c.handlers.HandleMyBookings)

	// Команды с аргументами
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/horarios", bot.MatchTypePrefix, c.handlers.HandleAvailable)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/agendar", bot.MatchTypePrefix, c.handlers.HandleBook)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, handlers.CallbackBook, bot.MatchTypePrefix, c.handlers.HandleCallbackQuery)
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, handlers.CallbackCancel, bot.MatchTypePrefix, c.handlers.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Começar"},
		{Command: "horarios", Description: "📅 Horários disponíveis"},
		{Command: "agendar", Description: "📝 Agendar consulta"},
		{Command: "meus", Description: "📋 Meus agendamentos"},
		{Command: "help", Description: "❓ Ajuda"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
