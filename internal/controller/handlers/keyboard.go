package handlers

import "github.com/go-telegram/bot/models"

// keyboardBuilder упрощает создание inline клавиатур
type keyboardBuilder struct {
	rows [][]models.InlineKeyboardButton
}

func newKeyboard() *keyboardBuilder {
	return &keyboardBuilder{rows: make([][]models.InlineKeyboardButton, 0)}
}

// Row добавляет новый ряд кнопок
func (b *keyboardBuilder) Row(buttons ...models.InlineKeyboardButton) *keyboardBuilder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Build возвращает nil для пустой клавиатуры
func (b *keyboardBuilder) Build() *models.InlineKeyboardMarkup {
	if len(b.rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: b.rows}
}

func button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}
