package model

import "errors"

// Виды ошибок движка записи. Сравнивать через errors.Is.
var (
	// ErrValidation некорректный ввод, операция не выполнялась
	ErrValidation = errors.New("validation error")
	// ErrSlotUnavailable нет свободного слота на указанные дату и время
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrNotFound слот или запись с таким id не существует
	ErrNotFound = errors.New("not found")
	// ErrStore сбой хранилища (I/O, соединение)
	ErrStore = errors.New("store error")
	// ErrSlotInUse слот занят активной записью и не может быть удалён или перенесён
	ErrSlotInUse = errors.New("slot is referenced by an active booking")
	// ErrDuplicateSlot слот с такими датой и временем начала уже существует
	ErrDuplicateSlot = errors.New("slot already exists for date and start time")
)
