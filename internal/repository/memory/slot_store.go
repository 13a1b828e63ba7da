// Package memory хранилище слотов и записей в памяти процесса.
// Используется при STORE=memory и в тестах сервисов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
)

type slotKey struct {
	date  model.Date
	start model.Clock
}

func keyOf(s *model.Slot) slotKey {
	return slotKey{date: s.Date, start: s.StartTime}
}

// SlotStore потокобезопасное хранилище слотов с уникальным ключом (дата, начало)
type SlotStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*model.Slot
	byTime map[slotKey]uuid.UUID
	now    func() time.Time
}

func NewSlotStore() *SlotStore {
	return &SlotStore{
		byID:   make(map[uuid.UUID]*model.Slot),
		byTime: make(map[slotKey]uuid.UUID),
		now:    time.Now,
	}
}

func copySlot(s *model.Slot) *model.Slot {
	c := *s
	return &c
}

// insertLocked вызывается под блокировкой на запись
func (s *SlotStore) insertLocked(slot *model.Slot) error {
	if _, exists := s.byTime[keyOf(slot)]; exists {
		return fmt.Errorf("create slot %s %s: %w", slot.Date, slot.StartTime, model.ErrDuplicateSlot)
	}
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	now := s.now()
	slot.CreatedAt, slot.UpdatedAt = now, now

	s.byID[slot.ID] = copySlot(slot)
	s.byTime[keyOf(slot)] = slot.ID
	return nil
}

func (s *SlotStore) Create(_ context.Context, slot *model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(slot)
}

// CreateAll вставляет все слоты или ни одного
func (s *SlotStore) CreateAll(_ context.Context, slots []*model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[slotKey]bool, len(slots))
	for _, slot := range slots {
		k := keyOf(slot)
		if _, exists := s.byTime[k]; exists || seen[k] {
			return fmt.Errorf("create slot batch: slot %s %s: %w", slot.Date, slot.StartTime, model.ErrDuplicateSlot)
		}
		seen[k] = true
	}

	for _, slot := range slots {
		if err := s.insertLocked(slot); err != nil {
			return err
		}
	}
	return nil
}

func (s *SlotStore) GetByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return copySlot(slot), nil
}

func (s *SlotStore) FindByDateTime(_ context.Context, date model.Date, start model.Clock) (*model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byTime[slotKey{date: date, start: start}]
	if !ok {
		return nil, nil
	}
	return copySlot(s.byID[id]), nil
}

func (s *SlotStore) List(_ context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slots []*model.Slot
	for _, slot := range s.byID {
		if filter.Match(slot) {
			slots = append(slots, copySlot(slot))
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].StartTime < slots[j].StartTime
	})

	return slots, nil
}

func (s *SlotStore) Update(_ context.Context, slot *model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[slot.ID]
	if !ok {
		return fmt.Errorf("update slot %s: %w", slot.ID, model.ErrNotFound)
	}

	oldKey, newKey := keyOf(current), keyOf(slot)
	if oldKey != newKey {
		if _, exists := s.byTime[newKey]; exists {
			return fmt.Errorf("update slot %s: %w", slot.ID, model.ErrDuplicateSlot)
		}
		delete(s.byTime, oldKey)
		s.byTime[newKey] = slot.ID
	}

	slot.CreatedAt = current.CreatedAt
	slot.UpdatedAt = s.now()
	s.byID[slot.ID] = copySlot(slot)
	return nil
}

func (s *SlotStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("delete slot %s: %w", id, model.ErrNotFound)
	}
	delete(s.byTime, keyOf(slot))
	delete(s.byID, id)
	return nil
}

// Reserve атомарно переводит слот из свободного в занятый
func (s *SlotStore) Reserve(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[id]
	if !ok || !slot.Available {
		return false, nil
	}
	slot.Available = false
	slot.UpdatedAt = s.now()
	return true, nil
}

func (s *SlotStore) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("set slot availability %s: %w", id, model.ErrNotFound)
	}
	slot.Available = available
	slot.UpdatedAt = s.now()
	return nil
}
