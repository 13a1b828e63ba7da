package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `id, slot_date, start_minute, end_minute, duration_minutes, modality, available, note, created_at, updated_at`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

// execer общий интерфейс пула и транзакции для вставки
type execer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertSlot(ctx context.Context, db execer, slot *model.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}

	query := `
		INSERT INTO slots (id, slot_date, start_minute, end_minute, duration_minutes, modality, available, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := db.QueryRow(
		ctx, query,
		slot.ID,
		slot.Date.Time(),
		int(slot.StartTime),
		int(slot.EndTime),
		slot.DurationMinutes,
		string(slot.Modality),
		slot.Available,
		slot.Note,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create slot %s %s: %w", slot.Date, slot.StartTime, model.ErrDuplicateSlot)
		}
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	return insertSlot(ctx, r.Pool(), slot)
}

// CreateAll создаёт все слоты в одной транзакции: либо все, либо ни одного
func (r *SlotRepository) CreateAll(ctx context.Context, slots []*model.Slot) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		for _, slot := range slots {
			if err := insertSlot(ctx, tx, slot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// ID и метки времени уже проставлены, но строки откатились
		for _, slot := range slots {
			slot.CreatedAt, slot.UpdatedAt = time.Time{}, time.Time{}
		}
		return fmt.Errorf("create slot batch: %w", err)
	}
	return nil
}

func scanSlot(row base.RowScanner) (*model.Slot, error) {
	var (
		slot       model.Slot
		date       time.Time
		start, end int
		modality   string
	)

	err := row.Scan(
		&slot.ID,
		&date,
		&start,
		&end,
		&slot.DurationMinutes,
		&modality,
		&slot.Available,
		&slot.Note,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.Date = model.DateOf(date)
	slot.StartTime = model.Clock(start)
	slot.EndTime = model.Clock(end)
	slot.Modality = model.Modality(modality)

	return &slot, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// FindByDateTime получает слот по дате и времени начала
func (r *SlotRepository) FindByDateTime(ctx context.Context, date model.Date, start model.Clock) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE slot_date = $1 AND start_minute = $2`

	slot, err := scanSlot(r.QueryRow(ctx, query, date.Time(), int(start)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find slot by date and time: %w", err)
	}

	return slot, nil
}

// List получает слоты по фильтру, по возрастанию даты и времени
func (r *SlotRepository) List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	var (
		conds []string
		args  []any
	)

	if filter.AvailableOnly {
		conds = append(conds, "available")
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.Time())
		conds = append(conds, fmt.Sprintf("slot_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.Time())
		conds = append(conds, fmt.Sprintf("slot_date <= $%d", len(args)))
	}
	if filter.Modality != "" && filter.Modality != model.ModalityEither {
		args = append(args, string(filter.Modality))
		conds = append(conds, fmt.Sprintf("(modality = $%d OR modality = 'either')", len(args)))
	}

	query := `SELECT ` + slotColumns + ` FROM slots`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY slot_date, start_minute`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	return slots, nil
}

// Update перезаписывает изменяемые поля слота
func (r *SlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET slot_date = $1, start_minute = $2, end_minute = $3, duration_minutes = $4,
		    modality = $5, available = $6, note = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.Date.Time(),
		int(slot.StartTime),
		int(slot.EndTime),
		slot.DurationMinutes,
		string(slot.Modality),
		slot.Available,
		slot.Note,
		slot.ID,
	).Scan(&slot.UpdatedAt)

	if err != nil {
		switch {
		case base.IsNotFound(err):
			return fmt.Errorf("update slot %s: %w", slot.ID, model.ErrNotFound)
		case base.IsUniqueViolation(err):
			return fmt.Errorf("update slot %s: %w", slot.ID, model.ErrDuplicateSlot)
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// Delete удаляет слот
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete slot %s: %w", id, model.ErrNotFound)
	}

	return nil
}

// Reserve занимает слот, только если он сейчас свободен.
// Возвращает false, если слот уже занят или не существует.
func (r *SlotRepository) Reserve(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE slots
		SET available = FALSE, updated_at = NOW()
		WHERE id = $1 AND available
	`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}

	return affected == 1, nil
}

// SetAvailability безусловно выставляет флаг доступности
func (r *SlotRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	query := `
		UPDATE slots
		SET available = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, available, id)
	if err != nil {
		return fmt.Errorf("set slot availability: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("set slot availability %s: %w", id, model.ErrNotFound)
	}

	return nil
}
