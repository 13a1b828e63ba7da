package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, client_id, client_name, case_number, contact_phone, booking_date, start_minute, end_minute,
	modality, status, origin, created_by, note, created_at, updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	query := `
		INSERT INTO bookings (id, client_id, client_name, case_number, contact_phone, booking_date,
			start_minute, end_minute, modality, status, origin, created_by, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.ID,
		booking.ClientID,
		booking.ClientName,
		booking.CaseNumber,
		booking.ContactPhone,
		booking.Date.Time(),
		int(booking.StartTime),
		int(booking.EndTime),
		string(booking.Modality),
		string(booking.Status),
		string(booking.Origin),
		string(booking.CreatedBy),
		booking.Note,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

func scanBooking(row base.RowScanner) (*model.Booking, error) {
	var (
		booking                           model.Booking
		date                              time.Time
		start, end                        int
		modality, status, origin, creator string
	)

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.ClientName,
		&booking.CaseNumber,
		&booking.ContactPhone,
		&date,
		&start,
		&end,
		&modality,
		&status,
		&origin,
		&creator,
		&booking.Note,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Date = model.DateOf(date)
	booking.StartTime = model.Clock(start)
	booking.EndTime = model.Clock(end)
	booking.Modality = model.Modality(modality)
	booking.Status = model.BookingStatus(status)
	booking.Origin = model.BookingOrigin(origin)
	booking.CreatedBy = model.Role(creator)

	return &booking, nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// List получает бронирования по фильтру, сначала самые поздние по дате
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		conds []string
		args  []any
	)

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if !filter.Date.IsZero() {
		args = append(args, filter.Date.Time())
		conds = append(conds, fmt.Sprintf("booking_date = $%d", len(args)))
	}
	if filter.StartTime != nil {
		args = append(args, int(*filter.StartTime))
		conds = append(conds, fmt.Sprintf("start_minute = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.Time())
		conds = append(conds, fmt.Sprintf("booking_date >= $%d", len(args)))
	}
	if filter.ActiveOnly {
		args = append(args, string(model.BookingStatusCancelled))
		conds = append(conds, fmt.Sprintf("status <> $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY booking_date DESC, start_minute DESC, created_at DESC`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, nil
}

// Update обновляет статус, заметку и номер процесса
func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, note = $2, case_number = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		string(booking.Status),
		booking.Note,
		booking.CaseNumber,
		booking.ID,
	).Scan(&booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update booking %s: %w", booking.ID, model.ErrNotFound)
		}
		return fmt.Errorf("update booking: %w", err)
	}

	return nil
}

// Delete удаляет бронирование
func (r *BookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete booking %s: %w", id, model.ErrNotFound)
	}

	return nil
}
