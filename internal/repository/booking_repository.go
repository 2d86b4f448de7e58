package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository/base"
)

const (
	constraintSlotUnique         = "bookings_slot_uniq"
	constraintStudentStartUnique = "bookings_student_start_uniq"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(q base.Querier) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(q)}
}

const bookingColumns = `id, student_id, teacher_id, template_id, start_at, end_at, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.StudentID,
		&b.TeacherID,
		&b.TemplateID,
		&b.Start,
		&b.End,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// Create создаёт новое бронирование. Нарушение уникальных индексов
// превращается в доменные ошибки конфликта.
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (student_id, teacher_id, template_id, start_at, end_at, status)
		VALUES ($1, $2, NULLIF($3, '00000000-0000-0000-0000-000000000000'::uuid), $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.StudentID,
		booking.TeacherID,
		booking.TemplateID,
		booking.Start,
		booking.End,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if constraint, ok := base.UniqueViolation(err); ok {
			switch constraint {
			case constraintSlotUnique:
				return model.ErrSlotAlreadyBooked
			case constraintStudentStartUnique:
				return model.ErrDuplicateBooking
			}
		}
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return b, nil
}

// GetByStudentID получает все бронирования студента
func (r *BookingRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE student_id = $1
		ORDER BY start_at DESC
	`
	return r.list(ctx, "get bookings by student", query, studentID)
}

// GetByTeacherRange получает активные бронирования учителя, начинающиеся в [from, to)
func (r *BookingRepository) GetByTeacherRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE teacher_id = $1
		  AND status = 'booked'
		  AND start_at >= $2
		  AND start_at < $3
		ORDER BY start_at
	`
	return r.list(ctx, "get bookings by teacher", query, teacherID, from, to)
}

// SlotBooked проверяет занят ли точный момент учителя
func (r *BookingRepository) SlotBooked(ctx context.Context, teacherID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE teacher_id = $1 AND start_at = $2 AND end_at = $3 AND status = 'booked'
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, teacherID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot booked: %w", err)
	}

	return exists, nil
}

// StudentBookedAt проверяет есть ли у студента бронирование, начинающееся в start
func (r *BookingRepository) StudentBookedAt(ctx context.Context, studentID int64, start time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE student_id = $1 AND start_at = $2 AND status = 'booked'
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, studentID, start).Scan(&exists); err != nil {
		return false, fmt.Errorf("check student booking: %w", err)
	}

	return exists, nil
}

// CountByStudent количество бронирований студента за всё время
func (r *BookingRepository) CountByStudent(ctx context.Context, studentID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE student_id = $1`

	var count int
	if err := r.QueryRow(ctx, query, studentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count student bookings: %w", err)
	}

	return count, nil
}
