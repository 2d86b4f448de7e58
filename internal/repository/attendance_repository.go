package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository/base"
)

const constraintAttendanceBooking = "attendance_booking_uniq"

type AttendanceRepository struct {
	*base.Repository
}

func NewAttendanceRepository(q base.Querier) *AttendanceRepository {
	return &AttendanceRepository{Repository: base.NewRepository(q)}
}

const attendanceColumns = `id, booking_id, student_id, teacher_id, status, late_duration, created_at`

func scanAttendance(row pgx.Row) (*model.Attendance, error) {
	var a model.Attendance
	err := row.Scan(
		&a.ID,
		&a.BookingID,
		&a.StudentID,
		&a.TeacherID,
		&a.Status,
		&a.LateDuration,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create сохраняет посещаемость. Повторная отметка даёт ErrAlreadyMarked.
func (r *AttendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	query := `
		INSERT INTO attendance (booking_id, student_id, teacher_id, status, late_duration)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		a.BookingID,
		a.StudentID,
		a.TeacherID,
		a.Status,
		a.LateDuration,
	).Scan(&a.ID, &a.CreatedAt)

	if err != nil {
		if constraint, ok := base.UniqueViolation(err); ok && constraint == constraintAttendanceBooking {
			return model.ErrAlreadyMarked
		}
		return fmt.Errorf("create attendance: %w", err)
	}

	return nil
}

// GetByBookingID получает посещаемость по бронированию
func (r *AttendanceRepository) GetByBookingID(ctx context.Context, bookingID int64) (*model.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE booking_id = $1`

	a, err := scanAttendance(r.QueryRow(ctx, query, bookingID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance by booking: %w", err)
	}

	return a, nil
}

// GetByBookingIDs получает посещаемость для набора бронирований, ключ - ID бронирования
func (r *AttendanceRepository) GetByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64]*model.Attendance, error) {
	result := make(map[int64]*model.Attendance, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE booking_id = ANY($1)`

	rows, err := r.Query(ctx, query, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("get attendance by bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		result[a.BookingID] = a
	}

	return result, rows.Err()
}
