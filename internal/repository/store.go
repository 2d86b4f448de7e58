package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

// LedgerTx операции над бронированиями и квотой внутри критической секции
type LedgerTx interface {
	SlotBooked(ctx context.Context, teacherID int64, start, end time.Time) (bool, error)
	StudentBookedAt(ctx context.Context, studentID int64, start time.Time) (bool, error)
	CountStudentBookings(ctx context.Context, studentID int64) (int, error)
	InsertBooking(ctx context.Context, booking *model.Booking) error
	IncrementSessionUsed(ctx context.Context, studentID int64) (bool, error)
}

// PlanTx замена плана студента внутри транзакции с блокировкой студента
type PlanTx interface {
	UpsertPlan(ctx context.Context, plan *model.Plan) error
	CountStudentBookings(ctx context.Context, studentID int64) (int, error)
}

// AttendanceTx операции отметки посещаемости внутри одной транзакции
type AttendanceTx interface {
	InsertAttendance(ctx context.Context, a *model.Attendance) error
	IncrementTeacherSessions(ctx context.Context, teacherID int64) error
}

// Store открывает транзакции поверх пула соединений
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithStudentLock выполняет fn в транзакции, удерживая блокировку строки плана
// студента. Все бронирования одного студента выполняются последовательно,
// а уникальный индекс по слоту упорядочивает бронирования разных студентов.
// plan равен nil, если у студента нет плана.
func (s *Store) WithStudentLock(ctx context.Context, studentID int64, fn func(tx LedgerTx, plan *model.Plan) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		plans := NewPlanRepository(tx)

		plan, err := plans.GetByStudentIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}

		return fn(&ledgerTx{plans: plans, bookings: NewBookingRepository(tx)}, plan)
	})
}

// WithPlanLock выполняет fn в транзакции, сериализуя все замены плана студента
// между собой и с бронированиями: берётся advisory-блокировка студента и
// блокировка строки плана, как в WithStudentLock. plan равен nil, если плана нет.
func (s *Store) WithPlanLock(ctx context.Context, studentID int64, fn func(tx PlanTx, plan *model.Plan) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		plans := NewPlanRepository(tx)

		if err := plans.LockStudent(ctx, studentID); err != nil {
			return err
		}

		plan, err := plans.GetByStudentIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}

		return fn(&ledgerTx{plans: plans, bookings: NewBookingRepository(tx)}, plan)
	})
}

// WithAttendanceTx выполняет fn в транзакции
func (s *Store) WithAttendanceTx(ctx context.Context, fn func(tx AttendanceTx) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return fn(&attendanceTx{
			attendance: NewAttendanceRepository(tx),
			users:      NewUserRepository(tx),
		})
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type ledgerTx struct {
	plans    *PlanRepository
	bookings *BookingRepository
}

func (t *ledgerTx) SlotBooked(ctx context.Context, teacherID int64, start, end time.Time) (bool, error) {
	return t.bookings.SlotBooked(ctx, teacherID, start, end)
}

func (t *ledgerTx) StudentBookedAt(ctx context.Context, studentID int64, start time.Time) (bool, error) {
	return t.bookings.StudentBookedAt(ctx, studentID, start)
}

func (t *ledgerTx) CountStudentBookings(ctx context.Context, studentID int64) (int, error) {
	return t.bookings.CountByStudent(ctx, studentID)
}

func (t *ledgerTx) InsertBooking(ctx context.Context, booking *model.Booking) error {
	return t.bookings.Create(ctx, booking)
}

func (t *ledgerTx) UpsertPlan(ctx context.Context, plan *model.Plan) error {
	return t.plans.Upsert(ctx, plan)
}

func (t *ledgerTx) IncrementSessionUsed(ctx context.Context, studentID int64) (bool, error) {
	return t.plans.IncrementSessionUsed(ctx, studentID)
}

type attendanceTx struct {
	attendance *AttendanceRepository
	users      *UserRepository
}

func (t *attendanceTx) InsertAttendance(ctx context.Context, a *model.Attendance) error {
	return t.attendance.Create(ctx, a)
}

func (t *attendanceTx) IncrementTeacherSessions(ctx context.Context, teacherID int64) error {
	return t.users.IncrementAttendanceSessions(ctx, teacherID)
}
