package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository/base"
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(q base.Querier) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(q)}
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, telegram_id, first_name, last_name, is_teacher, attendance_sessions, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.TelegramID,
		&user.FirstName,
		&user.LastName,
		&user.IsTeacher,
		&user.AttendanceSessions,
		&user.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// IncrementAttendanceSessions увеличивает счётчик отмеченных занятий учителя
func (r *UserRepository) IncrementAttendanceSessions(ctx context.Context, teacherID int64) error {
	query := `
		UPDATE users
		SET attendance_sessions = attendance_sessions + 1
		WHERE id = $1 AND is_teacher = true
	`

	affected, err := r.ExecAffected(ctx, query, teacherID)
	if err != nil {
		return fmt.Errorf("increment attendance sessions: %w", err)
	}

	if affected == 0 {
		return model.ErrTeacherNotFound
	}

	return nil
}
