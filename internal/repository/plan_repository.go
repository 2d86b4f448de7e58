package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository/base"
)

type PlanRepository struct {
	*base.Repository
}

func NewPlanRepository(q base.Querier) *PlanRepository {
	return &PlanRepository{Repository: base.NewRepository(q)}
}

const planColumns = `
	student_id, plan_type, billing_cycle, session_cadence, start_date, end_date,
	session_limit, session_used, payment_status, price_quote, renewal_notified_at,
	created_at, updated_at
`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	err := row.Scan(
		&p.StudentID,
		&p.PlanType,
		&p.BillingCycle,
		&p.SessionCadence,
		&p.StartDate,
		&p.EndDate,
		&p.SessionLimit,
		&p.SessionUsed,
		&p.PaymentStatus,
		&p.PriceQuote,
		&p.RenewalNotifiedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByStudentID получает активный план студента
func (r *PlanRepository) GetByStudentID(ctx context.Context, studentID int64) (*model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE student_id = $1`

	plan, err := scanPlan(r.QueryRow(ctx, query, studentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan by student: %w", err)
	}

	return plan, nil
}

// GetByStudentIDForUpdate получает план и блокирует строку до конца транзакции.
// Вызывать только внутри транзакции.
func (r *PlanRepository) GetByStudentIDForUpdate(ctx context.Context, studentID int64) (*model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE student_id = $1 FOR UPDATE`

	plan, err := scanPlan(r.QueryRow(ctx, query, studentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock plan by student: %w", err)
	}

	return plan, nil
}

// LockStudent берёт транзакционную advisory-блокировку студента. Строки плана
// может ещё не быть, поэтому FOR UPDATE одного не хватает для первой вставки.
// Вызывать только внутри транзакции.
func (r *PlanRepository) LockStudent(ctx context.Context, studentID int64) error {
	if _, err := r.ExecAffected(ctx, `SELECT pg_advisory_xact_lock($1)`, studentID); err != nil {
		return fmt.Errorf("lock student plan: %w", err)
	}
	return nil
}

// Upsert создаёт план или заменяет существующий новым циклом.
// Счётчик использованных занятий при этом обнуляется.
func (r *PlanRepository) Upsert(ctx context.Context, plan *model.Plan) error {
	query := `
		INSERT INTO plans (student_id, plan_type, billing_cycle, session_cadence, start_date, end_date,
		                   session_limit, session_used, payment_status, price_quote)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
		ON CONFLICT (student_id) DO UPDATE SET
			plan_type = EXCLUDED.plan_type,
			billing_cycle = EXCLUDED.billing_cycle,
			session_cadence = EXCLUDED.session_cadence,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			session_limit = EXCLUDED.session_limit,
			session_used = 0,
			payment_status = EXCLUDED.payment_status,
			price_quote = EXCLUDED.price_quote,
			renewal_notified_at = NULL,
			updated_at = now()
		RETURNING session_used, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		plan.StudentID,
		plan.PlanType,
		plan.BillingCycle,
		plan.SessionCadence,
		plan.StartDate,
		plan.EndDate,
		plan.SessionLimit,
		plan.PaymentStatus,
		plan.PriceQuote,
	).Scan(&plan.SessionUsed, &plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}

	plan.RenewalNotifiedAt = nil
	return nil
}

// IncrementSessionUsed атомарно увеличивает счётчик, если квота не исчерпана.
// Возвращает false, если увеличивать некуда.
func (r *PlanRepository) IncrementSessionUsed(ctx context.Context, studentID int64) (bool, error) {
	query := `
		UPDATE plans
		SET session_used = session_used + 1, updated_at = now()
		WHERE student_id = $1 AND session_used < session_limit
	`

	affected, err := r.ExecAffected(ctx, query, studentID)
	if err != nil {
		return false, fmt.Errorf("increment session used: %w", err)
	}

	return affected == 1, nil
}

// ListRenewalsDue планы, окно которых закончилось и о продлении ещё не уведомляли
func (r *PlanRepository) ListRenewalsDue(ctx context.Context, now time.Time, limit int) ([]*model.Plan, error) {
	query := `SELECT ` + planColumns + `
		FROM plans
		WHERE end_date < $1 AND renewal_notified_at IS NULL
		ORDER BY end_date
		LIMIT $2
	`

	rows, err := r.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list renewals due: %w", err)
	}
	defer rows.Close()

	var plans []*model.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

// MarkRenewalNotified отмечает что студент уведомлён о продлении
func (r *PlanRepository) MarkRenewalNotified(ctx context.Context, studentID int64, at time.Time) error {
	query := `UPDATE plans SET renewal_notified_at = $2 WHERE student_id = $1`

	affected, err := r.ExecAffected(ctx, query, studentID, at)
	if err != nil {
		return fmt.Errorf("mark renewal notified: %w", err)
	}

	if affected == 0 {
		return model.ErrNoActivePlan
	}

	return nil
}
