package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/cycle"
	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
)

// renewalBatch сколько планов обрабатывается за один проход рассылки
const renewalBatch = 100

type PlanService struct {
	plans    PlanStore
	locker   PlanLocker
	users    UserReader
	prices   cycle.PriceTable
	loc      *time.Location
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewPlanService loc - зона учреждения, в ней считаются границы месяцев
func NewPlanService(
	plans PlanStore,
	locker PlanLocker,
	users UserReader,
	prices cycle.PriceTable,
	loc *time.Location,
	notifier Notifier,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		plans:    plans,
		locker:   locker,
		users:    users,
		prices:   prices,
		loc:      loc,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// PlanSelection выбор плана студентом
type PlanSelection struct {
	StudentID    int64
	PlanType     model.PlanType
	BillingCycle model.BillingCycle
	Cadence      model.SessionCadence
	AnchorMonth  time.Month
	AnchorYear   int
}

// PaymentConfirmation сигнал об успешной оплате. При Renewal якорь берётся
// из даты окончания текущего плана, AnchorMonth/AnchorYear игнорируются,
// а пустые PlanType/BillingCycle/Cadence наследуются от текущего плана.
type PaymentConfirmation struct {
	PlanSelection
	Renewal bool
}

// RenewalQuote следующий цикл, который получит студент при продлении
type RenewalQuote struct {
	StudentID    int64                `json:"student_id"`
	PlanType     model.PlanType       `json:"plan_type"`
	BillingCycle model.BillingCycle   `json:"billing_cycle"`
	Cadence      model.SessionCadence `json:"session_cadence"`
	StartDate    time.Time            `json:"plan_start_date"`
	EndDate      time.Time            `json:"plan_end_date"`
	SessionLimit int                  `json:"session_limit"`
	PriceQuote   int64                `json:"price_quote"`
	Renewable    bool                 `json:"renewable"`
}

// SelectPlan сохраняет выбранный план в статусе pending.
// Квота видна, но бронировать до оплаты нельзя. Действующий оплаченный
// план выбором не заменяется, для этого нужна оплата.
func (s *PlanService) SelectPlan(ctx context.Context, sel PlanSelection) (*model.Plan, error) {
	if sel.BillingCycle == model.BillingCycleFreeTrial {
		return s.StartFreeTrial(ctx, sel.StudentID)
	}

	if err := s.requireStudent(ctx, sel.StudentID); err != nil {
		return nil, err
	}

	plan, err := s.build(sel, model.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	err = s.locker.WithPlanLock(ctx, sel.StudentID, func(tx repository.PlanTx, existing *model.Plan) error {
		if err := s.checkReplaceable(existing); err != nil {
			return err
		}
		return tx.UpsertPlan(ctx, plan)
	})
	if err != nil {
		return nil, saveError(err)
	}

	s.saved(plan)
	return plan, nil
}

// ApplyPayment активирует оплаченный цикл, счётчик занятий обнуляется.
// Оплата новой покупки заменяет любой текущий план, в том числе действующий:
// так работает переход на больший тариф. Повтор того же сигнала возвращает
// сохранённый план без изменений.
func (s *PlanService) ApplyPayment(ctx context.Context, pc PaymentConfirmation) (*model.Plan, error) {
	if !pc.Renewal && pc.BillingCycle == model.BillingCycleFreeTrial {
		return s.StartFreeTrial(ctx, pc.StudentID)
	}

	if err := s.requireStudent(ctx, pc.StudentID); err != nil {
		return nil, err
	}

	var (
		plan    *model.Plan
		changed bool
	)
	err := s.locker.WithPlanLock(ctx, pc.StudentID, func(tx repository.PlanTx, existing *model.Plan) error {
		sel := pc.PlanSelection
		if pc.Renewal {
			var err error
			if sel, err = s.renewalSelection(existing, sel); err != nil {
				return err
			}
		}

		next, err := s.build(sel, model.PaymentStatusSuccess)
		if err != nil {
			return err
		}

		if !pc.Renewal && samePaidCycle(existing, next) {
			plan = existing
			return nil
		}

		if err := tx.UpsertPlan(ctx, next); err != nil {
			return err
		}
		plan, changed = next, true
		return nil
	})
	if err != nil {
		return nil, saveError(err)
	}

	if !changed {
		s.logger.Info("Duplicate payment signal ignored",
			zap.Int64("student_id", plan.StudentID),
			zap.String("plan_type", string(plan.PlanType)),
		)
		return plan, nil
	}

	s.saved(plan)
	s.logger.Info("Payment applied",
		zap.Int64("student_id", plan.StudentID),
		zap.String("plan_type", string(plan.PlanType)),
		zap.Bool("renewal", pc.Renewal),
		zap.Time("plan_start_date", plan.StartDate),
		zap.Time("plan_end_date", plan.EndDate),
	)

	return plan, nil
}

// StartFreeTrial выдаёт пробный план. Пробный план доступен только
// студенту без плана и без единого бронирования.
func (s *PlanService) StartFreeTrial(ctx context.Context, studentID int64) (*model.Plan, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}

	plan, err := s.build(PlanSelection{
		StudentID:    studentID,
		PlanType:     model.PlanTypeFreeTrial,
		BillingCycle: model.BillingCycleFreeTrial,
	}, model.PaymentStatusNotRequired)
	if err != nil {
		return nil, err
	}

	err = s.locker.WithPlanLock(ctx, studentID, func(tx repository.PlanTx, existing *model.Plan) error {
		if existing != nil {
			return model.ErrFreeTrialExhausted
		}

		count, err := tx.CountStudentBookings(ctx, studentID)
		if err != nil {
			return err
		}
		if count > 0 {
			return model.ErrFreeTrialExhausted
		}

		return tx.UpsertPlan(ctx, plan)
	})
	if err != nil {
		return nil, saveError(err)
	}

	s.saved(plan)
	return plan, nil
}

// QuotaState текущее состояние квоты для интерфейса
func (s *PlanService) QuotaState(ctx context.Context, studentID int64) (*model.QuotaState, error) {
	plan, err := s.plans.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, model.ErrNoActivePlan
	}

	return &model.QuotaState{
		StudentID:     plan.StudentID,
		PlanType:      plan.PlanType,
		SessionUsed:   plan.SessionUsed,
		SessionLimit:  plan.SessionLimit,
		PlanEndDate:   plan.EndDate,
		PaymentStatus: plan.PaymentStatus,
		Renewable:     plan.Renewable(s.now()),
	}, nil
}

// QuoteRenewal рассчитывает следующий цикл текущего плана, ничего не сохраняя
func (s *PlanService) QuoteRenewal(ctx context.Context, studentID int64) (*RenewalQuote, error) {
	plan, err := s.plans.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, model.ErrNoActivePlan
	}
	if plan.IsFreeTrial() {
		return nil, fmt.Errorf("%w: free trial has no renewal", model.ErrInvalidBillingCycle)
	}

	month, year := cycle.NextAnchor(plan.EndDate, s.loc)
	res, err := cycle.Compute(cycle.Request{
		PlanType:     plan.PlanType,
		BillingCycle: plan.BillingCycle,
		Cadence:      plan.SessionCadence,
		AnchorMonth:  month,
		AnchorYear:   year,
	}, s.prices, s.loc)
	if err != nil {
		return nil, err
	}

	return &RenewalQuote{
		StudentID:    studentID,
		PlanType:     plan.PlanType,
		BillingCycle: plan.BillingCycle,
		Cadence:      plan.SessionCadence,
		StartDate:    res.StartDate,
		EndDate:      res.EndDate,
		SessionLimit: res.SessionLimit,
		PriceQuote:   res.PriceQuote,
		Renewable:    plan.Renewable(s.now()),
	}, nil
}

// NotifyRenewalsDue уведомляет студентов с закончившимся планом.
// Каждый студент уведомляется один раз за цикл.
func (s *PlanService) NotifyRenewalsDue(ctx context.Context) (int, error) {
	now := s.now()
	notified := 0

	for {
		plans, err := s.plans.ListRenewalsDue(ctx, now, renewalBatch)
		if err != nil {
			return notified, fmt.Errorf("list renewals due: %w", err)
		}

		for _, plan := range plans {
			student, err := s.users.GetByID(ctx, plan.StudentID)
			if err != nil {
				return notified, fmt.Errorf("get student: %w", err)
			}
			if student != nil {
				s.notifier.RenewalDue(ctx, plan, student)
			}

			if err := s.plans.MarkRenewalNotified(ctx, plan.StudentID, now); err != nil {
				return notified, fmt.Errorf("mark renewal notified: %w", err)
			}
			notified++
		}

		if len(plans) < renewalBatch {
			return notified, nil
		}
	}
}

// checkReplaceable оплаченный план нельзя заменить выбором до окончания окна.
// Пробный и неоплаченный планы заменяются свободно.
func (s *PlanService) checkReplaceable(existing *model.Plan) error {
	if existing == nil || existing.IsFreeTrial() || existing.PaymentStatus == model.PaymentStatusPending {
		return nil
	}
	if !existing.Renewable(s.now()) {
		return model.ErrPlanNotRenewable
	}
	return nil
}

// samePaidCycle план уже оплачен ровно за этот цикл
func samePaidCycle(existing, next *model.Plan) bool {
	return existing != nil &&
		existing.PaymentStatus == model.PaymentStatusSuccess &&
		existing.PlanType == next.PlanType &&
		existing.BillingCycle == next.BillingCycle &&
		existing.SessionCadence == next.SessionCadence &&
		existing.StartDate.Equal(next.StartDate) &&
		existing.EndDate.Equal(next.EndDate)
}

func (s *PlanService) renewalSelection(existing *model.Plan, sel PlanSelection) (PlanSelection, error) {
	if existing == nil {
		return PlanSelection{}, model.ErrNoActivePlan
	}
	if existing.IsFreeTrial() {
		return PlanSelection{}, fmt.Errorf("%w: free trial has no renewal", model.ErrInvalidBillingCycle)
	}
	if !existing.Renewable(s.now()) {
		return PlanSelection{}, model.ErrPlanNotRenewable
	}

	if sel.PlanType == "" {
		sel.PlanType = existing.PlanType
	}
	if sel.BillingCycle == "" {
		sel.BillingCycle = existing.BillingCycle
	}
	if sel.Cadence == "" {
		sel.Cadence = existing.SessionCadence
	}
	sel.AnchorMonth, sel.AnchorYear = cycle.NextAnchor(existing.EndDate, s.loc)

	return sel, nil
}

// build рассчитывает новый цикл, ничего не сохраняя
func (s *PlanService) build(sel PlanSelection, status model.PaymentStatus) (*model.Plan, error) {
	res, err := cycle.Compute(cycle.Request{
		PlanType:     sel.PlanType,
		BillingCycle: sel.BillingCycle,
		Cadence:      sel.Cadence,
		AnchorMonth:  sel.AnchorMonth,
		AnchorYear:   sel.AnchorYear,
		Now:          s.now(),
	}, s.prices, s.loc)
	if err != nil {
		return nil, err
	}

	return &model.Plan{
		StudentID:      sel.StudentID,
		PlanType:       sel.PlanType,
		BillingCycle:   sel.BillingCycle,
		SessionCadence: sel.Cadence,
		StartDate:      res.StartDate,
		EndDate:        res.EndDate,
		SessionLimit:   res.SessionLimit,
		PaymentStatus:  status,
		PriceQuote:     res.PriceQuote,
	}, nil
}

func (s *PlanService) saved(plan *model.Plan) {
	metrics.PlansActivated.WithLabelValues(string(plan.BillingCycle), string(plan.PaymentStatus)).Inc()

	s.logger.Info("Plan saved",
		zap.Int64("student_id", plan.StudentID),
		zap.String("plan_type", string(plan.PlanType)),
		zap.String("payment_status", string(plan.PaymentStatus)),
		zap.Int("session_limit", plan.SessionLimit),
	)
}

func saveError(err error) error {
	if isDomainError(err) {
		return err
	}
	return fmt.Errorf("save plan: %w", err)
}

func (s *PlanService) requireStudent(ctx context.Context, studentID int64) error {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return model.ErrStudentNotFound
	}
	return nil
}
