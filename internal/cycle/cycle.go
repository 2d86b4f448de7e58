// Package cycle вычисляет окно плана и квоту занятий по циклу оплаты.
// Все функции чистые: результат сохраняет вызывающая сторона.
package cycle

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

const (
	// WeeksMonthly количество недель в месячном цикле
	WeeksMonthly = 4
	// WeeksYearly количество недель в годовом цикле
	WeeksYearly = 52
	// FreeTrialSessions квота пробного плана
	FreeTrialSessions = 1
	// FreeTrialDuration длительность пробного окна
	FreeTrialDuration = 7 * 24 * time.Hour
	// YearlyPaidMonths за годовой план платится 11 месяцев из 12
	YearlyPaidMonths = 11
)

// Request входные данные расчёта цикла
type Request struct {
	PlanType     model.PlanType
	BillingCycle model.BillingCycle
	Cadence      model.SessionCadence
	AnchorMonth  time.Month
	AnchorYear   int
	Now          time.Time // используется только для пробного плана
}

// Result рассчитанное окно плана
type Result struct {
	StartDate    time.Time
	EndDate      time.Time
	SessionLimit int
	PriceQuote   int64
}

// WeeksInCycle количество недель в цикле оплаты
func WeeksInCycle(c model.BillingCycle) (int, error) {
	switch c {
	case model.BillingCycleMonthly:
		return WeeksMonthly, nil
	case model.BillingCycleYearly:
		return WeeksYearly, nil
	}
	return 0, fmt.Errorf("%w: %q has no weekly quota", model.ErrInvalidBillingCycle, c)
}

// SessionLimit квота занятий = недели цикла × занятия в неделю
func SessionLimit(c model.BillingCycle, cadence model.SessionCadence) (int, error) {
	if c == model.BillingCycleFreeTrial {
		return FreeTrialSessions, nil
	}

	weeks, err := WeeksInCycle(c)
	if err != nil {
		return 0, err
	}

	weekly, ok := cadence.WeeklySessions()
	if !ok {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidCadence, cadence)
	}

	return weeks * weekly, nil
}

// Compute рассчитывает окно, квоту и цену плана.
// Даты месячных и годовых планов считаются в зоне учреждения loc.
func Compute(req Request, prices PriceTable, loc *time.Location) (Result, error) {
	cycle, tier, ok := req.PlanType.Tier()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", model.ErrInvalidPlanType, req.PlanType)
	}
	if cycle != req.BillingCycle {
		return Result{}, fmt.Errorf("%w: %q vs %q", model.ErrPlanTypeMismatch, req.PlanType, req.BillingCycle)
	}

	if req.BillingCycle == model.BillingCycleFreeTrial {
		return freeTrial(req.Now), nil
	}

	limit, err := SessionLimit(req.BillingCycle, req.Cadence)
	if err != nil {
		return Result{}, err
	}

	if req.AnchorMonth < time.January || req.AnchorMonth > time.December || req.AnchorYear < 1970 {
		return Result{}, fmt.Errorf("%w: %d/%d", model.ErrInvalidAnchor, req.AnchorMonth, req.AnchorYear)
	}

	monthly, err := prices.MonthlyPrice(tier, req.Cadence)
	if err != nil {
		return Result{}, err
	}

	start := time.Date(req.AnchorYear, req.AnchorMonth, 1, 0, 0, 0, 0, loc)

	var res Result
	switch req.BillingCycle {
	case model.BillingCycleMonthly:
		res = Result{
			StartDate:  start,
			EndDate:    endOfMonth(start, 0),
			PriceQuote: monthly,
		}
	case model.BillingCycleYearly:
		res = Result{
			StartDate:  start,
			EndDate:    endOfMonth(start, 11),
			PriceQuote: monthly * YearlyPaidMonths,
		}
	default:
		return Result{}, fmt.Errorf("%w: %q", model.ErrInvalidBillingCycle, req.BillingCycle)
	}
	res.SessionLimit = limit

	return res, nil
}

// NextAnchor месяц, с которого начинается следующий цикл.
// Считается от даты окончания текущего плана, а не от текущего момента,
// чтобы циклы шли встык.
func NextAnchor(planEnd time.Time, loc *time.Location) (time.Month, int) {
	end := planEnd.In(loc)
	next := time.Date(end.Year(), end.Month()+1, 1, 0, 0, 0, 0, loc)
	return next.Month(), next.Year()
}

func freeTrial(now time.Time) Result {
	return Result{
		StartDate:    now,
		EndDate:      now.Add(FreeTrialDuration),
		SessionLimit: FreeTrialSessions,
	}
}

// endOfMonth последняя секунда месяца, отстоящего от start на months месяцев.
// start всегда первое число, поэтому AddDate не переполняет дни.
func endOfMonth(start time.Time, months int) time.Time {
	return start.AddDate(0, months+1, 0).Add(-time.Second)
}
