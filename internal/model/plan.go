package model

import (
	"strconv"
	"strings"
	"time"
)

// BillingCycle периодичность продления плана
type BillingCycle string

const (
	BillingCycleFreeTrial BillingCycle = "freeTrial"
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleYearly    BillingCycle = "yearly"
)

// SessionCadence длительность занятия и их количество в неделю
type SessionCadence string

const (
	Cadence1h  SessionCadence = "1h"  // 2 занятия в неделю
	Cadence30m SessionCadence = "30m" // 4 занятия в неделю
	Cadence40m SessionCadence = "40m" // 3 занятия в неделю
)

// WeeklySessions возвращает количество занятий в неделю для каденса
func (c SessionCadence) WeeklySessions() (int, bool) {
	switch c {
	case Cadence1h:
		return 2, true
	case Cadence30m:
		return 4, true
	case Cadence40m:
		return 3, true
	}
	return 0, false
}

type PaymentStatus string

const (
	PaymentStatusNotRequired PaymentStatus = "not-required"
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusSuccess     PaymentStatus = "success"
)

// PlanType тип плана: freeTrial, monthly-tier-N или yearly-tier-N
type PlanType string

const PlanTypeFreeTrial PlanType = "freeTrial"

// Tier разбирает тип плана на цикл оплаты и номер тарифа.
// Для freeTrial возвращается tier = 0.
func (p PlanType) Tier() (BillingCycle, int, bool) {
	if p == PlanTypeFreeTrial {
		return BillingCycleFreeTrial, 0, true
	}

	prefix, rest, ok := strings.Cut(string(p), "-tier-")
	if !ok {
		return "", 0, false
	}

	tier, err := strconv.Atoi(rest)
	if err != nil || tier <= 0 {
		return "", 0, false
	}

	switch BillingCycle(prefix) {
	case BillingCycleMonthly, BillingCycleYearly:
		return BillingCycle(prefix), tier, true
	}
	return "", 0, false
}

// Plan активный план студента. У студента всегда не больше одного плана,
// новый цикл заменяет предыдущий.
type Plan struct {
	StudentID         int64          `json:"student_id"`
	PlanType          PlanType       `json:"plan_type"`
	BillingCycle      BillingCycle   `json:"billing_cycle"`
	SessionCadence    SessionCadence `json:"session_cadence"`
	StartDate         time.Time      `json:"plan_start_date"`
	EndDate           time.Time      `json:"plan_end_date"`
	SessionLimit      int            `json:"session_limit"`
	SessionUsed       int            `json:"session_used"`
	PaymentStatus     PaymentStatus  `json:"payment_status"`
	PriceQuote        int64          `json:"price_quote"` // в минимальных единицах валюты
	RenewalNotifiedAt *time.Time     `json:"renewal_notified_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// IsFreeTrial проверяет что план пробный
func (p *Plan) IsFreeTrial() bool {
	return p.BillingCycle == BillingCycleFreeTrial
}

// HasQuota проверяет что в плане остались занятия
func (p *Plan) HasQuota() bool {
	return p.SessionUsed < p.SessionLimit
}

// Covers проверяет что момент попадает в окно плана [start, end]
func (p *Plan) Covers(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// Renewable план можно продлить только после окончания окна
func (p *Plan) Renewable(now time.Time) bool {
	return now.After(p.EndDate)
}

// QuotaState то, что показывается студенту в интерфейсе
type QuotaState struct {
	StudentID     int64         `json:"student_id"`
	PlanType      PlanType      `json:"plan_type"`
	SessionUsed   int           `json:"session_used"`
	SessionLimit  int           `json:"session_limit"`
	PlanEndDate   time.Time     `json:"plan_end_date"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Renewable     bool          `json:"renewable"`
}
