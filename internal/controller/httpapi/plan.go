package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi/response"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/service"
)

type PlanService interface {
	SelectPlan(ctx context.Context, sel service.PlanSelection) (*model.Plan, error)
	ApplyPayment(ctx context.Context, pc service.PaymentConfirmation) (*model.Plan, error)
	StartFreeTrial(ctx context.Context, studentID int64) (*model.Plan, error)
	QuotaState(ctx context.Context, studentID int64) (*model.QuotaState, error)
	QuoteRenewal(ctx context.Context, studentID int64) (*service.RenewalQuote, error)
}

type PlanHandler struct {
	log      *zap.Logger
	service  PlanService
	validate *validator.Validate
}

func NewPlanHandler(log *zap.Logger, service PlanService, validate *validator.Validate) *PlanHandler {
	return &PlanHandler{
		log:      log,
		service:  service,
		validate: validate,
	}
}

// PlanRequest параметры плана. AnchorMonth считается с нуля: 0 - январь, 6 - июль.
type PlanRequest struct {
	PlanType       string `json:"plan_type" validate:"required"`
	BillingCycle   string `json:"billing_cycle" validate:"required,oneof=freeTrial monthly yearly"`
	SessionCadence string `json:"session_cadence" validate:"omitempty,oneof=1h 30m 40m"`
	AnchorMonth    *int   `json:"anchor_month" validate:"omitempty,min=0,max=11"`
	AnchorYear     int    `json:"anchor_year" validate:"omitempty,gte=1970"`
}

// PaymentConfirmedRequest сигнал платёжного контура. Для продления
// параметры плана можно не передавать.
type PaymentConfirmedRequest struct {
	StudentID      int64  `json:"student_id" validate:"required,gt=0"`
	PlanType       string `json:"plan_type" validate:"required_without=Renewal"`
	BillingCycle   string `json:"billing_cycle" validate:"omitempty,oneof=freeTrial monthly yearly"`
	SessionCadence string `json:"session_cadence" validate:"omitempty,oneof=1h 30m 40m"`
	AnchorMonth    *int   `json:"anchor_month" validate:"omitempty,min=0,max=11"`
	AnchorYear     int    `json:"anchor_year" validate:"omitempty,gte=1970"`
	Renewal        bool   `json:"renewal"`
}

func (p PlanRequest) selection(studentID int64) service.PlanSelection {
	return toSelection(studentID, p.PlanType, p.BillingCycle, p.SessionCadence, p.AnchorMonth, p.AnchorYear)
}

func toSelection(studentID int64, planType, billingCycle, cadence string, anchorMonth *int, anchorYear int) service.PlanSelection {
	sel := service.PlanSelection{
		StudentID:    studentID,
		PlanType:     model.PlanType(planType),
		BillingCycle: model.BillingCycle(billingCycle),
		Cadence:      model.SessionCadence(cadence),
		AnchorYear:   anchorYear,
	}
	if anchorMonth != nil {
		sel.AnchorMonth = time.Month(*anchorMonth + 1)
	}
	return sel
}

// Quota GET /students/{studentID}/quota
func (h *PlanHandler) Quota(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "httpapi.plan.quota")

	studentID, ok := idParam(w, r, "studentID")
	if !ok {
		return
	}

	state, err := h.service.QuotaState(r.Context(), studentID)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(state))
}

// Select POST /students/{studentID}/plan
func (h *PlanHandler) Select(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "httpapi.plan.select")

	studentID, ok := idParam(w, r, "studentID")
	if !ok {
		return
	}

	var req PlanRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	plan, err := h.service.SelectPlan(r.Context(), req.selection(studentID))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(plan))
}

// StartTrial POST /students/{studentID}/trial
func (h *PlanHandler) StartTrial(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "httpapi.plan.trial")

	studentID, ok := idParam(w, r, "studentID")
	if !ok {
		return
	}

	plan, err := h.service.StartFreeTrial(r.Context(), studentID)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(plan))
}

// RenewalQuote GET /students/{studentID}/plan/renewal
func (h *PlanHandler) RenewalQuote(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "httpapi.plan.renewal")

	studentID, ok := idParam(w, r, "studentID")
	if !ok {
		return
	}

	quote, err := h.service.QuoteRenewal(r.Context(), studentID)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(quote))
}

// PaymentConfirmed POST /payments/confirmed
func (h *PlanHandler) PaymentConfirmed(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "httpapi.plan.payment")

	var req PaymentConfirmedRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	plan, err := h.service.ApplyPayment(r.Context(), service.PaymentConfirmation{
		PlanSelection: toSelection(req.StudentID, req.PlanType, req.BillingCycle, req.SessionCadence, req.AnchorMonth, req.AnchorYear),
		Renewal:       req.Renewal,
	})
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(plan))
}

func (h *PlanHandler) logger(r *http.Request, op string) *zap.Logger {
	return h.log.With(
		zap.String("op", op),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
}
