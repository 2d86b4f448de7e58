package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi/response"
	"github.com/Freeeeeet/school_scheduler/internal/service"
	"github.com/Freeeeeet/school_scheduler/internal/tz"
)

type AvailabilityService interface {
	Resolve(ctx context.Context, q service.AvailabilityQuery) (*service.Availability, error)
}

type AvailabilityHandler struct {
	log     *zap.Logger
	service AvailabilityService
}

func NewAvailabilityHandler(log *zap.Logger, service AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{
		log:     log,
		service: service,
	}
}

// ServeHTTP GET /teachers/{teacherID}/availability?tz=&window=&from=&to=
// from и to в RFC 3339, window - week, month или all.
func (h *AvailabilityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("op", "httpapi.availability"),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	teacherID, ok := idParam(w, r, "teacherID")
	if !ok {
		return
	}

	q := r.URL.Query()
	query := service.AvailabilityQuery{
		TeacherID: teacherID,
		Timezone:  q.Get("tz"),
		Window:    tz.WindowName(q.Get("window")),
	}

	var err error
	if s := q.Get("from"); s != "" {
		if query.From, err = time.Parse(time.RFC3339, s); err != nil {
			writeBadRequest(w, r, "invalid from")
			return
		}
	}
	if s := q.Get("to"); s != "" {
		if query.To, err = time.Parse(time.RFC3339, s); err != nil {
			writeBadRequest(w, r, "invalid to")
			return
		}
	}

	availability, err := h.service.Resolve(r.Context(), query)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(availability))
}
