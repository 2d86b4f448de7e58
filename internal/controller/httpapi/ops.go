package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi/response"
	"github.com/Freeeeeet/school_scheduler/internal/tz"
)

// Pinger проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health GET /healthz
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("unavailable", "database unavailable"))
			return
		}

		render.JSON(w, r, response.OK(map[string]string{"status": "ok"}))
	}
}

// Timezones GET /timezones
func Timezones(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OK(tz.Zones()))
}
