package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi/response"
)

// decodeJSON читает тело запроса и проверяет его теги validate.
// При ошибке ответ уже записан и возвращается false.
func decodeJSON(w http.ResponseWriter, r *http.Request, log *zap.Logger, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Info("Failed to decode request", zap.Error(err))
		writeBadRequest(w, r, "invalid request body")
		return false
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("Validation failed", zap.Error(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return false
		}
		writeBadRequest(w, r, err.Error())
		return false
	}

	return true
}

// idParam положительный идентификатор из пути
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, r, "invalid "+name)
		return 0, false
	}
	return id, true
}
