package httpx

import (
	"errors"
	"net/http"

	"github.com/offerta-app/offerta/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]InvalidField, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, InvalidField{
				Field:    f.Field,
				Group:    f.Group,
				Position: f.Position,
				Message:  f.Message,
			})
		}
		ValidationProblem(w, "one or more fields are invalid", fields)
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
