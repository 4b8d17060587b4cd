package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/driftboard/driftboard/internal/shared"
)

// RespondError maps the shared sentinel errors onto problem responses.
// Anything unrecognised is logged under action and reported as a bare
// 500 so internals never leak into the body.
func RespondError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate Link", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "email or password is incorrect")
	default:
		if logger != nil {
			logger.Error(action, slog.Any("error", err))
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
