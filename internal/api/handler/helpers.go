package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/maildns/internal/api/response"
	"github.com/edvin/maildns/internal/core"
)

// writeServiceError maps service errors onto HTTP statuses. Unexpected
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrConflict):
		response.WriteError(w, http.StatusConflict, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		response.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
