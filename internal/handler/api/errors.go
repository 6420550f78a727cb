package api

import (
	"errors"
	"net/http"

	"ChartFlux/internal/domain/models"
	xhttp "ChartFlux/pkg/http"
)

// appError maps domain failures onto the HTTP error taxonomy. Anything
// unrecognized becomes a 500 with the cause attached for logging.
func appError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInvalidTimeframe):
		return xhttp.BadRequestError("invalid timeframe").WithError(err)
	case errors.Is(err, models.ErrAggregationDirection):
		return xhttp.BadRequestError("target timeframe must be a coarser multiple of source").WithError(err)
	case errors.Is(err, models.ErrSymbolNotFound):
		return xhttp.NotFoundError("no data for symbol").WithError(err)
	case errors.Is(err, models.ErrEmptyReplaySession):
		return xhttp.NewAppError("ERR_CONFLICT", "", "no replay session loaded", http.StatusConflict).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
