package api

import (
	"errors"
	"net/http"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	xhttp "FinTrack/pkg/http"
	"FinTrack/pkg/util"
)

// toAppError maps domain errors to API errors. Unknown errors become 500s.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domrepo.ErrUnsupportedGroupBy):
		return xhttp.NewAppError("ERR_UNSUPPORTED_GROUP_BY", "groupBy", err.Error(), http.StatusBadRequest).
			WithParam("options", []string{"day", "week", "month", "year"})
	case errors.Is(err, domrepo.ErrUnsupportedPeriod):
		return xhttp.NewAppError("ERR_UNSUPPORTED_PERIOD", "period", err.Error(), http.StatusBadRequest).
			WithParam("options", []string{
				"today", "yesterday", "thisweek", "lastweek",
				"thismonth", "lastmonth", "thisyear", "lastyear",
			})
	case errors.Is(err, util.ErrInvalidDate):
		return xhttp.NewAppError("ERR_INVALID_DATE", "", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrInvalidTransaction):
		return xhttp.NewAppError("ERR_INVALID_TRANSACTION", "", err.Error(), http.StatusBadRequest)
	case errors.Is(err, domrepo.ErrTransactionNotFound):
		return xhttp.NotFoundError("transaction not found")
	case errors.Is(err, domrepo.ErrTransactionExists):
		return xhttp.NewAppError("ERR_CONFLICT", "id", "transaction already exists", http.StatusConflict)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
