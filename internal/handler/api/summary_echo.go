package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	domsvc "FinTrack/internal/domain/service"
	"FinTrack/internal/usecase"
	xhttp "FinTrack/pkg/http"
	xlogger "FinTrack/pkg/logger"
	"FinTrack/pkg/util"

	"github.com/labstack/echo/v4"
)

// Summarizer computes grouped summaries.
type Summarizer interface {
	Summarize(ctx context.Context, q usecase.SummaryQuery, mode domrepo.FilterMode) ([]models.GroupSummary, error)
}

// GroupSummaryDTO is the wire form of one summary row. Total is a JSON
// number carrying the exact decimal.
type GroupSummaryDTO struct {
	Period    string      `json:"period"`
	Total     json.Number `json:"total"`
	Count     int         `json:"count"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
}

func NewGroupSummaryDTOs(groups []models.GroupSummary) []GroupSummaryDTO {
	out := make([]GroupSummaryDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupSummaryDTO{
			Period:    g.Period,
			Total:     json.Number(g.Total.String()),
			Count:     g.Count,
			StartDate: g.StartDate,
			EndDate:   g.EndDate,
		})
	}
	return out
}

type SummaryEchoHandler struct {
	logger *xlogger.Logger
	svc    Summarizer
	clock  domsvc.Clock
}

func NewSummaryEchoHandler(logger *xlogger.Logger, svc Summarizer, clock domsvc.Clock) *SummaryEchoHandler {
	return &SummaryEchoHandler{logger: logger, svc: svc, clock: clock}
}

func (h *SummaryEchoHandler) Register(g *echo.Group) {
	g.GET("/summary/total", h.handle(domrepo.ModeAll))
	g.GET("/summary/income", h.handle(domrepo.ModeIncome))
	g.GET("/summary/expense", h.handle(domrepo.ModeExpense))
}

func (h *SummaryEchoHandler) handle(mode domrepo.FilterMode) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &models.SummaryRequest{}
		if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
			return xhttp.BadRequestResponse(c, verr)
		}
		q, err := h.parseQuery(req)
		if err != nil {
			return xhttp.AppErrorResponse(c, toAppError(err))
		}

		groups, err := h.svc.Summarize(c.Request().Context(), q, mode)
		if err != nil {
			appErr := toAppError(err)
			if appErr.Status >= http.StatusInternalServerError {
				h.logger.Error("summary usecase error",
					xlogger.String("mode", string(mode)),
					xlogger.Error(err),
				)
			}
			return xhttp.AppErrorResponse(c, appErr)
		}
		return xhttp.SuccessResponse(c, NewGroupSummaryDTOs(groups))
	}
}

// parseQuery turns raw query values into a typed query. Dates without an
// offset are read in the clock's location.
func (h *SummaryEchoHandler) parseQuery(req *models.SummaryRequest) (usecase.SummaryQuery, error) {
	var q usecase.SummaryQuery
	var err error
	if q.GroupBy, err = domrepo.ParseGroupBy(req.GroupBy); err != nil {
		return q, err
	}
	if q.Period, err = domrepo.ParsePeriod(req.Period); err != nil {
		return q, err
	}
	loc := h.clock.Now().Location()
	if q.Start, err = util.ParseOptionalTime(req.StartDate, loc); err != nil {
		return q, err
	}
	if q.End, err = util.ParseOptionalTime(req.EndDate, loc); err != nil {
		return q, err
	}
	return q, nil
}
