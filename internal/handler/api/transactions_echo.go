package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"FinTrack/internal/domain/models"
	domsvc "FinTrack/internal/domain/service"
	"FinTrack/internal/usecase"
	xhttp "FinTrack/pkg/http"
	xlogger "FinTrack/pkg/logger"
	"FinTrack/pkg/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TransactionService manages transactions.
type TransactionService interface {
	Create(ctx context.Context, in usecase.TransactionInput) (*models.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context) ([]models.Transaction, error)
	Update(ctx context.Context, id uuid.UUID, in usecase.TransactionInput) (*models.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TransactionDTO struct {
	ID          uuid.UUID   `json:"id"`
	Amount      json.Number `json:"amount"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func NewTransactionDTO(t models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          t.ID,
		Amount:      json.Number(t.Amount.String()),
		Date:        t.Date,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type TransactionsEchoHandler struct {
	logger *xlogger.Logger
	svc    TransactionService
	clock  domsvc.Clock
}

func NewTransactionsEchoHandler(logger *xlogger.Logger, svc TransactionService, clock domsvc.Clock) *TransactionsEchoHandler {
	return &TransactionsEchoHandler{logger: logger, svc: svc, clock: clock}
}

func (h *TransactionsEchoHandler) Register(g *echo.Group) {
	g.POST("/transactions", h.Create)
	g.GET("/transactions", h.List)
	g.GET("/transactions/:id", h.Get)
	g.PUT("/transactions/:id", h.Update)
	g.DELETE("/transactions/:id", h.Delete)
}

func (h *TransactionsEchoHandler) Create(c echo.Context) error {
	in, verr, err := h.readInput(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err != nil {
		return h.fail(c, "create", err)
	}
	t, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, "create", err)
	}
	return xhttp.CreatedResponse(c, NewTransactionDTO(*t))
}

func (h *TransactionsEchoHandler) List(c echo.Context) error {
	txs, err := h.svc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "list", err)
	}
	out := make([]TransactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, NewTransactionDTO(t))
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *TransactionsEchoHandler) Get(c echo.Context) error {
	id, verr := pathID(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get", err)
	}
	return xhttp.SuccessResponse(c, NewTransactionDTO(*t))
}

func (h *TransactionsEchoHandler) Update(c echo.Context) error {
	id, verr := pathID(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	in, verr, err := h.readInput(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err != nil {
		return h.fail(c, "update", err)
	}
	t, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return h.fail(c, "update", err)
	}
	return xhttp.SuccessResponse(c, NewTransactionDTO(*t))
}

func (h *TransactionsEchoHandler) Delete(c echo.Context) error {
	id, verr := pathID(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "delete", err)
	}
	return xhttp.NoContentResponse(c)
}

// readInput binds the JSON body. Validation problems come back as the
// first result, date parse failures as the error.
func (h *TransactionsEchoHandler) readInput(c echo.Context) (usecase.TransactionInput, interface{}, error) {
	req := &models.TransactionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return usecase.TransactionInput{}, verr, nil
	}
	date, ok := util.ParseTime(req.Date, h.clock.Now().Location())
	if !ok {
		return usecase.TransactionInput{}, nil, fmt.Errorf("%w %q", util.ErrInvalidDate, req.Date)
	}
	return usecase.TransactionInput{
		Amount:      *req.Amount,
		Date:        date,
		Description: req.Description,
	}, nil, nil
}

func (h *TransactionsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("transactions usecase error", xlogger.String("op", op), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func pathID(c echo.Context) (uuid.UUID, interface{}) {
	p := &models.TransactionIDParam{}
	if verr := xhttp.ReadAndValidateParams(c, p); verr != nil {
		return uuid.Nil, verr
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return uuid.Nil, []xhttp.ValidationError{{Code: "ERR_UUID", Field: "id", Message: "id must be a valid UUID"}}
	}
	return id, nil
}
