package expenses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trackr-hr/trackr/internal/platform/httpx"
	"github.com/trackr-hr/trackr/internal/rbac"
	"github.com/trackr-hr/trackr/internal/shared"
)

const (
	// PermSubmit allows employees to file their own reports.
	PermSubmit = "travel_expense.submit"
	// PermApprove allows deciding on submitted reports.
	PermApprove = "travel_expense.approve"
	// RoleSupervisor may export reports as PDF.
	RoleSupervisor = "supervisor"
)

// ReportService is the subset of Service used by Handler.
type ReportService interface {
	CreateReport(ctx context.Context, employeeID int64) (Report, error)
	AddExpense(ctx context.Context, reportID, actorID int64, input ExpenseInput) (Expense, error)
	Get(ctx context.Context, id, actorID int64, viewAll bool) (ReportDetail, error)
	List(ctx context.Context, employeeID int64) ([]Report, error)
	History(ctx context.Context, id int64) ([]shared.ApprovalLog, error)
	Submit(ctx context.Context, id, actorID int64) error
	Approve(ctx context.Context, id, actorID int64) error
	Reject(ctx context.Context, id, actorID int64, note string) error
	ExportPDF(ctx context.Context, id int64) (PDF, error)
}

// PermissionChecker answers ad-hoc permission questions inside handlers.
type PermissionChecker interface {
	HasAny(ctx context.Context, userID int64, perms ...string) (bool, error)
}

// Handler exposes travel expense report endpoints.
type Handler struct {
	logger      *slog.Logger
	service     ReportService
	permissions PermissionChecker
	rbac        rbac.Middleware
	validator   *validator.Validate
}

// NewHandler constructs the travel expense handler.
func NewHandler(logger *slog.Logger, service ReportService, permissions PermissionChecker, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		permissions: permissions,
		rbac:        rbac,
		validator:   validator.New(),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	report, err := h.service.CreateReport(r.Context(), actorID)
	if err != nil {
		h.respondError(w, r, "create report", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toReportResponse(report, ComputeTotals(report.Expenses)))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	reports, err := h.service.List(r.Context(), actorID)
	if err != nil {
		h.respondError(w, r, "list reports", err)
		return
	}
	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportResponse(rep, ComputeTotals(rep.Expenses)))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reports": out})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	viewAll, err := h.permissions.HasAny(r.Context(), actorID, PermApprove)
	if err != nil {
		h.respondError(w, r, "check permissions", err)
		return
	}
	detail, err := h.service.Get(r.Context(), id, actorID, viewAll)
	if err != nil {
		h.respondError(w, r, "get report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReportResponse(detail.Report, detail.Totals))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "report history", err)
		return
	}
	if entries == nil {
		entries = []shared.ApprovalLog{}
	}
	httpx.JSON(w, http.StatusOK, historyResponse{ReportID: id, Entries: entries})
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.respondError(w, r, "parse expense", err)
		return
	}
	expense, err := h.service.AddExpense(r.Context(), id, actorID, input)
	if err != nil {
		h.respondError(w, r, "add expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "submit report", func(ctx context.Context, id, actorID int64) error {
		return h.service.Submit(ctx, id, actorID)
	})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve report", func(ctx context.Context, id, actorID int64) error {
		return h.service.Approve(ctx, id, actorID)
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	// The note is optional, so an empty body decodes to io.EOF.
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	h.decide(w, r, "reject report", func(ctx context.Context, id, actorID int64) error {
		return h.service.Reject(ctx, id, actorID, req.Note)
	})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, id, actorID int64) error) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), id, actorID); err != nil {
		h.respondError(w, r, op, err)
		return
	}
	h.logger.Info(op, slog.Int64("report_id", id), slog.Int64("actor_id", actorID))
	httpx.NoContent(w)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	pdf, err := h.service.ExportPDF(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "export report pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Transfer-Encoding", "base64")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", pdf.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf.Encoded)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := shared.UserIDFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return 0, false
	}
	return id, true
}

func (h *Handler) reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid report id")
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto the httpx taxonomy.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var mapped error
	switch {
	case errors.Is(err, ErrNotFound):
		mapped = fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, ErrInvalidState):
		mapped = fmt.Errorf("%w: %v", httpx.ErrConflict, err)
	case errors.Is(err, ErrValidation):
		mapped = fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, ErrForbidden):
		mapped = fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	default:
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
		mapped = err
	}
	httpx.RespondError(w, mapped)
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}
