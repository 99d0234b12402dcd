package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trackr-hr/trackr/internal/platform/httpx"
	"github.com/trackr-hr/trackr/internal/shared"
)

// GrantsReader exposes the lookups used by PermissionsHandler.
type GrantsReader interface {
	Grants(ctx context.Context, userID int64) (Grants, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// PermissionsHandler exposes the caller's grants and the permission catalogue.
type PermissionsHandler struct {
	logger  *slog.Logger
	service GrantsReader
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service GrantsReader, rbac Middleware) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Get("/me", h.me)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("permissions.view"))
		r.Get("/permissions", h.listPermissions)
	})
}

func (h *PermissionsHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.UserIDFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	grants, err := h.service.Grants(r.Context(), userID)
	if err != nil {
		h.logger.Error("load grants", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants)
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}
