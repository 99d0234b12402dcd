package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trackr-hr/trackr/internal/platform/httpx"
	"github.com/trackr-hr/trackr/internal/shared"
)

// Authorizer resolves the grants used by Middleware.
type Authorizer interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
	Roles(ctx context.Context, userID int64) ([]string, error)
}

// Middleware wires RBAC authorization guards for HTTP handlers. Guards run
// before the handler so business logic can assume an authorised actor.
type Middleware struct {
	Service Authorizer
	Logger  *slog.Logger
}

// RequireAuthenticated rejects requests without a logged in user.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := shared.UserIDFromContext(r.Context()); err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalize(perms)
	return m.guard("rbac require any", func(ctx context.Context, userID int64) (bool, error) {
		if len(normalized) == 0 {
			return true, nil
		}
		granted, err := m.Service.EffectivePermissions(ctx, userID)
		if err != nil {
			return false, err
		}
		return hasAny(granted, normalized), nil
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalize(perms)
	return m.guard("rbac require all", func(ctx context.Context, userID int64) (bool, error) {
		if len(normalized) == 0 {
			return true, nil
		}
		granted, err := m.Service.EffectivePermissions(ctx, userID)
		if err != nil {
			return false, err
		}
		return hasAll(granted, normalized), nil
	})
}

// RequireRole ensures the current user holds one of the given roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	normalized := normalize(roles)
	return m.guard("rbac require role", func(ctx context.Context, userID int64) (bool, error) {
		held, err := m.Service.Roles(ctx, userID)
		if err != nil {
			return false, err
		}
		return hasAny(held, normalized), nil
	})
}

func (m Middleware) guard(op string, allowed func(context.Context, int64) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := shared.UserIDFromContext(r.Context())
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ok, err := allowed(r.Context(), userID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error(op, slog.Int64("user_id", userID), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if !ok {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalize(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		if _, seen := unique[v]; seen {
			continue
		}
		unique[v] = struct{}{}
		normalized = append(normalized, v)
	}
	return normalized
}

func toSet(granted []string) map[string]struct{} {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	return set
}

func hasAny(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := toSet(granted)
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAll(granted []string, required []string) bool {
	set := toSet(granted)
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
