package expenses

import "github.com/go-chi/chi/v5"

// MountRoutes registers travel expense report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermSubmit, PermApprove))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(PermSubmit))
		r.Post("/", h.create)
		r.Post("/{id}/expenses", h.addExpense)
		r.Put("/{id}/submit", h.submit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(PermApprove))
		r.Get("/{id}/history", h.history)
		r.Put("/{id}/approve", h.approve)
		r.Put("/{id}/reject", h.reject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(RoleSupervisor))
		r.Get("/{id}/pdf", h.pdf)
	})
}
