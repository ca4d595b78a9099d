package proposals

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{documentID}", h.Get)
	r.Put("/{documentID}", h.Update)
	r.Delete("/{documentID}", h.Delete)
	r.Post("/{documentID}/recalculate", h.Recalculate)
}
