package catalog

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Get("/categories/{categoryID}/parameters", h.ListParameters)
	r.Post("/categories/{categoryID}/parameters", h.CreateParameter)
	r.Put("/categories/{categoryID}/parameters/{parameterID}", h.UpdateParameter)
	r.Delete("/categories/{categoryID}/parameters/{parameterID}", h.DeleteParameter)
	r.Get("/suppliers", h.ListSuppliers)
	r.Post("/suppliers", h.CreateSupplier)
}
