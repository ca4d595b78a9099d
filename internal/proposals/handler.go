package proposals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/offerta-app/offerta/internal/platform/httpx"
	"github.com/offerta-app/offerta/internal/shared"
)

const idempotencyModule = "proposals"

type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
}

func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// Create assembles a new document. Retried requests carrying the same
// Idempotency-Key header get a 409 instead of a second document; requests
// without the header get a generated key, which makes them single-shot.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	var req CreateDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = uuid.NewString()
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), companyID, key, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "request with this Idempotency-Key was already processed")
			return
		}
		h.logger.Error("idempotency check failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}

	doc, err := h.service.Create(r.Context(), companyID, req)
	if err != nil {
		// Release the key so the client can retry a failed create.
		if delErr := h.idempotency.Delete(r.Context(), companyID, key); delErr != nil {
			h.logger.Warn("idempotency key release failed", slog.Any("error", delErr))
		}
		h.respondError(w, "create document", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewDocumentView(doc, localeFromRequest(r)))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := documentIDFromRequest(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), companyID, id)
	if err != nil {
		h.respondError(w, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewDocumentView(doc, localeFromRequest(r)))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	req := ListDocumentsRequest{CompanyID: companyID}
	q := r.URL.Query()
	if v := q.Get("client_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if v := q.Get("status_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.StatusID = &id
		}
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateTo = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Offset = n
		}
	}

	documents, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list documents", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"documents": documents,
		"total":     total,
		"limit":     req.Limit,
		"offset":    req.Offset,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := documentIDFromRequest(w, r)
	if !ok {
		return
	}
	var req UpdateDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	doc, err := h.service.Update(r.Context(), companyID, id, req)
	if err != nil {
		h.respondError(w, "update document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewDocumentView(doc, localeFromRequest(r)))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := documentIDFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), companyID, id); err != nil {
		h.respondError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := documentIDFromRequest(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Recalculate(r.Context(), companyID, id)
	if err != nil {
		h.respondError(w, "recalculate document", err)
		return
	}
	if doc == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document not found")
		return
	}
	httpx.JSON(w, http.StatusOK, NewDocumentView(doc, localeFromRequest(r)))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var verr *shared.ValidationError
	if !errors.As(err, &verr) && !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrConflict) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func documentIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document ID")
		return 0, false
	}
	return id, true
}

func companyFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-Company-ID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "X-Company-ID header required")
		return 0, false
	}
	return id, true
}

func localeFromRequest(r *http.Request) string {
	if locale := r.URL.Query().Get("locale"); locale == LocaleIt {
		return LocaleIt
	}
	return LocaleRu
}
