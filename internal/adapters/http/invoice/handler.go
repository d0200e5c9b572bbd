package invoice

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appinvoice "3tcapital/facturas_sri/internal/application/invoice"
	httperrors "3tcapital/facturas_sri/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the invoice query service.
type Handler struct {
	service *appinvoice.Service
	log     *slog.Logger
}

// NewHandler creates a new invoice HTTP handler.
func NewHandler(service *appinvoice.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// List handles GET /api/facturas.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	entries, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}
	httperrors.WriteData(w, toListResponse(entries), len(entries), true, h.log)
}

// Get handles GET /api/facturas/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}
	httperrors.WriteData(w, toDocumentResponse(doc), 0, false, h.log)
}

// Original handles GET /api/facturas/{id}/original.
func (h *Handler) Original(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	url, err := h.service.OriginalURL(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}
	httperrors.WriteData(w, OriginalResponse{URL: url}, 0, false, h.log)
}

// Classify handles PATCH /api/facturas/detalles/{detalleId}/clasificacion.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "detalleId")
	if !ok {
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}
	if req.Tipo == "" {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"tipo es requerido"}, h.log)
		return
	}

	c, err := h.service.Classify(r.Context(), userID, itemID, req.Tipo, req.Subtipo)
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}
	httperrors.WriteData(w, ClassifyResponse{
		DetalleID: itemID,
		Tipo:      string(c.Type()),
		Subtipo:   c.PersonalKind,
	}, 0, false, h.log)
}

// Summary handles GET /api/facturas/resumen?anio=YYYY.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	year := 0
	if raw := r.URL.Query().Get("anio"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"anio debe ser numérico"}, h.log)
			return
		}
		year = y
	}

	months, err := h.service.MonthlySummaries(r.Context(), userID, year)
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}
	httperrors.WriteData(w, toMonthlyResponse(months), len(months), true, h.log)
}

// Dashboard handles GET /api/facturas/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	dash, err := h.service.Dashboard(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}
	httperrors.WriteData(w, toDashboardResponse(dash), 0, false, h.log)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{param + " debe ser un entero positivo"}, h.log)
		return 0, false
	}
	return id, true
}
