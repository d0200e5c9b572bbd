package taxpayer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apptaxpayer "3tcapital/facturas_sri/internal/application/taxpayer"
	"3tcapital/facturas_sri/internal/core/taxpayer"
	httperrors "3tcapital/facturas_sri/internal/infrastructure/http"
)

// Handler serves the RUC directory.
type Handler struct {
	service *apptaxpayer.Service
	log     *slog.Logger
}

// NewHandler creates a new taxpayer HTTP handler.
func NewHandler(service *apptaxpayer.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Lookup handles GET /api/ruc/{ruc}.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	tp, err := h.service.Lookup(r.Context(), chi.URLParam(r, "ruc"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.WriteData(w, tp, 0, false, h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, taxpayer.ErrInvalidRUC):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El RUC debe tener al menos 10 dígitos numéricos"}, h.log)
	case errors.Is(err, taxpayer.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "No encontrado", []string{"RUC no registrado"}, h.log)
	default:
		h.log.Error("RUC lookup failed", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
