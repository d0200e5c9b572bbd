package invoice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	appinvoice "3tcapital/facturas_sri/internal/application/invoice"
	"3tcapital/facturas_sri/internal/core/archive"
	"3tcapital/facturas_sri/internal/core/invoice"
	ctxutil "3tcapital/facturas_sri/internal/infrastructure/context"
	httperrors "3tcapital/facturas_sri/internal/infrastructure/http"
)

// statusFor maps a service error to its HTTP status, response title and
// client-safe detail.
func statusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, invoice.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "Formato no soportado", "Solo se aceptan archivos XML, PDF o imágenes"
	case errors.Is(err, invoice.ErrInvalidDocument):
		return http.StatusBadRequest, "Documento inválido", err.Error()
	case errors.Is(err, invoice.ErrInvalidClassification), errors.Is(err, appinvoice.ErrInvalidYear):
		return http.StatusBadRequest, "Error de Validación", err.Error()
	case errors.Is(err, invoice.ErrNotFound):
		return http.StatusNotFound, "No encontrado", "El recurso solicitado no existe"
	case errors.Is(err, archive.ErrNoOriginal):
		return http.StatusNotFound, "No encontrado", "La factura no tiene archivo original"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Tiempo de espera agotado", "El procesamiento tardó demasiado"
	case errors.Is(err, invoice.ErrBackendUnavailable), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Servicio no disponible", "El servicio de reconocimiento no está disponible"
	default:
		return http.StatusInternalServerError, "Error Interno del Servidor", "Ha ocurrido un error interno"
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	statusCode, title, detail := statusFor(err)

	attrs := []any{
		"error", err,
		"status", statusCode,
		"correlation_id", ctxutil.GetCorrelationID(r.Context()),
		"path", r.URL.Path,
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error("Request failed", attrs...)
	} else {
		log.Warn("Request rejected", attrs...)
	}

	httperrors.WriteError(w, statusCode, title, []string{detail}, log)
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	userID := ctxutil.GetUserID(r.Context())
	if userID == "" {
		httperrors.WriteError(w, http.StatusUnauthorized, "Error de Autenticación", []string{"Usuario no identificado"}, log)
		return "", false
	}
	return userID, true
}
