package invoice

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"3tcapital/facturas_sri/internal/application/ingestion"
	"3tcapital/facturas_sri/internal/core/invoice"
	httperrors "3tcapital/facturas_sri/internal/infrastructure/http"
)

const (
	fileField = "file"
	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

// UploadHandler receives invoice files and hands them to the ingestion service.
type UploadHandler struct {
	ingest   *ingestion.Service
	batch    *ingestion.BatchProcessor
	maxBytes int64
	maxFiles int
	log      *slog.Logger
}

// NewUploadHandler creates the upload handler. maxBytes bounds a single file
// and maxFiles the number of parts accepted by the batch endpoint.
func NewUploadHandler(ingest *ingestion.Service, batch *ingestion.BatchProcessor, maxBytes int64, maxFiles int, log *slog.Logger) *UploadHandler {
	return &UploadHandler{
		ingest:   ingest,
		batch:    batch,
		maxBytes: maxBytes,
		maxFiles: maxFiles,
		log:      log,
	}
}

// Upload handles POST /api/upload/factura. Stored invoices answer 201 and
// duplicates 200 with the id of the existing invoice.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	uploads, ok := h.readUploads(w, r, userID, h.maxBytes, 1)
	if !ok {
		return
	}

	result, err := h.ingest.Ingest(r.Context(), uploads[0])
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}

	status := http.StatusCreated
	if result.Outcome == invoice.OutcomeDuplicate {
		status = http.StatusOK
	}
	httperrors.WriteJSON(w, status, result, h.log)
}

// Batch handles POST /api/facturas/lote with several "file" parts.
func (h *UploadHandler) Batch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	uploads, ok := h.readUploads(w, r, userID, h.maxBytes*int64(h.maxFiles), h.maxFiles)
	if !ok {
		return
	}

	report := h.batch.Process(r.Context(), uploads)
	httperrors.WriteJSON(w, http.StatusOK, report, h.log)
}

// SalesNote handles POST /api/ocr/nota-venta. The file is analyzed and
// nothing is stored.
func (h *UploadHandler) SalesNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	uploads, ok := h.readUploads(w, r, userID, h.maxBytes, 1)
	if !ok {
		return
	}

	preview, err := h.ingest.Preview(r.Context(), uploads[0])
	if err != nil {
		handleError(w, r, err, h.log)
		return
	}
	httperrors.WriteData(w, preview, 0, false, h.log)
}

// readUploads parses the multipart body and loads up to limit "file" parts.
// It writes the error response itself and reports false on failure.
func (h *UploadHandler) readUploads(w http.ResponseWriter, r *http.Request, userID string, maxBody int64, limit int) ([]ingestion.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "Archivo demasiado grande",
				[]string{fmt.Sprintf("El límite es de %d bytes", tooLarge.Limit)}, h.log)
			return nil, false
		}
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"Se esperaba un formulario multipart con el campo file"}, h.log)
		return nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[fileField]
	if len(headers) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"No se envió archivo"}, h.log)
		return nil, false
	}
	if len(headers) > limit {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación",
			[]string{fmt.Sprintf("Se permiten como máximo %d archivos", limit)}, h.log)
		return nil, false
	}

	uploads := make([]ingestion.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.maxBytes {
			httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "Archivo demasiado grande",
				[]string{fmt.Sprintf("%s supera el límite de %d bytes", fh.Filename, h.maxBytes)}, h.log)
			return nil, false
		}
		data, err := readPart(fh)
		if err != nil {
			h.log.Error("Could not read uploaded file", "filename", fh.Filename, "error", err)
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"No se pudo leer el archivo " + fh.Filename}, h.log)
			return nil, false
		}
		uploads = append(uploads, ingestion.Upload{
			UserID:      userID,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
