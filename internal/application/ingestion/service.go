package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"3tcapital/facturas_sri/internal/core/analyzer"
	"3tcapital/facturas_sri/internal/core/archive"
	"3tcapital/facturas_sri/internal/core/invoice"
	"3tcapital/facturas_sri/internal/core/normalize"
	"3tcapital/facturas_sri/internal/core/ocr"
	ctxutil "3tcapital/facturas_sri/internal/infrastructure/context"
)

// XMLDecoder turns SRI XML into a document.
type XMLDecoder interface {
	Decode(data []byte) (*invoice.Document, error)
}

// TextAnalyzer reads invoice fields out of OCR text.
type TextAnalyzer interface {
	Analyze(raw string) *analyzer.Analysis
}

// ProviderDirectory remembers the legal name of invoice issuers.
type ProviderDirectory interface {
	Remember(ctx context.Context, ruc, legalName, tradeName string)
}

// Upload is one file received from a user.
type Upload struct {
	UserID      string
	Filename    string
	ContentType string
	Data        []byte
}

// ProviderSummary identifies the issuer in an ingestion result.
type ProviderSummary struct {
	TaxID string `json:"ruc"`
	Name  string `json:"nombre"`
}

// ItemSummary is a stored line item as echoed to the uploader.
type ItemSummary struct {
	Description string              `json:"descripcion"`
	Quantity    decimal.NullDecimal `json:"cantidad"`
	UnitPrice   decimal.Decimal     `json:"precio_unitario"`
	Total       decimal.Decimal     `json:"total"`
}

// Result is the outcome of one ingestion.
type Result struct {
	Outcome     invoice.Outcome       `json:"estado"`
	InvoiceID   int64                 `json:"invoice_id"`
	Status      invoice.Status        `json:"estado_documento,omitempty"`
	Confidence  int                   `json:"confianza,omitempty"`
	Provider    *ProviderSummary      `json:"proveedor,omitempty"`
	Items       []ItemSummary         `json:"items,omitempty"`
	Payment     *invoice.PaymentFlags `json:"formaPago,omitempty"`
	Missing     []string              `json:"campos_faltantes,omitempty"`
	NeedsReview bool                  `json:"revision_requerida"`
}

// Preview is the analysis of an upload that is not stored.
type Preview struct {
	Method   ocr.Method         `json:"metodo"`
	Engine   string             `json:"motor,omitempty"`
	Text     string             `json:"texto"`
	Analysis *analyzer.Analysis `json:"analisis"`
}

// Config wires the collaborators of the ingestion service. Archive and
// Directory are optional.
type Config struct {
	Decoder   XMLDecoder
	OCR       ocr.Extractor
	Analyzer  TextAnalyzer
	Repo      invoice.Repository
	Archive   archive.Store
	Directory ProviderDirectory
	// FallbackPolicy dedups XML documents that carry no access key.
	FallbackPolicy invoice.MatchPolicy
	// OCRPolicy dedups scans whose status is OK.
	OCRPolicy invoice.MatchPolicy
}

// Service routes uploads to the XML decoder or the OCR pipeline, rejects
// duplicates and stores the resulting documents.
type Service struct {
	cfg Config
	log *slog.Logger
	now func() time.Time
}

// NewService creates the ingestion service. Empty policies get the defaults.
func NewService(cfg Config, log *slog.Logger) *Service {
	if len(cfg.FallbackPolicy) == 0 {
		cfg.FallbackPolicy = invoice.DefaultXMLPolicy
	}
	if len(cfg.OCRPolicy) == 0 {
		cfg.OCRPolicy = invoice.DefaultOCRPolicy
	}
	return &Service{cfg: cfg, log: log, now: time.Now}
}

// Ingest processes one upload end to end.
func (s *Service) Ingest(ctx context.Context, up Upload) (*Result, error) {
	log := s.log.With(
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"user_id", up.UserID,
		"filename", up.Filename,
	)

	format := DetectFormat(up.Filename, up.ContentType)
	switch format {
	case FormatXML:
		return s.ingestXML(ctx, log, up)
	case FormatPDF, FormatImage:
		return s.ingestScan(ctx, log, up)
	default:
		return nil, &invoice.DocumentError{
			Op:     "detect format",
			Err:    invoice.ErrUnsupportedFormat,
			Detail: fmt.Sprintf("content type %q", up.ContentType),
		}
	}
}

// Preview extracts and analyzes a PDF or image without storing anything.
func (s *Service) Preview(ctx context.Context, up Upload) (*Preview, error) {
	switch DetectFormat(up.Filename, up.ContentType) {
	case FormatPDF, FormatImage:
	default:
		return nil, &invoice.DocumentError{
			Op:     "detect format",
			Err:    invoice.ErrUnsupportedFormat,
			Detail: "only PDF and image uploads can be analyzed",
		}
	}

	res, err := s.extract(ctx, up)
	if err != nil {
		return nil, err
	}
	a := s.cfg.Analyzer.Analyze(res.Text)
	if res.AccessKey != "" {
		a.AccessKey = res.AccessKey
	}
	return &Preview{Method: res.Method, Engine: res.Engine, Text: res.Text, Analysis: a}, nil
}

func (s *Service) ingestXML(ctx context.Context, log *slog.Logger, up Upload) (*Result, error) {
	doc, err := s.cfg.Decoder.Decode(up.Data)
	if err != nil {
		log.Warn("Rejected XML upload", "error", err)
		return nil, err
	}
	doc.UserID = up.UserID
	doc.NormalizeDefaults(s.now())
	if doc.Category == "" {
		doc.Category = analyzer.Categorize(categoryText(doc))
	}

	if id, found, err := s.findDuplicate(ctx, doc, s.cfg.FallbackPolicy); err != nil {
		return nil, err
	} else if found {
		log.Info("Duplicate XML invoice", "existing_id", id, "access_key", doc.AccessKey)
		return duplicateResult(id), nil
	}

	id, err := s.store(ctx, log, up, doc)
	if err != nil {
		return s.duplicateOrError(log, err)
	}

	if s.cfg.Directory != nil {
		s.cfg.Directory.Remember(ctx, doc.Provider.TaxID, doc.Provider.Name, doc.Provider.TradeName)
	}

	log.Info("XML invoice stored", "invoice_id", id, "access_key", doc.AccessKey, "items", len(doc.Items))
	return &Result{
		Outcome:   invoice.OutcomeComplete,
		InvoiceID: id,
		Status:    doc.Status,
		Provider:  providerSummary(doc),
		Items:     itemSummaries(doc.Items),
	}, nil
}

func (s *Service) ingestScan(ctx context.Context, log *slog.Logger, up Upload) (*Result, error) {
	res, err := s.extract(ctx, up)
	if err != nil {
		log.Error("Text extraction failed", "error", err)
		return nil, err
	}

	if strings.TrimSpace(res.Text) == "" {
		doc := &invoice.Document{
			UserID:    up.UserID,
			Source:    invoice.SourceManual,
			Status:    invoice.StatusManual,
			AccessKey: res.AccessKey,
		}
		doc.NormalizeDefaults(s.now())

		id, err := s.store(ctx, log, up, doc)
		if err != nil {
			return s.duplicateOrError(log, err)
		}
		log.Info("Upload stored for manual entry", "invoice_id", id, "method", res.Method)
		return &Result{
			Outcome:     invoice.OutcomeManual,
			InvoiceID:   id,
			Status:      invoice.StatusManual,
			NeedsReview: true,
		}, nil
	}

	a := s.cfg.Analyzer.Analyze(res.Text)
	doc := documentFromAnalysis(a, res)
	doc.UserID = up.UserID
	doc.NormalizeDefaults(s.now())

	if doc.AccessKey != "" {
		if id, found, err := s.cfg.Repo.FindByAccessKey(ctx, doc.AccessKey); err != nil {
			return nil, err
		} else if found {
			log.Info("Duplicate scanned invoice", "existing_id", id, "access_key", doc.AccessKey)
			return duplicateResult(id), nil
		}
	}
	if a.Status == invoice.StatusOK && s.cfg.OCRPolicy.Usable(doc) {
		if id, found, err := s.cfg.Repo.FindMatch(ctx, doc.UserID, s.cfg.OCRPolicy, doc); err != nil {
			return nil, err
		} else if found {
			log.Info("Duplicate scanned invoice", "existing_id", id, "policy", s.cfg.OCRPolicy.String())
			return duplicateResult(id), nil
		}
	}

	id, err := s.store(ctx, log, up, doc)
	if err != nil {
		return s.duplicateOrError(log, err)
	}

	log.Info("Scanned invoice stored",
		"invoice_id", id,
		"method", res.Method,
		"confidence", a.Confidence,
		"status", a.Status,
	)

	result := &Result{
		Outcome:     invoice.OutcomeOCR,
		InvoiceID:   id,
		Status:      a.Status,
		Confidence:  a.Confidence,
		Provider:    providerSummary(doc),
		Items:       itemSummaries(doc.Items),
		Missing:     a.Missing,
		NeedsReview: a.Degraded() || a.Status.NeedsReview(),
	}
	if a.Payment.Any() {
		flags := a.Payment
		result.Payment = &flags
	}
	return result, nil
}

func (s *Service) extract(ctx context.Context, up Upload) (*ocr.Result, error) {
	res, err := s.cfg.OCR.Extract(ctx, ocr.Input{
		Data:        up.Data,
		Filename:    up.Filename,
		ContentType: up.ContentType,
	})
	if err != nil {
		return nil, mapExtractionError(err)
	}
	return res, nil
}

// mapExtractionError keeps cancellation as is, reports unreadable PDFs as
// invalid documents and every other engine failure as an unavailable backend.
func mapExtractionError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ocr.ErrInvalidPDF):
		return &invoice.DocumentError{Op: "extract text", Err: invoice.ErrInvalidDocument, Detail: err.Error()}
	default:
		return fmt.Errorf("%w: %w", invoice.ErrBackendUnavailable, err)
	}
}

// findDuplicate checks the access key first and the fallback policy only for
// documents without one.
func (s *Service) findDuplicate(ctx context.Context, doc *invoice.Document, policy invoice.MatchPolicy) (int64, bool, error) {
	if doc.AccessKey != "" {
		return s.cfg.Repo.FindByAccessKey(ctx, doc.AccessKey)
	}
	if !policy.Usable(doc) {
		return 0, false, nil
	}
	return s.cfg.Repo.FindMatch(ctx, doc.UserID, policy, doc)
}

// store archives the original upload and persists doc. The archived object
// is removed again when the document is not stored.
func (s *Service) store(ctx context.Context, log *slog.Logger, up Upload, doc *invoice.Document) (int64, error) {
	if s.cfg.Archive != nil {
		key, err := s.cfg.Archive.Put(ctx, archive.Object{
			UserID:      up.UserID,
			Filename:    up.Filename,
			ContentType: up.ContentType,
			Data:        up.Data,
			UploadedAt:  s.now(),
		})
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, fmt.Errorf("%w: archive upload: %w", invoice.ErrStorageFailure, err)
		}
		doc.ArchiveKey = key
	}

	id, err := s.cfg.Repo.Create(ctx, doc)
	if err != nil && doc.ArchiveKey != "" {
		// The request context may already be cancelled.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if delErr := s.cfg.Archive.Delete(cleanupCtx, doc.ArchiveKey); delErr != nil {
			log.Warn("Could not remove orphan archive object", "key", doc.ArchiveKey, "error", delErr)
		}
	}
	return id, err
}

func (s *Service) duplicateOrError(log *slog.Logger, err error) (*Result, error) {
	var dup *invoice.DuplicateError
	if errors.As(err, &dup) {
		log.Info("Concurrent duplicate resolved by access key", "existing_id", dup.ExistingID)
		return duplicateResult(dup.ExistingID), nil
	}
	return nil, err
}

func duplicateResult(id int64) *Result {
	return &Result{Outcome: invoice.OutcomeDuplicate, InvoiceID: id, Status: invoice.StatusDuplicate}
}

// documentFromAnalysis maps an OCR analysis to a document. The subtotal is
// the taxed base when IVA was charged and the zero-rated base otherwise.
func documentFromAnalysis(a *analyzer.Analysis, res *ocr.Result) *invoice.Document {
	doc := &invoice.Document{
		Source:     invoice.SourceOCR,
		Type:       a.DocumentType,
		AccessKey:  a.AccessKey,
		Number:     a.Number,
		Status:     a.Status,
		Confidence: a.Confidence,
		Category:   a.Category,
		RawText:    res.Text,
		Provider: invoice.Provider{
			TaxID:   a.TaxID,
			Name:    a.ProviderName,
			Address: a.Address,
			Phone:   a.Phone,
			City:    a.City,
			Regime:  a.Regime,
		},
		PaymentFlags: a.Payment,
		Auth:         invoice.Authorization{Number: a.AuthorizationNumber},
	}
	if res.AccessKey != "" {
		doc.AccessKey = res.AccessKey
	}

	if a.IssueDate != "" {
		if t, err := time.Parse(normalize.DateLayout, a.IssueDate); err == nil {
			doc.IssueDate = t
		}
	}

	doc.Totals.Tax = a.Tax
	doc.Totals.GrandTotal = a.Total
	if a.Tax.IsPositive() {
		doc.Totals.SubtotalTaxed = a.Subtotal
	} else {
		doc.Totals.SubtotalZeroRated = a.Subtotal
	}

	for _, it := range a.Items {
		doc.Items = append(doc.Items, invoice.LineItem{
			Quantity:    it.Quantity,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	return doc
}

// categoryText is what the keyword rules see for an XML invoice: who sold
// it and what was bought.
func categoryText(doc *invoice.Document) string {
	parts := []string{doc.Provider.Name, doc.Provider.TradeName}
	for _, it := range doc.Items {
		parts = append(parts, it.Description)
	}
	return strings.Join(parts, "\n")
}

func providerSummary(doc *invoice.Document) *ProviderSummary {
	if doc.Provider.TaxID == "" && doc.Provider.Name == "" {
		return nil
	}
	return &ProviderSummary{TaxID: doc.Provider.TaxID, Name: doc.Provider.Name}
}

func itemSummaries(items []invoice.LineItem) []ItemSummary {
	if len(items) == 0 {
		return nil
	}
	out := make([]ItemSummary, len(items))
	for i, it := range items {
		out[i] = ItemSummary{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		}
	}
	return out
}
