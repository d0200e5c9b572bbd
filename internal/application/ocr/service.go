package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"3tcapital/facturas_sri/internal/core/ocr"
	"3tcapital/facturas_sri/internal/infrastructure/resilience"
)

// Config wires the collaborators of the extraction service. PageImager,
// Barcode, Breaker and Limiter are optional.
type Config struct {
	Engine     ocr.Engine
	TextLayer  ocr.TextLayerReader
	PageImager ocr.PageImager
	Barcode    ocr.BarcodeReader
	Breaker    *resilience.CircuitBreaker
	Limiter    *resilience.Limiter
	// Timeout bounds a single engine call. Zero means no extra deadline.
	Timeout time.Duration
}

// Service turns PDFs and images into text. PDFs are read through their text
// layer first; scanned PDFs go to the engine directly when it accepts PDFs,
// otherwise their page images are recognized one by one.
type Service struct {
	cfg Config
	log *slog.Logger
}

// NewService creates the extraction service.
func NewService(cfg Config, log *slog.Logger) *Service {
	return &Service{cfg: cfg, log: log}
}

// Extract returns the text of in. An empty text with a nil error means the
// document has nothing recognizable.
func (s *Service) Extract(ctx context.Context, in ocr.Input) (*ocr.Result, error) {
	if in.IsPDF() {
		return s.extractPDF(ctx, in)
	}

	text, err := s.recognize(ctx, in.Data, in.ContentType)
	if err != nil {
		return nil, err
	}
	return &ocr.Result{
		Text:      text,
		Method:    ocr.MethodImage,
		Engine:    s.cfg.Engine.Name(),
		AccessKey: s.accessKey(in.Data),
	}, nil
}

func (s *Service) extractPDF(ctx context.Context, in ocr.Input) (*ocr.Result, error) {
	text, err := s.cfg.TextLayer.ReadText(in.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) != "" {
		return &ocr.Result{Text: text, Method: ocr.MethodPDFText}, nil
	}

	s.log.Debug("PDF has no text layer, falling back to OCR",
		"filename", in.Filename,
		"engine", s.cfg.Engine.Name(),
	)

	if s.cfg.Engine.SupportsPDF() {
		text, err := s.recognize(ctx, in.Data, "application/pdf")
		if err != nil {
			return nil, err
		}
		return &ocr.Result{Text: text, Method: ocr.MethodPDFEngine, Engine: s.cfg.Engine.Name()}, nil
	}

	if s.cfg.PageImager == nil {
		return &ocr.Result{Method: ocr.MethodPDFImages, Engine: s.cfg.Engine.Name()}, nil
	}
	images, err := s.cfg.PageImager.PageImages(in.Data)
	if err != nil {
		return nil, err
	}

	result := &ocr.Result{Method: ocr.MethodPDFImages, Engine: s.cfg.Engine.Name()}
	var pages []string
	for _, img := range images {
		text, err := s.recognize(ctx, img, "")
		if err != nil {
			return nil, err
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
		if result.AccessKey == "" {
			result.AccessKey = s.accessKey(img)
		}
	}
	result.Text = strings.Join(pages, "\n")
	return result, nil
}

// recognize calls the engine inside the limiter and the circuit breaker.
func (s *Service) recognize(ctx context.Context, data []byte, contentType string) (string, error) {
	const op = "ocr.recognize"

	if s.cfg.Limiter != nil {
		if err := s.cfg.Limiter.Acquire(ctx); err != nil {
			st := s.cfg.Limiter.Stats()
			s.log.Warn("Gave up waiting for an OCR slot", "active", st.Active, "waiting", st.Waiting, "max", st.Max, "error", err)
			return "", err
		}
		defer s.cfg.Limiter.Release()
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var text string
	call := func() error {
		var err error
		text, err = s.cfg.Engine.Recognize(callCtx, data, contentType)
		return err
	}

	var err error
	if s.cfg.Breaker != nil {
		err = s.cfg.Breaker.Execute(ctx, call)
	} else {
		err = call()
	}

	switch {
	case err == nil:
		return text, nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "", ocr.Wrap(op, ocr.ErrEngineBusy, s.cfg.Engine.Name()+" circuit open")
	case errors.Is(err, context.DeadlineExceeded):
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, s.cfg.Engine.Name()+" timed out")
	default:
		s.log.Warn("OCR engine call failed", "engine", s.cfg.Engine.Name(), "error", err)
		return "", ocr.Wrap(op, err, s.cfg.Engine.Name())
	}
}

func (s *Service) accessKey(image []byte) string {
	if s.cfg.Barcode == nil {
		return ""
	}
	key, ok := s.cfg.Barcode.AccessKey(image)
	if !ok {
		return ""
	}
	return key
}
