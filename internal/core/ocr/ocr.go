// Package ocr defines the contracts for turning an uploaded PDF or image into
// plain text.
package ocr

import (
	"context"
	"path/filepath"
	"strings"
)

// Method records how the text of a document was obtained.
type Method string

const (
	MethodPDFText   Method = "pdf_text"
	MethodPDFEngine Method = "pdf_engine"
	MethodPDFImages Method = "pdf_images"
	MethodImage     Method = "image"
)

// Input is one uploaded file.
type Input struct {
	Data        []byte
	Filename    string
	ContentType string
}

// IsPDF reports whether the input is a PDF by MIME type, extension or header.
func (in Input) IsPDF() bool {
	if strings.EqualFold(in.ContentType, "application/pdf") {
		return true
	}
	if strings.EqualFold(filepath.Ext(in.Filename), ".pdf") {
		return true
	}
	return len(in.Data) >= 4 && string(in.Data[:4]) == "%PDF"
}

// Result is the text read from a document. Text is empty, not an error, when
// the engine found nothing.
type Result struct {
	Text   string `json:"texto"`
	Method Method `json:"metodo"`
	Engine string `json:"motor,omitempty"`
	// AccessKey is set when a barcode carrying the SRI access key was decoded.
	AccessKey string `json:"clave_acceso,omitempty"`
}

// Engine recognizes text in images and, when SupportsPDF is true, in PDFs.
type Engine interface {
	Name() string
	SupportsPDF() bool
	Recognize(ctx context.Context, data []byte, contentType string) (string, error)
}

// TextLayerReader reads the embedded text layer of a PDF.
type TextLayerReader interface {
	ReadText(data []byte) (string, error)
}

// PageImager pulls the embedded page images out of a scanned PDF.
type PageImager interface {
	PageImages(data []byte) ([][]byte, error)
}

// BarcodeReader decodes the access key barcode printed on SRI receipts.
type BarcodeReader interface {
	AccessKey(image []byte) (string, bool)
}

// Extractor is the text extraction use case consumed by ingestion.
type Extractor interface {
	Extract(ctx context.Context, in Input) (*Result, error)
}
