// Package tesseract runs the local Tesseract engine through gosseract.
package tesseract

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"3tcapital/facturas_sri/internal/core/ocr"
)

// Engine recognizes text in images. Tesseract cannot read PDFs, so scanned
// PDFs reach it as extracted page images.
type Engine struct {
	language       string
	tessdataPrefix string
}

// New creates an engine for the given tesseract language code ("spa").
func New(language, tessdataPrefix string) *Engine {
	if language == "" {
		language = "spa"
	}
	return &Engine{language: language, tessdataPrefix: tessdataPrefix}
}

func (e *Engine) Name() string      { return "tesseract" }
func (e *Engine) SupportsPDF() bool { return false }

// Recognize returns the text of one image. A client is created per call
// since gosseract clients are not safe for concurrent use.
func (e *Engine) Recognize(ctx context.Context, data []byte, _ string) (string, error) {
	const op = "tesseract.Recognize"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdataPrefix != "" {
		client.SetTessdataPrefix(e.tessdataPrefix)
	}
	if err := client.SetLanguage(e.language); err != nil {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, "set language: "+err.Error())
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, "load image: "+err.Error())
	}

	text, err := client.Text()
	if err != nil {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, err.Error())
	}
	return strings.TrimSpace(text), nil
}
