// Package pdftext reads the embedded text layer of PDFs.
package pdftext

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"3tcapital/facturas_sri/internal/core/ocr"
)

// Reader extracts text row by row so that labels stay on the same line as
// their values.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// ReadText returns the text of every page, one row per line. A PDF with
// only scanned images yields an empty string.
func (r *Reader) ReadText(data []byte) (text string, err error) {
	const op = "pdftext.ReadText"

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", ocr.Wrap(op, ocr.ErrInvalidPDF, "malformed document")
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ocr.Wrap(op, ocr.ErrInvalidPDF, err.Error())
	}

	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					words = append(words, s)
				}
			}
			if len(words) == 0 {
				continue
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String()), nil
}
