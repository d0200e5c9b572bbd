// Package pdfimages pulls the page images out of scanned PDFs with pdfcpu.
package pdfimages

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"3tcapital/facturas_sri/internal/core/ocr"
)

// scratchName is the base name of the PDF written to the scratch dir.
const scratchName = "input"

// extractedName is pdfcpu's <input>_<page>_<resource id>.<ext>.
var extractedName = regexp.MustCompile(`^` + scratchName + `_(\d+)_(.*)$`)

// Imager extracts embedded images into a scratch directory and returns their
// bytes in page order.
type Imager struct {
	maxImages int
}

// New limits the number of images returned per document.
func New(maxImages int) *Imager {
	if maxImages <= 0 {
		maxImages = 10
	}
	return &Imager{maxImages: maxImages}
}

func (im *Imager) PageImages(data []byte) ([][]byte, error) {
	const op = "pdfimages.PageImages"

	dir, err := os.MkdirTemp("", "facturas-pdf-*")
	if err != nil {
		return nil, ocr.Wrap(op, err, "create scratch dir")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, scratchName+".pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, ocr.Wrap(op, err, "write scratch pdf")
	}
	out := filepath.Join(dir, "images")
	if err := os.Mkdir(out, 0o700); err != nil {
		return nil, ocr.Wrap(op, err, "create image dir")
	}

	if err := api.ExtractImagesFile(in, out, nil, model.NewDefaultConfiguration()); err != nil {
		return nil, ocr.Wrap(op, ocr.ErrInvalidPDF, err.Error())
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		return nil, ocr.Wrap(op, err, "list extracted images")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sortByPage(names)

	var images [][]byte
	for _, name := range names {
		if len(images) == im.maxImages {
			break
		}
		img, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			return nil, ocr.Wrap(op, err, fmt.Sprintf("read %s", name))
		}
		images = append(images, img)
	}
	return images, nil
}

// sortByPage orders extracted files by their numeric page, so page 10 comes
// after page 9. Images of one page keep their resource id order. Names that
// do not follow the pdfcpu pattern go last.
func sortByPage(names []string) {
	page := func(name string) (int, string) {
		m := extractedName.FindStringSubmatch(name)
		if m == nil {
			return math.MaxInt, name
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return math.MaxInt, name
		}
		return n, m[2]
	}
	sort.SliceStable(names, func(i, j int) bool {
		pi, ri := page(names[i])
		pj, rj := page(names[j])
		if pi != pj {
			return pi < pj
		}
		return ri < rj
	})
}
