package pdfimages

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"3tcapital/facturas_sri/internal/core/ocr"
)

func TestSortByPage(t *testing.T) {
	names := []string{
		"input_10_Im0.png",
		"input_2_Im1.jpg",
		"notes.txt",
		"input_1_Im0.png",
		"input_2_Im0.jpg",
		"input_9_Im0.png",
	}

	sortByPage(names)

	assert.Equal(t, []string{
		"input_1_Im0.png",
		"input_2_Im0.jpg",
		"input_2_Im1.jpg",
		"input_9_Im0.png",
		"input_10_Im0.png",
		"notes.txt",
	}, names)
}

func TestSortByPage_ResourceIDWithUnderscore(t *testing.T) {
	names := []string{"input_12_img_1.png", "input_3_img_2.png"}
	sortByPage(names)
	assert.Equal(t, []string{"input_3_img_2.png", "input_12_img_1.png"}, names)
}

func TestNew_DefaultLimit(t *testing.T) {
	assert.Equal(t, 10, New(0).maxImages)
	assert.Equal(t, 3, New(3).maxImages)
}

func TestPageImages_RejectsGarbage(t *testing.T) {
	_, err := New(2).PageImages([]byte("not a pdf"))
	assert.ErrorIs(t, err, ocr.ErrInvalidPDF)
}
