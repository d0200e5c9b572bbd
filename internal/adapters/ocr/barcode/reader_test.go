package barcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

func encode(t *testing.T, contents string) []byte {
	t.Helper()
	img, err := oned.NewCode128Writer().Encode(contents, gozxing.BarcodeFormat_CODE_128, 900, 120, nil)
	if err != nil {
		t.Fatalf("encode barcode: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestReader_AccessKey(t *testing.T) {
	const key = "2504202501179214673900110010010000012341234567812"

	got, ok := New().AccessKey(encode(t, key))
	if !ok {
		t.Fatal("expected barcode to be decoded")
	}
	if got != key {
		t.Errorf("AccessKey() = %q, want %q", got, key)
	}
}

func TestReader_RejectsOtherBarcodes(t *testing.T) {
	if _, ok := New().AccessKey(encode(t, "PRODUCTO-123")); ok {
		t.Error("non access key barcode must be rejected")
	}
}

func TestReader_RejectsNonImages(t *testing.T) {
	if _, ok := New().AccessKey([]byte("%PDF-1.4")); ok {
		t.Error("non image data must be rejected")
	}
}
