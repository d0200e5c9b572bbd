// Package barcode decodes the Code 128 access key printed on SRI receipts.
package barcode

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"regexp"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

var accessKey = regexp.MustCompile(`^\d{44,50}$`)

// Reader tries to find the access key barcode in an image.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// AccessKey returns the decoded key. Images that cannot be decoded, or whose
// barcode is not a 44 to 50 digit key, report false.
func (r *Reader) AccessKey(data []byte) (string, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := oned.NewCode128Reader().Decode(bmp, hints)
	if err != nil {
		return "", false
	}
	text := result.GetText()
	if !accessKey.MatchString(text) {
		return "", false
	}
	return text, true
}
