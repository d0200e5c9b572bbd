package ingestion

import (
	"mime"
	"path/filepath"
	"strings"
)

// Format is the processing route chosen for an upload.
type Format string

const (
	FormatXML         Format = "XML"
	FormatPDF         Format = "PDF"
	FormatImage       Format = "IMAGE"
	FormatUnsupported Format = ""
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// DetectFormat routes an upload by its declared MIME type, falling back to
// the filename extension for generic types such as application/octet-stream.
func DetectFormat(filename, contentType string) Format {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case mediaType == "application/xml" || mediaType == "text/xml":
		return FormatXML
	case mediaType == "application/pdf":
		return FormatPDF
	case strings.HasPrefix(mediaType, "image/"):
		return FormatImage
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".xml":
		return FormatXML
	case ext == ".pdf":
		return FormatPDF
	case imageExtensions[ext]:
		return FormatImage
	}
	return FormatUnsupported
}
