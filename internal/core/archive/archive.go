package archive

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoOriginal means the invoice was stored without an archived upload.
var ErrNoOriginal = errors.New("original upload not archived")

// Object is an upload to archive.
type Object struct {
	UserID      string
	Filename    string
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}

// Store keeps the original uploads next to the extracted records.
type Store interface {
	// Put stores obj and returns its object key.
	Put(ctx context.Context, obj Object) (string, error)
	// PresignedURL returns a temporary download link for key.
	PresignedURL(ctx context.Context, key string) (string, error)
	// Delete removes key. Used to undo an upload whose invoice was not stored.
	Delete(ctx context.Context, key string) error
	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}

// ObjectKey builds {user}/{YYYY}/{MM}/{id}{ext} for obj.
func ObjectKey(obj Object, id uuid.UUID) string {
	at := obj.UploadedAt
	if at.IsZero() {
		at = time.Now()
	}
	user := strings.ReplaceAll(strings.TrimSpace(obj.UserID), "/", "_")
	if user == "" {
		user = "anonymous"
	}
	return fmt.Sprintf("%s/%04d/%02d/%s%s", user, at.Year(), int(at.Month()), id.String(), Extension(obj.Filename, obj.ContentType))
}

// Extension picks the object extension from the filename, falling back to
// the content type.
func Extension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "application/pdf":
		return ".pdf"
	case "application/xml", "text/xml":
		return ".xml"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
