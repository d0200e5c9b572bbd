// Package vision recognizes documents with Google Cloud Vision.
package vision

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"3tcapital/facturas_sri/internal/core/ocr"
)

// maxFileSize is the synchronous request limit of the Vision API.
const maxFileSize = 20 * 1024 * 1024

// annotator is the subset of the Vision client used here.
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	Close() error
}

// Engine sends images and PDFs to DOCUMENT_TEXT_DETECTION.
type Engine struct {
	client annotator
}

// New creates the Vision client. Inline JSON credentials win over a
// credentials file; with neither, application default credentials are used.
func New(ctx context.Context, credentialsJSON, credentialsFile string) (*Engine, error) {
	const op = "vision.New"

	var opts []option.ClientOption
	switch {
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, ocr.Wrap(op, ocr.ErrMissingCredentials, err.Error())
		}
		return nil, ocr.Wrap(op, err, "create image annotator client")
	}
	return &Engine{client: client}, nil
}

func (e *Engine) Name() string      { return "vision" }
func (e *Engine) SupportsPDF() bool { return true }

func (e *Engine) Recognize(ctx context.Context, data []byte, contentType string) (string, error) {
	const op = "vision.Recognize"

	if len(data) > maxFileSize {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, fmt.Sprintf("file size %d exceeds limit", len(data)))
	}
	feature := []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}}

	if contentType == "application/pdf" {
		resp, err := e.client.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
			Requests: []*visionpb.AnnotateFileRequest{{
				InputConfig: &visionpb.InputConfig{Content: data, MimeType: contentType},
				Features:    feature,
			}},
		})
		if err != nil {
			return "", ocr.Wrap(op, ocr.ErrEngineFailed, err.Error())
		}
		if len(resp.GetResponses()) == 0 {
			return "", nil
		}
		file := resp.GetResponses()[0]
		if file.GetError() != nil {
			return "", ocr.Wrap(op, ocr.ErrEngineFailed, file.GetError().GetMessage())
		}
		return pagesText(file.GetResponses())
	}

	resp, err := e.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: data},
			Features: feature,
		}},
	})
	if err != nil {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, err.Error())
	}
	return pagesText(resp.GetResponses())
}

func pagesText(pages []*visionpb.AnnotateImageResponse) (string, error) {
	var parts []string
	for i, page := range pages {
		if page.GetError() != nil {
			return "", ocr.Wrap("vision.pagesText", ocr.ErrEngineFailed, fmt.Sprintf("page %d: %s", i+1, page.GetError().GetMessage()))
		}
		if text := strings.TrimSpace(page.GetFullTextAnnotation().GetText()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// Close releases the gRPC connection.
func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
