package vision

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/genproto/googleapis/rpc/status"

	"3tcapital/facturas_sri/internal/core/ocr"
)

type fakeAnnotator struct {
	images    *visionpb.BatchAnnotateImagesResponse
	files     *visionpb.BatchAnnotateFilesResponse
	err       error
	imageReqs int
	fileReqs  int
}

func (f *fakeAnnotator) BatchAnnotateImages(_ context.Context, _ *visionpb.BatchAnnotateImagesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	f.imageReqs++
	return f.images, f.err
}

func (f *fakeAnnotator) BatchAnnotateFiles(_ context.Context, _ *visionpb.BatchAnnotateFilesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error) {
	f.fileReqs++
	return f.files, f.err
}

func (f *fakeAnnotator) Close() error { return nil }

func page(text string) *visionpb.AnnotateImageResponse {
	return &visionpb.AnnotateImageResponse{FullTextAnnotation: &visionpb.TextAnnotation{Text: text}}
}

func TestEngine_RecognizeImage(t *testing.T) {
	fake := &fakeAnnotator{images: &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{page("FACTURA\nTOTAL 10,00\n")},
	}}
	e := &Engine{client: fake}

	text, err := e.Recognize(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "FACTURA\nTOTAL 10,00" {
		t.Errorf("text = %q", text)
	}
	if fake.imageReqs != 1 || fake.fileReqs != 0 {
		t.Errorf("expected one image request, got images=%d files=%d", fake.imageReqs, fake.fileReqs)
	}
}

func TestEngine_RecognizePDFJoinsPages(t *testing.T) {
	fake := &fakeAnnotator{files: &visionpb.BatchAnnotateFilesResponse{
		Responses: []*visionpb.AnnotateFileResponse{{
			Responses: []*visionpb.AnnotateImageResponse{page("pagina uno"), page(""), page("pagina dos")},
		}},
	}}
	e := &Engine{client: fake}

	text, err := e.Recognize(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "pagina uno\npagina dos" {
		t.Errorf("text = %q", text)
	}
}

func TestEngine_NoDetectionsIsEmpty(t *testing.T) {
	e := &Engine{client: &fakeAnnotator{images: &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{}},
	}}}

	text, err := e.Recognize(context.Background(), []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestEngine_Failures(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeAnnotator
	}{
		{name: "transport error", fake: &fakeAnnotator{err: errors.New("unavailable")}},
		{name: "page error", fake: &fakeAnnotator{images: &visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{{Error: &status.Status{Message: "bad image"}}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Engine{client: tt.fake}
			_, err := e.Recognize(context.Background(), []byte{1}, "image/png")
			if !errors.Is(err, ocr.ErrEngineFailed) {
				t.Errorf("expected ErrEngineFailed, got %v", err)
			}
		})
	}
}
