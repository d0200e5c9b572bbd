// Package paddle calls a PaddleOCR serving endpoint over HTTP.
package paddle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"3tcapital/facturas_sri/internal/core/ocr"
)

// Doer is satisfied by *http.Client and the traced client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type request struct {
	Images []string `json:"images"`
}

type response struct {
	Msg     string `json:"msg,omitempty"`
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// Engine posts base64 documents to the PaddleOCR ocr_system endpoint. The
// serving pipeline rasterizes PDFs itself.
type Engine struct {
	client        Doer
	url           string
	minConfidence float64
}

// New creates an engine for url, e.g. http://paddleocr:8866/predict/ocr_system.
// Lines below minConfidence are dropped.
func New(client Doer, url string, minConfidence float64) *Engine {
	return &Engine{client: client, url: url, minConfidence: minConfidence}
}

func (e *Engine) Name() string      { return "paddle" }
func (e *Engine) SupportsPDF() bool { return true }

func (e *Engine) Recognize(ctx context.Context, data []byte, _ string) (string, error) {
	const op = "paddle.Recognize"

	payload, err := json.Marshal(request{Images: []string{base64.StdEncoding.EncodeToString(data)}})
	if err != nil {
		return "", ocr.Wrap(op, err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return "", ocr.Wrap(op, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, "read response: "+err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, fmt.Sprintf("status %d", resp.StatusCode))
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", ocr.Wrap(op, ocr.ErrEngineFailed, "decode response: "+err.Error())
	}

	var lines []string
	for _, page := range parsed.Results {
		for _, line := range page {
			text := strings.TrimSpace(line.Text)
			if text == "" || line.Confidence < e.minConfidence {
				continue
			}
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
