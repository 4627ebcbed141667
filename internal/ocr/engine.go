// Package ocr wraps the Tesseract OCR collaborator for document pages.
//
// The engine is treated as an opaque, possibly-flaky text oracle: callers
// own the failure policy. Image enhancement happens upstream (the filter
// genome), so the engine recognizes pages exactly as given.
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Config holds OCR engine settings.
type Config struct {
	// Language is the Tesseract language code, e.g. "eng", "deu".
	Language string

	// PageSegMode is the Tesseract page segmentation mode.
	// Defaults to automatic page segmentation.
	PageSegMode gosseract.PageSegMode
}

// DefaultConfig returns settings suitable for full scanned pages.
func DefaultConfig() Config {
	return Config{
		Language:    "eng",
		PageSegMode: gosseract.PSM_AUTO,
	}
}

// Engine performs OCR on document page images using Tesseract. An Engine
// wraps one Tesseract handle and must not be shared across goroutines;
// concurrent callers need one Engine each (see fitness.OraclePool).
type Engine struct {
	client *gosseract.Client
	cfg    Config
}

// NewEngine creates an OCR engine with the given configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language %q: %w", cfg.Language, err)
	}
	if err := client.SetPageSegMode(cfg.PageSegMode); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}

	return &Engine{client: client, cfg: cfg}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize runs OCR on a page image and returns the recognized text with
// normalized line endings and trimmed whitespace.
func (e *Engine) Recognize(img gocv.Mat) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("recognize: empty image")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return "", fmt.Errorf("recognize: encode image: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("recognize: set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
