package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text with a local Tesseract installation via
// gosseract. A fresh client is created per call; gosseract clients are not
// safe for concurrent reuse.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine probes the local Tesseract installation and returns an
// engine bound to the given language set (e.g. ["eng", "ara"]).
func NewTesseractEngine(languages []string) (*TesseractEngine, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	// Probe once at construction so auto-selection can fall through to the
	// next engine when Tesseract or a language pack is missing.
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(languages...); err != nil {
		return nil, fmt.Errorf("tesseract unavailable for languages %v: %w", languages, err)
	}

	return &TesseractEngine{languages: languages}, nil
}

func (e *TesseractEngine) Name() string {
	return "tesseract"
}

// Run recognizes text lines in the image.
func (e *TesseractEngine) Run(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for tesseract: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("failed to set tesseract languages: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to load image into tesseract: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	lines := make([]Line, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		lines = append(lines, Line{
			Text:       text,
			Confidence: box.Confidence / 100.0,
			Polygon:    rectPolygon(box.Box),
		})
	}

	return NewResult(lines), nil
}

func rectPolygon(r image.Rectangle) []Point {
	return []Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}
