package ocr

import (
	"context"
	"image"
	"strings"
)

// Point is a polygon vertex in image pixel coordinates (Document AI vertices
// are denormalized against the rendered page size).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is a single recognized text line.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1
	Polygon    []Point `json:"polygon,omitempty"`
}

// Result is the output of one recognition pass over one image.
type Result struct {
	Lines          []Line  `json:"lines"`
	FullText       string  `json:"fullText"`
	MeanConfidence float64 `json:"meanConfidence"` // 0..1, 0 when no lines
}

// Engine runs OCR over a decoded image.
type Engine interface {
	Name() string
	Run(ctx context.Context, img image.Image) (*Result, error)
}

// NewResult assembles a Result from recognized lines.
func NewResult(lines []Line) *Result {
	texts := make([]string, 0, len(lines))
	for _, ln := range lines {
		texts = append(texts, ln.Text)
	}
	return &Result{
		Lines:          lines,
		FullText:       strings.Join(texts, "\n"),
		MeanConfidence: meanConfidence(lines),
	}
}

// LineTexts returns the stripped, non-empty line texts in reading order.
func (r *Result) LineTexts() []string {
	out := make([]string, 0, len(r.Lines))
	for _, ln := range r.Lines {
		if text := strings.TrimSpace(ln.Text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func meanConfidence(lines []Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	total := 0.0
	for _, ln := range lines {
		total += ln.Confidence
	}
	return total / float64(len(lines))
}
