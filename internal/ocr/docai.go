package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/disintegration/imaging"
	"google.golang.org/api/option"
)

// DocAIEngine recognizes text with a Google Document AI OCR processor.
// Credentials come from the environment (GOOGLE_APPLICATION_CREDENTIALS or
// ambient ADC).
type DocAIEngine struct {
	projectID   string
	location    string
	processorID string
}

// NewDocAIEngine returns an engine bound to a Document AI processor.
func NewDocAIEngine(projectID, location, processorID string) (*DocAIEngine, error) {
	if projectID == "" || location == "" || processorID == "" {
		return nil, fmt.Errorf("docai engine requires DOCAI_PROJECT_ID, DOCAI_LOCATION and DOCAI_PROCESSOR_ID")
	}
	return &DocAIEngine{
		projectID:   projectID,
		location:    location,
		processorID: processorID,
	}, nil
}

func (e *DocAIEngine) Name() string {
	return "docai"
}

// Run sends the image to the processor and maps page lines to Lines.
func (e *DocAIEngine) Run(ctx context.Context, img image.Image) (*Result, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for docai: %w", err)
	}

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", e.location)
	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		e.projectID, e.location, e.processorID,
	)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  buf.Bytes(),
				MimeType: "image/png",
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("docai recognition failed: %w", err)
	}

	doc := resp.GetDocument()
	bounds := img.Bounds()

	var lines []Line
	for _, page := range doc.GetPages() {
		for _, pageLine := range page.GetLines() {
			layout := pageLine.GetLayout()
			text := strings.TrimSpace(textFromLayout(layout, doc.GetText()))
			if text == "" {
				continue
			}
			lines = append(lines, Line{
				Text:       text,
				Confidence: float64(layout.GetConfidence()),
				Polygon:    polygonFromLayout(layout, bounds.Dx(), bounds.Dy()),
			})
		}
	}

	return NewResult(lines), nil
}

// textFromLayout slices the document text by the layout's anchor segments.
// Indices are rune offsets, not byte offsets.
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.GetTextAnchor() == nil {
		return ""
	}
	runes := []rune(fullText)
	total := len(runes)

	var result strings.Builder
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start := int(seg.GetStartIndex())
		end := int(seg.GetEndIndex())
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		if start > end {
			start = end
		}
		result.WriteString(string(runes[start:end]))
	}
	return result.String()
}

func polygonFromLayout(layout *documentaipb.Document_Page_Layout, width, height int) []Point {
	poly := layout.GetBoundingPoly()
	if poly == nil {
		return nil
	}
	vertices := poly.GetNormalizedVertices()
	points := make([]Point, 0, len(vertices))
	for _, v := range vertices {
		points = append(points, Point{
			X: float64(v.GetX()) * float64(width),
			Y: float64(v.GetY()) * float64(height),
		})
	}
	return points
}
