package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/veridoc/idverify-worker/internal/config"
	"github.com/veridoc/idverify-worker/internal/extract"
	"github.com/veridoc/idverify-worker/internal/input"
	"github.com/veridoc/idverify-worker/internal/logging"
	"github.com/veridoc/idverify-worker/internal/ocr"
	"github.com/veridoc/idverify-worker/internal/preprocess"
	"github.com/veridoc/idverify-worker/internal/validate"
)

// maxCardRegions bounds how many detected card-like crops are retried.
const maxCardRegions = 3

// Pipeline runs the full verification flow: load, preprocess, OCR with
// retries over image variants, extract, validate.
type Pipeline struct {
	cfg    *config.Config
	engine ocr.Engine
	log    *logging.Logger
}

// Result is the full verification output for one document.
type Result struct {
	Extracted          *extract.ExtractedFields `json:"extracted"`
	Validation         *validate.Result         `json:"validation"`
	OCREngine          string                   `json:"ocrEngine"`
	OCRSource          string                   `json:"ocrSource"`
	OCRMeanConfidence  float64                  `json:"ocrMeanConfidence"`
	PreprocessAngleDeg float64                  `json:"preprocessAngleDegrees"`
	SharpnessScore     float64                  `json:"sharpnessScore"`
	Warnings           []string                 `json:"warnings"`
}

// New creates a pipeline bound to one OCR engine.
func New(cfg *config.Config, engine ocr.Engine, log *logging.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, engine: engine, log: log}
}

// candidate is one OCR attempt with its extraction.
type candidate struct {
	source string
	ocr    *ocr.Result
	fields *extract.ExtractedFields
}

// fieldScore weighs which fields a candidate managed to extract. The
// identifier dominates; dates outweigh the name; the document-type hint
// breaks near-ties.
func fieldScore(fields *extract.ExtractedFields) int {
	score := 0
	if fields.Identifier != nil {
		score += 6
	}
	if fields.BirthDate != nil {
		score += 3
	}
	if fields.ExpiryDate != nil {
		score += 3
	}
	if fields.Name != nil {
		score += 2
	}
	if fields.DocTypeHint != nil && *fields.DocTypeHint == extract.DocTypeCivilID {
		score++
	}
	return score
}

// better ranks candidates lexicographically by (fieldScore, meanConfidence).
// Strict inequality keeps the incumbent on exact ties.
func better(challenger, incumbent *candidate) bool {
	cs, is := fieldScore(challenger.fields), fieldScore(incumbent.fields)
	if cs != is {
		return cs > is
	}
	return challenger.ocr.MeanConfidence > incumbent.ocr.MeanConfidence
}

// ProcessFile loads a document from disk and verifies it.
func (p *Pipeline) ProcessFile(ctx context.Context, path, expectedName, expectedDOB string) (*Result, error) {
	img, err := input.Load(path, p.cfg.MaxFileSizeBytes(), p.cfg.PDFRasterDPI)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, img, expectedName, expectedDOB)
}

// Process verifies an already-decoded document image.
func (p *Pipeline) Process(ctx context.Context, img image.Image, expectedName, expectedDOB string) (*Result, error) {
	prep := preprocess.Prepare(img, p.cfg.MaxDeskewAngle)

	// The initial pass is fatal on OCR error; retries are not.
	baseOCR, err := p.engine.Run(ctx, prep.Image)
	if err != nil {
		return nil, err
	}

	best := candidate{
		source: "preprocessed",
		ocr:    baseOCR,
		fields: extract.Fields(baseOCR),
	}

	warnings := []string{}

	lowConfidence := p.cfg.RetryLowConfidence && baseOCR.MeanConfidence < p.cfg.LowConfThreshold
	missingFields := p.cfg.RetryMissingFields && hasMissingKeyFields(best.fields)

	if lowConfidence || missingFields {
		p.log.Info("retrying OCR over image variants",
			"lowConfidence", lowConfidence,
			"missingFields", missingFields,
			"meanConfidence", fmt.Sprintf("%.3f", baseOCR.MeanConfidence))

		for _, v := range p.buildVariants(img, missingFields && p.cfg.RetryRotations) {
			winner, variantWarnings := p.evaluateVariant(ctx, v)
			warnings = append(warnings, variantWarnings...)
			if winner != nil && better(winner, &best) {
				best = *winner
			}
		}

		if best.source != "preprocessed" {
			warnings = append(warnings, fmt.Sprintf("Selected OCR result from %q fallback due to better field extraction.", best.source))
		} else if lowConfidence && best.ocr.MeanConfidence < p.cfg.LowConfThreshold {
			warnings = append(warnings, "OCR confidence stayed low after fallback attempts.")
		}
	}

	if best.fields.Identifier == nil {
		warnings = append(warnings, "Identifier was not extracted from OCR output.")
	}

	validation := validate.Validate(best.fields, validate.Options{
		ExpectedName: expectedName,
		ExpectedDOB:  expectedDOB,
		MinAgeYears:  p.cfg.MinAgeYears,
		MaxAgeYears:  p.cfg.MaxAgeYears,
	})
	warnings = append(warnings, validation.Warnings...)

	return &Result{
		Extracted:          best.fields,
		Validation:         validation,
		OCREngine:          p.engine.Name(),
		OCRSource:          best.source,
		OCRMeanConfidence:  best.ocr.MeanConfidence,
		PreprocessAngleDeg: prep.DeskewAngleDegrees,
		SharpnessScore:     prep.SharpnessScore,
		Warnings:           warnings,
	}, nil
}

// hasMissingKeyFields decides whether a retry over image variants is worth
// the cost: the identifier is always key; dates and name count once the
// document looks like an ID card.
func hasMissingKeyFields(fields *extract.ExtractedFields) bool {
	if fields.Identifier == nil {
		return true
	}
	looksLikeID := fields.Identifier != nil ||
		(fields.DocTypeHint != nil && *fields.DocTypeHint == extract.DocTypeCivilID)
	if looksLikeID && (fields.BirthDate == nil || fields.ExpiryDate == nil || fields.Name == nil) {
		return true
	}
	return false
}

type variant struct {
	label string
	img   image.Image
}

// buildVariants produces the retry crops in a fixed order: banded crops that
// isolate the zones where each field is printed, detected card regions, and
// optionally the three remaining orientations.
func (p *Pipeline) buildVariants(img image.Image, withRotations bool) []variant {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	variants := []variant{{"original", img}}

	addCrop := func(label string, r image.Rectangle) {
		if r.Dx() >= 20 && r.Dy() >= 20 {
			variants = append(variants, variant{label, imaging.Crop(img, r)})
		}
	}

	addCrop("top60", image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+h*60/100))
	addCrop("top50", image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+h/2))
	addCrop("hmid80", image.Rect(bounds.Min.X+w*10/100, bounds.Min.Y, bounds.Max.X-w*10/100, bounds.Max.Y))
	addCrop("bottom60", image.Rect(bounds.Min.X, bounds.Min.Y+h*40/100, bounds.Max.X, bounds.Max.Y))

	for i, region := range preprocess.DetectCardRegions(img, maxCardRegions) {
		addCrop(fmt.Sprintf("region%d", i+1), region)
	}

	if withRotations {
		variants = append(variants,
			variant{"rotate90", imaging.Rotate90(img)},
			variant{"rotate180", imaging.Rotate180(img)},
			variant{"rotate270", imaging.Rotate270(img)},
		)
	}
	return variants
}

// evaluateVariant OCRs a variant twice, preprocessed and raw, and returns
// the better sub-candidate. Failures come back as warnings, never errors;
// one bad crop must not abort the run.
func (p *Pipeline) evaluateVariant(ctx context.Context, v variant) (*candidate, []string) {
	var warnings []string
	var winner *candidate

	passes := []struct {
		suffix string
		img    image.Image
	}{
		{"prep", preprocess.Prepare(v.img, p.cfg.MaxDeskewAngle).Image},
		{"raw", v.img},
	}

	for _, pass := range passes {
		source := v.label + "/" + pass.suffix
		result, err := p.engine.Run(ctx, pass.img)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("OCR retry %q failed: %v.", source, err))
			p.log.Warn("OCR retry failed", "source", source, "error", err)
			continue
		}
		c := &candidate{
			source: source,
			ocr:    result,
			fields: extract.Fields(result),
		}
		if winner == nil || better(c, winner) {
			winner = c
		}
	}
	return winner, warnings
}
