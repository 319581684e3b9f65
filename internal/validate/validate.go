package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/veridoc/idverify-worker/internal/extract"
)

// nameMatchThreshold is the similarity score at or above which two names are
// considered the same person.
const nameMatchThreshold = 0.84

var (
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Options configures a validation run.
type Options struct {
	ExpectedName string
	ExpectedDOB  string
	MinAgeYears  int
	MaxAgeYears  int
}

// Result reports per-check outcomes. Tri-state checks are nil when the
// inputs needed to run them were absent.
type Result struct {
	IdentifierFormatValid   *bool    `json:"identifierFormatValid"`
	IdentifierChecksumValid *bool    `json:"identifierChecksumValid"`
	IdentifierDOBConsistent *bool    `json:"identifierDobConsistent"`
	DOBPlausible            *bool    `json:"dobPlausible"`
	NameSimilarityScore     *float64 `json:"nameSimilarityScore"`
	NameMatch               *bool    `json:"nameMatch"`
	OverallPass             bool     `json:"overallPass"`
	Warnings                []string `json:"warnings"`
}

// timeNow is swapped in tests that need a fixed clock.
var timeNow = time.Now

// Validate runs all applicable checks over the extracted fields.
func Validate(fields *extract.ExtractedFields, opts Options) *Result {
	out := &Result{Warnings: []string{}}

	noKeyFields := fields.Identifier == nil && fields.BirthDate == nil && fields.Name == nil
	if noKeyFields {
		out.Warnings = append(out.Warnings, "No key fields were extracted from OCR output.")
	}

	if fields.Identifier != nil {
		identifier := *fields.Identifier
		formatValid := len(identifier) == 12 && isDigits(identifier)
		out.IdentifierFormatValid = &formatValid

		if formatValid {
			checksumValid := extract.ChecksumValid(identifier)
			out.IdentifierChecksumValid = &checksumValid
			if !checksumValid {
				out.Warnings = append(out.Warnings, "Identifier checksum failed.")
			}

			// The embedded birth date stays usable for consistency checks
			// even when the checksum fails; that failure already blocks the
			// overall pass on its own.
			embeddedDOB, haveEmbedded := extract.IdentifierBirthDate(identifier)
			extractedDOB, haveExtracted := parseFlexibleDate(fields.BirthDate)
			expectedDOB, haveExpected := parseFlexibleDate(optional(opts.ExpectedDOB))

			if haveExtracted && haveEmbedded {
				consistent := extractedDOB.Equal(embeddedDOB)
				out.IdentifierDOBConsistent = &consistent
				if !consistent {
					out.Warnings = append(out.Warnings, "Birth date from OCR does not match the date encoded in the identifier.")
				}
			}

			if haveExpected && haveEmbedded && !expectedDOB.Equal(embeddedDOB) {
				out.Warnings = append(out.Warnings, "Expected birth date does not match the date encoded in the identifier.")
			}
		} else {
			checksumValid := false
			out.IdentifierChecksumValid = &checksumValid
			out.Warnings = append(out.Warnings, "Identifier format is invalid (must be 12 digits).")
		}
	}

	dob, haveDOB := parseFlexibleDate(fields.BirthDate)
	if !haveDOB {
		dob, haveDOB = parseFlexibleDate(optional(opts.ExpectedDOB))
	}
	if haveDOB {
		plausible := plausibleDOB(dob, opts.MinAgeYears, opts.MaxAgeYears)
		out.DOBPlausible = &plausible
		if !plausible {
			out.Warnings = append(out.Warnings, "Birth date failed plausibility checks.")
		}
	}

	if opts.ExpectedName != "" && fields.Name != nil {
		score := NameSimilarity(opts.ExpectedName, *fields.Name)
		match := score >= nameMatchThreshold
		out.NameSimilarityScore = &score
		out.NameMatch = &match
		if !match {
			out.Warnings = append(out.Warnings, fmt.Sprintf("Name similarity is low (%.2f).", score))
		}
	}

	out.OverallPass = !noKeyFields &&
		!isFalse(out.IdentifierFormatValid) &&
		!(fields.Identifier != nil && isFalse(out.IdentifierChecksumValid)) &&
		!isFalse(out.IdentifierDOBConsistent) &&
		!isFalse(out.DOBPlausible) &&
		!isFalse(out.NameMatch)
	return out
}

// NameSimilarity scores two names in [0, 1], rounded to 4 decimals. The
// score is the best of full-string, token-set and partial fuzzy ratios, so
// reordered tokens and missing middle names still match well.
func NameSimilarity(expected, extracted string) float64 {
	left := normalizeName(expected)
	right := normalizeName(extracted)
	if left == "" || right == "" {
		return 0.0
	}

	score := fuzzy.Ratio(left, right)
	if v := fuzzy.TokenSetRatio(left, right); v > score {
		score = v
	}
	if v := fuzzy.PartialRatio(left, right); v > score {
		score = v
	}
	return math.Round(float64(score)/100.0*10000) / 10000
}

// normalizeName canonicalizes a name for comparison: NFKC, case folding,
// punctuation to spaces, collapsed whitespace.
func normalizeName(name string) string {
	text := norm.NFKC.String(name)
	text = cases.Fold().String(strings.TrimSpace(text))
	text = punctRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// parseFlexibleDate accepts the formats seen in extracted and caller-supplied
// dates.
func parseFlexibleDate(value *string) (time.Time, bool) {
	if value == nil || *value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006", "2006/01/02"} {
		if t, err := time.Parse(layout, *value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func plausibleDOB(dob time.Time, minAge, maxAge int) bool {
	now := timeNow()
	todayDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if dob.After(todayDate) {
		return false
	}
	age := todayDate.Year() - dob.Year()
	if todayDate.Month() < dob.Month() || (todayDate.Month() == dob.Month() && todayDate.Day() < dob.Day()) {
		age--
	}
	return age >= minAge && age <= maxAge
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isFalse(b *bool) bool {
	return b != nil && !*b
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
