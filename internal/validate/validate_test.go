package validate

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/veridoc/idverify-worker/internal/extract"
)

func strPtr(s string) *string { return &s }

// validIdentifier generates an identifier embedding the given birth date with
// a serial picked so the check digit exists.
func validIdentifier(t *testing.T, year, month, day int) string {
	t.Helper()
	century := "2"
	if year >= 2000 {
		century = "3"
	}
	prefix := fmt.Sprintf("%s%02d%02d%02d", century, year%100, month, day)
	for serial := 0; serial < 10000; serial++ {
		first11 := prefix + fmt.Sprintf("%04d", serial)
		if check, ok := extract.CheckDigit(first11); ok {
			return first11 + fmt.Sprintf("%d", check)
		}
	}
	t.Fatalf("could not generate identifier for %04d-%02d-%02d", year, month, day)
	return ""
}

func fixedClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidateHappyPath(t *testing.T) {
	fixedClock(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	id := validIdentifier(t, 2003, 9, 16)
	fields := &extract.ExtractedFields{
		Identifier: &id,
		BirthDate:  strPtr("16/09/2003"),
		Name:       strPtr("Sara Al Rashid"),
	}
	result := Validate(fields, Options{
		ExpectedName: "Sara Al-Rashid",
		ExpectedDOB:  "2003-09-16",
		MinAgeYears:  16,
		MaxAgeYears:  110,
	})

	if !result.OverallPass {
		t.Fatalf("OverallPass = false, warnings: %v", result.Warnings)
	}
	for name, check := range map[string]*bool{
		"identifierFormatValid":   result.IdentifierFormatValid,
		"identifierChecksumValid": result.IdentifierChecksumValid,
		"identifierDobConsistent": result.IdentifierDOBConsistent,
		"dobPlausible":            result.DOBPlausible,
		"nameMatch":               result.NameMatch,
	} {
		if check == nil || !*check {
			t.Errorf("%s = %v, want true", name, check)
		}
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", result.Warnings)
	}
}

func TestValidateNoKeyFields(t *testing.T) {
	result := Validate(&extract.ExtractedFields{}, Options{MinAgeYears: 16, MaxAgeYears: 110})
	if result.OverallPass {
		t.Error("OverallPass = true, want false when nothing was extracted")
	}
	if !hasWarningContaining(result.Warnings, "No key fields") {
		t.Errorf("warnings = %v, want a no-key-fields warning", result.Warnings)
	}
	if result.IdentifierFormatValid != nil || result.NameMatch != nil {
		t.Error("checks should stay nil when their inputs are absent")
	}
}

func TestValidateBadFormat(t *testing.T) {
	fields := &extract.ExtractedFields{Identifier: strPtr("12345")}
	result := Validate(fields, Options{MinAgeYears: 16, MaxAgeYears: 110})

	if result.IdentifierFormatValid == nil || *result.IdentifierFormatValid {
		t.Error("identifierFormatValid should be false for a 5-digit value")
	}
	if result.IdentifierChecksumValid == nil || *result.IdentifierChecksumValid {
		t.Error("identifierChecksumValid should be false when format is invalid")
	}
	if result.OverallPass {
		t.Error("OverallPass = true, want false")
	}
	if !hasWarningContaining(result.Warnings, "format is invalid") {
		t.Errorf("warnings = %v, want a format warning", result.Warnings)
	}
}

func TestValidateChecksumFailureStillChecksConsistency(t *testing.T) {
	fixedClock(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	id := validIdentifier(t, 2003, 9, 16)
	mutated := id[:11] + string(byte('0'+(id[11]-'0'+1)%10))
	fields := &extract.ExtractedFields{
		Identifier: &mutated,
		BirthDate:  strPtr("16/09/2003"),
	}
	result := Validate(fields, Options{MinAgeYears: 16, MaxAgeYears: 110})

	if result.IdentifierChecksumValid == nil || *result.IdentifierChecksumValid {
		t.Error("identifierChecksumValid should be false for a mutated check digit")
	}
	if result.IdentifierDOBConsistent == nil || !*result.IdentifierDOBConsistent {
		t.Error("identifierDobConsistent should still be true when dates agree")
	}
	if result.OverallPass {
		t.Error("OverallPass = true, want false on checksum failure")
	}
	if !hasWarningContaining(result.Warnings, "checksum failed") {
		t.Errorf("warnings = %v, want a checksum warning", result.Warnings)
	}
}

func TestValidateDOBInconsistent(t *testing.T) {
	fixedClock(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	id := validIdentifier(t, 2003, 9, 16)
	fields := &extract.ExtractedFields{
		Identifier: &id,
		BirthDate:  strPtr("17/09/2003"),
	}
	result := Validate(fields, Options{MinAgeYears: 16, MaxAgeYears: 110})

	if result.IdentifierDOBConsistent == nil || *result.IdentifierDOBConsistent {
		t.Error("identifierDobConsistent should be false when dates disagree")
	}
	if result.OverallPass {
		t.Error("OverallPass = true, want false")
	}
	if !hasWarningContaining(result.Warnings, "does not match the date encoded") {
		t.Errorf("warnings = %v, want a consistency warning", result.Warnings)
	}
}

func TestValidateImplausibleDOB(t *testing.T) {
	fixedClock(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	fields := &extract.ExtractedFields{
		BirthDate: strPtr("01/01/2015"),
		Name:      strPtr("Sara Al Rashid"),
	}
	result := Validate(fields, Options{MinAgeYears: 16, MaxAgeYears: 110})

	if result.DOBPlausible == nil || *result.DOBPlausible {
		t.Error("dobPlausible should be false for an 11-year-old holder")
	}
	if result.OverallPass {
		t.Error("OverallPass = true, want false")
	}
	if !hasWarningContaining(result.Warnings, "plausibility") {
		t.Errorf("warnings = %v, want a plausibility warning", result.Warnings)
	}
}

func TestValidateNameMismatch(t *testing.T) {
	fixedClock(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	id := validIdentifier(t, 1999, 4, 12)
	fields := &extract.ExtractedFields{
		Identifier: &id,
		BirthDate:  strPtr("12/04/1999"),
		Name:       strPtr("Sara Al Rashid"),
	}
	result := Validate(fields, Options{
		ExpectedName: "John Smith",
		MinAgeYears:  16,
		MaxAgeYears:  110,
	})

	if result.NameMatch == nil || *result.NameMatch {
		t.Error("nameMatch should be false for unrelated names")
	}
	if result.OverallPass {
		t.Error("OverallPass = true, want false")
	}
	if !hasWarningContaining(result.Warnings, "Name similarity is low") {
		t.Errorf("warnings = %v, want a similarity warning", result.Warnings)
	}
}

func TestValidateExpectedDOBContradictsIdentifier(t *testing.T) {
	fixedClock(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	id := validIdentifier(t, 2003, 9, 16)
	fields := &extract.ExtractedFields{Identifier: &id}
	result := Validate(fields, Options{
		ExpectedDOB: "1999-04-12",
		MinAgeYears: 16,
		MaxAgeYears: 110,
	})

	if !hasWarningContaining(result.Warnings, "Expected birth date does not match") {
		t.Errorf("warnings = %v, want an expected-DOB warning", result.Warnings)
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name      string
		expected  string
		extracted string
		min, max  float64
	}{
		{"identical", "Sara Al Rashid", "Sara Al Rashid", 1.0, 1.0},
		{"spelling variant", "Mohammed Al Ahmad", "Mohamad Al-Ahmad", 0.7, 1.0},
		{"case and punctuation", "SARA AL-RASHID", "sara al rashid", 1.0, 1.0},
		{"reordered tokens", "Al Rashid Sara", "Sara Al Rashid", 1.0, 1.0},
		{"unrelated", "John Smith", "Sara Al Rashid", 0.0, 0.5},
		{"empty extracted", "John Smith", "", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := NameSimilarity(tt.expected, tt.extracted)
			if score < tt.min || score > tt.max {
				t.Errorf("NameSimilarity(%q, %q) = %v, want in [%v, %v]",
					tt.expected, tt.extracted, score, tt.min, tt.max)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Sara   Al-Rashid ", "sara al rashid"},
		{"MOHAMMED", "mohammed"},
		{"محمد الأحمد", "محمد الأحمد"},
	}
	for _, tt := range tests {
		if got := normalizeName(tt.in); got != tt.want {
			t.Errorf("normalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFlexibleDate(t *testing.T) {
	want := time.Date(2003, time.September, 16, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{"2003-09-16", "16/09/2003", "16-09-2003", "2003/09/16"} {
		got, ok := parseFlexibleDate(&value)
		if !ok || !got.Equal(want) {
			t.Errorf("parseFlexibleDate(%q) = %v, %v", value, got, ok)
		}
	}
	if _, ok := parseFlexibleDate(strPtr("September 16th")); ok {
		t.Error("free-form date unexpectedly parsed")
	}
	if _, ok := parseFlexibleDate(nil); ok {
		t.Error("nil date unexpectedly parsed")
	}
}
