package extract

import (
	"strings"
	"time"
)

// arabicDigits maps Arabic-Indic digits (U+0660..U+0669) to ASCII. The
// Arabic half of civil ID cards prints numbers with these glyphs and OCR
// returns them verbatim.
var arabicDigits = strings.NewReplacer(
	"٠", "0",
	"١", "1",
	"٢", "2",
	"٣", "3",
	"٤", "4",
	"٥", "5",
	"٦", "6",
	"٧", "7",
	"٨", "8",
	"٩", "9",
)

// confusableDigits maps glyphs OCR commonly mistakes for digits. Applied only
// when scanning for digit sequences; label matching must see the raw letters.
var confusableDigits = strings.NewReplacer(
	"O", "0",
	"o", "0",
	"I", "1",
	"l", "1",
	"|", "1",
	"S", "5",
)

// NormalizeDigits converts Arabic-Indic digits to ASCII digits.
func NormalizeDigits(text string) string {
	return arabicDigits.Replace(text)
}

// RecoverConfusableDigits additionally repairs letter-for-digit OCR confusions.
func RecoverConfusableDigits(text string) string {
	return confusableDigits.Replace(text)
}

// CleanLines normalizes OCR lines for extraction: Arabic-Indic digits become
// ASCII and surrounding whitespace is stripped. Empty lines are dropped.
func CleanLines(rawLines []string) []string {
	out := make([]string, 0, len(rawLines))
	for _, raw := range rawLines {
		if line := strings.TrimSpace(NormalizeDigits(raw)); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitRuns returns the maximal runs of ASCII digits in s, in order.
func digitRuns(s string) []string {
	var runs []string
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, s[start:])
	}
	return runs
}

// timeNow is swapped in tests that need a fixed clock.
var timeNow = time.Now

// today returns the current date at day granularity in UTC.
func today() time.Time {
	now := timeNow()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
