package extract

import (
	"regexp"
	"strings"
)

// Label vocabularies for the bilingual (English/Arabic) card layouts.
var (
	identifierLabelsEN = []string{"civil id", "civilid", "id number", "id no", "civil"}
	identifierLabelsAR = []string{"الرقم المدني", "رقم مدني", "البطاقة المدنية"}

	birthLabelsEN = []string{"dob", "date of birth", "birth date", "birth"}
	birthLabelsAR = []string{"تاريخ الميلاد", "ميلاد"}

	expiryLabelsEN = []string{"expiry", "expiry date", "expiration", "expiration date", "exp date", "valid until"}
	expiryLabelsAR = []string{"تاريخ الانتهاء", "الانتهاء"}

	nameLabelsEN = []string{"name", "full name", "customer name", "account holder"}
	nameLabelsAR = []string{"الاسم", "الاسم الكامل", "اسم العميل", "اسم صاحب الحساب"}
)

var (
	idShorthandRe = regexp.MustCompile(`\bid(?:\s*no|\s*number|[:#])`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	nonLowerRe    = regexp.MustCompile(`[^a-z]`)
)

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// letterCompact lowercases and strips everything but a-z, so labels survive
// OCR-injected punctuation and spacing ("Date of B!rth" loses the noise).
func letterCompact(line string) string {
	return nonLowerRe.ReplaceAllString(strings.ToLower(line), "")
}

func hasIdentifierLabel(line string) bool {
	lowered := strings.ToLower(line)
	if containsAny(lowered, identifierLabelsEN) {
		return true
	}
	if strings.Contains(whitespaceRe.ReplaceAllString(lowered, ""), "civilid") {
		return true
	}
	if idShorthandRe.MatchString(lowered) {
		return true
	}
	return containsAny(line, identifierLabelsAR)
}

func hasBirthLabel(line string) bool {
	lowered := strings.ToLower(line)
	if containsAny(lowered, birthLabelsEN) {
		return true
	}
	compact := letterCompact(line)
	if strings.Contains(compact, "dateofbirth") || strings.Contains(compact, "birthdate") || strings.Contains(compact, "dob") {
		return true
	}
	return containsAny(line, birthLabelsAR)
}

func hasExpiryLabel(line string) bool {
	lowered := strings.ToLower(line)
	if containsAny(lowered, expiryLabelsEN) {
		return true
	}
	compact := letterCompact(line)
	if strings.Contains(compact, "expiry") || strings.Contains(compact, "expiration") ||
		strings.Contains(compact, "validuntil") || strings.Contains(compact, "validtill") {
		return true
	}
	// Split labels: "ex" on one fragment, "piry Date" on the next.
	if strings.Contains(compact, "date") {
		for _, tok := range []string{"exp", "piy", "iry", "piry"} {
			if strings.Contains(compact, tok) {
				return true
			}
		}
	}
	return containsAny(line, expiryLabelsAR)
}

func hasNameLabel(line string) bool {
	lowered := strings.ToLower(line)
	return containsAny(lowered, nameLabelsEN) || containsAny(line, nameLabelsAR)
}

// hasLabelInContext also checks the label joined with the previous or next
// line, catching labels OCR split across line boundaries.
func hasLabelInContext(lines []string, idx int, checker func(string) bool) bool {
	if checker(lines[idx]) {
		return true
	}
	if idx > 0 && checker(lines[idx-1]+" "+lines[idx]) {
		return true
	}
	if idx+1 < len(lines) && checker(lines[idx]+" "+lines[idx+1]) {
		return true
	}
	return false
}
