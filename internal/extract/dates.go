package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dateRe    = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})\b`)
	mrzPairRe = regexp.MustCompile(`[A-Z]([0-9]{6})[A-Z]([0-9]{6})`)
)

// dateOutputLayout is the wire format for extracted dates.
const dateOutputLayout = "02/01/2006"

type dateCandidate struct {
	value             time.Time
	lineIndex         int
	hasBirthLabel     bool
	hasExpiryLabel    bool
	directBirthLabel  bool
	directExpiryLabel bool
	raw               string
}

// parseDayMonthYear resolves D/M/Y tokens into a date. Two-digit years pivot
// on the current year; the accepted range is [1900, now] or thirty years out
// when allowFuture is set.
func parseDayMonthYear(dayS, monthS, yearS string, allowFuture bool) (time.Time, bool) {
	day, _ := strconv.Atoi(dayS)
	month, _ := strconv.Atoi(monthS)
	year, _ := strconv.Atoi(yearS)

	now := today()
	if year < 100 {
		if year <= now.Year()%100 {
			year += 2000
		} else {
			year += 1900
		}
	}

	maxYear := now.Year()
	if allowFuture {
		maxYear += 30
	}
	if year < 1900 || year > maxYear {
		return time.Time{}, false
	}

	parsed, ok := makeDate(year, month, day)
	if !ok {
		return time.Time{}, false
	}
	if !allowFuture && parsed.After(now) {
		return time.Time{}, false
	}
	return parsed, true
}

// parseYYMMDD resolves an MRZ-style 6-digit date. The two-digit year pivot
// leans 15 years into the future so unexpired documents map correctly.
func parseYYMMDD(token string, allowFuture bool) (time.Time, bool) {
	if len(token) != 6 || !isDigits(token) {
		return time.Time{}, false
	}
	yy, _ := strconv.Atoi(token[0:2])
	month, _ := strconv.Atoi(token[2:4])
	day, _ := strconv.Atoi(token[4:6])

	now := today()
	year := 1900 + yy
	if yy <= now.Year()%100+15 {
		year = 2000 + yy
	}

	maxYear := now.Year()
	if allowFuture {
		maxYear += 30
	}
	if year < 1900 || year > maxYear {
		return time.Time{}, false
	}

	parsed, ok := makeDate(year, month, day)
	if !ok {
		return time.Time{}, false
	}
	if !allowFuture && parsed.After(now) {
		return time.Time{}, false
	}
	return parsed, true
}

func collectDateCandidates(lines []string) []dateCandidate {
	var out []dateCandidate
	for idx, raw := range lines {
		line := NormalizeDigits(raw)
		directBirth := hasBirthLabel(line)
		directExpiry := hasExpiryLabel(line)
		contextBirth := hasLabelInContext(lines, idx, hasBirthLabel)
		contextExpiry := hasLabelInContext(lines, idx, hasExpiryLabel)

		for _, m := range dateRe.FindAllStringSubmatch(line, -1) {
			if dt, ok := parseDayMonthYear(m[1], m[2], m[3], true); ok {
				out = append(out, dateCandidate{dt, idx, contextBirth, contextExpiry, directBirth, directExpiry, m[0]})
			}
		}

		// Separator-free DDMMYYYY is noisy; accept it only on labeled lines
		// and only when the line's digits form exactly one 8-digit group.
		if contextBirth || contextExpiry {
			digits := digitsOnly(line)
			if len(digits) == 8 {
				if dt, ok := parseDayMonthYear(digits[0:2], digits[2:4], digits[4:8], true); ok {
					out = append(out, dateCandidate{dt, idx, contextBirth, contextExpiry, directBirth, directExpiry, digits})
				}
			}
		}
	}
	return out
}

// pickDates resolves birth and expiry dates from the OCR lines, preferring
// the identifier-embedded birth date when one decodes. Outputs are formatted
// DD/MM/YYYY; either may be nil.
func pickDates(lines []string, identifier *string) (birthOut, expiryOut *string) {
	candidates := collectDateCandidates(lines)

	var birth time.Time
	haveBirth := false
	birthLineIndex := -1

	if identifier != nil {
		if decoded, ok := IdentifierBirthDate(*identifier); ok {
			birth = decoded
			haveBirth = true
			for _, c := range candidates {
				if c.value.Equal(decoded) {
					birthLineIndex = c.lineIndex
					break
				}
			}
		}
	}

	if !haveBirth {
		pools := []func(dateCandidate) bool{
			func(c dateCandidate) bool { return c.directBirthLabel && birthPlausible(c.value) },
			func(c dateCandidate) bool { return c.hasBirthLabel && birthPlausible(c.value) },
			func(c dateCandidate) bool { return birthPlausible(c.value) },
		}
		for _, keep := range pools {
			for _, c := range candidates {
				if keep(c) {
					birth = c.value
					haveBirth = true
					birthLineIndex = c.lineIndex
					break
				}
			}
			if haveBirth {
				break
			}
		}
	}

	pickExpiry := func(pool []dateCandidate) (time.Time, bool) {
		if len(pool) == 0 {
			return time.Time{}, false
		}
		// For ID documents the expiry follows the birth date when known.
		if haveBirth {
			if v, ok := latest(filterCandidates(pool, func(c dateCandidate) bool { return c.value.After(birth) })); ok {
				return v, true
			}
			if v, ok := latest(filterCandidates(pool, func(c dateCandidate) bool { return !c.value.Equal(birth) })); ok {
				return v, true
			}
		}
		return latest(pool)
	}

	expiry, haveExpiry := pickExpiry(filterCandidates(candidates, func(c dateCandidate) bool { return c.directExpiryLabel }))
	if !haveExpiry {
		expiry, haveExpiry = pickExpiry(filterCandidates(candidates, func(c dateCandidate) bool { return c.hasExpiryLabel }))
	}
	if !haveExpiry && haveBirth {
		expiry, haveExpiry = pickExpiry(filterCandidates(candidates, func(c dateCandidate) bool {
			return c.value.After(birth) && (birthLineIndex < 0 || c.lineIndex >= birthLineIndex)
		}))
	}
	if !haveExpiry && haveBirth {
		expiry, haveExpiry = pickExpiry(filterCandidates(candidates, func(c dateCandidate) bool { return c.value.After(birth) }))
	}
	if !haveExpiry && len(candidates) > 0 {
		// Resilient fallback: the latest visible date.
		for _, c := range candidates {
			if !haveExpiry || c.value.After(expiry) {
				expiry = c.value
				haveExpiry = true
			}
		}
	}

	if !haveExpiry {
		// MRZ-like compact lines carry a letter-separated YYMMDD pair,
		// e.g. "...D309161M220916...".
		for _, raw := range lines {
			normalized := strings.ToUpper(RecoverConfusableDigits(NormalizeDigits(raw)))
			for _, m := range mrzPairRe.FindAllStringSubmatch(normalized, -1) {
				mrzBirth, birthOK := parseYYMMDD(m[1], false)
				mrzExpiry, expiryOK := parseYYMMDD(m[2], true)

				if !haveBirth && birthOK && birthPlausible(mrzBirth) {
					birth = mrzBirth
					haveBirth = true
					birthLineIndex = 0
				}

				if expiryOK && (!haveBirth || mrzExpiry.After(birth)) {
					expiry = mrzExpiry
					haveExpiry = true
					break
				}
			}
			if haveExpiry {
				break
			}
		}
	}

	if haveBirth {
		s := birth.Format(dateOutputLayout)
		birthOut = &s
	}
	if haveExpiry {
		s := expiry.Format(dateOutputLayout)
		expiryOut = &s
	}
	return birthOut, expiryOut
}

func filterCandidates(pool []dateCandidate, keep func(dateCandidate) bool) []dateCandidate {
	var out []dateCandidate
	for _, c := range pool {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// latest returns the pool's maximum by (value, lineIndex).
func latest(pool []dateCandidate) (time.Time, bool) {
	if len(pool) == 0 {
		return time.Time{}, false
	}
	best := pool[0]
	for _, c := range pool[1:] {
		if c.value.After(best.value) || (c.value.Equal(best.value) && c.lineIndex > best.lineIndex) {
			best = c
		}
	}
	return best.value, true
}
