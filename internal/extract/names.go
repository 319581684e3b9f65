package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	// Letters that may appear in a name: Latin plus the Arabic block.
	nonNameCharRe = regexp.MustCompile(`[^A-Za-z\x{0600}-\x{06FF}]`)

	// English name labels, longest first, so "customer name" strips before "name".
	nameLabelsENByLength = func() []string {
		labels := append([]string(nil), nameLabelsEN...)
		sort.Slice(labels, func(i, j int) bool { return len(labels[i]) > len(labels[j]) })
		return labels
	}()
)

// looksLikeFieldLabel rejects values that are actually another field's label
// that slipped past name-label stripping.
func looksLikeFieldLabel(value string) bool {
	compact := letterCompact(value)
	for _, token := range []string{
		"birthdate", "dateofbirth", "dob", "expiry", "expiration",
		"civilid", "civilnumber", "idnumber", "serial",
	} {
		if strings.Contains(compact, token) {
			return true
		}
	}
	return false
}

func cleanNameValue(value string) string {
	value = strings.Trim(value, ": -\t")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " "))
}

// cleanNameTokens keeps only letter content per token and requires at least
// two tokens, since single words are rarely a usable full name.
func cleanNameTokens(value string) string {
	parts := strings.Fields(value)
	if len(parts) < 2 {
		return ""
	}
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := nonNameCharRe.ReplaceAllString(part, ""); token != "" {
			cleaned = append(cleaned, token)
		}
	}
	return strings.TrimSpace(strings.Join(cleaned, " "))
}

// nameScore rates how name-like a line is: mostly letters, a healthy letter
// count, few digits, and none of the other fields' vocabulary.
func nameScore(line string) float64 {
	runes := []rune(line)
	if len(runes) < 3 {
		return -1.0
	}
	lowered := strings.ToLower(line)
	for _, token := range []string{"birth", "dob", "expiry", "expiration", "civil id", "serial", "date"} {
		if strings.Contains(lowered, token) {
			return -1.0
		}
	}

	alpha := 0
	digits := 0
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			alpha++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if alpha == 0 {
		return -1.0
	}

	ratio := float64(alpha) / float64(len(runes))
	return ratio + float64(min(alpha, 36))/80.0 - float64(digits)*0.1
}

// labeledNameCandidates extracts names from explicitly labeled lines: first
// the value on the label's own line, then (only if that found nothing) the
// next lines below each label.
func labeledNameCandidates(lines []string) []string {
	var candidates []string

	for _, line := range lines {
		if !hasNameLabel(line) {
			continue
		}

		value := line
		lowered := strings.ToLower(line)
		for _, label := range nameLabelsENByLength {
			if pos := strings.Index(lowered, label); pos != -1 {
				value = line[pos+len(label):]
				break
			}
		}
		for _, label := range nameLabelsAR {
			value = strings.ReplaceAll(value, label, "")
		}

		value = cleanNameTokens(cleanNameValue(value))
		if value != "" && !looksLikeFieldLabel(value) && nameScore(value) > 0.6 {
			candidates = append(candidates, value)
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	// The label line had no usable value; the next line often holds the name.
	for idx, line := range lines {
		if !hasNameLabel(line) {
			continue
		}
		for j := idx + 1; j < min(idx+3, len(lines)); j++ {
			next := cleanNameTokens(cleanNameValue(lines[j]))
			if hasNameLabel(next) || looksLikeFieldLabel(next) {
				continue
			}
			if nameScore(next) > 0.75 {
				candidates = append(candidates, next)
				break
			}
		}
	}
	return candidates
}

// pickName returns the primary name and the ranked candidate list. Without
// any labeled hit, the most name-like lines (up to three) are kept as-is.
func pickName(lines []string) (*string, []string) {
	candidates := labeledNameCandidates(lines)

	if len(candidates) == 0 {
		type scored struct {
			line  string
			score float64
		}
		all := make([]scored, 0, len(lines))
		for _, line := range lines {
			all = append(all, scored{line, nameScore(line)})
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
		for _, s := range all {
			if s.score > 0.55 && len(candidates) < 3 {
				candidates = append(candidates, s.line)
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], candidates
}
