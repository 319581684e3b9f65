package extract

import (
	"math"
	"time"
)

// identifierLength is the civil identifier length in digits.
const identifierLength = 12

// checksumWeights are the mod-11 weights applied to the first 11 digits.
var checksumWeights = [11]int{2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}

// CheckDigit computes the expected check digit for an 11-digit prefix.
// Prefixes whose weighted total yields an expected value outside 0..9 have
// no valid check digit and return ok=false.
func CheckDigit(prefix string) (int, bool) {
	if len(prefix) != identifierLength-1 || !isDigits(prefix) {
		return 0, false
	}
	total := 0
	for i := 0; i < len(prefix); i++ {
		total += int(prefix[i]-'0') * checksumWeights[i]
	}
	expected := 11 - total%11
	if expected < 0 || expected > 9 {
		return 0, false
	}
	return expected, true
}

// ChecksumValid reports whether the 12-digit identifier carries a valid
// check digit.
func ChecksumValid(identifier string) bool {
	if len(identifier) != identifierLength || !isDigits(identifier) {
		return false
	}
	expected, ok := CheckDigit(identifier[:identifierLength-1])
	return ok && expected == int(identifier[identifierLength-1]-'0')
}

// IdentifierBirthDate decodes the birth date embedded in digits 1-7 of the
// identifier (century marker + YYMMDD). Marker 2 maps to the 1900s, 3 to the
// 2000s; any other marker, an impossible calendar date, or a future date
// yields ok=false.
func IdentifierBirthDate(identifier string) (time.Time, bool) {
	if len(identifier) != identifierLength || !isDigits(identifier) {
		return time.Time{}, false
	}

	var year int
	switch identifier[0] {
	case '2':
		year = 1900
	case '3':
		year = 2000
	default:
		return time.Time{}, false
	}
	year += int(identifier[1]-'0')*10 + int(identifier[2]-'0')
	month := int(identifier[3]-'0')*10 + int(identifier[4]-'0')
	day := int(identifier[5]-'0')*10 + int(identifier[6]-'0')

	parsed, ok := makeDate(year, month, day)
	if !ok || parsed.After(today()) {
		return time.Time{}, false
	}
	return parsed, true
}

// makeDate builds a date and verifies the components are a real calendar
// date (time.Date silently normalizes overflow like month 13).
func makeDate(year, month, day int) (time.Time, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// birthPlausible is the loose 0..120-year sanity window used during
// candidate scoring; the validation engine applies the configured bounds.
func birthPlausible(value time.Time) bool {
	age := ageAt(value, today())
	return age >= 0 && age <= 120
}

// ageAt computes completed years between birth and ref.
func ageAt(birth, ref time.Time) int {
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

// scoreboard tracks the best score per candidate. Insertion order is kept so
// equal scores resolve to the first-seen candidate deterministically.
type scoreboard struct {
	scores map[string]float64
	order  []string
}

func newScoreboard() *scoreboard {
	return &scoreboard{scores: make(map[string]float64)}
}

func (b *scoreboard) push(candidate, line string, labeled, fromWindow bool, bonus float64) {
	if len(candidate) != identifierLength || !isDigits(candidate) {
		return
	}
	score := candidateScore(candidate, line, labeled, fromWindow) + bonus
	if current, seen := b.scores[candidate]; seen {
		if score > current {
			b.scores[candidate] = score
		}
		return
	}
	b.scores[candidate] = score
	b.order = append(b.order, candidate)
}

func (b *scoreboard) best() (string, bool) {
	bestScore := math.Inf(-1)
	best := ""
	for _, candidate := range b.order {
		if b.scores[candidate] > bestScore {
			best = candidate
			bestScore = b.scores[candidate]
		}
	}
	return best, best != ""
}

// candidateScore weighs structural evidence that a 12-digit sequence is the
// civil identifier rather than a serial number or phone number.
func candidateScore(candidate, line string, labeledContext, fromWindow bool) float64 {
	score := 0.0
	if labeledContext {
		score += 11.0
	}
	if hasIdentifierLabel(line) {
		score += 8.0
	}
	if !fromWindow {
		score += 0.8
	}
	if candidate[0] == '2' || candidate[0] == '3' {
		score += 1.0
	}

	if dob, ok := IdentifierBirthDate(candidate); ok {
		score += 2.0
		if birthPlausible(dob) {
			score += 2.0
		}
	}

	if ChecksumValid(candidate) {
		score += 7.0
	} else {
		score -= 2.0
	}

	return score
}

type lineCandidate struct {
	value      string
	fromWindow bool
}

// lineCandidates scans one line for 12-digit sequences. Runs longer than 12
// digits produce every 12-digit window, flagged as window-derived so exact
// runs score slightly higher.
func lineCandidates(line string) []lineCandidate {
	normalized := RecoverConfusableDigits(NormalizeDigits(line))

	var out []lineCandidate
	for _, run := range digitRuns(normalized) {
		if len(run) < identifierLength {
			continue
		}
		if len(run) == identifierLength {
			out = append(out, lineCandidate{run, false})
			continue
		}
		for i := 0; i+identifierLength <= len(run); i++ {
			out = append(out, lineCandidate{run[i : i+identifierLength], true})
		}
	}
	return out
}

// pickIdentifier chooses the most plausible civil identifier from the OCR
// lines, or returns nil when none is found.
func pickIdentifier(lines []string) *string {
	if len(lines) == 0 {
		return nil
	}

	// First pass: candidates near explicit identifier labels short-circuit
	// everything else.
	labeled := newScoreboard()
	for idx, line := range lines {
		if !hasIdentifierLabel(line) {
			continue
		}
		for j := idx; j < min(idx+3, len(lines)); j++ {
			for _, c := range lineCandidates(lines[j]) {
				labeled.push(c.value, lines[j], true, c.fromWindow, 2.0)
			}
			// In long merged runs near the label, the right-most 12 digits
			// usually are the identifier (serials print to its left).
			normalized := RecoverConfusableDigits(NormalizeDigits(lines[j]))
			for _, run := range digitRuns(normalized) {
				if len(run) >= identifierLength+1 {
					labeled.push(run[len(run)-identifierLength:], lines[j], true, true, 7.5)
				}
			}
		}
	}
	if best, ok := labeled.best(); ok {
		return &best
	}

	board := newScoreboard()

	for idx, line := range lines {
		for _, c := range lineCandidates(line) {
			board.push(c.value, line, false, c.fromWindow, 0)
		}

		if hasIdentifierLabel(line) {
			for j := idx; j < min(idx+3, len(lines)); j++ {
				for _, c := range lineCandidates(lines[j]) {
					board.push(c.value, lines[j], true, c.fromWindow, 0)
				}
			}
		}
	}

	// OCR can split the identifier's digits across consecutive lines;
	// reconstruct by concatenating digits until a digitless line breaks
	// the chain.
	for i := range lines {
		chunk := ""
		hasLabel := hasIdentifierLabel(lines[i])
		for j := i; j < min(i+4, len(lines)); j++ {
			segment := digitsOnly(RecoverConfusableDigits(NormalizeDigits(lines[j])))
			if segment == "" {
				break
			}
			chunk += segment
			if len(chunk) < identifierLength {
				continue
			}
			for k := 0; k+identifierLength <= len(chunk); k++ {
				board.push(chunk[k:k+identifierLength], lines[i], hasLabel, true, 0)
			}
		}
	}

	if best, ok := board.best(); ok {
		return &best
	}
	return nil
}
