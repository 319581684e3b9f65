package extract

import (
	"strings"

	"github.com/veridoc/idverify-worker/internal/ocr"
)

// Document type hints inferred from the OCR text.
const (
	DocTypeCivilID       = "civil_id"
	DocTypeBankStatement = "bank_statement"
)

// ExtractedFields is the structured extraction output. Absent fields are nil
// and marshal to JSON null.
type ExtractedFields struct {
	Identifier     *string  `json:"identifier"`
	BirthDate      *string  `json:"birthDate"`
	ExpiryDate     *string  `json:"expiryDate"`
	Name           *string  `json:"name"`
	DocTypeHint    *string  `json:"docTypeHint"`
	CandidateNames []string `json:"candidateNames"`
	RawLines       []string `json:"rawLines"`
}

// Fields extracts all identity fields from one OCR result.
func Fields(result *ocr.Result) *ExtractedFields {
	lines := CleanLines(result.LineTexts())

	fullText := strings.Join(lines, "\n")
	if len(lines) == 0 {
		fullText = strings.TrimSpace(NormalizeDigits(result.FullText))
	}

	identifier := pickIdentifier(lines)
	birthDate, expiryDate := pickDates(lines, identifier)
	name, candidates := pickName(lines)

	return &ExtractedFields{
		Identifier:     identifier,
		BirthDate:      birthDate,
		ExpiryDate:     expiryDate,
		Name:           name,
		DocTypeHint:    docTypeHint(fullText),
		CandidateNames: candidates,
		RawLines:       lines,
	}
}

// docTypeHint guesses the document class from label vocabulary.
func docTypeHint(fullText string) *string {
	text := strings.ToLower(fullText)
	if strings.Contains(text, "civil id") ||
		strings.Contains(text, "البطاقة المدنية") ||
		strings.Contains(text, "بطاقة مدنية") {
		hint := DocTypeCivilID
		return &hint
	}
	if strings.Contains(text, "statement") || strings.Contains(text, "bank") ||
		strings.Contains(text, "كشف حساب") {
		hint := DocTypeBankStatement
		return &hint
	}
	return nil
}
