package extract

import "testing"

func TestNameScore(t *testing.T) {
	tests := []struct {
		name string
		line string
		min  float64
		max  float64
	}{
		{"clean latin name", "AHMED F A ALONAIZI", 0.75, 2.0},
		{"too short", "AB", -1.0, -1.0},
		{"field vocabulary", "Date of Birth", -1.0, -1.0},
		{"serial line", "serial 48303", -1.0, -1.0},
		{"digit heavy", "a1 2345 6789 01", -2.0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := nameScore(tt.line)
			if score < tt.min || score > tt.max {
				t.Errorf("nameScore(%q) = %v, want in [%v, %v]", tt.line, score, tt.min, tt.max)
			}
		})
	}
}

func TestCleanNameTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Doe", "John Doe"},
		{"  John   Doe  ", "John Doe"},
		{"John", ""},
		{"J0hn D*oe", "Jhn Doe"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanNameTokens(tt.in); got != tt.want {
			t.Errorf("cleanNameTokens(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLabeledNameStripsLongestLabelFirst(t *testing.T) {
	name, _ := pickName([]string{"Customer Name: Sara Al Rashid"})
	if name == nil || *name != "Sara Al Rashid" {
		t.Fatalf("name = %v, want %q", deref(name), "Sara Al Rashid")
	}
}

func TestPickNameArabicLabel(t *testing.T) {
	name, _ := pickName([]string{"الاسم: محمد الأحمد"})
	if name == nil || *name != "محمد الأحمد" {
		t.Fatalf("name = %v, want Arabic name value", deref(name))
	}
}

func TestPickNameFallbackRanksAllLines(t *testing.T) {
	lines := []string{
		"123456789012",
		"SARA AL RASHID",
		"GULF CITY",
	}
	name, candidates := pickName(lines)
	if name == nil {
		t.Fatal("name = nil, want fallback candidate")
	}
	if *name != "SARA AL RASHID" {
		t.Errorf("name = %q, want the most name-like line", *name)
	}
	if len(candidates) == 0 || len(candidates) > 3 {
		t.Errorf("candidates = %v, want 1..3 entries", candidates)
	}
}

func TestPickNameNoneFound(t *testing.T) {
	name, candidates := pickName([]string{"1234", "5678"})
	if name != nil {
		t.Errorf("name = %q, want nil", *name)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %v, want none", candidates)
	}
}
