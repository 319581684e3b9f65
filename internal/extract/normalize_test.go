package extract

import (
	"reflect"
	"testing"
)

func TestNormalizeDigits(t *testing.T) {
	if got := NormalizeDigits("٣٠٠٠١٠١٢١٢٣٤"); got != "300010121234" {
		t.Errorf("NormalizeDigits = %q, want ASCII digits", got)
	}
	if got := NormalizeDigits("mixed ١٢3"); got != "mixed 123" {
		t.Errorf("NormalizeDigits = %q, want %q", got, "mixed 123")
	}
}

func TestRecoverConfusableDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3O3O91600084", "303091600084"},
		{"AlonAIzI", "A1onA1z1"},
		{"S|l", "511"},
		{"already 123", "already 123"},
	}
	for _, tt := range tests {
		if got := RecoverConfusableDigits(tt.in); got != tt.want {
			t.Errorf("RecoverConfusableDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanLines(t *testing.T) {
	got := CleanLines([]string{"  Civil ID ٣٠٠  ", "", "   ", "ok"})
	want := []string{"Civil ID 300", "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CleanLines = %v, want %v", got, want)
	}
}

func TestDigitRuns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a12b345", []string{"12", "345"}},
		{"303091600084", []string{"303091600084"}},
		{"no digits", nil},
		{"7", []string{"7"}},
	}
	for _, tt := range tests {
		if got := digitRuns(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("digitRuns(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLabelDetection(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		checker func(string) bool
		want    bool
	}{
		{"civil english", "Civil ID: 123", hasIdentifierLabel, true},
		{"id shorthand", "ID No 123", hasIdentifierLabel, true},
		{"civil arabic", "الرقم المدني", hasIdentifierLabel, true},
		{"not civil", "serial 123", hasIdentifierLabel, false},
		{"dob compact", "DateOfBirth", hasBirthLabel, true},
		{"dob arabic", "تاريخ الميلاد", hasBirthLabel, true},
		{"expiry split fragment", "piy Date", hasExpiryLabel, true},
		{"expiry arabic", "تاريخ الانتهاء", hasExpiryLabel, true},
		{"plain date is not expiry", "Date 16/09/2028", hasExpiryLabel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checker(tt.line); got != tt.want {
				t.Errorf("label check on %q = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
