package usecase

import (
	"testing"
	"time"
)

func TestParseDocumentDatePrecedence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-03-14", "2026-03-14"},
		// Ambiguous slash dates resolve month-first.
		{"03/04/2026", "2026-03-04"},
		// Day-first only applies when the leading component is not a month.
		{"25/12/2026", "2026-12-25"},
		{"January 2, 2026", "2026-01-02"},
		{"02-Jan-2026", "2026-01-02"},
	}
	for _, tc := range cases {
		got := parseDocumentDate(tc.in)
		if got == nil {
			t.Errorf("parseDocumentDate(%q) = nil", tc.in)
			continue
		}
		if s := got.Format(time.DateOnly); s != tc.want {
			t.Errorf("parseDocumentDate(%q) = %s, want %s", tc.in, s, tc.want)
		}
	}
}

func TestParseDocumentDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "next Tuesday", "13/13/2026"} {
		if got := parseDocumentDate(in); got != nil {
			t.Errorf("parseDocumentDate(%q) = %v, want nil", in, got)
		}
	}
}
