package main

import (
	"testing"

	"ContentBriefs/internal/domain"
)

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		result domain.BatchResult
		want   string
	}{
		{"failed", domain.BatchResult{Status: domain.ResultError, Error: "quota"}, "error"},
		{"clean", domain.BatchResult{Status: domain.ResultSuccess, Document: &domain.BriefDocument{}}, "success"},
		{"warnings only", domain.BatchResult{Status: domain.ResultSuccess, Document: &domain.BriefDocument{
			Violations: []domain.Violation{{Kind: domain.ViolationWarning, Message: "w"}},
		}}, "success"},
		{"blocking", domain.BatchResult{Status: domain.ResultSuccess, Document: &domain.BriefDocument{
			Violations: []domain.Violation{{Kind: domain.ViolationWarning, Message: "w"}, {Kind: domain.ViolationError, Message: "e"}},
		}}, "success (needs review)"},
	}

	for _, tc := range cases {
		if got := statusLabel(tc.result); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
