package sender

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+91 98765-43210", "919876543210"},
		{"9876543210", "9876543210"},
		{"(555) 010-9999", "5550109999"},
		{"", ""},
		{"no digits here", ""},
		{"001234567890123456789", "234567890123456"}, // capped at last 15
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckBlacklistedNumber(t *testing.T) {
	c := NewChecker(NewMemoryStore(DefaultEntries()))

	r := c.Check(context.Background(), "+919876543210")
	if !r.IsFlagged {
		t.Fatal("blacklisted number not flagged")
	}
	if r.RiskLevel != RiskHigh {
		t.Errorf("risk = %s, want high", r.RiskLevel)
	}
	if r.Status != "Fraud" {
		t.Errorf("status = %s, want Fraud", r.Status)
	}
	if r.Reports != 25 {
		t.Errorf("reports = %d, want 25", r.Reports)
	}
	if r.MatchCount != 1 {
		t.Errorf("match count = %d, want 1", r.MatchCount)
	}
}

func TestCheckSuffixMatchesBothDirections(t *testing.T) {
	c := NewChecker(NewMemoryStore(DefaultEntries()))

	// National format query against international-format record.
	r := c.Check(context.Background(), "9876543210")
	if !r.IsFlagged || r.RiskLevel != RiskHigh {
		t.Errorf("national-format query missed blacklist record: %+v", r)
	}

	// International query against a national-format record.
	c2 := NewChecker(NewMemoryStore([]Entry{{Number: "7777788888", Status: "Fraud", Reports: 3}}))
	r = c2.Check(context.Background(), "+917777788888")
	if !r.IsFlagged || r.RiskLevel != RiskHigh {
		t.Errorf("international-format query missed national record: %+v", r)
	}
}

func TestCheckSafeListedNumber(t *testing.T) {
	c := NewChecker(NewMemoryStore(DefaultEntries()))

	r := c.Check(context.Background(), "+911234567890")
	if r.IsFlagged {
		t.Error("safe-listed number must not be flagged")
	}
	if r.RiskLevel != RiskLow {
		t.Errorf("risk = %s, want low", r.RiskLevel)
	}
	if r.Status != "Safe" {
		t.Errorf("status = %s, want Safe", r.Status)
	}
}

func TestCheckStructuralHeuristics(t *testing.T) {
	c := NewChecker(NewMemoryStore(nil))

	tests := []struct {
		name       string
		identifier string
		wantRisk   RiskLevel
		wantFlag   bool
	}{
		{"too_short", "1111111", RiskMedium, true},
		{"repeated_digits", "1111111122", RiskMedium, true},
		{"alternating_digits", "1212121212", RiskMedium, true},
		{"plausible_number", "+14155552671", RiskLow, false},
		{"empty", "", RiskMedium, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Check(context.Background(), tt.identifier)
			if r.RiskLevel != tt.wantRisk {
				t.Errorf("risk = %s, want %s", r.RiskLevel, tt.wantRisk)
			}
			if r.IsFlagged != tt.wantFlag {
				t.Errorf("flagged = %v, want %v", r.IsFlagged, tt.wantFlag)
			}
		})
	}
}

func TestCheckMinimumDigitBoundary(t *testing.T) {
	// 7 digits is too short; 8 is the shortest plausible identifier.
	c := NewChecker(nil)

	r := c.Check(context.Background(), "1234567")
	if r.RiskLevel != RiskMedium || !r.IsFlagged {
		t.Errorf("7-digit identifier should grade medium, got %+v", r)
	}

	r = c.Check(context.Background(), "12345678")
	if r.RiskLevel != RiskLow || r.IsFlagged {
		t.Errorf("8-digit identifier should grade low, got %+v", r)
	}
}

func TestCheckShortBeatsRepeated(t *testing.T) {
	// "1111111" is both too short and all-repeated; the length check
	// comes first in the documented order.
	c := NewChecker(nil)
	r := c.Check(context.Background(), "1111111")
	if r.Reason != "identifier too short to be a valid subscriber number" {
		t.Errorf("reason = %q, want the too-short reason", r.Reason)
	}
}

type failingStore struct{}

func (failingStore) Lookup(context.Context, string) ([]Entry, error) {
	return nil, errors.New("store offline")
}

func TestCheckStoreFailureDegrades(t *testing.T) {
	c := NewChecker(failingStore{})

	r := c.Check(context.Background(), "+14155552671")
	if r.RiskLevel != RiskLow {
		t.Errorf("store failure must fall back to heuristics, got %+v", r)
	}
}

func TestLoadBlacklistMissingFile(t *testing.T) {
	s := LoadBlacklist(filepath.Join(t.TempDir(), "nope.yaml"))
	if s.Len() != 0 {
		t.Errorf("missing file must load as empty, got %d entries", s.Len())
	}
}

func TestLoadBlacklistFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.yaml")
	content := `entries:
  - number: "+919876543210"
    status: Fraud
    reports: 25
    last_reported: "2025-08-20"
  - number: "+911234567890"
    status: Safe
    reports: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := LoadBlacklist(path)
	if s.Len() != 2 {
		t.Fatalf("loaded %d entries, want 2", s.Len())
	}
	entries, err := s.Lookup(context.Background(), "919876543210")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Reports != 25 {
		t.Errorf("unexpected lookup result: %+v", entries)
	}
}

func TestLoadBlacklistMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("entries: [not: {valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := LoadBlacklist(path)
	if s.Len() != 0 {
		t.Errorf("malformed file must load as empty, got %d entries", s.Len())
	}
}
