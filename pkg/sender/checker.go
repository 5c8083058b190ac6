// Package sender scores sender identifiers (phone numbers, shortcodes)
// against a blacklist plus structural heuristics. It mirrors the message
// scorer's philosophy: total functions, conservative fallbacks, and a
// data source that may vanish without breaking the check.
package sender

import (
	"context"
	"log"
	"strings"
)

// RiskLevel grades a sender identifier.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Entry is one blacklist record.
type Entry struct {
	Number       string `json:"number" yaml:"number"`
	Status       string `json:"status" yaml:"status"` // Fraud, Safe or Unknown
	Reports      int    `json:"reports" yaml:"reports"`
	LastReported string `json:"last_reported,omitempty" yaml:"last_reported,omitempty"`
}

// Store is the blacklist read accessor. Lookup receives the canonical
// digits-only identifier and returns every matching record.
type Store interface {
	Lookup(ctx context.Context, canonical string) ([]Entry, error)
}

// Result is the outcome of one sender check.
type Result struct {
	Identifier string    `json:"identifier"`
	Normalized string    `json:"normalized"`
	IsFlagged  bool      `json:"is_flagged"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Status     string    `json:"status"`
	MatchCount int       `json:"match_count"`
	Reports    int       `json:"reports"`
	Reason     string    `json:"reason"`
}

// minDigits is the shortest identifier considered structurally plausible.
// Anything below it (including 5-6 digit shortcode-style senders, a
// common spoofing range) grades medium.
const minDigits = 8

// Checker evaluates sender identifiers. Safe for concurrent use.
type Checker struct {
	store Store
}

// NewChecker builds a checker over the given blacklist store. A nil
// store is valid and behaves as an empty blacklist.
func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// Canonicalize strips everything but digits and keeps at most the last
// 15 (E.164 upper bound). Country-code prefixes and formatting vanish,
// so "+91 98765-43210" and "9876543210" compare by suffix.
func Canonicalize(identifier string) string {
	var b strings.Builder
	for _, r := range identifier {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 15 {
		digits = digits[len(digits)-15:]
	}
	return digits
}

// Check grades one identifier. Total: a failing or absent blacklist is
// treated as empty, never as an error. Structural heuristics are applied
// in documented order - too short, repeated digits, alternating digits -
// and the first that fires decides the reason.
func (c *Checker) Check(ctx context.Context, identifier string) Result {
	canonical := Canonicalize(identifier)
	result := Result{
		Identifier: identifier,
		Normalized: canonical,
		RiskLevel:  RiskLow,
		Status:     "Unknown",
	}

	if c.store != nil && canonical != "" {
		entries, err := c.store.Lookup(ctx, canonical)
		if err != nil {
			log.Printf("[WARN] blacklist lookup failed, continuing without it: %v", err)
		} else if len(entries) > 0 {
			return c.fromBlacklist(result, entries)
		}
	}

	// Structural heuristics, in order.
	switch {
	case len(canonical) < minDigits:
		result.RiskLevel = RiskMedium
		result.IsFlagged = true
		result.Reason = "identifier too short to be a valid subscriber number"
	case hasRepeatedRun(canonical, 6):
		result.RiskLevel = RiskMedium
		result.IsFlagged = true
		result.Reason = "repeated digits pattern"
	case isAlternating(canonical):
		result.RiskLevel = RiskMedium
		result.IsFlagged = true
		result.Reason = "alternating digits pattern"
	default:
		result.Reason = "no risk indicators"
	}
	return result
}

// fromBlacklist folds matching records into the result. Records marked
// Safe act as an allowlist: a number users actively verified as
// legitimate outranks structural suspicion.
func (c *Checker) fromBlacklist(result Result, entries []Entry) Result {
	result.MatchCount = len(entries)

	reports := 0
	status := "Unknown"
	fraudListed := false
	for _, e := range entries {
		if e.Reports > reports {
			reports = e.Reports
		}
		switch e.Status {
		case "Fraud":
			fraudListed = true
			status = e.Status
		case "Safe":
			if !fraudListed {
				status = e.Status
			}
		}
	}
	result.Reports = reports
	result.Status = status

	if status == "Safe" {
		result.RiskLevel = RiskLow
		result.Reason = "listed as verified safe sender"
		return result
	}

	result.IsFlagged = true
	result.RiskLevel = RiskHigh
	result.Reason = "listed in fraud number blacklist"
	return result
}

// hasRepeatedRun reports a run of n identical consecutive digits.
func hasRepeatedRun(s string, n int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return n <= 1 && len(s) > 0
}

// isAlternating reports an ababab... two-digit cycle covering the whole
// identifier (at least 8 digits, two distinct values).
func isAlternating(s string) bool {
	if len(s) < 8 || s[0] == s[1] {
		return false
	}
	for i := 2; i < len(s); i++ {
		if s[i] != s[i-2] {
			return false
		}
	}
	return true
}
