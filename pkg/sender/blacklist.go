package sender

import (
	"context"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// blacklistFile is the on-disk YAML shape.
type blacklistFile struct {
	Entries []Entry `yaml:"entries"`
}

// MemoryStore is an in-process blacklist. Reads are lock-free: the entry
// slice is immutable after construction.
type MemoryStore struct {
	entries []Entry
}

// NewMemoryStore builds a store over the given records.
func NewMemoryStore(entries []Entry) *MemoryStore {
	return &MemoryStore{entries: entries}
}

// LoadBlacklist reads a YAML blacklist from disk. A missing or malformed
// file degrades to an empty store with a warning; the sender check keeps
// working on structural heuristics alone.
func LoadBlacklist(path string) *MemoryStore {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[WARN] blacklist file unavailable, using empty list: %v", err)
		return NewMemoryStore(nil)
	}
	var file blacklistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		log.Printf("[WARN] blacklist file malformed, using empty list: %v", err)
		return NewMemoryStore(nil)
	}
	return NewMemoryStore(file.Entries)
}

// Lookup returns every record whose canonical form matches the given
// canonical identifier by suffix in either direction, so a stored
// national number matches a queried international one and vice versa.
func (s *MemoryStore) Lookup(_ context.Context, canonical string) ([]Entry, error) {
	if canonical == "" {
		return nil, nil
	}
	var matches []Entry
	for _, e := range s.entries {
		if suffixMatch(Canonicalize(e.Number), canonical) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// Len reports how many records the store holds.
func (s *MemoryStore) Len() int {
	return len(s.entries)
}

// suffixMatch reports whether one canonical number is a suffix of the
// other. Requires at least minDigits of overlap so a 4-digit fragment
// cannot claim a match.
func suffixMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	shorter := a
	if len(b) < len(a) {
		shorter = b
	}
	if len(shorter) < minDigits {
		return a == b
	}
	return strings.HasSuffix(a, shorter) || strings.HasSuffix(b, shorter)
}

// DefaultEntries is the bundled seed dataset, used when no blacklist
// file or Redis store is configured.
func DefaultEntries() []Entry {
	return []Entry{
		{Number: "+919876543210", Status: "Fraud", Reports: 25, LastReported: "2025-08-20"},
		{Number: "+911234567890", Status: "Safe", Reports: 0},
		{Number: "+917777788888", Status: "Fraud", Reports: 12, LastReported: "2025-07-02"},
		{Number: "+918888877777", Status: "Safe", Reports: 0},
		{Number: "+919999900000", Status: "Unknown", Reports: 2, LastReported: "2025-06-14"},
	}
}
