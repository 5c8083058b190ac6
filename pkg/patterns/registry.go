// Package patterns provides a centralized, compile-once registry of SMS
// fraud signal patterns. All regexes are compiled at first use and shared
// across every scan.
//
// Design principles:
// - COMPILE ONCE: patterns compiled on first Get(), not per-message
// - EXHAUSTIVE: MatchAll never short-circuits; scoring needs every hit
// - CATEGORIZED: each pattern belongs to exactly one signal category
package patterns

import (
	"regexp"
	"sync"
)

// Category names a fraud signal family. A message can trigger several
// categories at once; the scorer weighs each category once no matter how
// many of its patterns fire.
type Category string

const (
	CategoryUrgency        Category = "urgency"
	CategoryPressure       Category = "pressure"
	CategoryPrize          Category = "prize"
	CategoryCredential     Category = "credential_request"
	CategoryAccountProblem Category = "account_problem"
	CategoryPersonalInfo   Category = "personal_info"
	CategoryFinancial      Category = "financial"
	CategorySuspiciousURL  Category = "suspicious_url"
	CategoryShortURL       Category = "short_url"
	CategoryCrypto         Category = "crypto"
	CategoryJobOffer       Category = "job_offer"
	CategoryInvestment     Category = "investment"
	CategoryGroupInvite    Category = "group_invite"
	CategoryLoan           Category = "loan"
	CategoryTaxScam        Category = "tax_scam"
	CategoryShipping       Category = "shipping_scam"
	CategoryStockTip       Category = "stock_tip"
	CategorySuccessStory   Category = "success_story"
	CategoryMarketing      Category = "marketing"
)

// Pattern holds a compiled regex with scoring metadata.
type Pattern struct {
	Name        string         // Human-readable name for logging and reasons
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Signal category
	Weight      int            // Raw score contribution (0-100)
	MatchRaw    bool           // Match against the raw text instead of the normalized form
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by category.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton).
// Thread-safe and guaranteed to be initialized.
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 96),
	}

	r.registerUrgencyPatterns()
	r.registerPrizePatterns()
	r.registerCredentialPatterns()
	r.registerFinancialPatterns()
	r.registerURLPatterns()
	r.registerCryptoPatterns()
	r.registerJobAndLoanPatterns()
	r.registerInvestmentPatterns()
	r.registerGroupInvitePatterns()
	r.registerMiscScamPatterns()

	return r
}

// register adds a pattern matched against the normalized text.
func (r *Registry) register(name string, pattern string, category Category, weight int, description string) {
	r.add(name, pattern, category, weight, false, description)
}

// registerRaw adds a pattern matched against the original text.
// Used for URL and casing checks that normalization would destroy.
func (r *Registry) registerRaw(name string, pattern string, category Category, weight int, description string) {
	r.add(name, pattern, category, weight, true, description)
}

func (r *Registry) add(name string, pattern string, category Category, weight int, raw bool, description string) {
	p := &Pattern{
		Name:        name,
		Regex:       regexp.MustCompile(pattern),
		Category:    category,
		Weight:      weight,
		MatchRaw:    raw,
		Description: description,
	}
	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a specific category.
// Returns empty slice if category not found (never nil).
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ps, ok := r.byCategory[cat]; ok {
		return ps
	}
	return []*Pattern{}
}

// MatchAll evaluates every registered pattern against the message and
// returns each one that fires. Patterns flagged MatchRaw test the raw
// text; all others test the normalized form. Evaluation is exhaustive -
// scoring and reason generation need the full match set, so there is no
// early exit.
func (r *Registry) MatchAll(normalized, raw string) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Pattern
	for _, p := range r.all {
		text := normalized
		if p.MatchRaw {
			text = raw
		}
		if p.Regex.MatchString(text) {
			matches = append(matches, p)
		}
	}
	return matches
}

// MatchCategories returns the distinct categories that fire for the
// message, keyed to the highest-weight matching pattern in each.
func (r *Registry) MatchCategories(normalized, raw string) map[Category]*Pattern {
	hits := make(map[Category]*Pattern)
	for _, p := range r.MatchAll(normalized, raw) {
		if best, ok := hits[p.Category]; !ok || p.Weight > best.Weight {
			hits[p.Category] = p
		}
	}
	return hits
}

// TotalPatterns returns the total count of registered patterns.
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category.
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
