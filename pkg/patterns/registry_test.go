package patterns

import (
	"testing"

	"github.com/Aadipawar07/Fraud-shield/pkg/textnorm"
)

func TestRegistryInit(t *testing.T) {
	// Get should return a singleton registry
	r1 := Get()
	r2 := Get()

	if r1 != r2 {
		t.Error("Get() should return the same registry instance")
	}
}

func TestRegistryHasPatterns(t *testing.T) {
	r := Get()

	total := r.TotalPatterns()
	if total < 30 {
		t.Errorf("expected at least 30 patterns, got %d", total)
	}

	t.Logf("Registry loaded %d patterns", total)
}

func TestCategoryCoverage(t *testing.T) {
	r := Get()

	// Every category must carry at least one pattern - an empty category
	// silently weakens scoring.
	cats := []Category{
		CategoryUrgency, CategoryPressure, CategoryPrize,
		CategoryCredential, CategoryAccountProblem, CategoryPersonalInfo,
		CategoryFinancial, CategorySuspiciousURL, CategoryShortURL,
		CategoryCrypto, CategoryJobOffer, CategoryInvestment,
		CategoryGroupInvite, CategoryLoan, CategoryTaxScam,
		CategoryShipping, CategoryStockTip, CategorySuccessStory,
		CategoryMarketing,
	}
	for _, cat := range cats {
		t.Run(string(cat), func(t *testing.T) {
			if n := r.CategoryCount(cat); n == 0 {
				t.Errorf("category %s has no patterns", cat)
			}
		})
	}
}

func TestMatchAllFindsExpectedCategories(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Category
	}{
		{"urgency", "URGENT: your account expires today", CategoryUrgency},
		{"prize", "Congratulations! You are our lucky winner", CategoryPrize},
		{"credential", "Please verify your password immediately", CategoryCredential},
		{"account", "Your account has been suspended due to unusual activity", CategoryAccountProblem},
		{"financial", "Transfer the payment to this bank account", CategoryFinancial},
		{"short_url", "Click here: https://bit.ly/3xYz", CategoryShortURL},
		{"any_url", "Visit https://secure-login.example.com/verify", CategorySuspiciousURL},
		{"crypto", "Double your bitcoin in our trading pool", CategoryCrypto},
		{"job", "Work from home and earn daily, apply now", CategoryJobOffer},
		{"investment", "Guaranteed returns on your investment", CategoryInvestment},
		{"group", "Join our telegram channel for tips", CategoryGroupInvite},
		{"loan", "Pre-approved instant loan with zero interest", CategoryLoan},
		{"tax", "IRS notice: pay your penalty or face legal action", CategoryTaxScam},
		{"shipping", "Your package is held at customs, pay clearance fee", CategoryShipping},
		{"stock", "Hot stock tip: this penny stock is a multibagger", CategoryStockTip},
	}

	r := Get()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized := textnorm.Normalize(tt.text)
			matches := r.MatchAll(normalized, tt.text)
			for _, m := range matches {
				if m.Category == tt.want {
					return
				}
			}
			t.Errorf("MatchAll(%q) did not include category %s (got %d matches)", tt.text, tt.want, len(matches))
		})
	}
}

func TestMatchAllObfuscated(t *testing.T) {
	// Leetspeak folding happens upstream; the registry sees the folded form.
	raw := "C0ngratulati0ns! You w0n a priz3"
	normalized := textnorm.Normalize(raw)
	matches := Get().MatchAll(normalized, raw)
	for _, m := range matches {
		if m.Category == CategoryPrize {
			return
		}
	}
	t.Errorf("expected prize category for obfuscated text, normalized=%q", normalized)
}

func TestMatchAllBenign(t *testing.T) {
	benign := []string{
		"",
		"See you at dinner tonight",
		"Running ten minutes late, sorry",
	}
	r := Get()
	for _, text := range benign {
		normalized := textnorm.Normalize(text)
		if matches := r.MatchAll(normalized, text); len(matches) != 0 {
			names := make([]string, 0, len(matches))
			for _, m := range matches {
				names = append(names, m.Name)
			}
			t.Errorf("benign text %q matched %v", text, names)
		}
	}
}

func TestMatchCategoriesDedupes(t *testing.T) {
	raw := "You won a prize! Claim your reward now, lucky winner"
	normalized := textnorm.Normalize(raw)
	hits := Get().MatchCategories(normalized, raw)

	p, ok := hits[CategoryPrize]
	if !ok {
		t.Fatal("expected prize category hit")
	}
	if p.Weight != 35 {
		t.Errorf("prize weight = %d, want 35", p.Weight)
	}
}

func TestRawPatternsIgnoreNormalizedText(t *testing.T) {
	// Leet folding mangles URLs (0 -> o); raw patterns must run on the
	// untouched text so links still match.
	raw := "claim here http://bit.ly/w0w100"
	normalized := textnorm.Normalize(raw)
	matches := Get().MatchAll(normalized, raw)
	for _, m := range matches {
		if m.Category == CategoryShortURL {
			return
		}
	}
	t.Error("short URL pattern should match the raw text")
}
