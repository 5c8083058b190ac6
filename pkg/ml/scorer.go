// scorer.go - Weighted heuristic fraud scoring over the pattern registry.
// This is the always-available path: it needs no model, no network and no
// configuration, and every verdict falls back to it when external
// detectors fail.
package ml

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/Aadipawar07/Fraud-shield/pkg/patterns"
	"github.com/Aadipawar07/Fraud-shield/pkg/textnorm"
)

// FraudThreshold is the normalized score at or above which the heuristic
// path alone classifies a message as fraud.
const FraudThreshold = 0.6

// maxRawScore caps the weighted sum before normalization.
const maxRawScore = 100

// Structural bonuses applied on top of category weights.
const (
	bonusShortWithLink = 25 // message under 50 chars carrying a URL
	bonusMultipleURLs  = 25 // two or more URLs
	bonusAllCaps       = 15 // shouting messages over 20 chars
	bonusCurrency      = 15 // currency symbols present
	multiMatchStep     = 10 // per extra matched category
	multiMatchCap      = 50
	numberStep         = 5 // per embedded number
	numberCap          = 20
)

// Pre-compiled structural regexes (compiled once, used per message).
var (
	reURLMarker = regexp.MustCompile(`(?i)(https?://|www\.)`)
	reNumber    = regexp.MustCompile(`\d+`)
	reCurrency  = regexp.MustCompile(`₹|\$|€|£|USD|INR|EUR|GBP|Rs\.?`)
)

// comboBonus rewards category pairs that individually look mild but
// together form a classic scam shape. The table is deliberately
// hard-coded: these pairings are stable scam anatomy, not tunables.
type comboBonus struct {
	a, b  patterns.Category
	bonus int
	name  string
}

var comboBonuses = []comboBonus{
	{patterns.CategoryInvestment, patterns.CategoryFinancial, 45, "investment promise with money-movement language"},
	{patterns.CategoryFinancial, patterns.CategoryGroupInvite, 40, "payment request tied to joining a group"},
	{patterns.CategoryUrgency, patterns.CategoryInvestment, 50, "time-limited investment opportunity"},
	{patterns.CategoryPrize, patterns.CategoryFinancial, 50, "prize that requires a payment to claim"},
	{patterns.CategoryJobOffer, patterns.CategoryFinancial, 50, "job offer with an upfront fee"},
	{patterns.CategorySuccessStory, patterns.CategoryGroupInvite, 45, "success story steering into a group"},
}

// CategoryScore records one matched signal category and its contribution.
type CategoryScore struct {
	Category    patterns.Category `json:"category"`
	Weight      int               `json:"weight"`
	PatternName string            `json:"pattern"`
	Description string            `json:"description"`
}

// HeuristicResult is the full output of one heuristic scoring pass.
type HeuristicResult struct {
	RawScore   int             `json:"raw_score"`  // Weighted sum before capping
	Normalized float64         `json:"normalized"` // min(1, raw/100)
	IsFraud    bool            `json:"is_fraud"`   // Normalized >= FraudThreshold
	Categories []CategoryScore `json:"categories"` // Matched categories, highest weight first
	Structural []string        `json:"structural"` // Structural heuristics that fired
	Reason     string          `json:"reason"`
}

// HeuristicScorer scores messages against the pattern registry plus
// structural heuristics. It is stateless and safe for concurrent use.
type HeuristicScorer struct {
	registry *patterns.Registry
}

// NewHeuristicScorer returns a scorer bound to the global registry.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{registry: patterns.Get()}
}

// Score evaluates a message and returns the weighted result. It is total
// and deterministic: the same text always produces the same result, and
// empty text scores zero.
func (s *HeuristicScorer) Score(text string) *HeuristicResult {
	result := &HeuristicResult{}
	if text == "" {
		result.Reason = "no suspicious signals detected"
		return result
	}

	normalized := textnorm.Normalize(text)
	hits := s.registry.MatchCategories(normalized, text)

	raw := 0
	for cat, p := range hits {
		raw += p.Weight
		result.Categories = append(result.Categories, CategoryScore{
			Category:    cat,
			Weight:      p.Weight,
			PatternName: p.Name,
			Description: p.Description,
		})
	}

	// Stable ordering: weight desc, then category name. The reason string
	// must not change between identical scans.
	sort.Slice(result.Categories, func(i, j int) bool {
		if result.Categories[i].Weight != result.Categories[j].Weight {
			return result.Categories[i].Weight > result.Categories[j].Weight
		}
		return result.Categories[i].Category < result.Categories[j].Category
	})

	raw += s.comboScore(hits, result)
	raw += s.structuralScore(text, normalized, result)

	if n := len(hits); n >= 2 {
		raw += minInt(multiMatchCap, (n-1)*multiMatchStep)
	}

	result.RawScore = raw
	capped := raw
	if capped > maxRawScore {
		capped = maxRawScore
	}
	result.Normalized = float64(capped) / float64(maxRawScore)
	result.IsFraud = result.Normalized >= FraudThreshold
	result.Reason = s.buildReason(result)

	return result
}

// comboScore adds bonuses for hard-coded category pairings.
func (s *HeuristicScorer) comboScore(hits map[patterns.Category]*patterns.Pattern, result *HeuristicResult) int {
	total := 0
	for _, c := range comboBonuses {
		if _, okA := hits[c.a]; !okA {
			continue
		}
		if _, okB := hits[c.b]; !okB {
			continue
		}
		total += c.bonus
		result.Structural = append(result.Structural, c.name)
	}
	return total
}

// structuralScore applies shape-based heuristics that need no keyword:
// shouting, link density, embedded numbers and currency marks.
func (s *HeuristicScorer) structuralScore(raw, normalized string, result *HeuristicResult) int {
	total := 0

	if len(raw) < 50 && strings.Contains(strings.ToLower(raw), "http") {
		total += bonusShortWithLink
		result.Structural = append(result.Structural, "short message with link")
	}

	if len(reURLMarker.FindAllString(raw, -1)) >= 2 {
		total += bonusMultipleURLs
		result.Structural = append(result.Structural, "multiple URLs")
	}

	if len(raw) > 20 && raw == strings.ToUpper(raw) && hasLetter(raw) {
		total += bonusAllCaps
		result.Structural = append(result.Structural, "all-caps message")
	}

	if n := len(reNumber.FindAllString(raw, -1)); n >= 2 {
		total += minInt(numberCap, n*numberStep)
		result.Structural = append(result.Structural, "multiple numbers")
	}

	if reCurrency.MatchString(raw) {
		total += bonusCurrency
		result.Structural = append(result.Structural, "currency symbols")
	}

	return total
}

// buildReason summarizes the top three matched categories by weight. When
// only structural heuristics fired, they become the reason instead.
func (s *HeuristicScorer) buildReason(result *HeuristicResult) string {
	if len(result.Categories) == 0 {
		if len(result.Structural) == 0 {
			return "no suspicious signals detected"
		}
		return fmt.Sprintf("structural signals: %s", strings.Join(result.Structural, ", "))
	}

	top := result.Categories
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, len(top))
	for i, c := range top {
		parts[i] = c.Description
	}
	return strings.Join(parts, "; ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
