// Package textnorm canonicalizes SMS text before pattern matching and
// scoring. Normalization is pure and idempotent: applying it twice yields
// the same result as applying it once, so callers may normalize defensively
// without tracking whether input was already processed.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// leetReplacer folds the digit/symbol substitutions scammers use to dodge
// keyword filters ("fr33 priz3", "v3rify", "$$$"). The table maps each
// substitute to the letter it impersonates.
var leetReplacer = strings.NewReplacer(
	"@", "a",
	"$", "s",
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
)

// Normalize lowercases, strips diacritics and folds leetspeak.
// Empty input returns empty output.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return FoldLeetspeak(StripDiacritics(strings.ToLower(s)))
}

// StripDiacritics removes accent marks by decomposing to NFD and dropping
// combining marks ("vérify" -> "verify"). Input that fails to transform is
// returned unchanged rather than erroring - normalization is best effort
// and must stay total.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldLeetspeak maps common digit/symbol substitutions back to letters.
// Note this is lossy on purpose: "1000" becomes "iooo". Pattern matching
// runs against both the folded and the raw form, so numeric signals
// (amounts, phone numbers) are scored from the raw text.
func FoldLeetspeak(s string) string {
	return leetReplacer.Replace(s)
}
