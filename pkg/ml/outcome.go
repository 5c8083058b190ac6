// outcome.go - Common result type and label normalization for external
// fraud detectors. Every backend (local ONNX model, LLM, generic HTTP
// endpoint) reduces its answer to a DetectorOutcome so the ensemble can
// merge them without knowing which backend produced what.
package ml

import "strings"

// Label is the normalized classification a detector produces.
type Label string

const (
	// LabelFraud marks the message as fraudulent.
	LabelFraud Label = "fraud"
	// LabelSafe marks the message as legitimate.
	LabelSafe Label = "safe"
	// LabelError marks a failed classification attempt. An error outcome
	// carries zero signal - the ensemble falls back to heuristics.
	LabelError Label = "error"
)

// DetectorOutcome is the total result of one classification attempt.
// Detectors never return Go errors to callers; failures are encoded as
// Label == LabelError with ErrorDetail set.
type DetectorOutcome struct {
	Source      string  `json:"source"`                 // Which detector produced this ("hugot", "llm", "http")
	Label       Label   `json:"label"`                  // fraud / safe / error
	Probability float64 `json:"probability"`            // P(fraud) in [0,1]; 0 on error
	Reason      string  `json:"reason,omitempty"`       // Human-readable explanation
	ErrorDetail string  `json:"error_detail,omitempty"` // Set only when Label == LabelError
	LatencyMs   float64 `json:"latency_ms"`             // Wall time of the attempt
}

// IsError reports whether the outcome carries no usable signal.
func (o DetectorOutcome) IsError() bool {
	return o.Label == LabelError
}

// ErrorOutcome builds a failure outcome for the given detector source.
func ErrorOutcome(source, detail string, latencyMs float64) DetectorOutcome {
	return DetectorOutcome{
		Source:      source,
		Label:       LabelError,
		ErrorDetail: detail,
		LatencyMs:   latencyMs,
	}
}

// ParseLabel maps the label vocabulary of heterogeneous models onto the
// normalized fraud/safe pair. Different backends use different conventions:
//   - SMS spam models: "spam" vs "ham"
//   - generic fine-tunes: "LABEL_1" vs "LABEL_0"
//   - LLM prompt output: "FRAUD" vs "LEGITIMATE" / "NORMAL_SMS"
//
// Unknown labels map to LabelError rather than guessing a polarity.
func ParseLabel(raw string) Label {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "fraud", "fraudulent", "spam", "scam", "smishing", "phishing", "label_1", "malicious":
		return LabelFraud
	case "safe", "ham", "legitimate", "legit", "normal_sms", "normal", "benign", "ok", "not_spam", "label_0":
		return LabelSafe
	default:
		return LabelError
	}
}

// FraudProbability converts a (label, model score) pair into P(fraud).
// Models report confidence in their OWN label, so a "safe" score must be
// inverted: P(fraud) = 1 - P(safe).
func FraudProbability(label Label, score float64) float64 {
	switch label {
	case LabelFraud:
		return clamp01(score)
	case LabelSafe:
		return clamp01(1 - score)
	default:
		return 0
	}
}

// ScoredLabel is one entry of a list-shaped model response
// ([{"label": "...", "score": ...}, ...]).
type ScoredLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NormalizeScoredLabels reduces a list-shaped response to a single
// normalized label and P(fraud). The entry with the highest score that
// parses to a known polarity wins; if nothing parses the result is an
// error label with zero probability.
func NormalizeScoredLabels(entries []ScoredLabel) (Label, float64) {
	best := LabelError
	bestScore := -1.0
	for _, e := range entries {
		label := ParseLabel(e.Label)
		if label == LabelError {
			continue
		}
		if e.Score > bestScore {
			best = label
			bestScore = e.Score
		}
	}
	if best == LabelError {
		return LabelError, 0
	}
	return best, FraudProbability(best, bestScore)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
