// ensemble.go - Merges the always-on heuristic scorer with best-effort
// external detectors into one verdict. The resilience property of the
// whole engine lives here: external failures are logged and absorbed,
// never propagated, and the heuristic path always produces an answer.
package ml

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Method records which path produced the final verdict.
type Method string

const (
	MethodHeuristic Method = "heuristic"
	MethodExternal  Method = "external"
	MethodEnsemble  Method = "ensemble"
)

// Message is the scoring input. Immutable; the engine never mutates it.
type Message struct {
	Text       string    `json:"text"`
	SenderID   string    `json:"sender_id,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// Verdict is the final caller-facing decision.
type Verdict struct {
	IsFraud          bool     `json:"is_fraud"`
	Confidence       float64  `json:"confidence"` // Confidence in the decision, [0,1]
	Score            float64  `json:"score"`      // Estimated P(fraud), [0,1]
	Reason           string   `json:"reason"`
	Method           Method   `json:"method"` // heuristic / external / ensemble
	Source           string   `json:"source,omitempty"`
	MatchedSignals   []string `json:"matched_signals"`
	ProcessingTimeMs float64  `json:"processing_time_ms"`
}

// OrchestratorConfig is injected at construction. Thresholds live here,
// in exactly one place, instead of as inline literals at call sites.
type OrchestratorConfig struct {
	// FraudThreshold classifies the heuristic path (default FraudThreshold).
	FraudThreshold float64

	// OverrideThreshold is the stricter bar the heuristic must clear to
	// overrule an external "safe". Must be > FraudThreshold.
	OverrideThreshold float64

	// SimilarityBonus is added to the heuristic estimate when the text is
	// close to a known scam seed.
	SimilarityBonus float64
}

// DefaultOrchestratorConfig returns the stock thresholds.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		FraudThreshold:    FraudThreshold,
		OverrideThreshold: 0.8,
		SimilarityBonus:   0.15,
	}
}

// Orchestrator runs the full scoring pipeline. Stateless across
// requests; safe for concurrent use.
type Orchestrator struct {
	scorer     *HeuristicScorer
	detectors  []Detector // tried in order; first usable outcome wins
	similarity *SimilarityDetector
	cfg        OrchestratorConfig
}

// NewOrchestrator builds the engine. detectors may be empty - heuristic
// only is a first-class mode, not a degraded one. similarity may be nil.
func NewOrchestrator(cfg OrchestratorConfig, detectors []Detector, similarity *SimilarityDetector) *Orchestrator {
	if cfg.FraudThreshold <= 0 {
		cfg.FraudThreshold = FraudThreshold
	}
	if cfg.OverrideThreshold <= cfg.FraudThreshold {
		cfg.OverrideThreshold = DefaultOrchestratorConfig().OverrideThreshold
	}
	return &Orchestrator{
		scorer:     NewHeuristicScorer(),
		detectors:  detectors,
		similarity: similarity,
		cfg:        cfg,
	}
}

// Evaluate scores one message and returns the merged verdict. Total:
// always returns a verdict, for any input, no matter what the external
// detectors do.
func (o *Orchestrator) Evaluate(ctx context.Context, msg Message) Verdict {
	start := time.Now()

	heuristic := o.scorer.Score(msg.Text)
	signals := collectSignals(heuristic)
	estimate := heuristic.Normalized

	// Optional booster: similarity to a known scam raises the heuristic
	// estimate before merging, never the external one.
	if o.similarity != nil && o.similarity.IsReady() {
		if sim, err := o.similarity.Lookup(ctx, msg.Text); err == nil && sim.IsScamLike {
			estimate = clamp01(estimate + o.cfg.SimilarityBonus)
			signals = append(signals, fmt.Sprintf("similar to known %s scam", sim.Category))
		}
	}

	external := o.classifyExternal(ctx, msg.Text)
	verdict := o.merge(estimate, heuristic, external, signals)
	verdict.ProcessingTimeMs = float64(time.Since(start).Milliseconds())
	return verdict
}

// classifyExternal walks the detector chain and returns the first usable
// outcome, or nil when every detector is unavailable or failed.
func (o *Orchestrator) classifyExternal(ctx context.Context, text string) *DetectorOutcome {
	for _, d := range o.detectors {
		if !d.Ready() {
			continue
		}
		outcome := safeClassify(ctx, d, text)
		if outcome.IsError() {
			log.Printf("[WARN] detector %s failed: %s", d.Name(), outcome.ErrorDetail)
			continue
		}
		return &outcome
	}
	return nil
}

// safeClassify guards the Detector contract: even a panicking
// implementation is reduced to an error outcome.
func safeClassify(ctx context.Context, d Detector, text string) (outcome DetectorOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = ErrorOutcome(d.Name(), fmt.Sprintf("detector panicked: %v", r), 0)
		}
	}()
	return d.Classify(ctx, text)
}

// merge applies the precedence policy between the heuristic estimate and
// the external outcome.
func (o *Orchestrator) merge(estimate float64, heuristic *HeuristicResult, external *DetectorOutcome, signals []string) Verdict {
	heuristicFraud := estimate >= o.cfg.FraudThreshold

	// No external signal: the heuristic decides alone. Callers see
	// method=heuristic so reduced confidence can be disclosed.
	if external == nil {
		return Verdict{
			IsFraud:        heuristicFraud,
			Confidence:     decisionConfidence(heuristicFraud, estimate),
			Score:          estimate,
			Reason:         heuristic.Reason,
			Method:         MethodHeuristic,
			Source:         "heuristic",
			MatchedSignals: signals,
		}
	}

	if external.Label == LabelFraud {
		method := MethodExternal
		reason := external.Reason
		if heuristicFraud {
			// Both paths agree; surface the explainable heuristic reason.
			method = MethodEnsemble
			reason = heuristic.Reason
		}
		score := maxFloat(external.Probability, estimate)
		return Verdict{
			IsFraud:        true,
			Confidence:     score,
			Score:          score,
			Reason:         reason,
			Method:         method,
			Source:         external.Source,
			MatchedSignals: signals,
		}
	}

	// External says safe. A sufficiently strong heuristic signal overrules
	// it - the bar is deliberately higher than the plain fraud threshold.
	if estimate >= o.cfg.OverrideThreshold {
		return Verdict{
			IsFraud:        true,
			Confidence:     estimate,
			Score:          estimate,
			Reason:         fmt.Sprintf("heuristic override of %s safe verdict: %s", external.Source, heuristic.Reason),
			Method:         MethodEnsemble,
			Source:         external.Source,
			MatchedSignals: signals,
		}
	}

	// Safe. Confidence shrinks as either path's fraud estimate grows.
	score := maxFloat(external.Probability, estimate)
	method := MethodEnsemble
	if heuristicFraud {
		// The model's safe verdict out-ranks a mid-strength heuristic.
		method = MethodExternal
	}
	return Verdict{
		IsFraud:        false,
		Confidence:     1 - score,
		Score:          score,
		Reason:         safeReason(external, heuristic),
		Method:         method,
		Source:         external.Source,
		MatchedSignals: signals,
	}
}

func safeReason(external *DetectorOutcome, heuristic *HeuristicResult) string {
	if external.Reason != "" {
		return external.Reason
	}
	return heuristic.Reason
}

func collectSignals(h *HeuristicResult) []string {
	signals := make([]string, 0, len(h.Categories)+len(h.Structural))
	for _, c := range h.Categories {
		signals = append(signals, string(c.Category))
	}
	signals = append(signals, h.Structural...)
	return signals
}

func decisionConfidence(isFraud bool, estimate float64) float64 {
	if isFraud {
		return estimate
	}
	return 1 - estimate
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
