package ml

import (
	"context"
	"testing"
)

// stubDetector scripts a fixed outcome for merge-policy tests.
type stubDetector struct {
	name    string
	ready   bool
	outcome DetectorOutcome
	panics  bool
}

func (s *stubDetector) Name() string { return s.name }
func (s *stubDetector) Ready() bool  { return s.ready }
func (s *stubDetector) Classify(ctx context.Context, text string) DetectorOutcome {
	if s.panics {
		panic("scripted panic")
	}
	return s.outcome
}

const scamText = "CONGRATULATIONS! You have won $10,000! Click here to claim: bit.ly/x"
const benignText = "Hi, how are you doing today?"

func TestEvaluateHeuristicOnly(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(), nil, nil)

	v := o.Evaluate(context.Background(), Message{Text: scamText})
	if !v.IsFraud {
		t.Error("scam text not flagged in heuristic-only mode")
	}
	if v.Method != MethodHeuristic {
		t.Errorf("method = %s, want heuristic", v.Method)
	}
	if len(v.MatchedSignals) == 0 {
		t.Error("expected matched signals")
	}

	v = o.Evaluate(context.Background(), Message{Text: benignText})
	if v.IsFraud {
		t.Error("benign text flagged in heuristic-only mode")
	}
	if v.Confidence < 0.8 {
		t.Errorf("benign confidence = %.2f, want high", v.Confidence)
	}
}

func TestEvaluateExternalFailureFallsBack(t *testing.T) {
	// Scenario: the external detector times out on a message the
	// heuristic scores high. The verdict must come from the heuristic
	// path and still be fraud.
	failing := &stubDetector{
		name:    "http",
		ready:   true,
		outcome: ErrorOutcome("http", "context deadline exceeded", 10000),
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{failing}, nil)

	v := o.Evaluate(context.Background(), Message{Text: scamText})
	if v.Method != MethodHeuristic {
		t.Errorf("method = %s, want heuristic after external failure", v.Method)
	}
	if !v.IsFraud {
		t.Error("high-scoring message must be fraud despite detector failure")
	}
}

func TestEvaluateExternalFraudWins(t *testing.T) {
	fraudulent := &stubDetector{
		name:  "llm",
		ready: true,
		outcome: DetectorOutcome{
			Source:      "llm",
			Label:       LabelFraud,
			Probability: 0.92,
			Reason:      "model identified phishing intent",
		},
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{fraudulent}, nil)

	// Text the heuristic thinks is clean - external fraud must still win.
	v := o.Evaluate(context.Background(), Message{Text: "Please review the attached invoice when convenient"})
	if !v.IsFraud {
		t.Fatal("external fraud verdict ignored")
	}
	if v.Method != MethodExternal {
		t.Errorf("method = %s, want external", v.Method)
	}
	if v.Confidence < 0.92 {
		t.Errorf("confidence = %.2f, want >= external probability", v.Confidence)
	}
}

func TestEvaluateAgreementIsEnsemble(t *testing.T) {
	fraudulent := &stubDetector{
		name:    "llm",
		ready:   true,
		outcome: DetectorOutcome{Source: "llm", Label: LabelFraud, Probability: 0.9, Reason: "phishing"},
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{fraudulent}, nil)

	v := o.Evaluate(context.Background(), Message{Text: scamText})
	if !v.IsFraud {
		t.Fatal("agreed fraud not flagged")
	}
	if v.Method != MethodEnsemble {
		t.Errorf("method = %s, want ensemble when both paths agree", v.Method)
	}
}

func TestEvaluateHeuristicOverridesExternalSafe(t *testing.T) {
	lenient := &stubDetector{
		name:    "hugot",
		ready:   true,
		outcome: DetectorOutcome{Source: "hugot", Label: LabelSafe, Probability: 0.1, Reason: "model says ham"},
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{lenient}, nil)

	// scamText saturates the heuristic scale, clearing the override bar.
	v := o.Evaluate(context.Background(), Message{Text: scamText})
	if !v.IsFraud {
		t.Fatal("strong heuristic signal must overrule external safe")
	}
	if v.Method != MethodEnsemble {
		t.Errorf("method = %s, want ensemble for override", v.Method)
	}
}

func TestEvaluateExternalSafeAgreement(t *testing.T) {
	safe := &stubDetector{
		name:    "hugot",
		ready:   true,
		outcome: DetectorOutcome{Source: "hugot", Label: LabelSafe, Probability: 0.02, Reason: "model says ham"},
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{safe}, nil)

	v := o.Evaluate(context.Background(), Message{Text: benignText})
	if v.IsFraud {
		t.Error("agreed-safe message flagged")
	}
	if v.Method != MethodEnsemble {
		t.Errorf("method = %s, want ensemble", v.Method)
	}
	if v.Confidence < 0.9 {
		t.Errorf("confidence = %.2f, want high for agreed-safe", v.Confidence)
	}
}

func TestEvaluateExternalSafeOutranksMidStrengthHeuristic(t *testing.T) {
	safe := &stubDetector{
		name:    "hugot",
		ready:   true,
		outcome: DetectorOutcome{Source: "hugot", Label: LabelSafe, Probability: 0.1, Reason: "model says ham"},
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{safe}, nil)

	// Two categories and a multi-match bonus put the heuristic above the
	// fraud threshold but below the override bar, so the model's safe
	// verdict decides and the method discloses that.
	v := o.Evaluate(context.Background(), Message{Text: "bitcoin mortgage"})
	if v.IsFraud {
		t.Fatal("mid-strength heuristic must not overrule external safe")
	}
	if v.Method != MethodExternal {
		t.Errorf("method = %s, want external when the model out-ranked the heuristic", v.Method)
	}
}

func TestEvaluateSkipsNotReadyDetectors(t *testing.T) {
	offline := &stubDetector{name: "hugot", ready: false}
	fraudulent := &stubDetector{
		name:    "llm",
		ready:   true,
		outcome: DetectorOutcome{Source: "llm", Label: LabelFraud, Probability: 0.9, Reason: "phishing"},
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{offline, fraudulent}, nil)

	v := o.Evaluate(context.Background(), Message{Text: "hello"})
	if v.Source != "llm" {
		t.Errorf("source = %s, want the second detector in the chain", v.Source)
	}
}

func TestEvaluateContainsPanickingDetector(t *testing.T) {
	exploding := &stubDetector{name: "http", ready: true, panics: true}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{exploding}, nil)

	v := o.Evaluate(context.Background(), Message{Text: scamText})
	if v.Method != MethodHeuristic {
		t.Errorf("method = %s, want heuristic fallback after panic", v.Method)
	}
	if !v.IsFraud {
		t.Error("panicking detector must not suppress the heuristic verdict")
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	safe := &stubDetector{
		name:    "hugot",
		ready:   true,
		outcome: DetectorOutcome{Source: "hugot", Label: LabelSafe, Probability: 0.05},
	}
	o := NewOrchestrator(DefaultOrchestratorConfig(), []Detector{safe}, nil)
	msg := Message{Text: "Join our telegram group for stock tips"}

	a := o.Evaluate(context.Background(), msg)
	b := o.Evaluate(context.Background(), msg)

	if a.IsFraud != b.IsFraud || a.Score != b.Score || a.Method != b.Method || a.Reason != b.Reason {
		t.Errorf("verdicts differ for identical input: %+v vs %+v", a, b)
	}
}

func TestEvaluateEmptyText(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(), nil, nil)

	v := o.Evaluate(context.Background(), Message{Text: ""})
	if v.IsFraud {
		t.Error("empty text must be a valid zero-signal input, not fraud")
	}
	if v.Score != 0 {
		t.Errorf("score = %.2f, want 0 for empty text", v.Score)
	}
}
