// detector.go - The uniform interface every external classifier is
// wrapped behind, plus the generic HTTP detector. Adapters own failure
// containment: Classify is total, and a timeout is a failure, never a
// "safe" answer.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Aadipawar07/Fraud-shield/pkg/httputil"
)

// Detector is the contract the ensemble consumes. Implementations never
// return Go errors or panic; failed attempts come back as error outcomes.
type Detector interface {
	// Name identifies the detector in verdicts and logs.
	Name() string

	// Ready reports whether the detector is worth calling at all.
	Ready() bool

	// Classify scores one message. Total: any failure is encoded in the
	// outcome's Label/ErrorDetail.
	Classify(ctx context.Context, text string) DetectorOutcome
}

// DefaultDetectorTimeout bounds a single external classification attempt.
// Exceeding it produces an error outcome and the heuristic path decides.
const DefaultDetectorTimeout = 10 * time.Second

// ---------------------------------------------------------------------------
// Local model adapter
// ---------------------------------------------------------------------------

// LocalModelDetector adapts the Hugot spam model to the Detector contract.
type LocalModelDetector struct {
	model   *HugotDetector
	timeout time.Duration
}

// NewLocalModelDetector wraps an initialized (or fallback) HugotDetector.
func NewLocalModelDetector(model *HugotDetector, timeout time.Duration) *LocalModelDetector {
	if timeout <= 0 {
		timeout = DefaultDetectorTimeout
	}
	return &LocalModelDetector{model: model, timeout: timeout}
}

func (d *LocalModelDetector) Name() string { return "hugot" }

func (d *LocalModelDetector) Ready() bool { return d.model != nil && d.model.IsReady() }

func (d *LocalModelDetector) Classify(ctx context.Context, text string) DetectorOutcome {
	if !d.Ready() {
		return ErrorOutcome(d.Name(), "local model not ready", 0)
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.model.ClassifySingle(ctx, text)
}

// ---------------------------------------------------------------------------
// LLM adapter
// ---------------------------------------------------------------------------

// LLMDetector adapts the prompt-based classifier to the Detector contract.
type LLMDetector struct {
	classifier *LLMClassifier
	timeout    time.Duration
}

// NewLLMDetector wraps an LLMClassifier. A nil classifier yields a
// detector that is simply never ready.
func NewLLMDetector(classifier *LLMClassifier, timeout time.Duration) *LLMDetector {
	if timeout <= 0 {
		timeout = DefaultDetectorTimeout
	}
	return &LLMDetector{classifier: classifier, timeout: timeout}
}

func (d *LLMDetector) Name() string { return "llm" }

func (d *LLMDetector) Ready() bool { return d.classifier != nil }

func (d *LLMDetector) Classify(ctx context.Context, text string) DetectorOutcome {
	if d.classifier == nil {
		return ErrorOutcome(d.Name(), "llm classifier not configured", 0)
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	result, err := d.classifier.ClassifyMessage(ctx, text)
	if err != nil {
		return ErrorOutcome(d.Name(), err.Error(), float64(time.Since(start).Milliseconds()))
	}
	return result.Outcome()
}

// ---------------------------------------------------------------------------
// Generic HTTP adapter
// ---------------------------------------------------------------------------

// TransportFunc performs the raw exchange with a classification service:
// text in, undecoded response body out. Injected so tests and exotic
// services can replace the wire call without touching normalization.
type TransportFunc func(ctx context.Context, text string) ([]byte, error)

// HTTPDetector posts a message to a classification endpoint and
// normalizes whatever label shape the service answers with: a single
// {label, score} object or a list of them (possibly nested one level, as
// HuggingFace inference endpoints do).
type HTTPDetector struct {
	name      string
	transport TransportFunc
	timeout   time.Duration
}

// NewHTTPDetector builds a detector for a JSON endpoint accepting
// {"text": ...}.
func NewHTTPDetector(endpoint string, timeout time.Duration) *HTTPDetector {
	return NewHTTPDetectorWithTransport("http", defaultTransport(endpoint), timeout)
}

// NewHTTPDetectorWithTransport builds a detector around a custom
// transport.
func NewHTTPDetectorWithTransport(name string, transport TransportFunc, timeout time.Duration) *HTTPDetector {
	if timeout <= 0 {
		timeout = DefaultDetectorTimeout
	}
	return &HTTPDetector{name: name, transport: transport, timeout: timeout}
}

func defaultTransport(endpoint string) TransportFunc {
	client := httputil.DetectorClient()
	return func(ctx context.Context, text string) ([]byte, error) {
		payload, err := json.Marshal(map[string]string{"text": text})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httputil.DrainAndClose(resp.Body)

		body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("detector endpoint returned %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}
}

func (d *HTTPDetector) Name() string { return d.name }

func (d *HTTPDetector) Ready() bool { return d.transport != nil }

func (d *HTTPDetector) Classify(ctx context.Context, text string) DetectorOutcome {
	if d.transport == nil {
		return ErrorOutcome(d.name, "no transport configured", 0)
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	body, err := d.transport(ctx, text)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		return ErrorOutcome(d.name, err.Error(), latency)
	}

	label, prob, err := decodeLabelResponse(body)
	if err != nil {
		return ErrorOutcome(d.name, err.Error(), latency)
	}
	return DetectorOutcome{
		Source:      d.name,
		Label:       label,
		Probability: prob,
		Reason:      "external classifier response",
		LatencyMs:   latency,
	}
}

// decodeLabelResponse accepts the three response shapes seen in the wild:
// {"label": ..., "score": ...}, [{...}, ...] and [[{...}, ...]].
func decodeLabelResponse(body []byte) (Label, float64, error) {
	var single ScoredLabel
	if err := json.Unmarshal(body, &single); err == nil && single.Label != "" {
		label := ParseLabel(single.Label)
		if label == LabelError {
			return LabelError, 0, fmt.Errorf("unrecognized label %q", single.Label)
		}
		return label, FraudProbability(label, single.Score), nil
	}

	var list []ScoredLabel
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		label, prob := NormalizeScoredLabels(list)
		if label == LabelError {
			return LabelError, 0, fmt.Errorf("no recognizable labels in %s", string(body))
		}
		return label, prob, nil
	}

	var nested [][]ScoredLabel
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		label, prob := NormalizeScoredLabels(nested[0])
		if label == LabelError {
			return LabelError, 0, fmt.Errorf("no recognizable labels in %s", string(body))
		}
		return label, prob, nil
	}

	return LabelError, 0, fmt.Errorf("unparseable detector response: %s", string(body))
}
