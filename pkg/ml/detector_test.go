package ml

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHTTPDetectorSingleObjectResponse(t *testing.T) {
	d := NewHTTPDetectorWithTransport("http", func(ctx context.Context, text string) ([]byte, error) {
		return []byte(`{"label": "spam", "score": 0.93}`), nil
	}, time.Second)

	o := d.Classify(context.Background(), "win a prize now")
	if o.Label != LabelFraud {
		t.Errorf("label = %s, want fraud", o.Label)
	}
	if o.Probability != 0.93 {
		t.Errorf("probability = %.2f, want 0.93", o.Probability)
	}
}

func TestHTTPDetectorListResponse(t *testing.T) {
	d := NewHTTPDetectorWithTransport("http", func(ctx context.Context, text string) ([]byte, error) {
		return []byte(`[{"label": "LABEL_0", "score": 0.88}, {"label": "LABEL_1", "score": 0.12}]`), nil
	}, time.Second)

	o := d.Classify(context.Background(), "see you tomorrow")
	if o.Label != LabelSafe {
		t.Errorf("label = %s, want safe", o.Label)
	}
	// P(fraud) inverted from the winning safe score.
	if o.Probability < 0.11 || o.Probability > 0.13 {
		t.Errorf("probability = %.2f, want ~0.12", o.Probability)
	}
}

func TestHTTPDetectorNestedListResponse(t *testing.T) {
	// HuggingFace inference endpoints wrap results one level deeper.
	d := NewHTTPDetectorWithTransport("http", func(ctx context.Context, text string) ([]byte, error) {
		return []byte(`[[{"label": "ham", "score": 0.75}, {"label": "spam", "score": 0.25}]]`), nil
	}, time.Second)

	o := d.Classify(context.Background(), "lunch at noon?")
	if o.Label != LabelSafe {
		t.Errorf("label = %s, want safe", o.Label)
	}
}

func TestHTTPDetectorTransportErrorContained(t *testing.T) {
	d := NewHTTPDetectorWithTransport("http", func(ctx context.Context, text string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}, time.Second)

	o := d.Classify(context.Background(), "anything")
	if !o.IsError() {
		t.Fatal("transport error must become an error outcome")
	}
	if !strings.Contains(o.ErrorDetail, "connection refused") {
		t.Errorf("error detail = %q", o.ErrorDetail)
	}
}

func TestHTTPDetectorTimeoutIsFailureNotSafe(t *testing.T) {
	d := NewHTTPDetectorWithTransport("http", func(ctx context.Context, text string) ([]byte, error) {
		select {
		case <-time.After(5 * time.Second):
			return []byte(`{"label": "ham", "score": 0.99}`), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, 50*time.Millisecond)

	o := d.Classify(context.Background(), "slow service")
	if !o.IsError() {
		t.Fatalf("timeout must be an error outcome, got label %s", o.Label)
	}
	if o.Label == LabelSafe {
		t.Error("timeout must never be interpreted as safe")
	}
}

func TestHTTPDetectorMalformedResponseContained(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"unexpected": true}`,
		`[{"label": "mystery", "score": 1.0}]`,
		``,
	}
	for _, body := range cases {
		d := NewHTTPDetectorWithTransport("http", func(ctx context.Context, text string) ([]byte, error) {
			return []byte(body), nil
		}, time.Second)

		o := d.Classify(context.Background(), "text")
		if !o.IsError() {
			t.Errorf("body %q should produce an error outcome, got %+v", body, o)
		}
	}
}

func TestLocalModelDetectorNotReady(t *testing.T) {
	// Constructed without a model: the fallback constructor path.
	d := NewLocalModelDetector(&HugotDetector{}, time.Second)
	if d.Ready() {
		t.Error("detector without a loaded model must not report ready")
	}
	o := d.Classify(context.Background(), "text")
	if !o.IsError() {
		t.Error("not-ready detector must return an error outcome")
	}
}

func TestLLMDetectorUnconfigured(t *testing.T) {
	d := NewLLMDetector(nil, time.Second)
	if d.Ready() {
		t.Error("nil classifier must not be ready")
	}
	o := d.Classify(context.Background(), "text")
	if !o.IsError() {
		t.Error("unconfigured LLM detector must return an error outcome")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{`prose before {"a": 1} prose after`, `{"a": 1}`},
		{`{"a": 1}`, `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
