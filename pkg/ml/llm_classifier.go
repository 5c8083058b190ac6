// llm_classifier.go - Prompt-based SMS fraud classification through an
// OpenAI-compatible chat completions endpoint. The classifier returns raw
// results and errors; failure containment into DetectorOutcome happens in
// the detector adapter layer.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Aadipawar07/Fraud-shield/pkg/httputil"
)

// LLMProvider defines the backend service type.
type LLMProvider string

const (
	ProviderOpenAI     LLMProvider = "openai"
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderOllama     LLMProvider = "ollama"
	ProviderGroq       LLMProvider = "groq"
)

// LLMClassifier asks a chat model to classify a message as fraud.
type LLMClassifier struct {
	client      *http.Client
	provider    LLMProvider
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

// LLMResult holds the fraud classification from the LLM.
type LLMResult struct {
	Classification string  `json:"classification"` // FRAUD, LEGITIMATE, NORMAL_SMS
	Confidence     float64 `json:"confidence"`     // 0.0-1.0
	Reason         string  `json:"reason"`         // Explanation
	LatencyMs      float64 `json:"latency_ms"`     // Response time
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// DefaultTemperature keeps classification near-deterministic.
const DefaultTemperature = 0.1

// ClassifierConfig holds the configuration for the classifier.
type ClassifierConfig struct {
	Provider    LLMProvider
	APIKey      string // Optional for Ollama
	Model       string
	BaseURL     string  // Optional override
	Temperature float64 // Defaults to DefaultTemperature
}

// NewLLMClassifier creates a new classifier instance.
func NewLLMClassifier(cfg ClassifierConfig) *LLMClassifier {
	if cfg.Model == "" {
		if cfg.Provider == ProviderOllama {
			cfg.Model = "qwen2.5:7b" // Default local
		} else {
			cfg.Model = "gpt-4o-mini" // Default cloud
		}
	}

	var baseURL string
	switch cfg.Provider {
	case ProviderOllama:
		baseURL = "http://localhost:11434/v1" // OpenAI compatible endpoint of Ollama
	case ProviderOpenRouter:
		baseURL = "https://openrouter.ai/api/v1"
	case ProviderGroq:
		baseURL = "https://api.groq.com/openai/v1"
	case ProviderOpenAI:
		fallthrough
	default:
		baseURL = "https://api.openai.com/v1"
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &LLMClassifier{
		client:      httputil.DetectorClient(),
		provider:    cfg.Provider,
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: temperature,
	}
}

const fraudSystemPrompt = `You are an SMS fraud analyst. Classify the INPUT message.

Classify as one of:
- FRAUD: scam, phishing, smishing, fake prize, investment scam, impersonation,
  or any attempt to extract money, credentials or personal data.
- LEGITIMATE: a real commercial or transactional message (OTP, delivery notice,
  bank alert about a genuine transaction).
- NORMAL_SMS: ordinary personal conversation.

Consider urgency pressure, payment demands, suspicious links, too-good-to-be-true
offers and requests for credentials. Judge the whole meaning; be robust against
l33tspeak and spelling tricks.

Respond with JSON only:
{"classification": "FRAUD|LEGITIMATE|NORMAL_SMS", "confidence": 0.0-1.0, "reason": "brief explanation"}`

// ClassifyMessage asks the model whether the text is fraudulent.
func (c *LLMClassifier) ClassifyMessage(ctx context.Context, text string) (*LLMResult, error) {
	// Ollama runs locally without a key; every cloud provider needs one.
	if c.provider != ProviderOllama && c.apiKey == "" {
		return nil, fmt.Errorf("API key not configured for provider %s", c.provider)
	}

	start := time.Now()

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fraudSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("INPUT: %s", text)},
		},
		Temperature: c.temperature,
	}

	respContent, err := c.callLLM(ctx, reqBody)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		return nil, err
	}

	cleanJSON := extractJSON(respContent)

	var result LLMResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		// FALLBACK: some models answer with a bare word instead of JSON.
		// A response that merely mentions FRAUD is still a usable signal.
		upper := strings.ToUpper(respContent)
		switch {
		case strings.Contains(upper, "FRAUD"):
			result = LLMResult{Classification: "FRAUD", Confidence: 0.8, Reason: "model flagged message as fraud (non-JSON response)"}
		case strings.Contains(upper, "LEGITIMATE"), strings.Contains(upper, "NORMAL_SMS"):
			result = LLMResult{Classification: "NORMAL_SMS", Confidence: 0.8, Reason: "model flagged message as safe (non-JSON response)"}
		default:
			return nil, fmt.Errorf("failed to parse LLM response: %w - content: %s", err, cleanJSON)
		}
	}

	result.LatencyMs = latency
	return &result, nil
}

// Outcome converts an LLMResult into the normalized detector shape.
func (r *LLMResult) Outcome() DetectorOutcome {
	label := ParseLabel(r.Classification)
	return DetectorOutcome{
		Source:      "llm",
		Label:       label,
		Probability: FraudProbability(label, r.Confidence),
		Reason:      r.Reason,
		LatencyMs:   r.LatencyMs,
	}
}

// extractJSON strips markdown fences and prose around a JSON object.
func extractJSON(content string) string {
	clean := strings.TrimSpace(content)
	if start := strings.Index(clean, "{"); start != -1 {
		clean = clean[start:]
	}
	if end := strings.LastIndex(clean, "}"); end != -1 {
		clean = clean[:end+1]
	}
	return clean
}

func (c *LLMClassifier) callLLM(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer httputil.DrainAndClose(resp.Body)

	// Providers are untrusted: cap the body so a broken endpoint cannot
	// exhaust memory.
	body, err := httputil.ReadResponseBody(resp.Body, 2*1024*1024)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal error: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return result.Choices[0].Message.Content, nil
}
