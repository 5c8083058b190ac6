// semantic.go - Embedding-based similarity against a corpus of known scam
// messages. Catches paraphrased scams that keyword patterns miss. This is
// an optional booster signal: when no embedding source is reachable the
// engine runs without it.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Aadipawar07/Fraud-shield/pkg/httputil"
)

// ScamExample is one seeded reference message.
type ScamExample struct {
	Text     string
	Category string
	Severity float32 // 0.0-1.0: how damning similarity to this example is
}

// SimilarityDetector indexes seed scam messages in an in-memory vector
// store and reports the closest match for incoming text.
type SimilarityDetector struct {
	db         *chromem.DB
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
}

// SimilarityResult is the outcome of one similarity lookup.
type SimilarityResult struct {
	Score       float32 // Highest similarity (0.0-1.0)
	Category    string  // Category of the closest seed
	MatchedText string  // The seed that matched
	IsScamLike  bool    // Score >= threshold and seed not benign
}

// DefaultSimilarityThreshold marks text as scam-like at or above this
// cosine similarity to a seed example.
const DefaultSimilarityThreshold = 0.75

// NewSimilarityDetector builds a detector backed by Ollama embeddings at
// the given URL.
func NewSimilarityDetector(ollamaURL string) (*SimilarityDetector, error) {
	return newSimilarityDetector(ollamaEmbeddingFunc("nomic-embed-text", ollamaURL))
}

// NewSimilarityDetectorWithEmbedder builds a detector around any chromem
// embedding function (tests inject a deterministic one).
func NewSimilarityDetectorWithEmbedder(embed chromem.EmbeddingFunc) (*SimilarityDetector, error) {
	return newSimilarityDetector(embed)
}

func newSimilarityDetector(embed chromem.EmbeddingFunc) (*SimilarityDetector, error) {
	if embed == nil {
		return nil, fmt.Errorf("embedding function is nil")
	}
	db := chromem.NewDB()
	collection, err := db.CreateCollection("scam_examples", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &SimilarityDetector{
		db:         db,
		collection: collection,
		threshold:  DefaultSimilarityThreshold,
	}, nil
}

// ollamaEmbeddingFunc targets Ollama's /api/embeddings endpoint, which
// uses a different request shape than the OpenAI-compatible API.
func ollamaEmbeddingFunc(model, baseURL string) chromem.EmbeddingFunc {
	client := httputil.SlowClient()

	return func(ctx context.Context, text string) ([]float32, error) {
		reqBody, err := json.Marshal(map[string]string{"model": model, "prompt": text})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, "POST", strings.TrimRight(baseURL, "/")+"/api/embeddings", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httputil.DrainAndClose(resp.Body)

		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("embedding endpoint returned %d", resp.StatusCode)
		}

		var result struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode embedding: %w", err)
		}
		return result.Embedding, nil
	}
}

// LoadSeeds embeds the seed corpus into the collection. Must be called
// once before Lookup; until then the detector reports not ready.
func (sd *SimilarityDetector) LoadSeeds(ctx context.Context) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	seeds := scamSeedCorpus()
	docs := make([]chromem.Document, len(seeds))
	for i, s := range seeds {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("seed_%d", i),
			Content: s.Text,
			Metadata: map[string]string{
				"category": s.Category,
				"severity": fmt.Sprintf("%.2f", s.Severity),
			},
		}
	}

	// One worker: embedding endpoints choke on concurrent backfill.
	if err := sd.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add seed corpus: %w", err)
	}

	sd.ready = true
	return nil
}

// IsReady returns whether the seed corpus has been embedded.
func (sd *SimilarityDetector) IsReady() bool {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	return sd.ready
}

// SetThreshold overrides the similarity threshold.
func (sd *SimilarityDetector) SetThreshold(t float32) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	sd.threshold = t
}

// Lookup returns the closest seed match for the text.
func (sd *SimilarityDetector) Lookup(ctx context.Context, text string) (*SimilarityResult, error) {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	if !sd.ready {
		return nil, fmt.Errorf("similarity detector not initialized - call LoadSeeds first")
	}

	results, err := sd.collection.Query(ctx, strings.ToLower(text), 3, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if len(results) == 0 {
		return &SimilarityResult{Category: "benign"}, nil
	}

	best := results[0]
	category := best.Metadata["category"]

	if category == "benign" {
		return &SimilarityResult{
			Score:       0,
			Category:    "benign",
			MatchedText: best.Content,
		}, nil
	}

	return &SimilarityResult{
		Score:       best.Similarity,
		Category:    category,
		MatchedText: best.Content,
		IsScamLike:  best.Similarity >= sd.threshold,
	}, nil
}

var (
	cachedSeeds     []ScamExample
	cachedSeedsOnce sync.Once
)

// scamSeedCorpus returns the curated reference messages. Benign entries
// exist purely for false-positive control: when everyday text lands
// closest to a benign seed, no scam similarity is reported.
func scamSeedCorpus() []ScamExample {
	cachedSeedsOnce.Do(func() {
		cachedSeeds = []ScamExample{
			// Prize / lottery
			{"Congratulations! You have been selected as our lucky winner. Claim your prize now", "prize", 0.95},
			{"You won the mega lottery draw, pay the processing fee to release your winnings", "prize", 1.0},
			{"Your number was chosen in our anniversary lucky draw, click to claim your reward", "prize", 0.9},

			// Account / credential phishing
			{"Your bank account has been suspended, verify your identity immediately", "account_phish", 1.0},
			{"Unusual login detected on your account, confirm your password at this link", "account_phish", 0.95},
			{"Your KYC is incomplete, update your details today or your account will be blocked", "account_phish", 0.95},

			// Investment / crypto
			{"Invest 5000 and get double returns in one week, guaranteed profit", "investment", 1.0},
			{"Join our crypto trading group, our members earn daily profits", "investment", 0.9},
			{"Earn passive income with our expert stock tips, 300% returns proven", "investment", 0.95},

			// Job offers
			{"Work from home and earn 5000 daily, no experience needed, registration fee required", "job_offer", 0.95},
			{"You are shortlisted for a part time job, pay a small training fee to start", "job_offer", 0.95},

			// Delivery / fees
			{"Your package is held at customs, pay the clearance fee to receive it", "delivery", 0.9},
			{"Delivery attempt failed, reschedule by confirming your card details", "delivery", 0.95},

			// Benign (false-positive control)
			{"Hey, are we still on for lunch tomorrow?", "benign", 0.0},
			{"Your OTP for login is 482913. Do not share it with anyone.", "benign", 0.0},
			{"Reminder: your appointment is scheduled for Monday at 10am", "benign", 0.0},
			{"Mom, I'll call you when I get home", "benign", 0.0},
		}
	})
	return cachedSeeds
}

// SeedCount returns the number of reference messages.
func (sd *SimilarityDetector) SeedCount() int {
	return len(scamSeedCorpus())
}
