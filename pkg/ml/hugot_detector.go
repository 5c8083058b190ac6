// hugot_detector.go - Local ML-based SMS spam classification using
// Hugot/ONNX. Runs entirely offline once a model is on disk, which keeps
// the external-detector path available without any network dependency.
package ml

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotDetector wraps a text classification pipeline over an SMS spam
// model. Safe for concurrent use.
type HugotDetector struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	config   HugotConfig
	ready    bool
}

// HugotConfig configures the local spam detector.
type HugotConfig struct {
	// ModelPath is the local path to the ONNX model directory.
	// If empty and ModelName is set, the model will be downloaded.
	ModelPath string

	// ModelName is the HuggingFace model name used for download when
	// ModelPath is absent.
	ModelName string

	// OnnxLibraryPath is the path to libonnxruntime.so. When empty the
	// pure Go backend is used (slower, zero native dependencies).
	OnnxLibraryPath string

	// UseGPU enables CUDA acceleration if available.
	UseGPU bool

	// DeviceID specifies which GPU to use (default: 0).
	DeviceID int

	// AutoDownload permits fetching the model from HuggingFace when it is
	// not found locally.
	AutoDownload bool
}

// Model presets. Both are binary sms-spam fine-tunes; they differ in the
// label vocabulary they emit, which ParseLabel absorbs.
const (
	// ModelBertTinySpam is a 4.4M-param BERT-tiny fine-tuned on SMS spam.
	// Emits LABEL_0 (ham) / LABEL_1 (spam). Small enough for edge boxes.
	ModelBertTinySpam = "mrm8488/bert-tiny-finetuned-sms-spam-detection"

	// ModelMobileBertSpam is a MobileBERT sms-spam fine-tune emitting
	// "ham" / "spam" labels.
	ModelMobileBertSpam = "mariagrandury/roberta-base-finetuned-sms-spam-detection"
)

// DefaultHugotConfig returns the stock configuration: BERT-tiny spam
// model, CPU inference, download allowed.
func DefaultHugotConfig() HugotConfig {
	return HugotConfig{
		ModelName:       ModelBertTinySpam,
		ModelPath:       "./models/bert-tiny-sms-spam",
		OnnxLibraryPath: defaultOnnxPath(),
		AutoDownload:    true,
	}
}

func defaultOnnxPath() string {
	if p := os.Getenv("ONNX_LIBRARY_PATH"); p != "" {
		return p
	}
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
	}
	if runtime.GOOS == "darwin" {
		candidates = []string{
			"/opt/homebrew/lib/libonnxruntime.dylib",
			"/usr/local/lib/libonnxruntime.dylib",
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// NewHugotDetector creates and initializes the detector, returning an
// error when the model cannot be loaded.
func NewHugotDetector(cfg HugotConfig) (*HugotDetector, error) {
	h := &HugotDetector{config: cfg}
	if err := h.initialize(); err != nil {
		return nil, fmt.Errorf("hugot initialization failed: %w", err)
	}
	return h, nil
}

// NewHugotDetectorWithFallback never fails: when initialization does not
// succeed the returned detector reports IsReady() == false and the
// ensemble simply skips it. Local ML is an enhancement, not a dependency.
func NewHugotDetectorWithFallback(cfg HugotConfig) *HugotDetector {
	h, err := NewHugotDetector(cfg)
	if err != nil {
		log.Printf("[WARN] Local spam model unavailable: %v", err)
		return &HugotDetector{config: cfg, ready: false}
	}
	return h
}

func (h *HugotDetector) initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, err := h.createSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	h.session = session

	modelPath, err := h.resolveModelPath()
	if err != nil {
		_ = h.session.Destroy()
		return fmt.Errorf("failed to resolve model path: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "sms-spam-detector",
	}

	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = h.session.Destroy()
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	h.pipeline = pipeline
	h.ready = true
	log.Printf("Spam model loaded (model: %s)", modelPath)

	return nil
}

// createSession prefers the ONNX Runtime backend and falls back to the
// pure Go backend when the native library is missing.
func (h *HugotDetector) createSession() (*hugot.Session, error) {
	if h.config.OnnxLibraryPath != "" {
		opts := []options.WithOption{
			options.WithOnnxLibraryPath(h.config.OnnxLibraryPath),
		}
		if h.config.UseGPU {
			opts = append(opts, options.WithCuda(map[string]string{
				"device_id": fmt.Sprintf("%d", h.config.DeviceID),
			}))
		}
		session, err := hugot.NewORTSession(opts...)
		if err == nil {
			return session, nil
		}
		log.Printf("ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Go session: %w", err)
	}
	return session, nil
}

func (h *HugotDetector) resolveModelPath() (string, error) {
	if h.config.ModelPath != "" {
		if _, err := os.Stat(h.config.ModelPath); err == nil {
			return h.config.ModelPath, nil
		}
	}

	if !h.config.AutoDownload {
		return "", fmt.Errorf("model not found at %q and auto-download disabled", h.config.ModelPath)
	}
	if h.config.ModelName == "" {
		return "", fmt.Errorf("no model path or name specified")
	}

	modelsDir := "./models"
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	log.Printf("Downloading model %s...", h.config.ModelName)
	modelPath, err := hugot.DownloadModel(h.config.ModelName, modelsDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return modelPath, nil
}

// IsReady returns true if the detector can serve classifications.
func (h *HugotDetector) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// ClassifySingle runs one message through the spam model and returns the
// normalized detector outcome. It never returns an error: failures are
// encoded as error outcomes so the caller's merge logic stays uniform.
func (h *HugotDetector) ClassifySingle(ctx context.Context, text string) DetectorOutcome {
	h.mu.RLock()
	defer h.mu.RUnlock()

	const source = "hugot"

	if !h.ready || h.pipeline == nil {
		return ErrorOutcome(source, "spam model not loaded", 0)
	}
	if err := ctx.Err(); err != nil {
		return ErrorOutcome(source, err.Error(), 0)
	}

	start := time.Now()
	result, err := h.pipeline.RunPipeline([]string{text})
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		return ErrorOutcome(source, fmt.Sprintf("classification failed: %v", err), latency)
	}

	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return ErrorOutcome(source, "model returned no outputs", latency)
	}

	// Models disagree on vocabulary (LABEL_1 vs "spam"); reduce whatever
	// came back through the shared alias table.
	entries := make([]ScoredLabel, 0, len(result.ClassificationOutputs[0]))
	for _, out := range result.ClassificationOutputs[0] {
		entries = append(entries, ScoredLabel{Label: out.Label, Score: float64(out.Score)})
	}
	label, prob := NormalizeScoredLabels(entries)
	if label == LabelError {
		return ErrorOutcome(source, fmt.Sprintf("unrecognized model labels: %v", entries), latency)
	}

	return DetectorOutcome{
		Source:      source,
		Label:       label,
		Probability: prob,
		Reason:      fmt.Sprintf("spam model %s classification", h.config.ModelName),
		LatencyMs:   latency,
	}
}

// Close releases the underlying ONNX session.
func (h *HugotDetector) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = false
	if h.session != nil {
		if err := h.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		h.session = nil
	}
	return nil
}
