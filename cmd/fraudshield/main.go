package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Aadipawar07/Fraud-shield/pkg/audit"
	"github.com/Aadipawar07/Fraud-shield/pkg/config"
	"github.com/Aadipawar07/Fraud-shield/pkg/httputil"
	"github.com/Aadipawar07/Fraud-shield/pkg/ml"
	"github.com/Aadipawar07/Fraud-shield/pkg/sender"
	"github.com/Aadipawar07/Fraud-shield/pkg/store"
)

const Version = "0.1.0"

// Engine holds the scoring components.
// All components except the heuristic scorer are optional and gracefully
// degrade when unavailable.
type Engine struct {
	orchestrator *ml.Orchestrator
	checker      *sender.Checker
	db           *store.Postgres // nil when persistence is off
	auditLog     *audit.Logger
	cfg          *config.Config

	hugot *ml.HugotDetector // kept for shutdown
	redis *sender.RedisStore
}

// NewEngine wires every component from config. Failures in optional
// components log and disable, never abort.
func NewEngine(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	timeout := time.Duration(cfg.DetectorTimeoutMs) * time.Millisecond
	e := &Engine{cfg: cfg}
	var detectors []ml.Detector

	// Local ONNX spam classifier - optional.
	if cfg.EnableLocalModel {
		e.hugot = ml.NewHugotDetectorWithFallback(ml.HugotConfig{
			ModelPath:       cfg.ModelPath,
			ModelName:       ml.ModelBertTinySpam,
			OnnxLibraryPath: cfg.OnnxLibraryPath,
			AutoDownload:    true,
		})
		if e.hugot.IsReady() {
			detectors = append(detectors, ml.NewLocalModelDetector(e.hugot, timeout))
			log.Println("✓ Local spam model enabled (hugot/ONNX)")
		} else {
			log.Println("○ Local spam model disabled (no ONNX model found)")
		}
	} else {
		log.Println("○ Local spam model disabled")
	}

	// LLM classifier - optional, needs a provider.
	if cfg.LLMProvider != config.ProviderNone && (cfg.LLMAPIKey != "" || cfg.LLMProvider == config.ProviderOllama) {
		llm := ml.NewLLMClassifier(ml.ClassifierConfig{
			Provider: ml.LLMProvider(cfg.LLMProvider),
			APIKey:   cfg.LLMAPIKey,
			Model:    cfg.LLMModel,
			BaseURL:  cfg.LLMBaseURL,
		})
		detectors = append(detectors, ml.NewLLMDetector(llm, timeout))
		log.Printf("✓ LLM classifier enabled (provider: %s)", cfg.LLMProvider)
	} else {
		log.Println("○ LLM classifier disabled (no API key)")
	}

	// Plain HTTP classifier endpoint - optional.
	if cfg.DetectorEndpoint != "" {
		detectors = append(detectors, ml.NewHTTPDetector(cfg.DetectorEndpoint, timeout))
		log.Printf("✓ HTTP classifier enabled (%s)", cfg.DetectorEndpoint)
	}

	// Scam similarity (chromem-go + Ollama embeddings) - optional.
	var similarity *ml.SimilarityDetector
	if cfg.EnableSimilarity {
		sim, err := ml.NewSimilarityDetector(cfg.OllamaURL)
		if err != nil {
			log.Printf("○ Scam similarity disabled (init failed: %v)", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			if err := sim.LoadSeeds(ctx); err != nil {
				log.Printf("○ Scam similarity disabled (seed load failed: %v)", err)
			} else {
				similarity = sim
				log.Println("✓ Scam similarity enabled (chromem-go + Ollama embeddings)")
			}
			cancel()
		}
	} else {
		log.Println("○ Scam similarity disabled")
	}

	e.orchestrator = ml.NewOrchestrator(ml.OrchestratorConfig{
		FraudThreshold:    cfg.FraudThreshold,
		OverrideThreshold: cfg.OverrideThreshold,
		SimilarityBonus:   cfg.SimilarityBonus,
	}, detectors, similarity)

	// Sender blacklist: Redis > YAML file > bundled seed data.
	var blacklist sender.Store
	switch {
	case cfg.RedisAddr != "":
		rs, err := sender.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("○ Redis blacklist disabled (%v), using bundled list", err)
			blacklist = sender.NewMemoryStore(sender.DefaultEntries())
		} else {
			e.redis = rs
			blacklist = rs
			log.Printf("✓ Redis blacklist enabled (%s)", cfg.RedisAddr)
		}
	case cfg.BlacklistPath != "":
		blacklist = sender.LoadBlacklist(cfg.BlacklistPath)
		log.Printf("✓ File blacklist enabled (%s)", cfg.BlacklistPath)
	default:
		blacklist = sender.NewMemoryStore(sender.DefaultEntries())
		log.Println("✓ Bundled blacklist enabled")
	}
	e.checker = sender.NewChecker(blacklist)

	// Postgres persistence - optional.
	if cfg.PostgresDSN != "" {
		db, err := store.Connect(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Printf("○ Persistence disabled (%v)", err)
		} else {
			e.db = db
			log.Println("✓ Persistence enabled (postgres)")
		}
	} else {
		log.Println("○ Persistence disabled")
	}

	auditLog, err := audit.NewLogger(cfg.AuditLogPath)
	if err != nil {
		log.Printf("○ Audit log disabled (%v)", err)
		auditLog = &audit.Logger{}
	}
	e.auditLog = auditLog

	return e
}

// Scan scores one message end to end and records the verdict.
func (e *Engine) Scan(ctx context.Context, msg ml.Message) ml.Verdict {
	verdict := e.orchestrator.Evaluate(ctx, msg)

	e.auditLog.Record("scan", verdictLabel(verdict.IsFraud), verdict.Score, string(verdict.Method), map[string]any{
		"signals": verdict.MatchedSignals,
		"source":  verdict.Source,
	})
	if e.db != nil {
		if _, err := e.db.SaveAnalysis(ctx, msg.Text, verdict.IsFraud, verdict.Confidence, verdict.Score, string(verdict.Method), verdict.Reason); err != nil {
			log.Printf("[WARN] failed to persist analysis: %v", err)
		}
	}
	return verdict
}

// CheckSender grades one sender identifier and records the outcome.
func (e *Engine) CheckSender(ctx context.Context, identifier string) sender.Result {
	result := e.checker.Check(ctx, identifier)
	e.auditLog.Record("sender_check", string(result.RiskLevel), 0, "", map[string]any{
		"identifier": result.Normalized,
		"flagged":    result.IsFlagged,
	})
	return result
}

// Close shuts down every held resource.
func (e *Engine) Close() {
	if e.hugot != nil {
		if err := e.hugot.Close(); err != nil {
			log.Printf("[WARN] model shutdown: %v", err)
		}
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
	e.db.Close()
	_ = e.auditLog.Close()
}

func verdictLabel(isFraud bool) string {
	if isFraud {
		return "fraud"
	}
	return "safe"
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: fraudshield scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "check":
		if len(os.Args) < 3 {
			fmt.Println("Usage: fraudshield check <phone-number>")
			os.Exit(1)
		}
		runCLICheck(os.Args[2])
	case "serve":
		addr := ""
		if len(os.Args) > 2 {
			addr = ":" + strings.TrimPrefix(os.Args[2], ":")
		}
		runHTTPServer(addr)
	case "version":
		fmt.Printf("FraudShield v%s\n", Version)
		fmt.Println("SMS Fraud Detection Engine")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("FraudShield v%s - SMS Fraud Detection Engine\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  fraudshield scan <text>           Score a message for fraud")
	fmt.Println("  fraudshield check <phone-number>  Check a sender identifier")
	fmt.Println("  fraudshield serve [port]          Start HTTP server (default: 8080)")
	fmt.Println("  fraudshield version               Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  fraudshield scan \"You have won $10,000! Click bit.ly/claim\"")
	fmt.Println("  fraudshield check +919876543210")
	fmt.Println("  fraudshield serve 8080")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  FRAUDSHIELD_THRESHOLD           Fraud threshold (default: 0.6)")
	fmt.Println("  FRAUDSHIELD_LLM_API_KEY         API key for LLM classification")
	fmt.Println("  FRAUDSHIELD_LLM_PROVIDER        Provider: ollama, openrouter, groq, openai, none")
	fmt.Println("  FRAUDSHIELD_ENABLE_LOCAL_MODEL  Run the bundled ONNX spam model")
	fmt.Println("  FRAUDSHIELD_REDIS_ADDR          Redis address for the shared blacklist")
	fmt.Println("  FRAUDSHIELD_POSTGRES_DSN        Postgres DSN for verdict persistence")
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runHTTPServer(addr string) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()
	if addr != "" && addr != ":" {
		cfg.ListenAddr = addr
	}

	engine := NewEngine(cfg)
	defer engine.Close()

	app := fiber.New(fiber.Config{
		AppName: "FraudShield",
	})

	// Cap in-flight scans: external detectors can hold requests for
	// seconds each, and an unbounded pile-up starves everything else.
	scanSem := httputil.NewSemaphore(64)

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Post("/api/v1/scan", func(c fiber.Ctx) error {
		var req struct {
			Text     string `json:"text"`
			SenderID string `json:"sender_id"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}

		if !scanSem.TryAcquire() {
			return c.Status(429).JSON(fiber.Map{"error": "scan capacity exhausted, retry shortly"})
		}
		defer scanSem.Release()

		verdict := engine.Scan(c.Context(), ml.Message{
			Text:       req.Text,
			SenderID:   req.SenderID,
			ReceivedAt: time.Now().UTC(),
		})
		return c.JSON(verdict)
	})

	app.Post("/api/v1/check-sender", func(c fiber.Ctx) error {
		var req struct {
			Identifier string `json:"identifier"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Identifier == "" {
			return c.Status(400).JSON(fiber.Map{"error": "identifier field is required"})
		}
		return c.JSON(engine.CheckSender(c.Context(), req.Identifier))
	})

	app.Get("/api/v1/stats", func(c fiber.Ctx) error {
		if engine.db == nil {
			return c.Status(503).JSON(fiber.Map{"error": "persistence not configured"})
		}
		stats, err := engine.db.GetStats(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "stats query failed"})
		}
		return c.JSON(stats)
	})

	log.Printf("FraudShield HTTP server starting on %s", cfg.ListenAddr)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health               - Health check")
	log.Printf("  POST /api/v1/scan          - Score a message")
	log.Printf("  POST /api/v1/check-sender  - Check a sender identifier")
	log.Printf("  GET  /api/v1/stats         - Aggregate verdict stats")

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIScan(text string) {
	engine := NewEngine(config.NewDefaultConfig())
	defer engine.Close()

	verdict := engine.Scan(context.Background(), ml.Message{
		Text:       text,
		ReceivedAt: time.Now().UTC(),
	})
	output, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(output))
}

func runCLICheck(identifier string) {
	engine := NewEngine(config.NewDefaultConfig())
	defer engine.Close()

	result := engine.CheckSender(context.Background(), identifier)
	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}
