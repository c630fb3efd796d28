// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"merchant-insight-workers/internal/catalog"
	"merchant-insight-workers/internal/common/config"
	"merchant-insight-workers/internal/common/database"
	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/common/observability"
	"merchant-insight-workers/internal/dataset"
	"merchant-insight-workers/internal/knowledge"
	"merchant-insight-workers/internal/store"
	"merchant-insight-workers/pkg/registry"

	// Merchant Workers (3)
	ap "merchant-insight-workers/internal/workers/merchant/analyze-pattern"
	sch "merchant-insight-workers/internal/workers/merchant/search-merchant"
	sel "merchant-insight-workers/internal/workers/merchant/select-merchant"

	// Knowledge Workers (1)
	sk "merchant-insight-workers/internal/workers/knowledge/search-knowledge"

	// Notification Workers (1)
	sda "merchant-insight-workers/internal/workers/notification/send-decline-alert"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Reopen with the configured level and format now that config is available.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Merchant Store (CSV dataset or PostgreSQL) ---
	var merchantStore store.MerchantStore
	switch cfg.Data.Source {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		merchantStore = store.NewPostgresStore(pg, log)

	default:
		ds, err := dataset.Load(cfg.Data, log)
		if err != nil {
			zapLog.Fatal("dataset load failed", zap.Error(err))
		}
		zapLog.Info("Merchant dataset loaded", zap.Int("merchants", ds.Size()))
		merchantStore = ds
	}

	// --- Load Pattern Rule Catalog ---
	rules, err := catalog.Load(cfg.Data.RuleCatalog)
	if err != nil {
		zapLog.Fatal("rule catalog load failed", zap.Error(err))
	}
	for _, warning := range catalog.Lint(rules) {
		zapLog.Warn("rule catalog lint", zap.String("warning", warning))
	}
	zapLog.Info("Rule catalog loaded", zap.Int("rules", len(rules)))

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch + Knowledge Retriever (optional) ---
	var retriever *knowledge.Retriever
	if cfg.Knowledge.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		retriever = knowledge.NewRetriever(
			esClient.Client,
			redis.Client,
			log,
			cfg.Knowledge.Index,
			time.Duration(cfg.Knowledge.CacheTTL)*time.Second,
			config.GetDuration(cfg.Knowledge.Timeout),
		)
	} else {
		zapLog.Info("Knowledge retrieval disabled, marketing tips will be empty")
	}

	// --- START: Register ALL 5 Workers ---

	// --- 1. Merchant Workers (3) ---
	if wcfg := config.GetWorkerConfig(cfg, sch.TaskType); wcfg.Enabled {
		handler := sch.NewHandler(
			&sch.Config{
				Timeout:    config.GetDuration(wcfg.Timeout),
				MaxResults: 20,
			},
			merchantStore, log,
		)
		startWorker(zeebeClient, sch.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, sel.TaskType); wcfg.Enabled {
		handler := sel.NewHandler(
			&sel.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
			},
			merchantStore, log,
		)
		startWorker(zeebeClient, sel.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, ap.TaskType); wcfg.Enabled {
		handler := ap.NewHandler(
			&ap.Config{
				Timeout:             config.GetDuration(wcfg.Timeout),
				CacheTTL:            time.Duration(cfg.Knowledge.CacheTTL) * time.Second,
				SimilarityThreshold: cfg.Knowledge.SimilarityThreshold,
				MaxTips:             cfg.Knowledge.MaxResults,
			},
			merchantStore, rules, retriever, redis.Client, log,
		)
		startWorker(zeebeClient, ap.TaskType, wcfg, handler.Handle, zapLog)
	}

	// --- 2. Knowledge Workers (1) ---
	// needs the retriever, so knowledge must be enabled too
	if wcfg := config.GetWorkerConfig(cfg, sk.TaskType); wcfg.Enabled && retriever != nil {
		handler := sk.NewHandler(
			&sk.Config{
				Timeout:             config.GetDuration(wcfg.Timeout),
				SimilarityThreshold: cfg.Knowledge.SimilarityThreshold,
				MaxResults:          cfg.Knowledge.MaxResults,
			},
			retriever, log,
		)
		startWorker(zeebeClient, sk.TaskType, wcfg, handler.Handle, zapLog)
	}

	// --- 3. Notification Workers (1) ---
	if wcfg := config.GetWorkerConfig(cfg, sda.TaskType); wcfg.Enabled && cfg.Alerts.Enabled {
		handler, err := sda.NewHandler(
			&sda.Config{
				EmailEnabled:     true,
				SMSEnabled:       true,
				FromEmail:        cfg.Alerts.FromEmail,
				AWSRegion:        cfg.Alerts.AWSRegion,
				MinSeverityLevel: cfg.Alerts.MinSeverityLevel,
				SMSMinLevel:      cfg.Alerts.SMSMinLevel,
				Timeout:          config.GetDuration(wcfg.Timeout),
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-decline-alert handler", zap.Error(err))
		}
		startWorker(zeebeClient, sda.TaskType, wcfg, handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	checkRegistry(cfg, zapLog)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkRegistry cross-checks the tool activity registry against the task types
// this binary serves. A stale registry is a warning, not a startup failure.
func checkRegistry(cfg *config.Config, log *zap.Logger) {
	if cfg.Registry.Path == "" {
		return
	}

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		log.Warn("tool registry load failed", zap.String("path", cfg.Registry.Path), zap.Error(err))
		return
	}

	taskTypes := []string{sch.TaskType, sel.TaskType, ap.TaskType, sk.TaskType, sda.TaskType}
	for _, taskType := range taskTypes {
		if reg.FindByTaskType(taskType) == nil {
			log.Warn("task type missing from tool registry", zap.String("taskType", taskType))
		}
	}
	log.Info("Tool registry checked", zap.String("version", reg.Version), zap.Int("tools", len(reg.Tools)))
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
