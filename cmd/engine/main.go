// cmd/engine/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"learning-engine/internal/common/config"
	"learning-engine/internal/common/database"
	"learning-engine/internal/common/errors"
	"learning-engine/internal/common/logger"
	"learning-engine/internal/common/observability"
	"learning-engine/internal/engine/aigen"
	"learning-engine/internal/engine/gap"
	"learning-engine/internal/engine/llmcache"
	"learning-engine/internal/engine/parse"
	"learning-engine/internal/engine/provider"
	"learning-engine/internal/engine/recommend"
	"learning-engine/internal/engine/retry"
	"learning-engine/internal/engine/selector"
	"learning-engine/internal/repository"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting recommendation engine...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *sql.DB
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	redisClient := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return database.PingRedis(ctx, redisClient)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	store := repository.NewPostgresStore(pg)

	// --- Engine assembly ---
	cache := llmcache.New(
		llmcache.NewRedisBackend(redisClient),
		cfg.Engine.Cache.MaxSize,
		time.Duration(cfg.Engine.Cache.TTLMinutes)*time.Minute,
		log,
	)

	factory := provider.NewFactory(cfg.AI, log)
	tracker := retry.NewTracker()
	retrier := retry.NewOrchestrator(
		cache,
		cfg.Engine.Retry.MaxAttempts,
		time.Duration(cfg.Engine.Retry.BaseDelayMs)*time.Millisecond,
		tracker,
		log,
	)
	parser := parse.NewParser(log)

	generator := aigen.NewGenerator(store, factory, retrier, parser, aigen.Config{
		Enabled:           cfg.AI.Enabled,
		LowThreshold:      cfg.Engine.LowThreshold,
		CriticalThreshold: cfg.Engine.CriticalThreshold,
		TargetScore:       cfg.Engine.TargetScore,
	}, log)

	engine := recommend.NewEngine(
		store,
		gap.NewAnalyzer(cfg.Engine.LowThreshold, cfg.Engine.CriticalThreshold),
		selector.NewSelector(store, cfg.Engine.CandidatePoolSize, cfg.Engine.CooldownDays, log),
		generator,
		obs,
		recommend.EngineConfig{
			LowThreshold:      cfg.Engine.LowThreshold,
			CriticalThreshold: cfg.Engine.CriticalThreshold,
			TargetScore:       cfg.Engine.TargetScore,
		},
		log,
	)
	zapLog.Info("Recommendation engine assembled")

	// --- AI resource cleanup sweep ---
	janitor := aigen.NewJanitor(store,
		cfg.Engine.MaxAIPerSkill,
		time.Duration(cfg.Engine.CleanupAgeDays)*24*time.Hour,
	)
	go runJanitor(ctx, janitor, time.Duration(cfg.Engine.CleanupIntervalMin)*time.Minute, zapLog)

	// --- HTTP surface: recommendations, completion, stats, metrics ---
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/recommendations", handleRecommendations(engine, zapLog))
	mux.HandleFunc("/v1/history/", handleComplete(engine, zapLog))
	mux.HandleFunc("/v1/stats", handleStats(tracker, cache, parser))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    cfg.Metrics.Address,
		Handler: mux,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping engine...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("http server shutdown failed", zap.Error(err))
	}
	cancel()
}

func handleRecommendations(engine *recommend.Engine, zapLog *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		resp, err := engine.GetRecommendations(r.Context(), userID, recommend.Options{
			Limit:   limit,
			SkillID: r.URL.Query().Get("skillId"),
			Type:    r.URL.Query().Get("type"),
		})
		if err != nil {
			zapLog.Error("recommendation request failed",
				zap.String("userId", userID), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, resp)
	}
}

// handleComplete serves POST /v1/history/{id}/complete.
func handleComplete(engine *recommend.Engine, zapLog *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		historyID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/history/"), "/complete")
		if historyID == "" || strings.Contains(historyID, "/") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var body struct {
			UserID     string `json:"userId"`
			WasHelpful *bool  `json:"wasHelpful"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		err := engine.MarkCompleted(r.Context(), body.UserID, historyID, body.WasHelpful)
		if err == errors.ErrHistoryNotFound {
			http.Error(w, "history not found", http.StatusNotFound)
			return
		}
		if err != nil {
			zapLog.Error("completion request failed",
				zap.String("historyId", historyID), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleStats(tracker *retry.Tracker, cache *llmcache.Cache, parser *parse.Parser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"llm":    tracker.Snapshot(),
			"cache":  cache.Snapshot(),
			"parser": parser.Snapshot(),
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func runJanitor(ctx context.Context, janitor *aigen.Janitor, interval time.Duration, zapLog *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := janitor.Sweep(ctx)
			if err != nil {
				zapLog.Warn("AI resource sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				zapLog.Info("AI resource sweep completed", zap.Int("removed", removed))
			}
		}
	}
}
