package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Bahjat/insight-router/internal/allowlist"
	"github.com/Bahjat/insight-router/internal/analytics"
	"github.com/Bahjat/insight-router/internal/crawl"
	"github.com/Bahjat/insight-router/internal/llm"
	"github.com/Bahjat/insight-router/internal/planner"
	"github.com/Bahjat/insight-router/internal/platform/config"
	"github.com/Bahjat/insight-router/internal/platform/logger"
	"github.com/Bahjat/insight-router/internal/platform/middleware"
	"github.com/Bahjat/insight-router/internal/platform/tracing"
	"github.com/Bahjat/insight-router/internal/queryapi"
	"github.com/Bahjat/insight-router/internal/router"
	"github.com/Bahjat/insight-router/internal/seo"
)

const (
	serviceName     = "insight-router"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := tracing.Initialize(ctx, tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  serviceName,
		Version:      serviceVersion,
		OTLPEndpoint: cfg.OTLPEndpoint,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	plans, closePlans := newPlanner(cfg, log)
	defer closePlans()

	analyticsAgent := analytics.NewAgent(plans, allowlist.Default(), analytics.NewReporter(ctx, cfg.GA4CredentialsFile, log), log)
	seoAgent := seo.NewAgent(loadDataset(ctx, cfg, log), log)

	service := queryapi.NewService(router.New(analyticsAgent, seoAgent, log), log)
	transport := queryapi.NewTransport(service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	transport.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("listening", "addr", srv.Addr)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// newPlanner builds the analytics planner chain. The model planner is used
// only when an API key is configured and its plans are cached when Redis is.
func newPlanner(cfg config.Config, log *slog.Logger) (planner.Planner, func()) {
	closer := func() {}
	if cfg.LLMAPIKey == "" {
		log.Warn("no language model configured, using keyword plans only")
		return planner.WithFallback(nil, log), closer
	}

	var primary planner.Planner = planner.NewModelPlanner(llm.NewClient(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}))

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		primary = planner.NewCachedPlanner(primary, rdb, cfg.PlanCacheTTL, log)
		closer = func() {
			if err := rdb.Close(); err != nil {
				log.Warn("closing redis client", "error", err)
			}
		}
		log.Info("plan cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.PlanCacheTTL.String())
	}

	return planner.WithFallback(primary, log), closer
}

// loadDataset crawls the configured URLs, or reads the crawl export when none
// are set.
func loadDataset(ctx context.Context, cfg config.Config, log *slog.Logger) *seo.Dataset {
	if len(cfg.SEOCrawlURLs) == 0 {
		return seo.Load(cfg.SEODataPath, log)
	}

	c := crawl.New(crawl.NewHTTPFetcher(cfg.CrawlConcurrency), cfg.CrawlConcurrency, log)
	data := c.Crawl(ctx, cfg.SEOCrawlURLs)
	log.Info("crawl finished", "pages", data.Len(), "requested", len(cfg.SEOCrawlURLs))
	return data
}
