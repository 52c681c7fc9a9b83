package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mgorham/queryboard/internal/artifact"
	"github.com/mgorham/queryboard/internal/cache"
	"github.com/mgorham/queryboard/internal/cache/freecache"
	"github.com/mgorham/queryboard/internal/catalog"
	"github.com/mgorham/queryboard/internal/config"
	"github.com/mgorham/queryboard/internal/job_tracer"
	"github.com/mgorham/queryboard/internal/pathguard"
	"github.com/mgorham/queryboard/internal/registry"
	"github.com/mgorham/queryboard/internal/runner"
	"github.com/mgorham/queryboard/internal/service/logger"
	"github.com/mgorham/queryboard/internal/web"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger.Init(cfg.SERVICE_NAME)

	if cfg.TRACE_URL != "" {
		shutdownTracer, err := job_tracer.InitTracer(ctx, cfg.SERVICE_NAME, cfg.TRACE_URL)
		if err != nil {
			log.Fatalf("error initialising trace: %v", err)
		}
		defer shutdownTracer(ctx)
	}

	runnerCfg, err := config.GetRunnerConfig()
	if err != nil {
		log.Fatalf("runner config error: %v", err)
	}

	resolver, err := pathguard.NewResolver(runnerCfg.PROJECT_ROOT)
	if err != nil {
		log.Fatalf("project root error: %v", err)
	}

	var metaCache cache.Cache
	if cacheCfg, err := config.GetFreeCacheConfig(); err == nil {
		metaCache = freecache.NewFreeCache(cacheCfg.SIZE_BYTES, cacheCfg.TTL)
	} else {
		logger.Log.Info().Err(err).Msg("metadata cache disabled")
	}

	reg := registry.New()
	run := runner.New(runnerCfg, reg, artifact.NewScanner(resolver))
	server := web.NewServer(catalog.New(runnerCfg.QUERY_DIR, metaCache), reg, run, resolver)

	srv := &http.Server{
		Addr:              cfg.HTTP_ADDR,
		Handler:           otelhttp.NewHandler(server.Router(), "queryboard"),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server started on %s", cfg.HTTP_ADDR)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("trying to shutdown server gracefully...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}

	if metaCache != nil {
		metaCache.ShutDown(shutdownCtx)
	}
	logger.Log.Info().Msg("server shutdown gracefully.")
}
