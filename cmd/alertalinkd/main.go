// Command alertalinkd runs the ALERTA-LINK scoring engine as an HTTP
// service: it loads configuration, wires every collaborator C1-C12
// described in spec.md, and serves the API in internal/server.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/config"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/crawler"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/features"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/heuristic"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/mlmodel"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/orchestrator"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/ratelimit"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/reputation"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/server"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/store"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/urlsafety"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/webclient"
)

const cacheCapacity = 4096

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewZapLogger(cfg.AppName, cfg.Debug)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	cat := catalog.Default()

	weights, err := catalog.LoadWeightsTable(cfg.WeightsPath)
	if err != nil {
		logger.Warn("loading weights artifact, falling back to defaults", logging.Field{Key: "error", Value: err.Error()})
		weights, _ = catalog.LoadWeightsTable("")
	}

	predictor := mlmodel.New(logger)
	if cfg.ModelPath != "" {
		if err := predictor.Load(cfg.ModelPath, cfg.ModelSHA256); err != nil {
			logger.Warn("ml model unavailable, falling back to heuristic predictor", logging.Field{Key: "error", Value: err.Error()})
		}
	}

	gate, err := urlsafety.NewSafetyGate(&net.Resolver{})
	if err != nil {
		log.Fatalf("safety gate: %v", err)
	}

	httpClient, err := webclient.NewNetHTTPClient(logger, nil)
	if err != nil {
		log.Fatalf("http client: %v", err)
	}

	tranco := reputation.NewTrancoClient(httpClient, cat, cfg.TrancoAPIKey, cfg.TrancoAPIEmail, cfg.TrancoRankThreshold, cacheCapacity, logger, "")
	vt := reputation.NewVirusTotalClient(httpClient, cfg.VirusTotalAPIKey, cfg.VirusTotalQuotaPerMinute, cacheCapacity, logger)
	whois := reputation.NewWHOISClient(httpClient, "", cacheCapacity, logger)

	crawlerEngine := crawler.New(cat, weights, logger, cfg.CrawlerMaxConcurrency)

	engine := orchestrator.New(orchestrator.Config{
		SafetyGate:          gate,
		Extractor:           features.New(cat),
		Predictor:           predictor,
		Heuristic:           heuristic.New(weights, cat),
		Weights:             weights,
		Catalog:             cat,
		Tranco:              tranco,
		VirusTotal:          vt,
		WHOIS:               whois,
		Crawler:             crawlerEngine,
		Logger:              logger,
		TrancoRankThreshold: cfg.TrancoRankThreshold,
		VTUncertaintyMin:    cfg.VirusTotalUncertaintyMin,
		VTUncertaintyMax:    cfg.VirusTotalUncertaintyMax,
	})

	persistence, err := store.Open(cfg.DatabaseURL, cfg.StoreDir, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer persistence.Close()

	limiter := ratelimit.New(cfg.RateLimitTokensPerMinute, cfg.RateLimitBurst)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	limiter.StartCleanup(cleanupCtx, 5*time.Minute)

	srv := server.NewServer(server.Config{
		AppName:              cfg.AppName,
		AppVersion:           cfg.AppVersion,
		ListenAddr:           cfg.ListenAddr,
		CORSOrigins:          cfg.CORSOrigins,
		Engine:               engine,
		Store:                persistence,
		Limiter:              limiter,
		WHOIS:                whois,
		Tranco:               tranco,
		VT:                   vt,
		MLLoaded:             predictor.IsLoaded,
		Logger:               logger,
		DefaultEnableCrawler: cfg.CrawlerEnabledDefault,
	})

	httpServer := srv.HTTPServer()

	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", logging.Field{Key: "error", Value: err.Error()})
	}
}
