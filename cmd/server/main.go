package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sitetree/internal/api"
	"github.com/dgallion1/sitetree/internal/cattree"
	"github.com/dgallion1/sitetree/internal/config"
	"github.com/dgallion1/sitetree/internal/content"
	"github.com/dgallion1/sitetree/internal/metrics"
	"github.com/dgallion1/sitetree/internal/parser"
	"github.com/dgallion1/sitetree/internal/pipeline"
	"github.com/dgallion1/sitetree/internal/publish"
	"github.com/dgallion1/sitetree/internal/siteconfig"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	site, err := loadSite(cfg)
	if err != nil {
		log.Error("invalid site configuration", "error", err)
		os.Exit(1)
	}

	registry, err := parser.NewRegistry(parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}).Restrict(cfg.Extensions)
	if err != nil {
		log.Error("invalid content extensions", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize content source.
	input := site.Dirs().Input
	fsys := os.DirFS(input)
	loader := content.NewLoader(fsys, registry, log)
	src := content.NewSource(fsys, loader, site.Categories(), site.Reserved())

	outDir := publishDir(cfg, site)
	pub := publish.NewWriter(outDir, log)

	// Initialize pipeline.
	m := metrics.New()
	worker := pipeline.NewWorker(src, pub, m, log, site.CollisionPolicy(), cfg.MaxConcurrentCategories)
	orch := pipeline.NewOrchestrator(worker, m, log, pipeline.Options{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		JobTTL:    cfg.JobTTL,
	})
	orch.Start(ctx)

	if cfg.BuildOnStart {
		if job, err := orch.Submit(); err != nil {
			log.Warn("initial build not queued", "error", err)
		} else {
			log.Info("initial build queued", "job_id", job.ID)
		}
	}

	// Initialize HTTP server.
	srv := api.NewServer(orch, m, log, cfg.APIKey)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting sitetree", "port", cfg.Port, "input", input, "output", outDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// loadSite builds the site config from SITE_CONFIG, if any, with the
// environment taking precedence.
func loadSite(cfg config.Config) (siteconfig.Config, error) {
	var opts []siteconfig.Option
	if cfg.CollisionPolicy != "" {
		policy, err := cattree.ParseCollisionPolicy(cfg.CollisionPolicy)
		if err != nil {
			return siteconfig.Config{}, err
		}
		opts = append(opts, siteconfig.WithCollisionPolicy(policy))
	}
	if cfg.ContentRoot != "" {
		opts = append(opts, siteconfig.WithDirs(siteconfig.Dirs{Input: cfg.ContentRoot}))
	}

	if cfg.SiteConfigPath != "" {
		return siteconfig.Load(cfg.SiteConfigPath, opts...)
	}
	return siteconfig.New(opts...)
}

// publishDir is OUTPUT_DIR, or the site output dir when unset.
func publishDir(cfg config.Config, site siteconfig.Config) string {
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return site.Dirs().Output
}
