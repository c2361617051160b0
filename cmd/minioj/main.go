package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minioj/minioj/internal/api"
	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/judger"
	"github.com/minioj/minioj/internal/store"

	"go.uber.org/zap"
)

var Version = "dev-build"

func main() {
	fmt.Fprintf(os.Stderr, "minioj %s - lightweight online judge server\n\n", Version)

	// flags
	var configPath string
	var flushData bool
	flag.StringVar(&configPath, "config", "", "path to config file (required)")
	flag.BoolVar(&flushData, "flush-data", false, "start from empty registries instead of the persisted snapshots")
	flag.Parse()
	if configPath == "" {
		flag.Usage()
		log.Fatal("--config is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// registries
	st := store.New()
	if flushData {
		st.Seed(cfg)
	} else {
		if err := st.Load("."); err != nil {
			zap.S().Fatalf("failed to load persisted state: %v", err)
		}
	}

	// snapshot task
	snapCtx, stopSnapshots := context.WithCancel(context.Background())
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		st.AutoSave(snapCtx, ".", store.SnapshotInterval)
	}()

	// HTTP server
	jd := judger.New(cfg, st)
	exit := make(chan struct{}, 1)
	router := api.NewRouter(cfg, st, jd, exit)

	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.BindPort)
	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		zap.S().Infof("starting server at %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalf("failed to start server: %v", err)
		}
	}()

	// graceful shutdown on signal or POST /internal/exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-exit:
	}
	zap.S().Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("server shutdown: %v", err)
	}

	// AutoSave takes the final snapshot before it returns.
	stopSnapshots()
	<-snapDone
	zap.S().Info("state persisted, bye")
}
