package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tkzw41/showcase/internal/api"
	"github.com/tkzw41/showcase/internal/config"
	"github.com/tkzw41/showcase/internal/demo"
	"github.com/tkzw41/showcase/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.DevLog)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Each demo service owns its own session store; capacity limits apply
	// per demo, not globally.
	payments := demo.NewPaymentService(demo.NewStore(cfg.SessionTTL, cfg.MaxSessions))
	pipeline := demo.NewPipelineService(demo.NewStore(cfg.SessionTTL, cfg.MaxSessions))
	dashboard := demo.NewDashboardService(demo.NewStore(cfg.SessionTTL, cfg.MaxSessions))
	collections := demo.NewCollectionsService(demo.NewStore(cfg.SessionTTL, cfg.MaxSessions))

	manager := ws.NewManager(cfg.WSMaxConnections, cfg.WSMaxConnectionsPerSession, logger)
	simulator := ws.NewSimulator(manager, cfg.SimStepUnit, logger)
	wsHandler := ws.NewHandler(manager, simulator, logger)

	server := api.New(logger, payments, pipeline, dashboard, collections, wsHandler)

	httpServer := &http.Server{
		Addr:    cfg.Bind,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("bind", cfg.Bind))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		simulator.StopAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
