package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobmate/govjobs-service/internal/grpcserver"
	"jobmate/govjobs-service/internal/httpapi"
	"jobmate/govjobs-service/internal/scheduler"
	"jobmate/govjobs-service/internal/search"
)

var serveSourcesFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API and run scheduled ingestion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		log := zap.S().Named("main")

		if serveSourcesFile != "" {
			if err := a.syncSources(ctx, serveSourcesFile); err != nil {
				return err
			}
		}

		// ── Scheduler ────────────────────────────────────────────────────────
		geoCache := a.geocodeCache()
		sched := scheduler.New(a.ingestor(), geoCache, a.cfg.IngestSpec(), a.cfg.Geocode.PurgeSpec, a.cfg.Ingest.RunOnStart)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}

		// ── gRPC health ──────────────────────────────────────────────────────
		grpcSrv := grpcserver.New()
		lis, err := net.Listen("tcp", ":"+a.cfg.GRPCPort)
		if err != nil {
			sched.Stop()
			return fmt.Errorf("grpc listen: %w", err)
		}
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Errorw("gRPC server error", "error", err)
			}
		}()

		// ── HTTP server ──────────────────────────────────────────────────────
		h := httpapi.NewHandler(search.NewService(a.store), geoCache, a.store, a.store, serviceName, version)
		srv := &http.Server{
			Addr:         ":" + a.cfg.Port,
			Handler:      h.Router(zap.L()),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			log.Infow("HTTP server listening", "version", version, "port", a.cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("HTTP server error", "error", err)
				cancel()
			}
		}()

		// ── Graceful shutdown ────────────────────────────────────────────────
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-ctx.Done():
		}

		log.Info("shutting down")
		grpcSrv.SetServing(false)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("HTTP shutdown error", "error", err)
		}
		grpcSrv.Shutdown(shutdownCtx)
		sched.Stop()
		log.Info("stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveSourcesFile, "sources", "", "sync sources from this YAML file before serving")
}
