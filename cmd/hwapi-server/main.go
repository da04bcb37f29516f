// Command hwapi-server runs the hardware certification status HTTP
// service, wiring config, logging, the store and the httpapi router
// together in the manner of cl.httpd/cl-release's cobra-plus-envcfg
// entry points.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canonical/hardware-api/internal/config"
	"github.com/canonical/hardware-api/internal/httpapi"
	"github.com/canonical/hardware-api/internal/store"
)

const pname = "hwapi-server"

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	repo, err := store.Open(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to ping store: %w", err)
	}

	srv := httpapi.NewServer(repo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	return srv.Serve(ctx, cfg.ListenAddr, cfg.PrometheusAddr)
}

func main() {
	cmd := &cobra.Command{
		Use:          pname,
		Short:        "Hardware Information API server",
		SilenceUsage: true,
		RunE:         run,
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", pname, err)
		os.Exit(1)
	}
}
