// Command hwapi-import runs the corpus ingestion client: it pulls the
// CPU-ID catalog, public certificates and public device instances from
// the upstream certification API and materializes them into the store
// (§4.7), in the manner of cl-release's cobra-plus-envcfg entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canonical/hardware-api/internal/config"
	"github.com/canonical/hardware-api/internal/importer"
	"github.com/canonical/hardware-api/internal/store"
	"github.com/canonical/hardware-api/internal/upstream"
)

const pname = "hwapi-import"

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.LoadImporter()
	if err != nil {
		return err
	}

	repo, err := store.Open(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer repo.Close()

	client := upstream.NewClient(cfg.C3URL)
	im := importer.New(repo, client, logger)

	logger.Info("starting import", zap.String("c3_url", cfg.C3URL))
	if err := im.Run(context.Background()); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	logger.Info("import complete")
	return nil
}

func main() {
	cmd := &cobra.Command{
		Use:          pname,
		Short:        "Import the certification corpus into the hwapi store",
		SilenceUsage: true,
		RunE:         run,
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", pname, err)
		os.Exit(1)
	}
}
