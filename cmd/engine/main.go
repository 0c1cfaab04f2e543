package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"notehub-engine/internal/bootstrap"
	"notehub-engine/internal/config"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/server"
	"notehub-engine/internal/tracer"
	"notehub-engine/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "notehub-engine",
		Short: "Local document cache and reference sync engine",
		Long: `notehub-engine keeps the desktop shell's documents, tabs and folder
references in sync with the document store and exposes them over a
local HTTP and websocket bridge.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bridge API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the postgres schema",
			RunE:  runMigrate,
		},
		newSweepCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *logger.ZapLogger {
	return logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := newLogger(cfg)
	defer log.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Telemetry, log)
	defer shutdownTracer(context.Background())

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		return err
	}

	container := bootstrap.NewContainer(cfg, db, log)
	defer container.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.Start(ctx); err != nil {
		return err
	}

	srv := server.New(cfg, container)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	color.Green("notehub-engine listening on http://127.0.0.1:%s", cfg.App.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Main", "Shutting down", nil)
		return srv.Shutdown()
	}
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg := config.Load()
	if cfg.Database.Driver != "postgres" {
		return errors.New("migrate needs STORE_DRIVER=postgres")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		color.Red("Migration failed: %v", err)
		return err
	}
	color.Green("Schema is up to date (%d tables)", len(database.Models()))
	return nil
}

func newSweepCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep-references",
		Short: "Validate every folder reference and remove the ones whose origin is gone",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := newLogger(cfg)
			defer log.Sync()

			db, err := bootstrap.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			container := bootstrap.NewContainer(cfg, db, log)
			defer container.Close()

			ctx := cmd.Context()
			if err := container.FolderService.Load(ctx); err != nil {
				return err
			}

			refs := container.ReferenceService.List()
			ids := make([]string, 0, len(refs))
			for _, r := range refs {
				ids = append(ids, r.Id)
			}
			results := container.ReferenceService.BatchValidate(ctx, ids)

			invalid := 0
			for _, r := range refs {
				if valid, ok := results[r.Id]; ok && !valid {
					invalid++
					color.Yellow("  invalid  %s  %s/%s  %q", r.Id, r.OriginKind, r.OriginId, r.Title)
				}
			}
			fmt.Printf("%d references checked, %d invalid\n", len(refs), invalid)

			if dryRun || invalid == 0 {
				return nil
			}
			removed, err := container.ReferenceService.CleanupInvalid(ctx)
			if err != nil {
				color.Red("Cleanup failed: %v", err)
				return err
			}
			color.Green("Removed %d references", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report invalid references without removing them")
	return cmd
}
