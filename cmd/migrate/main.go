package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Apurer/pets-adoption-api/internal/app/api"
	platformobservability "github.com/Apurer/pets-adoption-api/internal/platform/observability"
)

func main() {
	var (
		configPath string
		tenant     string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:          "pets-migrate",
		Short:        "Provision the tenant schema and pets tables",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := api.LoadConfig(afero.NewOsFs(), configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if tenant != "" {
				cfg.TenantID = tenant
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if cfg.Store == api.StoreMemory {
				return fmt.Errorf("nothing to migrate for the memory store; set PETS_STORE or POSTGRES_DSN")
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: platformobservability.ParseLevel(cfg.LogLevel)})).
				With(slog.String("service", "pets-migrate"), slog.String("tenant", cfg.TenantID))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			stores, err := api.BuildPetStores(ctx, cfg, logger)
			if err != nil {
				return err
			}
			stores.Close()
			logger.Info("pets schema is up to date", slog.String("store", string(cfg.Store)))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("PETS_CONFIG"), "Path to a YAML config file")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant whose schema to provision, overrides TENANT_ID")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Upper bound for the whole migration")
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
