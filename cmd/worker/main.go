package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Apurer/pets-adoption-api/internal/app/api"
	"github.com/Apurer/pets-adoption-api/internal/app/worker"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "pets-worker",
		Short:        "Host the pet adoption Temporal workflow and activity",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := api.LoadConfig(afero.NewOsFs(), configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return worker.Run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("PETS_CONFIG"), "Path to a YAML config file")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
