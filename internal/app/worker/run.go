package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/pets-adoption-api/internal/app/api"
	platformobservability "github.com/Apurer/pets-adoption-api/internal/platform/observability"
	petactivities "github.com/Apurer/pets-adoption-api/internal/platform/temporal/activities/pets"
	petworkflows "github.com/Apurer/pets-adoption-api/internal/platform/temporal/workflows/pets"
)

const serviceName = "pets-worker"

// Registrar is the slice of worker.Worker used to register pet workflows and activities.
type Registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register exposes the adoption workflow and its activity under their stable names.
func Register(r Registrar, activities *petactivities.Activities) {
	r.RegisterWorkflowWithOptions(petworkflows.AdoptionWorkflow, workflow.RegisterOptions{Name: petworkflows.AdoptionWorkflowName})
	r.RegisterActivityWithOptions(activities.AdoptPet, activity.RegisterOptions{Name: petactivities.AdoptPetActivityName})
}

// Run hosts the adoption task queue until ctx is cancelled.
func Run(ctx context.Context, cfg api.Config) error {
	if cfg.Store == api.StoreMemory {
		return api.ErrMemoryStoreNotShared
	}
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.Settings{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
		Tenant:      cfg.TenantID,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, err := api.BuildPetStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build pet store: %w", err)
	}
	defer stores.Close()
	petService := api.NewPetService(stores, cfg, instruments)

	temporalCfg := cfg.Temporal
	temporalCfg.Disabled = false
	temporalClient, err := api.DialTemporal(temporalCfg, instruments, "temporal-worker")
	if err != nil {
		return fmt.Errorf("create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, petworkflows.AdoptionTaskQueue, worker.Options{})
	Register(w, petactivities.NewActivities(petService))

	if err := w.Start(); err != nil {
		return fmt.Errorf("start Temporal worker: %w", err)
	}
	logger.Info("worker listening", slog.String("taskQueue", petworkflows.AdoptionTaskQueue), slog.String("namespace", cfg.Temporal.Namespace))
	<-ctx.Done()
	w.Stop()
	logger.Info("Temporal worker stopped")
	return nil
}
