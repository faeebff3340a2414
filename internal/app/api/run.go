package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	petsserver "github.com/Apurer/pets-adoption-api/go"
	petsworkflows "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/workflows"
	petsports "github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	platformobservability "github.com/Apurer/pets-adoption-api/internal/platform/observability"
)

const serviceName = "pets-api"

// Run boots the pets HTTP API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
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

	stores, err := BuildPetStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build pet store: %w", err)
	}
	defer stores.Close()
	petService := NewPetService(stores, cfg, instruments)

	var petWorkflows petsports.WorkflowOrchestrator = petsworkflows.NewInlinePetWorkflows(petService)
	if temporalClient, err := DialTemporal(cfg.Temporal, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, adopting inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		petWorkflows = petsworkflows.NewTemporalPetWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.Temporal.Namespace))
	}

	httpMetrics := platformobservability.NewHTTPMetrics("pets")
	handler := NewHandler(petService, petWorkflows, httpMetrics)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("pets API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("pets API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down pets API", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// NewHandler assembles the gin engine with recovery, tracing and request metrics
// ahead of the pets routes.
func NewHandler(service petsports.Service, workflows petsports.WorkflowOrchestrator, metrics *platformobservability.HTTPMetrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	systemAPI := petsserver.NewSystemAPI(nil)
	if metrics != nil {
		router.Use(metrics.Middleware())
		systemAPI = petsserver.NewSystemAPI(metrics.Handler())
	}
	return petsserver.NewRouterWithGinEngine(router, petsserver.ApiHandleFunctions{
		PetAPI:    petsserver.NewPetAPI(service, workflows),
		SystemAPI: systemAPI,
	})
}
