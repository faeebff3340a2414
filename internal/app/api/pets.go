package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	petsmemory "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/memory"
	petsobs "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/observability"
	petspostgres "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/persistence/postgres"
	petssqlite "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/persistence/sqlite"
	petsapp "github.com/Apurer/pets-adoption-api/internal/domains/pets/application"
	petsports "github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	"github.com/Apurer/pets-adoption-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/pets-adoption-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/pets-adoption-api/internal/platform/postgres"
	platformsqlite "github.com/Apurer/pets-adoption-api/internal/platform/sqlite"
)

// PetStores bundles the persistence ports selected by configuration.
type PetStores struct {
	Store       petsports.Store
	Idempotency petsports.IdempotencyStore
	Close       func()
}

// BuildPetStores opens the configured backend and makes sure its tables exist.
func BuildPetStores(ctx context.Context, cfg Config, logger *slog.Logger) (*PetStores, error) {
	switch cfg.Store {
	case StorePostgres:
		schema, err := migrations.SchemaName(cfg.TenantID)
		if err != nil {
			return nil, err
		}
		db, closeDB, err := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		if err := migrations.Run(db.WithContext(ctx), schema); err != nil {
			closeDB()
			return nil, fmt.Errorf("migrate %s: %w", schema, err)
		}
		logger.Info("pet store configured with postgres", slog.String("schema", schema))
		return &PetStores{
			Store:       petspostgres.NewStore(db, schema),
			Idempotency: petspostgres.NewIdempotencyStore(db, schema),
			Close:       closeDB,
		}, nil
	case StoreSQLite:
		db, err := platformsqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := petssqlite.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("pet store configured with sqlite", slog.String("path", cfg.SQLitePath))
		return &PetStores{
			Store:       store,
			Idempotency: petssqlite.NewIdempotencyStore(db),
			Close:       func() { _ = db.Close() },
		}, nil
	default:
		logger.Warn("using in-memory pet store; data is lost on restart")
		return &PetStores{
			Store:       petsmemory.NewStore(),
			Idempotency: petsmemory.NewIdempotencyStore(),
			Close:       func() {},
		}, nil
	}
}

// NewPetService wires the application service and wraps it with tracing, metrics and logs.
func NewPetService(stores *PetStores, cfg Config, instruments *platformobservability.Instruments) petsports.Service {
	logger := effectiveLogger(instruments)
	adopter := petsapp.NewAdopter(
		stores.Store,
		petsapp.WithAdoptionTimeout(cfg.AdoptionTimeout),
		petsapp.WithAdopterLogger(logger),
	)
	core := petsapp.NewService(
		stores.Store,
		petsapp.WithAdopter(adopter),
		petsapp.WithIdempotencyStore(stores.Idempotency),
	)
	opts := []petsobs.Option{petsobs.WithLogger(logger)}
	if instruments != nil {
		opts = append(opts,
			petsobs.WithTracer(instruments.Tracer("internal.pets.application")),
			petsobs.WithMeter(instruments.Meter("internal.pets.application")),
		)
	}
	return petsobs.New(core, opts...)
}

// DialTemporal connects a traced Temporal client unless Temporal is disabled.
func DialTemporal(cfg TemporalConfig, instruments *platformobservability.Instruments, component string) (client.Client, error) {
	if cfg.Disabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(component)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
