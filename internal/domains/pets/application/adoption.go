package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
)

// Adopter moves a pet from the homeless collection to the adopted collection
// inside a single storage transaction.
type Adopter struct {
	store       ports.Store
	source      domain.Collection
	destination domain.Collection
	timeout     time.Duration
	logger      *slog.Logger
}

// AdopterOption configures an Adopter.
type AdopterOption func(*Adopter)

// WithAdoptionTimeout bounds a whole adoption run; expiry cancels the transaction.
func WithAdoptionTimeout(d time.Duration) AdopterOption {
	return func(a *Adopter) {
		a.timeout = d
	}
}

// WithAdopterLogger injects a slog logger.
func WithAdopterLogger(logger *slog.Logger) AdopterOption {
	return func(a *Adopter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdopter wires the coordinator to one store.
func NewAdopter(store ports.Store, opts ...AdopterOption) *Adopter {
	a := &Adopter{
		store:       store,
		source:      domain.CollectionHomeless,
		destination: domain.CollectionAdopted,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

type stepState uint8

const (
	stepOngoing stepState = iota
	stepAbsent
)

// step is the working entity threaded through the pipeline. An absent step
// passes through every later stage unchanged.
type step struct {
	state stepState
	// sourceID addresses the homeless record; pet.ID changes once the destination assigns one.
	sourceID string
	pet      *domain.Pet
}

func ongoing(sourceID string, pet *domain.Pet) step {
	return step{state: stepOngoing, sourceID: sourceID, pet: pet}
}

var absent = step{state: stepAbsent}

// Adopt runs begin, locate, vacate, rehome and commit in strict order.
func (a *Adopter) Adopt(ctx context.Context, id string) pettypes.AdoptionOutcome {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	logger := a.logger.With(slog.String("pet.id", id))

	tx, err := a.store.Begin(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "adoption transaction not started", slog.String("error", err.Error()))
		return pettypes.Failed(fmt.Errorf("begin adoption: %w", err))
	}

	current, err := a.locate(ctx, tx, logger, id)
	if err != nil {
		return a.abort(ctx, tx, logger, fmt.Errorf("locate pet: %w", err))
	}
	current, err = a.vacate(ctx, tx, logger, current)
	if err != nil {
		return a.abort(ctx, tx, logger, fmt.Errorf("vacate shelter place: %w", err))
	}
	current, err = a.rehome(ctx, tx, current)
	if err != nil {
		return a.abort(ctx, tx, logger, fmt.Errorf("rehome pet: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return a.abort(ctx, tx, logger, fmt.Errorf("commit adoption: %w: %w", ErrCommitOutcomeUnknown, err))
	}

	if current.state == stepAbsent {
		logger.InfoContext(ctx, "pet not available for adoption")
		return pettypes.NotFound()
	}
	logger.InfoContext(ctx, "pet adopted", slog.String("adopted.id", current.pet.ID))
	return pettypes.Adopted(current.pet)
}

func (a *Adopter) locate(ctx context.Context, tx ports.Tx, logger *slog.Logger, id string) (step, error) {
	found, err := tx.Find(ctx, a.source, ports.ByID(id))
	if err != nil {
		return absent, err
	}
	if len(found) == 0 || found[0] == nil {
		logger.DebugContext(ctx, "pet absent from shelter")
		return absent, nil
	}
	return ongoing(id, found[0].Descriptive()), nil
}

func (a *Adopter) vacate(ctx context.Context, tx ports.Tx, logger *slog.Logger, current step) (step, error) {
	if current.state == stepAbsent {
		return current, nil
	}
	affected, err := tx.Delete(ctx, a.source, ports.ByID(current.sourceID))
	if err != nil {
		return absent, err
	}
	if affected == 0 {
		// Another session removed it first.
		logger.DebugContext(ctx, "pet vacated concurrently")
		return absent, nil
	}
	return current, nil
}

func (a *Adopter) rehome(ctx context.Context, tx ports.Tx, current step) (step, error) {
	if current.state == stepAbsent {
		return current, nil
	}
	created, err := tx.Insert(ctx, a.destination, current.pet.Descriptive())
	if err != nil {
		return absent, err
	}
	if created == nil {
		return absent, ErrAdoptionIncomplete
	}
	return ongoing(current.sourceID, created.Clone()), nil
}

// abort rolls back exactly once and reports the failure. Rollback runs on a
// context detached from cancellation so an expired request still releases the session.
func (a *Adopter) abort(ctx context.Context, tx ports.Tx, logger *slog.Logger, cause error) pettypes.AdoptionOutcome {
	rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := tx.Rollback(rollbackCtx); err != nil {
		cause = errors.Join(cause, fmt.Errorf("rollback adoption: %w", err))
	}
	logger.WarnContext(ctx, "adoption rolled back", slog.String("error", cause.Error()))
	return pettypes.Failed(cause)
}
