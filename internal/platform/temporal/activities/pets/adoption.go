package pets

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/application"
	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	petsports "github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
)

const (
	// AdoptPetActivityName runs one full adoption transaction.
	AdoptPetActivityName = "pets.activities.AdoptPet"
	// AdoptionIncompleteErrorType tags failures that a retry cannot fix.
	AdoptionIncompleteErrorType = "AdoptionIncomplete"
	// AdoptionCommitUnknownErrorType tags commits that may have landed; retrying
	// would misreport an adopted pet as missing.
	AdoptionCommitUnknownErrorType = "AdoptionCommitUnknown"
)

// Activities groups activities that operate on the pets bounded context.
type Activities struct {
	service petsports.Service
}

// NewActivities wires the pets service into the Temporal activities bundle.
// The service must adopt inline; a workflow-backed service would recurse.
func NewActivities(service petsports.Service) *Activities {
	return &Activities{service: service}
}

// AdoptPet runs the whole begin..commit chain in one attempt. A storage failure
// before commit has already been rolled back, so the attempt is safe to retry.
func (a *Activities) AdoptPet(ctx context.Context, input petstypes.PetIdentifier) (*petstypes.AdoptionResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("pet adoption activity not initialized", "petId", input.ID)
		return nil, errors.New("pet adoption activity not initialized")
	}
	logger.Info("AdoptPet activity started", "petId", input.ID, "attempt", activity.GetInfo(ctx).Attempt)

	outcome := a.service.AdoptPet(ctx, input)
	result, err := outcome.ToResult()
	if err != nil {
		logger.Error("AdoptPet activity failed", "petId", input.ID, "error", err)
		if errors.Is(err, application.ErrAdoptionIncomplete) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), AdoptionIncompleteErrorType, err)
		}
		if errors.Is(err, application.ErrCommitOutcomeUnknown) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), AdoptionCommitUnknownErrorType, err)
		}
		return nil, err
	}
	if result.Adopted {
		logger.Info("AdoptPet activity completed", "petId", input.ID, "adoptedId", result.Pet.ID)
	} else {
		logger.Info("AdoptPet activity found no pet", "petId", input.ID)
	}
	return result, nil
}
