package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	petactivities "github.com/Apurer/pets-adoption-api/internal/platform/temporal/activities/pets"
)

// AdoptionActivityOptions bounds each adoption attempt and the retries around it.
var AdoptionActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 30 * time.Second,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:        time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        10 * time.Second,
		MaximumAttempts:        5,
		NonRetryableErrorTypes: []string{
			petactivities.AdoptionIncompleteErrorType,
			petactivities.AdoptionCommitUnknownErrorType,
		},
	},
}

// RunAdoptionSequence executes the single transactional adoption activity.
// Splitting the chain across activities would split the database transaction.
func RunAdoptionSequence(ctx workflow.Context, input petstypes.PetIdentifier) (*petstypes.AdoptionResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("pet adoption sequence started", "petId", input.ID)

	var result petstypes.AdoptionResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, AdoptionActivityOptions), petactivities.AdoptPetActivityName, input).Get(ctx, &result)
	if err != nil {
		logger.Error("pet adoption sequence failed", "petId", input.ID, "error", err)
		return nil, err
	}
	if result.Adopted && result.Pet != nil {
		logger.Info("pet adoption sequence adopted", "petId", input.ID, "adoptedId", result.Pet.ID)
	} else {
		logger.Info("pet adoption sequence found no pet", "petId", input.ID)
	}
	return &result, nil
}
