package pets

import (
	"go.temporal.io/sdk/workflow"

	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/platform/temporal/sequences"
)

const (
	// AdoptionWorkflowName is the public identifier for registering the workflow.
	AdoptionWorkflowName = "pets.workflows.Adoption"
	// AdoptionTaskQueue is the queue consumed by the worker processing adoptions.
	AdoptionTaskQueue = "PET_ADOPTION"
)

// AdoptionWorkflowInput captures the pet to adopt plus the caller's trace.
type AdoptionWorkflowInput struct {
	PetID   string
	TraceID string
}

// AdoptionWorkflow moves a sheltered pet to the adopted collection.
func AdoptionWorkflow(ctx workflow.Context, input AdoptionWorkflowInput) (*petstypes.AdoptionResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("AdoptionWorkflow started", withTraceID(input.TraceID, "petId", input.PetID)...)
	result, err := sequences.RunAdoptionSequence(ctx, petstypes.PetIdentifier{ID: input.PetID})
	if err != nil {
		logger.Error("AdoptionWorkflow failed", withTraceID(input.TraceID, "petId", input.PetID, "error", err)...)
		return nil, err
	}
	logger.Info("AdoptionWorkflow completed", withTraceID(input.TraceID, "petId", input.PetID, "adopted", result.Adopted)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
