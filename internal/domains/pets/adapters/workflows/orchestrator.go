package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	petworkflows "github.com/Apurer/pets-adoption-api/internal/platform/temporal/workflows/pets"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalPetWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlinePetWorkflows)(nil)
)

// workflowStarter is the slice of the Temporal client the orchestrator needs.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalPetWorkflows starts pet workflows on a Temporal cluster.
type TemporalPetWorkflows struct {
	client    workflowStarter
	taskQueue string
}

// NewTemporalPetWorkflows wires a Temporal client into the orchestrator.
func NewTemporalPetWorkflows(c client.Client) *TemporalPetWorkflows {
	return &TemporalPetWorkflows{client: c, taskQueue: petworkflows.AdoptionTaskQueue}
}

// AdoptPet starts the adoption workflow and waits for its result. Every request gets
// its own workflow execution; concurrent adoptions are arbitrated by the store.
func (o *TemporalPetWorkflows) AdoptPet(ctx context.Context, input petstypes.PetIdentifier) petstypes.AdoptionOutcome {
	if o == nil || o.client == nil {
		return petstypes.Failed(errors.New("temporal pet workflows not configured"))
	}
	traceComponent := workflowTraceComponent(ctx)
	options := client.StartWorkflowOptions{
		ID:                    buildAdoptionWorkflowID(input.ID, traceComponent),
		TaskQueue:             o.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		petworkflows.AdoptionWorkflowName,
		petworkflows.AdoptionWorkflowInput{PetID: input.ID, TraceID: traceComponent},
	)
	if err != nil {
		return petstypes.Failed(fmt.Errorf("start adoption workflow: %w", err))
	}
	var result petstypes.AdoptionResult
	err = run.Get(ctx, &result)
	return petstypes.OutcomeFromResult(&result, err)
}

// InlinePetWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlinePetWorkflows struct {
	service ports.Service
}

// NewInlinePetWorkflows wraps the pets service for synchronous execution.
func NewInlinePetWorkflows(service ports.Service) *InlinePetWorkflows {
	return &InlinePetWorkflows{service: service}
}

// AdoptPet delegates to the application service without durable orchestration.
func (o *InlinePetWorkflows) AdoptPet(ctx context.Context, input petstypes.PetIdentifier) petstypes.AdoptionOutcome {
	if o == nil || o.service == nil {
		return petstypes.Failed(errors.New("inline pet workflows not configured"))
	}
	return o.service.AdoptPet(ctx, input)
}

func buildAdoptionWorkflowID(petID, traceComponent string) string {
	return fmt.Sprintf("pet-adoption-%s-%s", petID, traceComponent)
}

// workflowTraceComponent names the workflow after the caller's trace and span. Untraced
// callers get a random UUID so duplicate rejection never fires for distinct requests.
func workflowTraceComponent(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String() + "-" + spanCtx.SpanID().String()
	}
	return "fallback-" + uuid.NewString()
}
