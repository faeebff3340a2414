package ports

import (
	"context"

	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by the pets bounded context.
type WorkflowOrchestrator interface {
	AdoptPet(ctx context.Context, input petstypes.PetIdentifier) petstypes.AdoptionOutcome
}
