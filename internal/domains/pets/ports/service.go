package ports

import (
	"context"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
)

// Service defines the pets use cases exposed to adapters (inbound/driving port).
type Service interface {
	AddPet(ctx context.Context, input pettypes.AddPetInput) (*pettypes.PetProjection, error)
	ListPets(ctx context.Context, input pettypes.ListPetsInput) (*pettypes.PetPage, error)
	GetByID(ctx context.Context, input pettypes.PetIdentifier) (*pettypes.PetProjection, error)
	UpdatePet(ctx context.Context, input pettypes.UpdatePetInput) error
	AdoptPet(ctx context.Context, input pettypes.PetIdentifier) pettypes.AdoptionOutcome
	GetAdoptedByID(ctx context.Context, input pettypes.PetIdentifier) (*pettypes.PetProjection, error)
	ListAdopted(ctx context.Context, input pettypes.ListPetsInput) (*pettypes.PetPage, error)
}
