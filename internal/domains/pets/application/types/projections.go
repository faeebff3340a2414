package types

import (
	"time"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	"github.com/Apurer/pets-adoption-api/internal/shared/projection"
)

// PetProjection transports a domain aggregate together with its persistence metadata.
type PetProjection = projection.Projection[*domain.Pet]

// NewPetProjection wraps an aggregate with persistence metadata.
func NewPetProjection(pet *domain.Pet, createdAt, updatedAt time.Time) *PetProjection {
	if pet == nil {
		return nil
	}
	return projection.New(pet, createdAt, updatedAt)
}

// PetPage is one page of a collection listing.
type PetPage struct {
	Pets         []*PetProjection
	TotalRecords int64
}
