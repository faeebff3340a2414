package mapper

import (
	"strings"
	"time"

	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
)

// MutationPet captures inbound payloads for create/replace flows while preserving field presence.
type MutationPet struct {
	ID       string  `json:"id,omitempty"`
	Genus    *string `json:"genus,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
}

// Metadata carries persistence timestamps.
type Metadata struct {
	CreatedDate time.Time `json:"createdDate"`
	UpdatedDate time.Time `json:"updatedDate"`
}

// Pet is the HTTP representation of a pet record.
type Pet struct {
	ID       string    `json:"id"`
	Genus    string    `json:"genus"`
	Quantity int       `json:"quantity"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// PetCollection is one page of a listing.
type PetCollection struct {
	Pets         []Pet `json:"pets"`
	TotalRecords int64 `json:"totalRecords"`
}

// IsEmpty reports whether the payload carried none of the pet fields.
func (m MutationPet) IsEmpty() bool {
	return strings.TrimSpace(m.ID) == "" && m.Genus == nil && m.Quantity == nil
}

// ToMutationInput keeps nil pointers for absent fields so validation can tell them apart.
func ToMutationInput(payload MutationPet) petstypes.PetMutationInput {
	input := petstypes.PetMutationInput{}
	if payload.Genus != nil {
		genus := *payload.Genus
		input.Genus = &genus
	}
	if payload.Quantity != nil {
		quantity := *payload.Quantity
		input.Quantity = &quantity
	}
	return input
}

// ToAddPetInput maps a create payload plus the optional Idempotency-Key header.
func ToAddPetInput(payload MutationPet, idempotencyKey string) petstypes.AddPetInput {
	return petstypes.AddPetInput{
		ID:               strings.TrimSpace(payload.ID),
		PetMutationInput: ToMutationInput(payload),
		IdempotencyKey:   strings.TrimSpace(idempotencyKey),
	}
}

// ToUpdatePetInput binds a replace payload to the path identifier. A body identifier,
// when present, must match the path.
func ToUpdatePetInput(pathID string, payload MutationPet) (petstypes.UpdatePetInput, error) {
	pathID = strings.TrimSpace(pathID)
	if bodyID := strings.TrimSpace(payload.ID); bodyID != "" && bodyID != pathID {
		return petstypes.UpdatePetInput{}, domain.ErrIdentifierChange
	}
	return petstypes.UpdatePetInput{ID: pathID, PetMutationInput: ToMutationInput(payload)}, nil
}

// FromDomain maps an aggregate without persistence metadata.
func FromDomain(pet *domain.Pet) Pet {
	if pet == nil {
		return Pet{}
	}
	return Pet{ID: pet.ID, Genus: pet.Genus, Quantity: pet.Quantity}
}

// FromProjection converts a projection to the transport representation.
func FromProjection(projection *petstypes.PetProjection) Pet {
	if projection == nil {
		return Pet{}
	}
	out := FromDomain(projection.Entity)
	if !projection.Metadata.IsZero() {
		out.Metadata = &Metadata{
			CreatedDate: projection.Metadata.CreatedAt,
			UpdatedDate: projection.Metadata.UpdatedAt,
		}
	}
	return out
}

// FromPage maps a listing page; an empty page renders an empty array.
func FromPage(page *petstypes.PetPage) PetCollection {
	collection := PetCollection{Pets: []Pet{}}
	if page == nil {
		return collection
	}
	collection.TotalRecords = page.TotalRecords
	for _, projection := range page.Pets {
		collection.Pets = append(collection.Pets, FromProjection(projection))
	}
	return collection
}
