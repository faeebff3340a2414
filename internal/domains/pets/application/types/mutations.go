package types

// PetMutationInput carries the descriptive fields supplied on create or replace.
// Nil pointers mark fields absent from the request.
type PetMutationInput struct {
	Genus    *string
	Quantity *int
}

// AddPetInput captures the request to shelter a new pet.
type AddPetInput struct {
	// ID is optional; an identifier is generated when empty.
	ID string
	PetMutationInput
	IdempotencyKey string
}

// UpdatePetInput replaces the descriptive fields of an existing pet.
type UpdatePetInput struct {
	ID string
	PetMutationInput
}
