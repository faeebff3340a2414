package types

const (
	// DefaultPageLimit applies when a listing does not ask for a page size.
	DefaultPageLimit = 10
	// MaxPageLimit bounds a single page.
	MaxPageLimit = 1000
)

// PetIdentifier addresses a single pet.
type PetIdentifier struct {
	ID string
}

// ListPetsInput pages through a collection, optionally narrowed to one genus.
type ListPetsInput struct {
	Genus  string
	Offset int
	Limit  int
}
