package ports

import (
	"context"
	"errors"
	"fmt"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
)

var (
	ErrNotFound          = errors.New("pet not found")
	ErrConflict          = errors.New("pet already exists")
	ErrUnsupportedFilter = errors.New("unsupported filter field")
)

// Filterable record fields.
const (
	FieldID    = "id"
	FieldGenus = "genus"
)

// Filter is a single-field equality predicate.
type Filter struct {
	Field string
	Value string
}

// ByID filters on identifier equality.
func ByID(id string) Filter {
	return Filter{Field: FieldID, Value: id}
}

// ByGenus filters on genus equality.
func ByGenus(genus string) Filter {
	return Filter{Field: FieldGenus, Value: genus}
}

// Validate rejects fields the stores do not index.
func (f Filter) Validate() error {
	switch f.Field {
	case FieldID, FieldGenus:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFilter, f.Field)
	}
}

// Matches evaluates the predicate against an in-memory pet.
func (f Filter) Matches(p *domain.Pet) bool {
	if p == nil {
		return false
	}
	switch f.Field {
	case FieldID:
		return p.ID == f.Value
	case FieldGenus:
		return p.Genus == f.Value
	default:
		return false
	}
}

// Query selects a page of a collection. A nil Filter selects everything.
type Query struct {
	Filter *Filter
	Offset int
	Limit  int
}

// Store is the record-store collaborator. Collections are addressed by name and
// records by filter; transactional work goes through Begin.
type Store interface {
	// Begin acquires an exclusive session; it must be released with Commit or Rollback.
	Begin(ctx context.Context) (Tx, error)
	// Create inserts a pet keeping its identifier. ErrConflict when the identifier is taken.
	Create(ctx context.Context, collection domain.Collection, pet *domain.Pet) (*pettypes.PetProjection, error)
	Find(ctx context.Context, collection domain.Collection, filter Filter) ([]*pettypes.PetProjection, error)
	// List returns the requested page together with the total number of matches.
	List(ctx context.Context, collection domain.Collection, query Query) ([]*pettypes.PetProjection, int64, error)
	// Update replaces descriptive fields of matching records and reports how many changed.
	Update(ctx context.Context, collection domain.Collection, pet *domain.Pet, filter Filter) (int64, error)
}

// Tx is a live storage session. Writes become visible to other sessions only on Commit.
type Tx interface {
	Find(ctx context.Context, collection domain.Collection, filter Filter) ([]*domain.Pet, error)
	Delete(ctx context.Context, collection domain.Collection, filter Filter) (int64, error)
	// Insert stores a copy of the pet under an identifier assigned by the collection
	// and returns the created record. A nil record with nil error breaks the write contract.
	Insert(ctx context.Context, collection domain.Collection, pet *domain.Pet) (*domain.Pet, error)
	// Commit and Rollback release the session; calls after the first release are no-ops.
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
