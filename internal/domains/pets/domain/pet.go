package domain

import (
	"errors"
	"strings"
)

// Collection names a place a pet record can live in.
type Collection string

const (
	// CollectionHomeless holds pets waiting in the shelter.
	CollectionHomeless Collection = "homeless_pets"
	// CollectionAdopted holds pets that completed the adoption workflow.
	CollectionAdopted Collection = "adopted_pets"
)

// Pet represents the aggregate managed by the pets bounded context.
type Pet struct {
	ID       string
	Genus    string
	Quantity int
}

var (
	ErrEmptyGenus       = errors.New("pet genus is required")
	ErrMissingQuantity  = errors.New("pet quantity is required")
	ErrInvalidQuantity  = errors.New("pet quantity must be greater or equal to zero")
	ErrIdentifierChange = errors.New("pet identifier cannot change once assigned")
)

// NewPet validates the invariants and builds a new Pet aggregate.
func NewPet(id, genus string, quantity int) (*Pet, error) {
	p := &Pet{ID: strings.TrimSpace(id)}
	if err := p.UpdateGenus(genus); err != nil {
		return nil, err
	}
	if err := p.UpdateQuantity(quantity); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateGenus mutates the genus ensuring the invariant.
func (p *Pet) UpdateGenus(genus string) error {
	genus = strings.TrimSpace(genus)
	if genus == "" {
		return ErrEmptyGenus
	}
	p.Genus = genus
	return nil
}

// UpdateQuantity stores the latest head count.
func (p *Pet) UpdateQuantity(quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	p.Quantity = quantity
	return nil
}

// AssignID sets the identifier once. Re-assigning the same value is a no-op.
func (p *Pet) AssignID(id string) error {
	id = strings.TrimSpace(id)
	if p.ID != "" && p.ID != id {
		return ErrIdentifierChange
	}
	p.ID = id
	return nil
}

// Descriptive returns a copy carrying only the descriptive fields, without identifier.
func (p *Pet) Descriptive() *Pet {
	if p == nil {
		return nil
	}
	return &Pet{Genus: p.Genus, Quantity: p.Quantity}
}

// Clone returns a defensive copy.
func (p *Pet) Clone() *Pet {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
