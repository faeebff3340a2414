package types

import (
	"fmt"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
)

// OutcomeKind tags the three possible results of an adoption.
type OutcomeKind uint8

const (
	OutcomeAdopted OutcomeKind = iota + 1
	OutcomeNotFound
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAdopted:
		return "adopted"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(k))
	}
}

// AdoptionOutcome is Adopted(pet), NotFound or Failed(err).
type AdoptionOutcome struct {
	Kind OutcomeKind
	Pet  *domain.Pet
	Err  error
}

// Adopted reports a completed adoption carrying the destination record.
func Adopted(pet *domain.Pet) AdoptionOutcome {
	return AdoptionOutcome{Kind: OutcomeAdopted, Pet: pet}
}

// NotFound reports that no adoptable pet existed for the identifier.
func NotFound() AdoptionOutcome {
	return AdoptionOutcome{Kind: OutcomeNotFound}
}

// Failed reports a storage malfunction.
func Failed(err error) AdoptionOutcome {
	return AdoptionOutcome{Kind: OutcomeFailed, Err: err}
}

// AdoptionResult is the serializable form of a non-failed outcome, used across
// durable workflow boundaries where errors travel separately.
type AdoptionResult struct {
	Adopted bool
	Pet     *domain.Pet
}

// ToResult splits the outcome into a serializable result and an error.
func (o AdoptionOutcome) ToResult() (*AdoptionResult, error) {
	switch o.Kind {
	case OutcomeAdopted:
		return &AdoptionResult{Adopted: true, Pet: o.Pet}, nil
	case OutcomeNotFound:
		return &AdoptionResult{}, nil
	default:
		if o.Err == nil {
			return nil, fmt.Errorf("adoption failed with %s outcome", o.Kind)
		}
		return nil, o.Err
	}
}

// OutcomeFromResult rebuilds an outcome from its serializable form.
func OutcomeFromResult(result *AdoptionResult, err error) AdoptionOutcome {
	if err != nil {
		return Failed(err)
	}
	if result == nil || !result.Adopted || result.Pet == nil {
		return NotFound()
	}
	return Adopted(result.Pet)
}
