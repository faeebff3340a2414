package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid pet input")
	// ErrInvalidPaging signals out-of-range offset or limit; it also matches ErrInvalidInput.
	ErrInvalidPaging = fmt.Errorf("%w: invalid paging", ErrInvalidInput)
	// ErrAdoptionIncomplete signals the destination collection accepted the write but
	// returned no created record.
	ErrAdoptionIncomplete = errors.New("adoption could not complete")
	// ErrCommitOutcomeUnknown marks a failed commit. The server may still have applied
	// it, so a fresh attempt could report NotFound for a pet that was adopted.
	ErrCommitOutcomeUnknown = errors.New("adoption commit outcome unknown")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyGenus) ||
		errors.Is(err, domain.ErrMissingQuantity) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrIdentifierChange) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
