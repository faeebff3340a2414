package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
)

// Service orchestrates the pets bounded context use cases.
type Service struct {
	store       ports.Store
	adopter     *Adopter
	idempotency ports.IdempotencyStore
	newID       func() string
}

// Option configures the Service.
type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key replay on AddPet.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithAdopter replaces the default adoption coordinator.
func WithAdopter(adopter *Adopter) Option {
	return func(s *Service) {
		if adopter != nil {
			s.adopter = adopter
		}
	}
}

// WithIDGenerator overrides how shelter identifiers are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService wires the pets service with its dependencies.
func NewService(store ports.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.adopter == nil {
		s.adopter = NewAdopter(store)
	}
	return s
}

// AddPet shelters a new pet, replaying stored results for repeated idempotency keys.
func (s *Service) AddPet(ctx context.Context, input types.AddPetInput) (*types.PetProjection, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.createPet(ctx, input)
	}

	hash, err := FingerprintAddPet(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Fingerprint != hash {
			return nil, ports.ErrIdempotencyConflict
		}
		return s.GetByID(ctx, types.PetIdentifier{ID: existing.PetID})
	}

	saved, err := s.createPet(ctx, input)
	if err != nil {
		return nil, err
	}
	stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, Fingerprint: hash, PetID: saved.Entity.ID})
	if err != nil {
		if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil && stored.Fingerprint == hash {
			// A concurrent retry won the key; answer with its pet.
			return s.GetByID(ctx, types.PetIdentifier{ID: stored.PetID})
		}
		return nil, err
	}
	return saved, nil
}

func (s *Service) createPet(ctx context.Context, input types.AddPetInput) (*types.PetProjection, error) {
	pet, err := buildPetFromMutation(input.ID, input.PetMutationInput)
	if err != nil {
		return nil, mapError(err)
	}
	if pet.ID == "" {
		if err := pet.AssignID(s.newID()); err != nil {
			return nil, mapError(err)
		}
	}
	saved, err := s.store.Create(ctx, domain.CollectionHomeless, pet)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// ListPets pages through the shelter.
func (s *Service) ListPets(ctx context.Context, input types.ListPetsInput) (*types.PetPage, error) {
	return s.list(ctx, domain.CollectionHomeless, input)
}

// GetByID loads a sheltered pet.
func (s *Service) GetByID(ctx context.Context, input types.PetIdentifier) (*types.PetProjection, error) {
	return s.get(ctx, domain.CollectionHomeless, input.ID)
}

// UpdatePet replaces the descriptive fields of a sheltered pet.
func (s *Service) UpdatePet(ctx context.Context, input types.UpdatePetInput) error {
	pet, err := buildPetFromMutation(input.ID, input.PetMutationInput)
	if err != nil {
		return mapError(err)
	}
	updated, err := s.store.Update(ctx, domain.CollectionHomeless, pet, ports.ByID(pet.ID))
	if err != nil {
		return mapError(err)
	}
	if updated == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// AdoptPet moves a sheltered pet into the adopted collection.
func (s *Service) AdoptPet(ctx context.Context, input types.PetIdentifier) types.AdoptionOutcome {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		// No record can carry a blank id, so no session is acquired or released.
		return types.NotFound()
	}
	return s.adopter.Adopt(ctx, id)
}

// GetAdoptedByID loads an adopted pet by its destination identifier.
func (s *Service) GetAdoptedByID(ctx context.Context, input types.PetIdentifier) (*types.PetProjection, error) {
	return s.get(ctx, domain.CollectionAdopted, input.ID)
}

// ListAdopted pages through adopted pets.
func (s *Service) ListAdopted(ctx context.Context, input types.ListPetsInput) (*types.PetPage, error) {
	return s.list(ctx, domain.CollectionAdopted, input)
}

func (s *Service) get(ctx context.Context, collection domain.Collection, id string) (*types.PetProjection, error) {
	found, err := s.store.Find(ctx, collection, ports.ByID(strings.TrimSpace(id)))
	if err != nil {
		return nil, mapError(err)
	}
	if len(found) == 0 {
		return nil, ports.ErrNotFound
	}
	return found[0], nil
}

func (s *Service) list(ctx context.Context, collection domain.Collection, input types.ListPetsInput) (*types.PetPage, error) {
	query, err := buildQuery(input)
	if err != nil {
		return nil, err
	}
	pets, total, err := s.store.List(ctx, collection, query)
	if err != nil {
		return nil, mapError(err)
	}
	return &types.PetPage{Pets: pets, TotalRecords: total}, nil
}

func buildQuery(input types.ListPetsInput) (ports.Query, error) {
	limit := input.Limit
	if limit == 0 {
		limit = types.DefaultPageLimit
	}
	if input.Offset < 0 {
		return ports.Query{}, fmt.Errorf("%w: offset must be greater or equal to zero", ErrInvalidPaging)
	}
	if limit < 1 || limit > types.MaxPageLimit {
		return ports.Query{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPaging, types.MaxPageLimit)
	}
	query := ports.Query{Offset: input.Offset, Limit: limit}
	if genus := strings.TrimSpace(input.Genus); genus != "" {
		filter := ports.ByGenus(genus)
		query.Filter = &filter
	}
	return query, nil
}

func buildPetFromMutation(id string, input types.PetMutationInput) (*domain.Pet, error) {
	if input.Genus == nil {
		return nil, domain.ErrEmptyGenus
	}
	if input.Quantity == nil {
		return nil, domain.ErrMissingQuantity
	}
	return domain.NewPet(id, *input.Genus, *input.Quantity)
}

var _ ports.Service = (*Service)(nil)
