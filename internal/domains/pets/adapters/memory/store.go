package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	"github.com/Apurer/pets-adoption-api/internal/shared/projection"
)

var (
	_ ports.Store = (*Store)(nil)
	_ ports.Tx    = (*tx)(nil)
)

var errTxDone = errors.New("memory transaction already released")

// Store is an in-memory implementation used for demos/tests. Writers are
// serialized through a single session slot; readers only ever see committed state.
type Store struct {
	mu          sync.RWMutex
	collections map[domain.Collection]*collection
	slot        chan struct{}
	now         func() time.Time
	newID       func() string
}

type collection struct {
	order   []string
	records map[string]*storedPet
}

type storedPet struct {
	pet      *domain.Pet
	metadata projection.Metadata
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: map[domain.Collection]*collection{},
		slot:        make(chan struct{}, 1),
		now:         time.Now,
		newID:       func() string { return ulid.Make().String() },
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithIDGenerator overrides how the store assigns identifiers on Insert.
func (s *Store) WithIDGenerator(newID func() string) {
	if newID != nil {
		s.newID = newID
	}
}

// Begin waits for the session slot or for ctx to end.
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &tx{store: s}, nil
}

// Create inserts a pet under its own identifier.
func (s *Store) Create(ctx context.Context, c domain.Collection, pet *domain.Pet) (*pettypes.PetProjection, error) {
	if pet == nil {
		return nil, errors.New("cannot save nil pet")
	}
	var created *pettypes.PetProjection
	err := s.inTx(ctx, func(t *tx) error {
		visible, err := t.Find(ctx, c, ports.ByID(pet.ID))
		if err != nil {
			return err
		}
		if len(visible) > 0 {
			return ports.ErrConflict
		}
		t.stage(c, pet.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.bucket(c).records[pet.ID]; ok {
		created = projectionCopy(entry)
	}
	return created, nil
}

// Find returns committed records matching the filter.
func (s *Store) Find(_ context.Context, c domain.Collection, filter ports.Filter) ([]*pettypes.PetProjection, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*pettypes.PetProjection
	s.each(c, func(entry *storedPet) {
		if filter.Matches(entry.pet) {
			list = append(list, projectionCopy(entry))
		}
	})
	return list, nil
}

// List returns a page of committed records in insertion order.
func (s *Store) List(_ context.Context, c domain.Collection, query ports.Query) ([]*pettypes.PetProjection, int64, error) {
	if query.Filter != nil {
		if err := query.Filter.Validate(); err != nil {
			return nil, 0, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		list  = []*pettypes.PetProjection{}
		total int64
	)
	s.each(c, func(entry *storedPet) {
		if query.Filter != nil && !query.Filter.Matches(entry.pet) {
			return
		}
		if total >= int64(query.Offset) && (query.Limit <= 0 || len(list) < query.Limit) {
			list = append(list, projectionCopy(entry))
		}
		total++
	})
	return list, total, nil
}

// Update replaces descriptive fields on matching records.
func (s *Store) Update(ctx context.Context, c domain.Collection, pet *domain.Pet, filter ports.Filter) (int64, error) {
	if pet == nil {
		return 0, errors.New("cannot update with nil pet")
	}
	var updated int64
	err := s.inTx(ctx, func(t *tx) error {
		matches, err := t.Find(ctx, c, filter)
		if err != nil {
			return err
		}
		for _, match := range matches {
			next := match.Clone()
			next.Genus = pet.Genus
			next.Quantity = pet.Quantity
			t.stage(c, next)
		}
		updated = int64(len(matches))
		return nil
	})
	return updated, err
}

func (s *Store) inTx(ctx context.Context, fn func(*tx) error) error {
	session, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	t := session.(*tx)
	if err := fn(t); err != nil {
		_ = t.Rollback(ctx)
		return err
	}
	return t.Commit(ctx)
}

// bucket must be called with s.mu held.
func (s *Store) bucket(c domain.Collection) *collection {
	b, ok := s.collections[c]
	if !ok {
		b = &collection{records: map[string]*storedPet{}}
		s.collections[c] = b
	}
	return b
}

func (s *Store) each(c domain.Collection, fn func(*storedPet)) {
	b, ok := s.collections[c]
	if !ok {
		return
	}
	for _, id := range b.order {
		if entry, ok := b.records[id]; ok {
			fn(entry)
		}
	}
}

type change struct {
	collection domain.Collection
	id         string
	pet        *domain.Pet // nil marks a delete
}

// tx stages writes and applies them atomically on Commit.
type tx struct {
	store   *Store
	changes []change
	done    bool
}

func (t *tx) stage(c domain.Collection, pet *domain.Pet) {
	t.changes = append(t.changes, change{collection: c, id: pet.ID, pet: pet})
}

// view resolves a record as this session sees it: staged changes win over committed state.
func (t *tx) view(c domain.Collection) []*domain.Pet {
	t.store.mu.RLock()
	var pets []*domain.Pet
	index := map[string]int{}
	t.store.each(c, func(entry *storedPet) {
		index[entry.pet.ID] = len(pets)
		pets = append(pets, entry.pet.Clone())
	})
	t.store.mu.RUnlock()
	for _, ch := range t.changes {
		if ch.collection != c {
			continue
		}
		pos, seen := index[ch.id]
		switch {
		case ch.pet == nil && seen:
			pets[pos] = nil
		case ch.pet != nil && seen:
			pets[pos] = ch.pet.Clone()
		case ch.pet != nil:
			index[ch.id] = len(pets)
			pets = append(pets, ch.pet.Clone())
		}
	}
	return pets
}

func (t *tx) check(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	return ctx.Err()
}

func (t *tx) Find(ctx context.Context, c domain.Collection, filter ports.Filter) ([]*domain.Pet, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	var list []*domain.Pet
	for _, pet := range t.view(c) {
		if pet != nil && filter.Matches(pet) {
			list = append(list, pet)
		}
	}
	return list, nil
}

func (t *tx) Delete(ctx context.Context, c domain.Collection, filter ports.Filter) (int64, error) {
	matches, err := t.Find(ctx, c, filter)
	if err != nil {
		return 0, err
	}
	for _, match := range matches {
		t.changes = append(t.changes, change{collection: c, id: match.ID})
	}
	return int64(len(matches)), nil
}

func (t *tx) Insert(ctx context.Context, c domain.Collection, pet *domain.Pet) (*domain.Pet, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	if pet == nil {
		return nil, errors.New("cannot insert nil pet")
	}
	created := pet.Clone()
	created.ID = t.store.newID()
	t.stage(c, created)
	return created.Clone(), nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	if err := ctx.Err(); err != nil {
		t.release()
		return err
	}
	s := t.store
	s.mu.Lock()
	timestamp := s.now()
	for _, ch := range t.changes {
		b := s.bucket(ch.collection)
		entry, exists := b.records[ch.id]
		if ch.pet == nil {
			if exists {
				delete(b.records, ch.id)
				b.order = removeID(b.order, ch.id)
			}
			continue
		}
		metadata := projection.Metadata{CreatedAt: timestamp, UpdatedAt: timestamp}
		if exists {
			metadata.CreatedAt = entry.metadata.CreatedAt
		} else {
			b.order = append(b.order, ch.id)
		}
		b.records[ch.id] = &storedPet{pet: ch.pet.Clone(), metadata: metadata}
	}
	s.mu.Unlock()
	t.release()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *tx) release() {
	t.changes = nil
	t.done = true
	<-t.store.slot
}

func removeID(order []string, id string) []string {
	for i, candidate := range order {
		if candidate == id {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}

func projectionCopy(entry *storedPet) *pettypes.PetProjection {
	return &pettypes.PetProjection{
		Entity:   entry.pet.Clone(),
		Metadata: entry.metadata,
	}
}
