package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
)

func seed(t *testing.T, s *Store, id, genus string, quantity int) {
	t.Helper()
	pet, err := domain.NewPet(id, genus, quantity)
	require.NoError(t, err)
	_, err = s.Create(context.Background(), domain.CollectionHomeless, pet)
	require.NoError(t, err)
}

func TestStore_CreateRejectsDuplicateID(t *testing.T) {
	s := NewStore()
	seed(t, s, "p1", "Canis", 3)

	_, err := s.Create(context.Background(), domain.CollectionHomeless, &domain.Pet{ID: "p1", Genus: "Felis"})
	require.ErrorIs(t, err, ports.ErrConflict)
}

func TestStore_CreateStampsMetadata(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.WithClock(func() time.Time { return fixed })

	created, err := s.Create(context.Background(), domain.CollectionHomeless, &domain.Pet{ID: "p1", Genus: "Canis", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, fixed, created.Metadata.CreatedAt)
	require.Equal(t, fixed, created.Metadata.UpdatedAt)
}

func TestStore_ListPagesAndCounts(t *testing.T) {
	s := NewStore()
	seed(t, s, "p1", "Canis", 1)
	seed(t, s, "p2", "Felis", 2)
	seed(t, s, "p3", "Canis", 3)
	seed(t, s, "p4", "Canis", 4)

	filter := ports.ByGenus("Canis")
	page, total, err := s.List(context.Background(), domain.CollectionHomeless, ports.Query{Filter: &filter, Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	require.Equal(t, "p3", page[0].Entity.ID)

	page, total, err = s.List(context.Background(), domain.CollectionAdopted, ports.Query{Limit: 10})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, page)
}

func TestStore_UpdateKeepsCreatedAt(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	s := NewStore()
	s.WithClock(func() time.Time { return clock })
	seed(t, s, "p1", "Canis", 1)

	clock = start.Add(time.Hour)
	n, err := s.Update(context.Background(), domain.CollectionHomeless, &domain.Pet{Genus: "Felis", Quantity: 9}, ports.ByID("p1"))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	found, err := s.Find(context.Background(), domain.CollectionHomeless, ports.ByID("p1"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Felis", found[0].Entity.Genus)
	require.Equal(t, 9, found[0].Entity.Quantity)
	require.Equal(t, start, found[0].Metadata.CreatedAt)
	require.Equal(t, clock, found[0].Metadata.UpdatedAt)

	n, err = s.Update(context.Background(), domain.CollectionHomeless, &domain.Pet{Genus: "Felis"}, ports.ByID("missing"))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTx_WritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.WithIDGenerator(func() string { return "a1" })
	seed(t, s, "p1", "Canis", 1)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	n, err := tx.Delete(ctx, domain.CollectionHomeless, ports.ByID("p1"))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	inTx, err := tx.Find(ctx, domain.CollectionHomeless, ports.ByID("p1"))
	require.NoError(t, err)
	require.Empty(t, inTx)

	created, err := tx.Insert(ctx, domain.CollectionAdopted, &domain.Pet{Genus: "Canis", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, "a1", created.ID)

	committed, err := s.Find(ctx, domain.CollectionHomeless, ports.ByID("p1"))
	require.NoError(t, err)
	require.Len(t, committed, 1)

	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	committed, err = s.Find(ctx, domain.CollectionHomeless, ports.ByID("p1"))
	require.NoError(t, err)
	require.Empty(t, committed)
	adopted, err := s.Find(ctx, domain.CollectionAdopted, ports.ByID("a1"))
	require.NoError(t, err)
	require.Len(t, adopted, 1)
}

func TestTx_RollbackDiscardsAndReleases(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "p1", "Canis", 1)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Delete(ctx, domain.CollectionHomeless, ports.ByID("p1"))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	_, err = tx.Find(ctx, domain.CollectionHomeless, ports.ByID("p1"))
	require.ErrorIs(t, err, errTxDone)

	found, err := s.Find(ctx, domain.CollectionHomeless, ports.ByID("p1"))
	require.NoError(t, err)
	require.Len(t, found, 1)

	next, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, next.Rollback(ctx))
}

func TestBegin_WaitsForSessionOrContext(t *testing.T) {
	s := NewStore()
	held, err := s.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Begin(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, held.Rollback(context.Background()))
}

func TestTx_CancelledContextFailsOperations(t *testing.T) {
	s := NewStore()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tx.Insert(ctx, domain.CollectionAdopted, &domain.Pet{Genus: "Canis"})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, tx.Commit(ctx), context.Canceled)

	adopted, err := s.Find(context.Background(), domain.CollectionAdopted, ports.ByGenus("Canis"))
	require.NoError(t, err)
	require.Empty(t, adopted)
}

func TestIdempotencyStore_SaveAndConflict(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore()

	saved, err := s.Save(ctx, ports.IdempotencyRecord{Key: "k1", Fingerprint: "h1", PetID: "p1"})
	require.NoError(t, err)
	require.False(t, saved.CreatedAt.IsZero())

	again, err := s.Save(ctx, ports.IdempotencyRecord{Key: "k1", Fingerprint: "h1", PetID: "p1"})
	require.NoError(t, err)
	require.Equal(t, saved.CreatedAt, again.CreatedAt)

	stored, err := s.Save(ctx, ports.IdempotencyRecord{Key: "k1", Fingerprint: "h2", PetID: "p2"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.Equal(t, "p1", stored.PetID)

	missing, err := s.Get(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, missing)

	_, err = s.Get(ctx, "  ")
	require.Error(t, err)
}
