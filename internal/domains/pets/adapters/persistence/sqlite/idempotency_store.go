package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	sqliteplatform "github.com/Apurer/pets-adoption-api/internal/platform/sqlite"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps idempotency keys in the same database as the pets.
type IdempotencyStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewIdempotencyStore wires a SQLite-backed idempotency store. The table is
// created by Store.Migrate.
func NewIdempotencyStore(db *sql.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite idempotency store not configured")
	}
	var (
		record               ports.IdempotencyRecord
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, request_hash, pet_id, created_at, updated_at FROM pet_idempotency_keys WHERE key = ?`, key,
	).Scan(&record.Key, &record.Fingerprint, &record.PetID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	record.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &record, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite idempotency store not configured")
	}
	now := s.now()
	_, insertErr := s.db.ExecContext(ctx,
		`INSERT INTO pet_idempotency_keys (key, request_hash, pet_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		record.Key, record.Fingerprint, record.PetID, now.UnixNano(), now.UnixNano(),
	)
	if insertErr == nil {
		record.CreatedAt, record.UpdatedAt = now, now
		return &record, nil
	}
	if !sqliteplatform.IsConstraintViolation(insertErr) {
		return nil, insertErr
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, insertErr
	}
	if !existing.Matches(record) {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}
