package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

var errEmptyKey = errors.New("idempotency key is required")

// IdempotencyStore keeps AddPet keys for the life of the process.
type IdempotencyStore struct {
	records sync.Map // key -> ports.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errEmptyKey
	}
	value, ok := s.records.Load(key)
	if !ok {
		return nil, nil
	}
	record := value.(ports.IdempotencyRecord)
	return &record, nil
}

// Save keeps whichever record reached the key first.
func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	record.Key = strings.TrimSpace(record.Key)
	if record.Key == "" {
		return nil, errEmptyKey
	}
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt

	value, loaded := s.records.LoadOrStore(record.Key, record)
	stored := value.(ports.IdempotencyRecord)
	if loaded && !stored.Matches(record) {
		return &stored, ports.ErrIdempotencyConflict
	}
	return &stored, nil
}
