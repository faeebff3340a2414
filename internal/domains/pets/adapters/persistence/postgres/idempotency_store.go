package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	"github.com/Apurer/pets-adoption-api/internal/platform/migrations"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps AddPet keys in the tenant schema, beside the pet tables.
type IdempotencyStore struct {
	db     *gorm.DB
	schema string
	now    func() time.Time
}

// NewIdempotencyStore returns a store writing to <schema>.pet_idempotency_keys.
func NewIdempotencyStore(db *gorm.DB, schema string) *IdempotencyStore {
	return &IdempotencyStore{db: db, schema: schema, now: func() time.Time { return time.Now().UTC() }}
}

type idempotencyKeyRow struct {
	Key         string    `gorm:"primaryKey;column:key"`
	Fingerprint string    `gorm:"column:request_hash"`
	PetID       string    `gorm:"column:pet_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (s *IdempotencyStore) keys(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres idempotency store not configured")
	}
	return s.db.WithContext(ctx).Table(migrations.Qualify(s.schema, "pet_idempotency_keys")), nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	var rows []idempotencyKeyRow
	if err := keys.Where("key = ?", key).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	record := ports.IdempotencyRecord(rows[0])
	return &record, nil
}

// Save relies on ON CONFLICT DO NOTHING so concurrent first writers race inside
// PostgreSQL; the loser reads back whatever won.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	row := idempotencyKeyRow{Key: record.Key, Fingerprint: record.Fingerprint, PetID: record.PetID, CreatedAt: now, UpdatedAt: now}
	inserted := keys.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).Create(&row)
	if inserted.Error != nil {
		return nil, fmt.Errorf("store idempotency key: %w", inserted.Error)
	}
	if inserted.RowsAffected == 1 {
		stored := ports.IdempotencyRecord(row)
		return &stored, nil
	}

	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("idempotency key %q vanished after conflict", record.Key)
	}
	if !existing.Matches(record) {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}
