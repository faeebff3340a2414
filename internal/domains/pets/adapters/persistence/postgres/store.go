package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	"github.com/Apurer/pets-adoption-api/internal/platform/migrations"
	pgplatform "github.com/Apurer/pets-adoption-api/internal/platform/postgres"
)

var (
	_ ports.Store = (*Store)(nil)
	_ ports.Tx    = (*tx)(nil)
)

// Store persists both pet collections as tables of one tenant schema.
// The caller owns the DB lifecycle; tables are created by migrations.Run.
type Store struct {
	db     *gorm.DB
	schema string
	now    func() time.Time
	newID  func() string
}

// NewStore wires a PostgreSQL-backed store bound to a tenant schema.
func NewStore(db *gorm.DB, schema string) *Store {
	return &Store{
		db:     db,
		schema: schema,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return ulid.Make().String() },
	}
}

type petRecord struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Genus     string    `gorm:"column:genus"`
	Quantity  int       `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (s *Store) table(c domain.Collection) string {
	return migrations.Qualify(s.schema, string(c))
}

// Begin opens a database transaction bound to ctx.
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	session := s.db.WithContext(ctx).Begin()
	if session.Error != nil {
		return nil, session.Error
	}
	return &tx{store: s, db: session}, nil
}

// Create inserts a pet under its own identifier.
func (s *Store) Create(ctx context.Context, c domain.Collection, pet *domain.Pet) (*pettypes.PetProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if pet == nil {
		return nil, errors.New("cannot save nil pet")
	}
	now := s.now()
	record := petRecord{ID: pet.ID, Genus: pet.Genus, Quantity: pet.Quantity, CreatedAt: now, UpdatedAt: now}
	if err := s.db.WithContext(ctx).Table(s.table(c)).Create(&record).Error; err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return nil, ports.ErrConflict
		}
		return nil, err
	}
	return toProjection(&record), nil
}

// Find returns records matching the filter in creation order.
func (s *Store) Find(ctx context.Context, c domain.Collection, filter ports.Filter) ([]*pettypes.PetProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	scope, err := where(s.db.WithContext(ctx).Table(s.table(c)), &filter)
	if err != nil {
		return nil, err
	}
	var records []petRecord
	if err := scope.Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	return recordsToProjections(records), nil
}

// List counts every match and returns the requested page.
func (s *Store) List(ctx context.Context, c domain.Collection, query ports.Query) ([]*pettypes.PetProjection, int64, error) {
	if err := s.ensureDB(); err != nil {
		return nil, 0, err
	}
	scope, err := where(s.db.WithContext(ctx).Table(s.table(c)), query.Filter)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := scope.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page := scope.Session(&gorm.Session{}).Order("created_at, id").Offset(query.Offset)
	if query.Limit > 0 {
		page = page.Limit(query.Limit)
	}
	var records []petRecord
	if err := page.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return recordsToProjections(records), total, nil
}

// Update replaces descriptive fields on matching records.
func (s *Store) Update(ctx context.Context, c domain.Collection, pet *domain.Pet, filter ports.Filter) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	if pet == nil {
		return 0, errors.New("cannot update with nil pet")
	}
	scope, err := where(s.db.WithContext(ctx).Table(s.table(c)), &filter)
	if err != nil {
		return 0, err
	}
	result := scope.Updates(map[string]any{
		"genus":      pet.Genus,
		"quantity":   pet.Quantity,
		"updated_at": s.now(),
	})
	return result.RowsAffected, result.Error
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres store not configured")
	}
	return nil
}

type tx struct {
	store *Store
	db    *gorm.DB
	done  bool
}

// Find locks the matching rows so a concurrent adoption of the same pet waits
// for this session to finish.
func (t *tx) Find(ctx context.Context, c domain.Collection, filter ports.Filter) ([]*domain.Pet, error) {
	scope, err := where(t.db.WithContext(ctx).Table(t.store.table(c)), &filter)
	if err != nil {
		return nil, err
	}
	var records []petRecord
	if err := scope.Clauses(clause.Locking{Strength: "UPDATE"}).Find(&records).Error; err != nil {
		return nil, err
	}
	pets := make([]*domain.Pet, 0, len(records))
	for i := range records {
		pets = append(pets, toDomain(&records[i]))
	}
	return pets, nil
}

func (t *tx) Delete(ctx context.Context, c domain.Collection, filter ports.Filter) (int64, error) {
	scope, err := where(t.db.WithContext(ctx).Table(t.store.table(c)), &filter)
	if err != nil {
		return 0, err
	}
	result := scope.Delete(&petRecord{})
	return result.RowsAffected, result.Error
}

func (t *tx) Insert(ctx context.Context, c domain.Collection, pet *domain.Pet) (*domain.Pet, error) {
	if pet == nil {
		return nil, errors.New("cannot insert nil pet")
	}
	now := t.store.now()
	record := petRecord{
		ID:        t.store.newID(),
		Genus:     pet.Genus,
		Quantity:  pet.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.db.WithContext(ctx).Table(t.store.table(c)).Create(&record).Error; err != nil {
		return nil, err
	}
	return toDomain(&record), nil
}

func (t *tx) Commit(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.db.Commit().Error
}

// Rollback tolerates a transaction the driver already closed after its context ended.
func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.db.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func where(scope *gorm.DB, filter *ports.Filter) (*gorm.DB, error) {
	if filter == nil {
		return scope, nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	// Validate restricts Field to known column names.
	return scope.Where(fmt.Sprintf("%s = ?", filter.Field), filter.Value), nil
}

func toDomain(rec *petRecord) *domain.Pet {
	return &domain.Pet{ID: rec.ID, Genus: rec.Genus, Quantity: rec.Quantity}
}

func toProjection(rec *petRecord) *pettypes.PetProjection {
	return pettypes.NewPetProjection(toDomain(rec), rec.CreatedAt, rec.UpdatedAt)
}

func recordsToProjections(records []petRecord) []*pettypes.PetProjection {
	list := make([]*pettypes.PetProjection, 0, len(records))
	for i := range records {
		list = append(list, toProjection(&records[i]))
	}
	return list
}
