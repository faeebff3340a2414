package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	sqliteplatform "github.com/Apurer/pets-adoption-api/internal/platform/sqlite"
)

var (
	_ ports.Store = (*Store)(nil)
	_ ports.Tx    = (*tx)(nil)
)

const petColumns = `id, genus, quantity, created_at, updated_at`

// Store keeps both pet collections in an embedded SQLite database.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// NewStore wires a SQLite-backed store. Call Migrate before first use.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return ulid.Make().String() },
	}
}

// Migrate creates the collection tables and the idempotency table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	for _, c := range []domain.Collection{domain.CollectionHomeless, domain.CollectionAdopted} {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			genus TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`, string(c))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", c, err)
		}
		index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_genus ON %s (genus)`, c, c)
		if _, err := s.db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("index %s: %w", c, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS pet_idempotency_keys (
		key TEXT PRIMARY KEY,
		request_hash TEXT NOT NULL,
		pet_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create idempotency keys: %w", err)
	}
	return nil
}

// Begin opens a transaction; the single pooled connection serializes sessions.
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	session, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &tx{store: s, sql: session}, nil
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
	if err := insert(ctx, s.db, c, pet.ID, pet, now); err != nil {
		if sqliteplatform.IsConstraintViolation(err) {
			return nil, ports.ErrConflict
		}
		return nil, err
	}
	return pettypes.NewPetProjection(pet.Clone(), now, now), nil
}

// Find returns records matching the filter in creation order.
func (s *Store) Find(ctx context.Context, c domain.Collection, filter ports.Filter) ([]*pettypes.PetProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	clause, args, err := where(&filter)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at, id`, petColumns, c, clause)
	return queryProjections(ctx, s.db, query, args...)
}

// List counts every match and returns the requested page.
func (s *Store) List(ctx context.Context, c domain.Collection, q ports.Query) ([]*pettypes.PetProjection, int64, error) {
	if err := s.ensureDB(); err != nil {
		return nil, 0, err
	}
	clause, args, err := where(q.Filter)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, c, clause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at, id LIMIT ? OFFSET ?`, petColumns, c, clause)
	list, err := queryProjections(ctx, s.db, query, append(args, limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update replaces descriptive fields on matching records.
func (s *Store) Update(ctx context.Context, c domain.Collection, pet *domain.Pet, filter ports.Filter) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	if pet == nil {
		return 0, errors.New("cannot update with nil pet")
	}
	clause, args, err := where(&filter)
	if err != nil {
		return 0, err
	}
	stmt := fmt.Sprintf(`UPDATE %s SET genus = ?, quantity = ?, updated_at = ?%s`, c, clause)
	result, err := s.db.ExecContext(ctx, stmt, append([]any{pet.Genus, pet.Quantity, s.now().UnixNano()}, args...)...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not configured")
	}
	return nil
}

type tx struct {
	store *Store
	sql   *sql.Tx
	done  bool
}

func (t *tx) Find(ctx context.Context, c domain.Collection, filter ports.Filter) ([]*domain.Pet, error) {
	clause, args, err := where(&filter)
	if err != nil {
		return nil, err
	}
	list, err := queryProjections(ctx, t.sql, fmt.Sprintf(`SELECT %s FROM %s%s`, petColumns, c, clause), args...)
	if err != nil {
		return nil, err
	}
	pets := make([]*domain.Pet, 0, len(list))
	for _, p := range list {
		pets = append(pets, p.Entity)
	}
	return pets, nil
}

func (t *tx) Delete(ctx context.Context, c domain.Collection, filter ports.Filter) (int64, error) {
	clause, args, err := where(&filter)
	if err != nil {
		return 0, err
	}
	result, err := t.sql.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s%s`, c, clause), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (t *tx) Insert(ctx context.Context, c domain.Collection, pet *domain.Pet) (*domain.Pet, error) {
	if pet == nil {
		return nil, errors.New("cannot insert nil pet")
	}
	created := pet.Clone()
	created.ID = t.store.newID()
	if err := insert(ctx, t.sql, c, created.ID, created, t.store.now()); err != nil {
		return nil, err
	}
	return created, nil
}

func (t *tx) Commit(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.sql.Commit()
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.sql.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func insert(ctx context.Context, db execer, c domain.Collection, id string, pet *domain.Pet, now time.Time) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)`, c, petColumns)
	_, err := db.ExecContext(ctx, stmt, id, pet.Genus, pet.Quantity, now.UnixNano(), now.UnixNano())
	return err
}

func queryProjections(ctx context.Context, db querier, query string, args ...any) ([]*pettypes.PetProjection, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	list := []*pettypes.PetProjection{}
	for rows.Next() {
		var (
			pet                  domain.Pet
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&pet.ID, &pet.Genus, &pet.Quantity, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		list = append(list, pettypes.NewPetProjection(&pet, time.Unix(0, createdAt).UTC(), time.Unix(0, updatedAt).UTC()))
	}
	return list, rows.Err()
}

// where renders a filter; Validate restricts Field to known column names.
func where(filter *ports.Filter) (string, []any, error) {
	if filter == nil {
		return "", nil, nil
	}
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf(" WHERE %s = ?", filter.Field), []any{filter.Value}, nil
}
