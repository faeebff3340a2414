package migrations

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// schemaSuffix is appended to the tenant to name the module schema.
const schemaSuffix = "_mod_pets"

var (
	ErrInvalidTenant = errors.New("tenant must start with a letter and contain only lowercase letters, digits and underscores")

	tenantPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,40}$`)
)

// SchemaName derives the tenant schema that holds the pets tables.
func SchemaName(tenant string) (string, error) {
	tenant = strings.ToLower(strings.TrimSpace(tenant))
	if !tenantPattern.MatchString(tenant) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenant, tenant)
	}
	return tenant + schemaSuffix, nil
}

// Qualify prefixes a table with its schema.
func Qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

// Run creates the tenant schema when missing and applies the pets tables into it.
func Run(db *gorm.DB, schema string) error {
	if db == nil {
		return nil
	}
	if schema != "" {
		if err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(schema)).Error; err != nil {
			return fmt.Errorf("create schema %s: %w", schema, err)
		}
	}
	for _, table := range []string{"homeless_pets", "adopted_pets"} {
		if err := db.Table(Qualify(schema, table)).AutoMigrate(&petRecord{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	if err := db.Table(Qualify(schema, idempotencyRecord{}.TableName())).AutoMigrate(&idempotencyRecord{}); err != nil {
		return fmt.Errorf("migrate idempotency keys: %w", err)
	}
	return nil
}

// Pet schema mirrors the pets Postgres adapter; both collections share it.
type petRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Genus     string    `gorm:"column:genus;size:255;not null;index"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// Idempotency schema mirrors the pets idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	Fingerprint string    `gorm:"column:request_hash;size:128"`
	PetID       string    `gorm:"column:pet_id;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "pet_idempotency_keys" }
