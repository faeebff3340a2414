package projection

import "time"

// Metadata records when a stored entity was created and last replaced.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsZero reports whether neither timestamp was stamped by a store.
func (m Metadata) IsZero() bool {
	return m.CreatedAt.IsZero() && m.UpdatedAt.IsZero()
}

// Projection pairs a stored entity with its persistence metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New stamps entity with the given timestamps, normalised to UTC.
func New[T any](entity T, createdAt, updatedAt time.Time) *Projection[T] {
	return &Projection[T]{
		Entity: entity,
		Metadata: Metadata{
			CreatedAt: createdAt.UTC(),
			UpdatedAt: updatedAt.UTC(),
		},
	}
}
