// Package errors renders RFC 7807 problem documents for the pets HTTP API.
package errors

import (
	"fmt"
	"maps"
	"net/http"
)

// ProblemDetail is an RFC 7807 problem document. It doubles as an error so handlers
// can return one through ordinary error paths.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail == "" {
		return p.Title
	}
	return p.Title + ": " + p.Detail
}

// WithDetail returns a copy carrying an occurrence-specific explanation.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member. The receiver's
// extensions are never mutated, so package-level templates stay pristine.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := maps.Clone(p.Extensions)
	if extensions == nil {
		extensions = make(map[string]any, 1)
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

const (
	TypeBadRequest    = "/problems/bad-request"
	TypeNotFound      = "/problems/not-found"
	TypeConflict      = "/problems/conflict"
	TypeUnprocessable = "/problems/unprocessable-entity"
	TypeInternal      = "/problems/internal-error"
)

func template(problemType, title string, status int) ProblemDetail {
	return ProblemDetail{Type: problemType, Title: title, Status: status}
}

var (
	// ErrBadRequest answers bodies or query strings that cannot be decoded.
	ErrBadRequest = template(TypeBadRequest, "Bad Request", http.StatusBadRequest)
	// ErrNotFound answers lookups and adoptions of unknown pets.
	ErrNotFound = template(TypeNotFound, "Resource Not Found", http.StatusNotFound)
	// ErrConflict answers duplicate identifiers and reused idempotency keys.
	ErrConflict = template(TypeConflict, "Conflict", http.StatusConflict)
	// ErrUnprocessable answers well-formed payloads that break pet invariants.
	ErrUnprocessable = template(TypeUnprocessable, "Unprocessable Entity", http.StatusUnprocessableEntity)
	// ErrInternal never carries a detail.
	ErrInternal = template(TypeInternal, "Internal Server Error", http.StatusInternalServerError)
)

// NewValidationProblem reports field-level schema violations as an unprocessable entity.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrUnprocessable.
		WithDetail("request body does not match the pet schema").
		WithExtension("fields", fieldErrors)
}

// NewNotFoundProblem names the missing resource and the identifier that was asked for.
func NewNotFoundProblem(resourceType string, identifier any) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
}
