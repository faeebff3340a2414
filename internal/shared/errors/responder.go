package errors

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for problem documents.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper translates a domain error into a problem, reporting whether it knew the error.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes problem documents. Errors are resolved through the mappers first,
// then through any wrapped ProblemDetail, and otherwise become a bare 500.
type Responder struct {
	baseURI string
	mappers []ErrorMapper
}

// NewResponder builds a responder; a non-empty baseURI turns relative problem types absolute.
func NewResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{baseURI: strings.TrimSuffix(baseURI, "/"), mappers: mappers}
}

// Problem resolves err to the document that would be written for it.
func (r *Responder) Problem(err error) ProblemDetail {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			return problem
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	return ErrInternal
}

// Respond writes problem and aborts the gin chain.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && strings.HasPrefix(problem.Type, "/") {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError resolves err and writes the result. Unmapped errors are attached to the
// gin context for the access log instead of the response body.
func (r *Responder) RespondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	problem := r.Problem(err)
	if problem.Status >= 500 {
		_ = c.Error(err)
	}
	r.Respond(c, problem)
}
