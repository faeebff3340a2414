package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var errShelterClosed = errors.New("shelter closed")

func shelterMapper(err error) (ProblemDetail, bool) {
	if errors.Is(err, errShelterClosed) {
		return ErrConflict.WithDetail(err.Error()), true
	}
	return ProblemDetail{}, false
}

func respondWith(t *testing.T, responder *Responder, err error) (*httptest.ResponseRecorder, *gin.Context, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/pets/p1", nil)

	responder.RespondError(c, err)

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, c, problem
}

func TestResponder_MappedError(t *testing.T) {
	rec, c, problem := respondWith(t, NewResponder("https://pets.example/", shelterMapper), fmt.Errorf("adopt: %w", errShelterClosed))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	require.Equal(t, "https://pets.example"+TypeConflict, problem.Type)
	require.Equal(t, "/pets/p1", problem.Instance)
	require.Equal(t, "adopt: shelter closed", problem.Detail)
	require.True(t, c.IsAborted())
	require.Empty(t, c.Errors)
}

func TestResponder_WrappedProblemPassesThrough(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NewNotFoundProblem("pet", "p1"))

	rec, _, problem := respondWith(t, NewResponder("", shelterMapper), wrapped)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "p1", problem.Extensions["identifier"])
}

func TestResponder_UnknownErrorsHideDetail(t *testing.T) {
	rec, c, problem := respondWith(t, NewResponder(""), errors.New("pq: connection reset"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, TypeInternal, problem.Type)
	require.Empty(t, problem.Detail)
	require.Len(t, c.Errors, 1)
}

func TestProblemDetail_WithExtensionCopies(t *testing.T) {
	base := NewNotFoundProblem("pet", "p1")
	extended := base.WithExtension("collection", "homeless")

	require.NotContains(t, base.Extensions, "collection")
	require.Equal(t, "homeless", extended.Extensions["collection"])
	require.NotContains(t, ErrNotFound.Extensions, "identifier")
	require.Equal(t, "Resource Not Found: pet with identifier 'p1' not found", base.Error())
}
