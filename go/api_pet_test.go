package petsserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	petmemory "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/memory"
	pethttpmapper "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/http/mapper"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/application"
	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	apierrors "github.com/Apurer/pets-adoption-api/internal/shared/errors"
)

type failingWorkflows struct{}

func (failingWorkflows) AdoptPet(context.Context, petstypes.PetIdentifier) petstypes.AdoptionOutcome {
	return petstypes.Failed(errors.New("pq: relation \"adopted_pets\" does not exist"))
}

func newTestRouter(t *testing.T, opts ...func(*ApiHandleFunctions)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := petmemory.NewStore()
	service := application.NewService(store, application.WithIdempotencyStore(petmemory.NewIdempotencyStore()))
	handlers := ApiHandleFunctions{
		PetAPI:    NewPetAPI(service, nil),
		SystemAPI: NewSystemAPI(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) })),
	}
	for _, opt := range opts {
		opt(&handlers)
	}
	return NewRouterWithGinEngine(gin.New(), handlers)
}

func perform(router *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodePet(t *testing.T, rec *httptest.ResponseRecorder) pethttpmapper.Pet {
	t.Helper()
	var pet pethttpmapper.Pet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pet))
	return pet
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestAddPet_CreatesAndLocates(t *testing.T) {
	router := newTestRouter(t)

	rec := perform(router, http.MethodPost, "/pets", `{"genus":"Canis","quantity":30}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodePet(t, rec)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "/pets/"+created.ID, rec.Header().Get("Location"))
	require.NotNil(t, created.Metadata)

	rec = perform(router, http.MethodGet, "/pets/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Canis", decodePet(t, rec).Genus)
}

func TestAddPet_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed json", body: `{"genus":`, status: http.StatusBadRequest},
		{name: "wrong type", body: `{"genus":"Canis","quantity":"many"}`, status: http.StatusUnprocessableEntity},
		{name: "unknown field", body: `{"genus":"Canis","quantity":1,"colour":"brown"}`, status: http.StatusUnprocessableEntity},
		{name: "not an object", body: `[1,2]`, status: http.StatusUnprocessableEntity},
		{name: "empty body", body: "", status: http.StatusUnprocessableEntity},
		{name: "missing quantity", body: `{"genus":"Canis"}`, status: http.StatusUnprocessableEntity},
		{name: "negative quantity", body: `{"genus":"Canis","quantity":-1}`, status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(newTestRouter(t), http.MethodPost, "/pets", tt.body)
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.status, decodeProblem(t, rec).Status)
		})
	}
}

func TestAddPet_SchemaViolationsListFields(t *testing.T) {
	rec := perform(newTestRouter(t), http.MethodPost, "/pets", `{"genus":7,"quantity":1.5}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields, ok := decodeProblem(t, rec).Extensions["fields"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, fields, "genus")
	require.Contains(t, fields, "quantity")
}

func TestAddPet_ConflictOnSuppliedID(t *testing.T) {
	router := newTestRouter(t)
	body := `{"id":"p1","genus":"Canis","quantity":3}`

	require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/pets", body).Code)
	rec := perform(router, http.MethodPost, "/pets", body)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, apierrors.TypeConflict, decodeProblem(t, rec).Type)
}

func TestAddPet_IdempotencyKeyReplays(t *testing.T) {
	router := newTestRouter(t)

	first := perform(router, http.MethodPost, "/pets", `{"genus":"Felis","quantity":2}`, IdempotencyKeyHeader, "key-1")
	second := perform(router, http.MethodPost, "/pets", `{"genus":"Felis","quantity":2}`, IdempotencyKeyHeader, "key-1")
	conflicting := perform(router, http.MethodPost, "/pets", `{"genus":"Felis","quantity":9}`, IdempotencyKeyHeader, "key-1")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, decodePet(t, first).ID, decodePet(t, second).ID)
	require.Equal(t, http.StatusConflict, conflicting.Code)
}

func TestListPets_FiltersAndPages(t *testing.T) {
	router := newTestRouter(t)
	for _, body := range []string{
		`{"genus":"Canis","quantity":1}`,
		`{"genus":"Felis","quantity":2}`,
		`{"genus":"Canis","quantity":3}`,
	} {
		require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/pets", body).Code)
	}

	rec := perform(router, http.MethodGet, "/pets?genus=Canis&offset=1&limit=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var page pethttpmapper.PetCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.EqualValues(t, 2, page.TotalRecords)
	require.Len(t, page.Pets, 1)
	require.Equal(t, 3, page.Pets[0].Quantity)
}

func TestListPets_BadPaging(t *testing.T) {
	router := newTestRouter(t)
	for _, query := range []string{"offset=abc", "limit=-1", "offset=-2", "limit=5000"} {
		rec := perform(router, http.MethodGet, "/pets?"+query, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
	require.Equal(t, http.StatusBadRequest, perform(router, http.MethodGet, "/adopted-pets?limit=0x", "").Code)
}

func TestGetPetById_NotFound(t *testing.T) {
	rec := perform(newTestRouter(t), http.MethodGet, "/pets/ghost", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, apierrors.TypeNotFound, decodeProblem(t, rec).Type)
}

func TestUpdatePet_Statuses(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/pets", `{"id":"p1","genus":"Canis","quantity":3}`).Code)

	require.Equal(t, http.StatusNoContent, perform(router, http.MethodPut, "/pets/p1", `{"genus":"Vulpes","quantity":4}`).Code)
	rec := perform(router, http.MethodGet, "/pets/p1", "")
	require.Equal(t, "Vulpes", decodePet(t, rec).Genus)

	require.Equal(t, http.StatusBadRequest, perform(router, http.MethodPut, "/pets/p1", `not json`).Code)
	require.Equal(t, http.StatusUnprocessableEntity, perform(router, http.MethodPut, "/pets/p1", `{"genus":"","quantity":4}`).Code)
	require.Equal(t, http.StatusUnprocessableEntity, perform(router, http.MethodPut, "/pets/p1", `{"id":"p2","genus":"Canis","quantity":4}`).Code)
	require.Equal(t, http.StatusNotFound, perform(router, http.MethodPut, "/pets/ghost", `{"genus":"Canis","quantity":4}`).Code)
}

func TestAdoptPet_MovesPetBetweenCollections(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/pets", `{"id":"p1","genus":"Canis","quantity":30}`).Code)

	rec := perform(router, http.MethodPost, "/pets/p1/adopt", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	adopted := decodePet(t, rec)
	require.NotEqual(t, "p1", adopted.ID)
	require.Equal(t, "Canis", adopted.Genus)
	require.Equal(t, 30, adopted.Quantity)
	require.Equal(t, "/adopted-pets/"+adopted.ID, rec.Header().Get("Location"))

	require.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, "/pets/p1", "").Code)
	require.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/adopted-pets/"+adopted.ID, "").Code)

	rec = perform(router, http.MethodGet, "/adopted-pets", "")
	var page pethttpmapper.PetCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.EqualValues(t, 1, page.TotalRecords)

	second := perform(router, http.MethodPost, "/pets/p1/adopt", "")
	require.Equal(t, http.StatusNotFound, second.Code)
	require.Equal(t, "p1", decodeProblem(t, second).Extensions["identifier"])
}

func TestAdoptPet_FailureHidesStorageDetail(t *testing.T) {
	router := newTestRouter(t, func(h *ApiHandleFunctions) {
		h.PetAPI.workflows = failingWorkflows{}
	})

	rec := perform(router, http.MethodPost, "/pets/p1/adopt", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	problem := decodeProblem(t, rec)
	require.Empty(t, problem.Detail)
	require.NotContains(t, rec.Body.String(), "adopted_pets")
}

func TestSystemRoutes(t *testing.T) {
	router := newTestRouter(t)

	require.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/healthz", "").Code)
	rec := perform(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "# metrics")

	bare := newTestRouter(t, func(h *ApiHandleFunctions) { h.SystemAPI = NewSystemAPI(nil) })
	require.Equal(t, http.StatusNotImplemented, perform(bare, http.MethodGet, "/metrics", "").Code)
}
