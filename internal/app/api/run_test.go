package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	petsworkflows "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/workflows"
	platformobservability "github.com/Apurer/pets-adoption-api/internal/platform/observability"
)

func TestNewHandler_ServesAdoptionEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.Store = StoreMemory
	ctx := context.Background()

	stores, err := BuildPetStores(ctx, cfg, effectiveLogger(nil))
	require.NoError(t, err)
	defer stores.Close()
	service := NewPetService(stores, cfg, nil)
	metrics := platformobservability.NewHTTPMetrics("pets_test")
	handler := NewHandler(service, petsworkflows.NewInlinePetWorkflows(service), metrics)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"genus":"Canis","quantity":30}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pets/"+created.ID+"/adopt", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pets_test_http_requests_total")

	count, err := testutil.GatherAndCount(metrics.Registry(), "pets_test_http_requests_total")
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 2)
}

func TestBuildPetStores_SQLiteMigrates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = StoreSQLite
	cfg.SQLitePath = t.TempDir() + "/pets.db"

	stores, err := BuildPetStores(context.Background(), cfg, effectiveLogger(nil))
	require.NoError(t, err)
	defer stores.Close()

	service := NewPetService(stores, cfg, nil)
	page, err := service.ListPets(context.Background(), petstypes.ListPetsInput{})
	require.NoError(t, err)
	require.Zero(t, page.TotalRecords)
}

func TestDialTemporal_Disabled(t *testing.T) {
	_, err := DialTemporal(TemporalConfig{Disabled: true}, nil, "temporal-client")
	require.Error(t, err)
}
