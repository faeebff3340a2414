//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	pacttest "github.com/Apurer/pets-adoption-api/test/pact"

	petsserver "github.com/Apurer/pets-adoption-api/go"
	petsmemory "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/memory"
	petsobs "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/observability"
	petsworkflows "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/workflows"
	petsapp "github.com/Apurer/pets-adoption-api/internal/domains/pets/application"
	petdomain "github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestShelterProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StatePetsBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StatePetExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedPet(t, pacttest.ExistingPetID)
			}
			return nil, nil
		},
		pacttest.StatePetMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp swaps in a fresh store and router for every provider state.
type contractProviderApp struct {
	store   atomic.Pointer[petsmemory.Store]
	handler atomic.Pointer[gin.Engine]
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset()
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.handler.Load().ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset() {
	store := petsmemory.NewStore()
	petService := petsobs.New(petsapp.NewService(store, petsapp.WithIdempotencyStore(petsmemory.NewIdempotencyStore())))
	handlers := petsserver.ApiHandleFunctions{
		PetAPI: petsserver.NewPetAPI(petService, petsworkflows.NewInlinePetWorkflows(petService)),
	}
	router := gin.New()
	router.Use(gin.Recovery())
	a.store.Store(store)
	a.handler.Store(petsserver.NewRouterWithGinEngine(router, handlers))
}

func (a *contractProviderApp) seedPet(t testing.TB, id string) {
	t.Helper()
	pet, err := petdomain.NewPet(id, pacttest.ExampleGenus, pacttest.ExampleQuantity)
	require.NoError(t, err)
	_, err = a.store.Load().Create(context.Background(), petdomain.CollectionHomeless, pet)
	require.NoError(t, err)
}
