package petsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the API implementations the router dispatches to.
type ApiHandleFunctions struct {
	PetAPI    PetAPI
	SystemAPI SystemAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing engine, keeping its middleware.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"AddPet",
			http.MethodPost,
			"/pets",
			handleFunctions.PetAPI.AddPet,
		},
		{
			"ListPets",
			http.MethodGet,
			"/pets",
			handleFunctions.PetAPI.ListPets,
		},
		{
			"GetPetById",
			http.MethodGet,
			"/pets/:petId",
			handleFunctions.PetAPI.GetPetById,
		},
		{
			"UpdatePet",
			http.MethodPut,
			"/pets/:petId",
			handleFunctions.PetAPI.UpdatePet,
		},
		{
			"AdoptPet",
			http.MethodPost,
			"/pets/:petId/adopt",
			handleFunctions.PetAPI.AdoptPet,
		},
		{
			"ListAdoptedPets",
			http.MethodGet,
			"/adopted-pets",
			handleFunctions.PetAPI.ListAdoptedPets,
		},
		{
			"GetAdoptedPetById",
			http.MethodGet,
			"/adopted-pets/:petId",
			handleFunctions.PetAPI.GetAdoptedPetById,
		},
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			handleFunctions.SystemAPI.Healthz,
		},
		{
			"Metrics",
			http.MethodGet,
			"/metrics",
			handleFunctions.SystemAPI.metricsHandler(),
		},
	}
}
