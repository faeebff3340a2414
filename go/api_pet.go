package petsserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/oapi-codegen/runtime"

	pethttpmapper "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/http/mapper"
	petstypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	petsports "github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	apierrors "github.com/Apurer/pets-adoption-api/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry POST /pets safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// PetAPI wires HTTP transport with the pets bounded context service and workflows.
type PetAPI struct {
	service   petsports.Service
	workflows petsports.WorkflowOrchestrator
}

// NewPetAPI creates a PetAPI backed by the provided service. A nil orchestrator
// adopts through the service directly.
func NewPetAPI(service petsports.Service, workflows petsports.WorkflowOrchestrator) PetAPI {
	return PetAPI{service: service, workflows: workflows}
}

// Post /pets
// Shelter a new pet
func (api *PetAPI) AddPet(c *gin.Context) {
	payload, ok := bindMutation(c)
	if !ok {
		return
	}
	input := pethttpmapper.ToAddPetInput(payload, c.GetHeader(IdempotencyKeyHeader))
	saved, err := api.service.AddPet(c.Request.Context(), input)
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	body := pethttpmapper.FromProjection(saved)
	c.Header("Location", "/pets/"+body.ID)
	c.JSON(http.StatusCreated, body)
}

// Get /pets
// Page through sheltered pets
func (api *PetAPI) ListPets(c *gin.Context) {
	input, ok := bindListParams(c, true)
	if !ok {
		return
	}
	page, err := api.service.ListPets(c.Request.Context(), input)
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromPage(page))
}

// Get /pets/:petId
// Find a sheltered pet by ID
func (api *PetAPI) GetPetById(c *gin.Context) {
	id := c.Param("petId")
	pet, err := api.service.GetByID(c.Request.Context(), petstypes.PetIdentifier{ID: id})
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromProjection(pet))
}

// Put /pets/:petId
// Replace the descriptive fields of a sheltered pet
func (api *PetAPI) UpdatePet(c *gin.Context) {
	payload, ok := bindMutation(c)
	if !ok {
		return
	}
	input, err := pethttpmapper.ToUpdatePetInput(c.Param("petId"), payload)
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	if err := api.service.UpdatePet(c.Request.Context(), input); err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /pets/:petId/adopt
// Move a sheltered pet into the adopted collection
func (api *PetAPI) AdoptPet(c *gin.Context) {
	id := c.Param("petId")
	outcome := api.adopt(c.Request.Context(), petstypes.PetIdentifier{ID: id})
	switch outcome.Kind {
	case petstypes.OutcomeAdopted:
		body := pethttpmapper.FromDomain(outcome.Pet)
		c.Header("Location", "/adopted-pets/"+body.ID)
		c.JSON(http.StatusCreated, body)
	case petstypes.OutcomeNotFound:
		respondProblem(c, apierrors.NewNotFoundProblem("pet", id))
	default:
		if outcome.Err != nil {
			_ = c.Error(outcome.Err)
		}
		respondProblem(c, apierrors.ErrInternal)
	}
}

func (api *PetAPI) adopt(ctx context.Context, input petstypes.PetIdentifier) petstypes.AdoptionOutcome {
	if api.workflows != nil {
		return api.workflows.AdoptPet(ctx, input)
	}
	return api.service.AdoptPet(ctx, input)
}

// Get /adopted-pets
// Page through adopted pets
func (api *PetAPI) ListAdoptedPets(c *gin.Context) {
	input, ok := bindListParams(c, false)
	if !ok {
		return
	}
	page, err := api.service.ListAdopted(c.Request.Context(), input)
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromPage(page))
}

// Get /adopted-pets/:petId
// Find an adopted pet by its adoption ID
func (api *PetAPI) GetAdoptedPetById(c *gin.Context) {
	pet, err := api.service.GetAdoptedByID(c.Request.Context(), petstypes.PetIdentifier{ID: c.Param("petId")})
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromProjection(pet))
}

// bindMutation treats an empty body as an empty payload so validation reports the
// missing fields. Undecodable JSON is a bad request; a document that breaks the pet
// schema is unprocessable.
func bindMutation(c *gin.Context) (pethttpmapper.MutationPet, bool) {
	var payload pethttpmapper.MutationPet
	var doc any
	if err := c.ShouldBindBodyWith(&doc, binding.JSON); err != nil {
		if errors.Is(err, io.EOF) {
			return payload, true
		}
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return payload, false
	}
	fields, err := validatePetDocument(doc)
	if err != nil {
		respondPetServiceError(c, err)
		return payload, false
	}
	if len(fields) > 0 {
		respondProblem(c, apierrors.NewValidationProblem(fields))
		return payload, false
	}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return payload, false
	}
	return payload, true
}

func bindListParams(c *gin.Context, withGenus bool) (petstypes.ListPetsInput, bool) {
	var input petstypes.ListPetsInput
	query := c.Request.URL.Query()
	if withGenus {
		if err := runtime.BindQueryParameter("form", true, false, "genus", query, &input.Genus); err != nil {
			respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
			return input, false
		}
		input.Genus = strings.TrimSpace(input.Genus)
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &input.Offset); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return input, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &input.Limit); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return input, false
	}
	return input, true
}
