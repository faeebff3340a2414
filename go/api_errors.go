package petsserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	petsapp "github.com/Apurer/pets-adoption-api/internal/domains/pets/application"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/domain"
	petsports "github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
	apierrors "github.com/Apurer/pets-adoption-api/internal/shared/errors"
)

var petResponder = apierrors.NewResponder("", petProblem)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	petResponder.Respond(c, problem)
}

// respondPetServiceError renders service errors once at the edge.
func respondPetServiceError(c *gin.Context, err error) {
	petResponder.RespondError(c, err)
}

func petProblem(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, petsports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, petsapp.ErrInvalidPaging):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, petsapp.ErrInvalidInput), errors.Is(err, domain.ErrIdentifierChange):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, petsports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail("idempotency key was already used with a different payload"), true
	case errors.Is(err, petsports.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
