package security

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/security"
	httperrors "github.com/dropDatabas3/simguard/internal/http/v2/errors"
	"github.com/dropDatabas3/simguard/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/simguard/internal/http/v2/services/security"
)

// VerificationController maneja la confirmación de challenges post-swap.
type VerificationController struct {
	service svc.VerificationService
}

func NewVerificationController(service svc.VerificationService) *VerificationController {
	return &VerificationController{service: service}
}

// Verify maneja POST /security/verify-after-swap
func (c *VerificationController) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := helpers.Validate(req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	out, err := c.service.Verify(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Status maneja GET /security/challenges/{id}
func (c *VerificationController) Status(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, svc.ErrMethodMismatch), errors.Is(err, svc.ErrMissingProof):
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(err.Error()))
	default:
		httperrors.WriteErrorCtx(w, r, err)
	}
}
