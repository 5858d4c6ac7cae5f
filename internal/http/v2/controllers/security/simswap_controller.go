package security

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/security"
	httperrors "github.com/dropDatabas3/simguard/internal/http/v2/errors"
	"github.com/dropDatabas3/simguard/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/simguard/internal/http/v2/services/security"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// SimSwapController maneja las consultas de solo lectura de SIM swap.
type SimSwapController struct {
	service svc.SimSwapService
}

func NewSimSwapController(service svc.SimSwapService) *SimSwapController {
	return &SimSwapController{service: service}
}

// Check maneja GET /security/sim-swap-check?phoneNumber=
func (c *SimSwapController) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SimSwapController.Check"))

	phone := strings.TrimSpace(r.URL.Query().Get("phoneNumber"))
	if phone == "" {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("phoneNumber is required"))
		return
	}

	out, err := c.service.Check(ctx, phone)
	if err != nil {
		log.Debug("sim swap check failed", logger.Err(err))
		httperrors.WriteErrorCtx(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Batch maneja POST /security/batch-sim-swap-check
func (c *SimSwapController) Batch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.BatchRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := helpers.Validate(req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	out, err := c.service.Batch(ctx, req.PhoneNumbers)
	if err != nil {
		httperrors.WriteErrorCtx(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// History maneja GET /security/sim-swap-history/{phoneNumber}
func (c *SimSwapController) History(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.History(r.Context(), chi.URLParam(r, "phoneNumber"))
	if err != nil {
		httperrors.WriteErrorCtx(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
