// Package audit contiene el controller de revisión del audit log.
package audit

import (
	"errors"
	"net/http"
	"strconv"

	httperrors "github.com/dropDatabas3/simguard/internal/http/v2/errors"
	"github.com/dropDatabas3/simguard/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/simguard/internal/http/v2/services/audit"
)

type AuditController struct {
	service svc.AuditService
}

func NewAuditController(service svc.AuditService) *AuditController {
	return &AuditController{service: service}
}

// List maneja GET /security/audit?paymentId=|phoneNumber=&limit=
func (c *AuditController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("limit must be a positive integer"))
			return
		}
		limit = n
	}

	out, err := c.service.List(r.Context(), q.Get("paymentId"), q.Get("phoneNumber"), limit)
	if err != nil {
		if errors.Is(err, svc.ErrMissingFilter) {
			httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(err.Error()))
			return
		}
		httperrors.WriteErrorCtx(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
