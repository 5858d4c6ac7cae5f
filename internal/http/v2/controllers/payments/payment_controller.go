// Package payments contiene el controller de pagos protegidos.
package payments

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/payments"
	httperrors "github.com/dropDatabas3/simguard/internal/http/v2/errors"
	"github.com/dropDatabas3/simguard/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/simguard/internal/http/v2/services/payments"
)

// OperatorHeader identifica al operador que pide un bypass; queda en el audit log.
const OperatorHeader = "X-Operator-ID"

type PaymentController struct {
	service svc.PaymentService
}

func NewPaymentController(service svc.PaymentService) *PaymentController {
	return &PaymentController{service: service}
}

// SecurePayment maneja POST /payments/secure-payment.
// Verificación requerida o bloqueo responden 200 con success=false.
func (c *PaymentController) SecurePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.SecurePaymentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := helpers.Validate(req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	operator := strings.TrimSpace(r.Header.Get(OperatorHeader))
	out, err := c.service.SecurePayment(r.Context(), req, operator)
	if err != nil {
		httperrors.WriteErrorCtx(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
