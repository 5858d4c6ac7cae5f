package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta HTTP para err (AppError, dominio o genérico).
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	writeAppError(w, appErr)
}

// WriteErrorCtx igual que WriteError pero loguea la causa de los 5xx con el
// logger del request.
func WriteErrorCtx(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			logger.String("code", appErr.Code), logger.Err(appErr.Err))
	}
	writeAppError(w, appErr)
}

func writeAppError(w http.ResponseWriter, appErr *AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
