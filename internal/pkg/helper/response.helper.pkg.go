package helper

import (
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/logger"
	"net/http"
)

// ParseResponse normalizes a service response: fills a default message from the
// status code, logs server-side errors, and never leaks raw error text on 5xx.
func ParseResponse(r *types.Response) *types.Response {
	if r.Code == 0 {
		r.Code = http.StatusOK
	}
	if r.Message == "" {
		r.Message = http.StatusText(r.Code)
	}
	if r.Error != nil && r.Code >= http.StatusInternalServerError {
		logger.Error.Printf("%d %s: %v", r.Code, r.Message, r.Error)
	}
	return r
}

// ToAPI converts an internal response to the client-facing shape.
func ToAPI(r *types.Response) *types.ResponseAPI {
	api := &types.ResponseAPI{
		Status:  r.Code,
		Message: r.Message,
		Data:    r.Data,
	}
	if r.Error != nil && r.Code < http.StatusInternalServerError {
		api.Error = r.Error.Error()
	}
	return api
}
