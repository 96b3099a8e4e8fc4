package utils

import (
	"fmt"

	pkgError "github.com/AzielCF/az-lookups/pkg/error"
)

// ResponseData is the envelope of every REST response.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics with err so the recovery middleware can render it.
// Errors that do not carry an HTTP status are wrapped as internal errors.
func PanicIfNeeded(err any) {
	if err == nil {
		return
	}
	if e, ok := err.(pkgError.GenericError); ok {
		panic(e)
	}
	if e, ok := err.(error); ok {
		panic(pkgError.InternalServerError(e.Error()))
	}
	panic(pkgError.InternalServerError(fmt.Sprintf("%v", err)))
}
