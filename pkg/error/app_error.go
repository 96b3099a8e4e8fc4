package error

import "net/http"

// GenericError is implemented by every error the REST layer knows how to
// render. The recovery middleware uses ErrCode and StatusCode to build the
// response body.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}

type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}
