package error

import "net/http"

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

// DecodeError means the uploaded bytes are not an image we can read.
type DecodeError string

func (err DecodeError) Error() string {
	return string(err)
}

func (err DecodeError) ErrCode() string {
	return "DECODE_ERROR"
}

func (err DecodeError) StatusCode() int {
	return http.StatusUnprocessableEntity
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
