package error

import "net/http"

// NotFoundError is returned when a stored upload or artifact does not exist.
type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}
