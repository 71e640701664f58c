package error

// GenericError is implemented by every error that knows how it should be
// presented to an HTTP caller.
type GenericError interface {
	ErrCode() string
	Error() string
	StatusCode() int
}
