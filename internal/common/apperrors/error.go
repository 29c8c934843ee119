package apperrors

// Error is the error type returned across package boundaries. Errors form a tree:
// New derives a child from its parent so that errors.Is matches any ancestor.
// Code carries a stable, machine-checkable kind that clients can switch on.
type Error interface {
	Error() string
	ErrorAll() string
	New(msg string) Error
	MsgErr(msg string, err ...error) Error
	Msg(msg string) Error
	Prefix(prefix string) Error
	Suffix(suffix string) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetExpandError(expand bool) Error
	SetStatusCode(code int) Error
	StatusCode() int
	SetCode(code string) Error
	Code() string
}
