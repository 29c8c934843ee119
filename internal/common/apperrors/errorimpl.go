package apperrors

import "strings"

// appError implements the apperrors.Error interface.
// Sentinels are shared package variables, so every method that changes the
// message or the wrapped errors returns a derived copy instead of mutating e.
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	statuscode    int
	code          string
	expandError   bool
	prefix        string
	suffix        string
}

func (e *appError) Error() string {
	msg := e.msg
	if e.prefix != "" {
		msg = e.prefix + ": " + msg
	}
	if e.suffix != "" {
		msg += ": " + e.suffix
	}
	return msg
}

func (e *appError) ErrorAll() string {
	if !e.expandError || len(e.wrappedErrors) == 0 {
		return e.Error()
	}
	parts := make([]string, 0, len(e.wrappedErrors))
	for _, err := range e.wrappedErrors {
		if err == nil {
			continue
		}
		parts = append(parts, err.Error())
	}
	if len(parts) == 0 {
		return e.Error()
	}
	return e.Error() + ": " + strings.Join(parts, ";")
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

// derive returns a copy of e that keeps e as its base.
func (e *appError) derive() *appError {
	wrapped := make([]error, len(e.wrappedErrors))
	copy(wrapped, e.wrappedErrors)
	return &appError{
		msg:           e.msg,
		base:          e,
		wrappedErrors: wrapped,
		statuscode:    e.statuscode,
		code:          e.code,
		expandError:   e.expandError,
		prefix:        e.prefix,
		suffix:        e.suffix,
	}
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:         msg,
		statuscode:  e.statuscode,
		code:        e.code,
		expandError: e.expandError,
		base:        e,
	}
}

func (e *appError) Msg(msg string) Error {
	d := e.derive()
	d.msg = msg
	return d
}

func (e *appError) Prefix(prefix string) Error {
	d := e.derive()
	d.prefix = prefix
	return d
}

func (e *appError) Suffix(suffix string) Error {
	d := e.derive()
	d.suffix = suffix
	return d
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	d := e.derive()
	d.msg = msg
	d.wrappedErrors = append(d.wrappedErrors, err...)
	return d
}

func (e *appError) Err(err ...error) Error {
	d := e.derive()
	d.wrappedErrors = append(d.wrappedErrors, err...)
	return d
}

func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if e == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	for _, err := range e.wrappedErrors {
		if err == target {
			return true
		}
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	e.expandError = expand
	return e
}

func (e *appError) SetStatusCode(code int) Error {
	e.statuscode = code
	return e
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

func (e *appError) SetCode(code string) Error {
	e.code = code
	return e
}

func (e *appError) Code() string {
	return e.code
}

func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}
