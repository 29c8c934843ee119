package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/tansive/trackcatalog/internal/common/apperrors"
)

// Kinds reported for errors raised before a request reaches the track manager.
const (
	KindInvalidRequest = "InvalidRequest"
	KindInternal       = "InternalError"
)

// Failure is the result field of every error body.
const Failure int = 0

// Error is a failure detected by the HTTP layer itself, such as a malformed
// body or path parameter.
type Error struct {
	Description string `json:"description"`
	StatusCode  int    `json:"http_status_code"`
	Kind        string `json:"kind,omitempty"`
}

// ErrorRsp is the body of every failed request.
type ErrorRsp struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
}

func (e *Error) Error() string {
	return e.Description
}

func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	body, err := json.Marshal(&ErrorRsp{Result: Failure, Error: e.Description, Kind: e.Kind})
	if err != nil {
		http.Error(w, "unable to encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	w.Write(body)
}

// SendError writes an application error. Errors without a status code are
// internal errors.
func SendError(w http.ResponseWriter, err apperrors.Error) {
	if err == nil {
		return
	}
	status := err.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	kind := err.Code()
	if kind == "" && status == http.StatusInternalServerError {
		kind = KindInternal
	}
	(&Error{StatusCode: status, Description: err.ErrorAll(), Kind: kind}).Send(w)
}

func newError(status int, kind, description string, override []string) *Error {
	if len(override) > 0 && override[0] != "" {
		description = override[0]
	}
	return &Error{Description: description, StatusCode: status, Kind: kind}
}

func ErrReqMethodNotSupported() *Error {
	return newError(http.StatusMethodNotAllowed, KindInvalidRequest, "Request Method Not Supported", nil)
}

func ErrUnableToParseReqData() *Error {
	return newError(http.StatusBadRequest, KindInvalidRequest, "Unable to parse request", nil)
}

func ErrUnableToReadRequest() *Error {
	return newError(http.StatusBadRequest, KindInvalidRequest, "Unable to read request", nil)
}

func ErrApplicationError(msg ...string) *Error {
	return newError(http.StatusInternalServerError, KindInternal, "Unable to process request", msg)
}

func ErrInvalidRequest(msg ...string) *Error {
	return newError(http.StatusBadRequest, KindInvalidRequest, "empty request values or invalid request", msg)
}

func ErrInvalidGenomeId() *Error {
	return newError(http.StatusBadRequest, KindInvalidRequest, "Empty or invalid genome id", nil)
}

func ErrInvalidTrackId() *Error {
	return newError(http.StatusBadRequest, KindInvalidRequest, "Empty or invalid track id", nil)
}
