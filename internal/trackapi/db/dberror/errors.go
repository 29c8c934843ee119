package dberror

import (
	"net/http"

	"github.com/tansive/trackcatalog/internal/common/apperrors"
)

var (
	ErrDatabase      apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound      apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput  apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	// ErrUniqueViolation is returned when a write loses a race against a
	// concurrent write with the same unique key.
	ErrUniqueViolation apperrors.Error = ErrAlreadyExists.New("unique constraint violation").SetStatusCode(http.StatusBadRequest)
)
