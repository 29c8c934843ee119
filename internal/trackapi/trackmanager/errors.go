package trackmanager

import (
	"net/http"

	"github.com/tansive/trackcatalog/internal/common/apperrors"
)

// Error kinds reported to clients in the "kind" field of an error response.
const (
	KindInvalidRequest            = "InvalidRequest"
	KindUnknownType               = "UnknownType"
	KindIncompatibleTypeFiles     = "IncompatibleTypeFiles"
	KindInvalidDatafileCount      = "InvalidDatafileCount"
	KindUniqueConstraintViolation = "UniqueConstraintViolation"
	KindTrackNotFound             = "TrackNotFound"
	KindTypeNotFound              = "TypeNotFound"
	KindAlreadyLinked             = "AlreadyLinked"
	KindGenomeNotFound            = "GenomeNotFound"
	KindWritesNotAllowed          = "WritesNotAllowed"
	KindCatalogError              = "CatalogError"
)

var (
	ErrTrackManager apperrors.Error = apperrors.New("track catalog error").SetStatusCode(http.StatusInternalServerError)
	ErrCatalogError apperrors.Error = ErrTrackManager.New("unable to process request").SetCode(KindCatalogError)

	ErrInvalidRequest            apperrors.Error = ErrTrackManager.New("invalid request").SetStatusCode(http.StatusBadRequest).SetCode(KindInvalidRequest)
	ErrUnknownType               apperrors.Error = ErrInvalidRequest.New("unknown track type").SetCode(KindUnknownType)
	ErrIncompatibleTypeFiles     apperrors.Error = ErrInvalidRequest.New("track types have different file keys").SetCode(KindIncompatibleTypeFiles)
	ErrInvalidDatafileCount      apperrors.Error = ErrInvalidRequest.New("invalid number of datafiles").SetCode(KindInvalidDatafileCount)
	ErrUniqueConstraintViolation apperrors.Error = ErrInvalidRequest.New("track already exists: unique constraint violation").SetCode(KindUniqueConstraintViolation)
	ErrAlreadyLinked             apperrors.Error = ErrInvalidRequest.New("type already linked to this track").SetStatusCode(http.StatusConflict).SetCode(KindAlreadyLinked)

	ErrNotFound       apperrors.Error = ErrTrackManager.New("not found").SetStatusCode(http.StatusNotFound)
	ErrTrackNotFound  apperrors.Error = ErrNotFound.New("No track found with this track id.").SetCode(KindTrackNotFound)
	ErrTypeNotFound   apperrors.Error = ErrNotFound.New("Type not found").SetCode(KindTypeNotFound)
	ErrGenomeNotFound apperrors.Error = ErrNotFound.New("No tracks found for this genome.").SetCode(KindGenomeNotFound)

	ErrWritesNotAllowed apperrors.Error = ErrTrackManager.New("write operations are not allowed in this environment").SetStatusCode(http.StatusMethodNotAllowed).SetCode(KindWritesNotAllowed)
)
