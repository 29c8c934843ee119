package trackmanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/common"
	"github.com/tansive/trackcatalog/internal/trackapi/db"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
)

// LinkSuccessMessage is returned with a successful link.
const LinkSuccessMessage = "Type linked successfully"

// LinkType associates one more type with an existing track. The type must
// declare the same file keys as the types already linked to the track. The
// track's datafiles are not changed.
func LinkType(ctx context.Context, trackID uuid.UUID, typeName string) (uuid.UUID, apperrors.Error) {
	if !common.WritesAllowedFromContext(ctx) {
		return uuid.Nil, ErrWritesNotAllowed
	}
	store := db.DB(ctx)
	if store == nil {
		return uuid.Nil, ErrCatalogError
	}

	track, err := store.GetTrack(ctx, trackID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return uuid.Nil, rejectLink(ErrTrackNotFound)
		}
		return uuid.Nil, rejectLink(ErrCatalogError.Err(err))
	}
	t, err := store.GetTrackType(ctx, typeName)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return uuid.Nil, rejectLink(ErrTypeNotFound.Msg("Type not found: " + typeName))
		}
		return uuid.Nil, rejectLink(ErrCatalogError.Err(err))
	}
	for _, name := range track.Types {
		if name == typeName {
			return uuid.Nil, rejectLink(ErrAlreadyLinked)
		}
	}

	if len(track.Types) > 0 {
		linked, err := store.GetTrackTypes(ctx, track.Types)
		if err != nil {
			return uuid.Nil, rejectLink(ErrCatalogError.Err(err))
		}
		for _, l := range linked {
			if !l.SameFileKeys(t) {
				return uuid.Nil, rejectLink(ErrIncompatibleTypeFiles.Msg(fmt.Sprintf(
					"Type files %v do not match track's existing types files %v", t.FileKeys, l.FileKeys)))
			}
		}
	}

	if err := store.LinkTrackType(ctx, trackID, typeName); err != nil {
		switch {
		case errors.Is(err, dberror.ErrAlreadyExists):
			return uuid.Nil, rejectLink(ErrAlreadyLinked)
		case errors.Is(err, dberror.ErrNotFound):
			return uuid.Nil, rejectLink(ErrTrackNotFound)
		}
		return uuid.Nil, rejectLink(ErrCatalogError.Err(err))
	}

	typeLinks.WithLabelValues(resultLinked, "").Inc()
	log.Ctx(ctx).Info().Str("track_id", trackID.String()).Str("type", typeName).Msg("type linked")
	return trackID, nil
}

func rejectLink(err apperrors.Error) apperrors.Error {
	typeLinks.WithLabelValues(resultRejected, err.Code()).Inc()
	return err
}
