// Package trackmanager validates track submissions and reconciles them with
// the catalog held by the track store.
package trackmanager

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/common"
	"github.com/tansive/trackcatalog/internal/trackapi/db"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
	"github.com/tansive/trackcatalog/pkg/api"
)

// CreateTrack handles the strict submission form: dataset_id, genome_id,
// a list of datafiles and at least one track type are all required.
func CreateTrack(ctx context.Context, req *api.TrackRequest) (uuid.UUID, apperrors.Error) {
	if req == nil {
		return uuid.Nil, ErrInvalidRequest.Msg("empty request")
	}
	var missing []string
	if req.DatasetID == "" {
		missing = append(missing, "dataset_id is required")
	}
	if len(req.TrackTypes) == 0 {
		missing = append(missing, "track_types must not be empty")
	}
	if req.Datafiles.IsSlotMap() {
		missing = append(missing, "datafiles must be a list of paths")
	}
	if len(missing) > 0 {
		return uuid.Nil, rejectSubmission(ErrInvalidRequest.Msg(strings.Join(missing, "; ")))
	}
	return SubmitTrack(ctx, req)
}

// SubmitTrack validates the request against the stored types and creates the
// track or updates the one with the same genome, label and datafiles.
func SubmitTrack(ctx context.Context, req *api.TrackRequest) (uuid.UUID, apperrors.Error) {
	if !common.WritesAllowedFromContext(ctx) {
		return uuid.Nil, ErrWritesNotAllowed
	}
	store := db.DB(ctx)
	if store == nil {
		return uuid.Nil, ErrCatalogError
	}
	if req == nil {
		return uuid.Nil, rejectSubmission(ErrInvalidRequest.Msg("empty request"))
	}
	if msgs := api.Validate(req); len(msgs) > 0 {
		return uuid.Nil, rejectSubmission(ErrInvalidRequest.Msg(strings.Join(msgs, "; ")))
	}
	genomeID := uuid.MustParse(req.GenomeID)
	if len(req.TrackTypes) == 0 && (req.Category == nil || req.Kind == "") {
		return uuid.Nil, rejectSubmission(ErrInvalidRequest.Msg("either track_types or an inline category and type are required"))
	}

	types, err := resolveTypes(ctx, store, req.TrackTypes)
	if err != nil {
		return uuid.Nil, rejectSubmission(err)
	}

	if n := req.Datafiles.Len(); n < 1 || n > api.MaxDatafiles {
		return uuid.Nil, rejectSubmission(ErrInvalidDatafileCount.Msg(
			fmt.Sprintf("datafiles must contain between 1 and %d entries, got %d", api.MaxDatafiles, n)))
	}
	datafiles, err := buildDatafiles(req.Datafiles, types)
	if err != nil {
		return uuid.Nil, rejectSubmission(err)
	}

	w, err := buildTrackWrite(req, genomeID, datafiles, types)
	if err != nil {
		return uuid.Nil, rejectSubmission(err)
	}

	existing, dberr := store.FindTrack(ctx, genomeID, w.Track.Label, datafiles)
	if dberr != nil && !errors.Is(dberr, dberror.ErrNotFound) {
		return uuid.Nil, rejectSubmission(ErrCatalogError.Err(dberr))
	}
	if existing != nil && len(types) > 0 && len(existing.Types) > 0 {
		linked, dberr := store.GetTrackTypes(ctx, existing.Types)
		if dberr != nil {
			return uuid.Nil, rejectSubmission(ErrCatalogError.Err(dberr))
		}
		for _, l := range linked {
			if !l.SameFileKeys(types[0]) {
				return uuid.Nil, rejectSubmission(ErrIncompatibleTypeFiles.Msg(fmt.Sprintf(
					"Type files %v do not match track's existing types files %v", types[0].FileKeys, l.FileKeys)))
			}
		}
	}

	trackID, dberr := store.SaveTrack(ctx, w)
	if dberr != nil {
		return uuid.Nil, rejectSubmission(mapStoreError(dberr))
	}

	result := resultCreated
	if existing != nil {
		result = resultUpdated
	}
	submissions.WithLabelValues(result, "").Inc()
	log.Ctx(ctx).Info().
		Str("track_id", trackID.String()).
		Str("genome_id", req.GenomeID).
		Str("label", w.Track.Label).
		Str("result", result).
		Msg("track saved")
	return trackID, nil
}

func rejectSubmission(err apperrors.Error) apperrors.Error {
	submissions.WithLabelValues(resultRejected, err.Code()).Inc()
	return err
}

// mapStoreError turns store failures into engine errors.
func mapStoreError(err apperrors.Error) apperrors.Error {
	switch {
	case errors.Is(err, dberror.ErrUniqueViolation):
		return ErrUniqueConstraintViolation.Err(err)
	case errors.Is(err, dberror.ErrNotFound):
		return ErrTrackNotFound.Err(err)
	case errors.Is(err, dberror.ErrInvalidInput):
		return ErrInvalidRequest.Msg(err.Error())
	}
	return ErrCatalogError.Err(err)
}

// toJSONB stores raw settings. Empty settings are stored as NULL.
func toJSONB(raw []byte) pgtype.JSONB {
	if len(raw) == 0 || string(raw) == "null" {
		return pgtype.JSONB{Status: pgtype.Null}
	}
	return pgtype.JSONB{Bytes: slices.Clone(raw), Status: pgtype.Present}
}
