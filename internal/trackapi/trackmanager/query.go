package trackmanager

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/common"
	"github.com/tansive/trackcatalog/internal/trackapi/db"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
	"github.com/tansive/trackcatalog/internal/trackapi/db/models"
	"github.com/tansive/trackcatalog/pkg/api"
)

// GetGenomeTracks returns the tracks of a genome grouped by category.
// Categories appear in the order their first track was stored and tracks keep
// their insertion order.
func GetGenomeTracks(ctx context.Context, genomeID uuid.UUID) (*api.GenomeTracksRsp, apperrors.Error) {
	store := db.DB(ctx)
	if store == nil {
		return nil, ErrCatalogError
	}
	tracks, err := store.ListGenomeTracks(ctx, genomeID)
	if err != nil {
		return nil, ErrCatalogError.Err(err)
	}
	if len(tracks) == 0 {
		return nil, ErrGenomeNotFound
	}

	rsp := &api.GenomeTracksRsp{TrackCategories: []api.CategoryTracks{}}
	index := make(map[string]int)
	for _, t := range tracks {
		i, ok := index[t.CategoryID]
		if !ok {
			ct := api.CategoryTracks{
				CategoryID: t.CategoryID,
				Types:      []string{},
				TrackList:  []api.Track{},
			}
			if t.Category != nil {
				ct.Label = t.Category.Label
				ct.Kind = t.Category.Kind
			}
			rsp.TrackCategories = append(rsp.TrackCategories, ct)
			i = len(rsp.TrackCategories) - 1
			index[t.CategoryID] = i
		}
		ct := &rsp.TrackCategories[i]
		for _, name := range t.Types {
			if !slices.Contains(ct.Types, name) {
				ct.Types = append(ct.Types, name)
			}
		}
		ct.TrackList = append(ct.TrackList, trackView(t, false))
	}
	return rsp, nil
}

// GetTrack returns a single track including its settings.
func GetTrack(ctx context.Context, trackID uuid.UUID) (*api.Track, apperrors.Error) {
	store := db.DB(ctx)
	if store == nil {
		return nil, ErrCatalogError
	}
	t, err := store.GetTrack(ctx, trackID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrTrackNotFound
		}
		return nil, ErrCatalogError.Err(err)
	}
	v := trackView(t, true)
	return &v, nil
}

// DeleteGenomeTracks removes every track of the genome together with its type
// and source links. Categories, types and sources stay in the catalog.
func DeleteGenomeTracks(ctx context.Context, genomeID uuid.UUID) apperrors.Error {
	if !common.WritesAllowedFromContext(ctx) {
		return ErrWritesNotAllowed
	}
	store := db.DB(ctx)
	if store == nil {
		return ErrCatalogError
	}
	n, err := store.DeleteGenomeTracks(ctx, genomeID)
	if err != nil {
		return ErrCatalogError.Err(err)
	}
	if n == 0 {
		return ErrGenomeNotFound
	}
	deletedTracks.Add(float64(n))
	log.Ctx(ctx).Info().Str("genome_id", genomeID.String()).Int64("tracks", n).Msg("genome tracks deleted")
	return nil
}

func DeleteTrack(ctx context.Context, trackID uuid.UUID) apperrors.Error {
	if !common.WritesAllowedFromContext(ctx) {
		return ErrWritesNotAllowed
	}
	store := db.DB(ctx)
	if store == nil {
		return ErrCatalogError
	}
	if err := store.DeleteTrack(ctx, trackID); err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrTrackNotFound
		}
		return ErrCatalogError.Err(err)
	}
	deletedTracks.Inc()
	log.Ctx(ctx).Info().Str("track_id", trackID.String()).Msg("track deleted")
	return nil
}

func trackView(t *models.Track, withSettings bool) api.Track {
	v := api.Track{
		TrackID:        t.TrackID.String(),
		Label:          t.Label,
		Colour:         t.Colour,
		Trigger:        slices.Clone(t.Trigger),
		Kind:           t.Kind,
		DisplayOrder:   t.DisplayOrder,
		OnByDefault:    t.OnByDefault,
		Sources:        []api.Source{},
		TrackTypes:     slices.Clone(t.Types),
		AdditionalInfo: t.AdditionalInfo,
		Description:    t.Description,
		Datafiles:      maps.Clone(t.Datafiles),
	}
	if v.Trigger == nil {
		v.Trigger = []string{}
	}
	for _, s := range t.Sources {
		v.Sources = append(v.Sources, api.Source{Name: s.Name, URL: s.URL})
	}
	if withSettings && t.Settings.Status == pgtype.Present {
		v.Settings = slices.Clone(t.Settings.Bytes)
	}
	return v
}
