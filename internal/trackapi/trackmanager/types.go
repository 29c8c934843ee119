package trackmanager

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/common"
	"github.com/tansive/trackcatalog/internal/trackapi/db"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
	"github.com/tansive/trackcatalog/internal/trackapi/db/models"
	"github.com/tansive/trackcatalog/pkg/api"
)

// RegisterTypes validates every definition before storing any of them. An
// existing type may be redefined as long as its file keys stay the same,
// since tracks already linked to it were built against those slots.
func RegisterTypes(ctx context.Context, defs []api.TypeDefinition) ([]string, apperrors.Error) {
	if !common.WritesAllowedFromContext(ctx) {
		return nil, ErrWritesNotAllowed
	}
	store := db.DB(ctx)
	if store == nil {
		return nil, ErrCatalogError
	}
	if len(defs) == 0 {
		return nil, ErrInvalidRequest.Msg("no type definitions given")
	}

	seen := make(map[string]bool, len(defs))
	for i := range defs {
		d := &defs[i]
		if msgs := api.Validate(d); len(msgs) > 0 {
			return nil, ErrInvalidRequest.Msg(fmt.Sprintf("type %q: %s", d.Name, strings.Join(msgs, "; ")))
		}
		if seen[d.Name] {
			return nil, ErrInvalidRequest.Msg(fmt.Sprintf("type %q defined more than once", d.Name))
		}
		seen[d.Name] = true

		existing, err := store.GetTrackType(ctx, d.Name)
		if err != nil && !errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrCatalogError.Err(err)
		}
		if existing != nil && !slices.Equal(existing.FileKeys, d.FileKeys) {
			return nil, ErrIncompatibleTypeFiles.Msg(fmt.Sprintf(
				"type %q has file keys %v, cannot change them to %v", d.Name, existing.FileKeys, d.FileKeys))
		}
	}

	registered := make([]string, 0, len(defs))
	for i := range defs {
		t, category := typeModel(&defs[i])
		if err := store.UpsertTrackType(ctx, t, category); err != nil {
			return registered, ErrCatalogError.Err(err)
		}
		registered = append(registered, t.Name)
		log.Ctx(ctx).Info().Str("type", t.Name).Msg("track type registered")
	}
	return registered, nil
}

func GetType(ctx context.Context, name string) (*api.TypeDefinition, apperrors.Error) {
	store := db.DB(ctx)
	if store == nil {
		return nil, ErrCatalogError
	}
	t, err := store.GetTrackType(ctx, name)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrTypeNotFound.Msg("Type not found: " + name)
		}
		return nil, ErrCatalogError.Err(err)
	}
	d := typeDefinition(t)
	return &d, nil
}

// ListTypes returns every registered type ordered by name.
func ListTypes(ctx context.Context) (*api.TypeListRsp, apperrors.Error) {
	store := db.DB(ctx)
	if store == nil {
		return nil, ErrCatalogError
	}
	list, err := store.ListTrackTypes(ctx)
	if err != nil {
		return nil, ErrCatalogError.Err(err)
	}
	rsp := &api.TypeListRsp{Types: []api.TypeDefinition{}}
	for _, t := range list {
		rsp.Types = append(rsp.Types, typeDefinition(t))
	}
	return rsp, nil
}

func typeModel(d *api.TypeDefinition) (*models.TrackType, models.Category) {
	category := models.Category{
		CategoryID: d.Category.ID,
		Label:      d.Category.Label,
		Kind:       d.Category.Kind,
	}
	if category.Label == "" {
		category.Label = category.CategoryID
	}
	if category.Kind == "" {
		category.Kind = api.CategoryGenomic
	}
	return &models.TrackType{
		Name:         d.Name,
		Label:        d.Label,
		CategoryID:   category.CategoryID,
		Trigger:      slices.Clone(d.Trigger),
		Kind:         d.Kind,
		FileKeys:     slices.Clone(d.FileKeys),
		DisplayOrder: d.DisplayOrder,
		OnByDefault:  d.OnByDefault,
		Colour:       d.Colour,
		Strand:       d.Strand,
		Browser:      d.Browser,
		Settings:     toJSONB(d.Settings),
		Description:  d.Description,
	}, category
}

func typeDefinition(t *models.TrackType) api.TypeDefinition {
	d := api.TypeDefinition{
		Name:         t.Name,
		Label:        t.Label,
		Category:     api.CategoryRef{ID: t.CategoryID},
		Trigger:      slices.Clone(t.Trigger),
		Kind:         t.Kind,
		FileKeys:     slices.Clone(t.FileKeys),
		DisplayOrder: t.DisplayOrder,
		OnByDefault:  t.OnByDefault,
		Colour:       t.Colour,
		Strand:       t.Strand,
		Browser:      t.Browser,
		Description:  t.Description,
	}
	if t.Category != nil {
		d.Category.Label = t.Category.Label
		d.Category.Kind = t.Category.Kind
	}
	if t.Settings.Bytes != nil {
		d.Settings = slices.Clone(t.Settings.Bytes)
	}
	return d
}
