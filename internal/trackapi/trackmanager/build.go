package trackmanager

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/db"
	"github.com/tansive/trackcatalog/internal/trackapi/db/models"
	"github.com/tansive/trackcatalog/pkg/api"
)

// resolveTypes loads the named types in request order. All names must exist
// and all types must declare the same file keys.
func resolveTypes(ctx context.Context, store db.TrackStore, names []string) ([]*models.TrackType, apperrors.Error) {
	if len(names) == 0 {
		return nil, nil
	}
	names = dedupe(names)
	types, err := store.GetTrackTypes(ctx, names)
	if err != nil {
		return nil, ErrCatalogError.Err(err)
	}
	if len(types) != len(names) {
		found := make(map[string]bool, len(types))
		for _, t := range types {
			found[t.Name] = true
		}
		var missing []string
		for _, n := range names {
			if !found[n] {
				missing = append(missing, n)
			}
		}
		return nil, ErrUnknownType.Msg("Type(s) not found: " + strings.Join(missing, ", "))
	}
	for i := 1; i < len(types); i++ {
		if !types[0].SameFileKeys(types[i]) {
			return nil, ErrIncompatibleTypeFiles.Msg(fmt.Sprintf(
				"Type files %v of %s do not match type files %v of %s",
				types[i].FileKeys, types[i].Name, types[0].FileKeys, types[0].Name))
		}
	}
	return types, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// buildDatafiles turns the submitted files into the stored slot map. A list is
// mapped positionally onto the file keys of the first type, slots past the end
// of the list are left empty. A slot map must only use slots the types declare.
func buildDatafiles(in api.Datafiles, types []*models.TrackType) (map[string]string, apperrors.Error) {
	if len(types) == 0 {
		if !in.IsSlotMap() {
			return nil, ErrInvalidRequest.Msg("a list of datafiles requires track_types to name the file slots")
		}
		return in.Clone().Slots, nil
	}
	keys := types[0].FileKeys
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = ""
	}
	if in.IsSlotMap() {
		for _, k := range in.Keys() {
			if !slices.Contains(keys, k) {
				return nil, ErrIncompatibleTypeFiles.Msg(fmt.Sprintf(
					"datafile slot %q is not one of the type file keys %v", k, keys))
			}
			out[k] = in.Slots[k]
		}
		return out, nil
	}
	if len(in.Paths) > len(keys) {
		return nil, ErrInvalidDatafileCount.Msg(fmt.Sprintf(
			"%d datafiles given but type %s has %d file keys", len(in.Paths), types[0].Name, len(keys)))
	}
	for i, p := range in.Paths {
		out[keys[i]] = p
	}
	return out, nil
}

// buildTrackWrite fills in the track from the request. Fields the request
// leaves unset are taken from the first type.
func buildTrackWrite(req *api.TrackRequest, genomeID uuid.UUID, datafiles map[string]string, types []*models.TrackType) (*models.TrackWrite, apperrors.Error) {
	t := &models.Track{
		GenomeID:       genomeID,
		Datafiles:      datafiles,
		Label:          req.Label,
		Colour:         req.Colour,
		Trigger:        slices.Clone(req.Trigger),
		Kind:           req.Kind,
		AdditionalInfo: req.AdditionalInfo,
		Description:    req.Description,
		Settings:       toJSONB(req.Settings),
	}
	if req.DatasetID != "" {
		t.DatasetID = uuid.NullUUID{UUID: uuid.MustParse(req.DatasetID), Valid: true}
	}
	if req.DisplayOrder != nil {
		t.DisplayOrder = *req.DisplayOrder
	}
	if req.OnByDefault != nil {
		t.OnByDefault = *req.OnByDefault
	}

	var category models.Category
	if req.Category != nil {
		category = models.Category{
			CategoryID: req.Category.ID,
			Label:      req.Category.Label,
			Kind:       req.Category.Kind,
		}
	}

	if len(types) > 0 {
		first := types[0]
		if t.Label == "" {
			t.Label = first.Label
		}
		if t.Colour == "" {
			t.Colour = first.Colour
		}
		if len(t.Trigger) == 0 {
			t.Trigger = slices.Clone(first.Trigger)
		}
		if t.Kind == "" {
			t.Kind = first.Kind
		}
		if req.DisplayOrder == nil {
			t.DisplayOrder = first.DisplayOrder
		}
		if req.OnByDefault == nil {
			t.OnByDefault = first.OnByDefault
		}
		if t.Description == "" {
			t.Description = first.Description
		}
		if len(req.Settings) == 0 {
			t.Settings = toJSONB(first.Settings.Bytes)
		}
		if category.CategoryID == "" {
			category.CategoryID = first.CategoryID
			if first.Category != nil {
				category.Label = first.Category.Label
				category.Kind = first.Category.Kind
			}
		}
	}
	if t.Label == "" {
		return nil, ErrInvalidRequest.Msg("label is required")
	}
	if t.Kind == "" {
		return nil, ErrInvalidRequest.Msg("type is required")
	}
	if category.CategoryID == "" {
		return nil, ErrInvalidRequest.Msg("category is required")
	}
	if category.Label == "" {
		category.Label = category.CategoryID
	}
	if category.Kind == "" {
		category.Kind = api.CategoryGenomic
	}
	t.CategoryID = category.CategoryID

	w := &models.TrackWrite{
		Track:     t,
		Category:  category,
		TypeNames: dedupe(req.TrackTypes),
	}
	w.SelfTrigger = selfTriggered(t.Kind, types)
	for _, s := range req.Sources {
		w.Sources = append(w.Sources, models.Source{Name: s.Name, URL: s.URL})
	}
	return w, nil
}

// selfTriggered reports whether the track carries its own id as the last
// trigger key. Linked types decide; the track kind only counts when the
// request names no types.
func selfTriggered(kind string, types []*models.TrackType) bool {
	if len(types) == 0 {
		return kind == api.KindVariant
	}
	return slices.ContainsFunc(types, func(tt *models.TrackType) bool {
		return tt.Kind == api.KindVariant
	})
}
