// Package api holds the request and response bodies exchanged with the track API.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
	"slices"
)

// Track kinds. The kind decides how the browser renders a track.
const (
	KindGene    = "gene"
	KindVariant = "variant"
	KindRegular = "regular"
)

// Category kinds.
const (
	CategoryGenomic    = "Genomic"
	CategoryVariation  = "Variation"
	CategoryRegulation = "Regulation"
)

// MaxDatafiles is the number of data files a single track can carry.
const MaxDatafiles = 2

// CategoryRef identifies a category by its stable id. Label and Kind are used
// only when the category does not exist yet.
type CategoryRef struct {
	ID    string `json:"track_category_id" validate:"required,max=100"`
	Label string `json:"label" validate:"max=100"`
	Kind  string `json:"type" validate:"omitempty,oneof=Genomic Variation Regulation"`
}

// Source is a citation attached to a track.
type Source struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

// TrackRequest is the body of a track submission. The strict form names the
// track types and lists the data files positionally. The template form may
// carry the display fields inline and a slot keyed datafiles object.
type TrackRequest struct {
	GenomeID       string          `json:"genome_id" validate:"required,uuid"`
	DatasetID      string          `json:"dataset_id,omitempty" validate:"omitempty,uuid"`
	Datafiles      Datafiles       `json:"datafiles"`
	TrackTypes     []string        `json:"track_types,omitempty" validate:"dive,required"`
	Label          string          `json:"label,omitempty" validate:"max=100"`
	Colour         string          `json:"colour,omitempty" validate:"max=30"`
	Trigger        []string        `json:"trigger,omitempty"`
	Kind           string          `json:"type,omitempty" validate:"omitempty,oneof=gene variant regular"`
	DisplayOrder   *int            `json:"display_order,omitempty"`
	OnByDefault    *bool           `json:"on_by_default,omitempty"`
	Category       *CategoryRef    `json:"category,omitempty"`
	AdditionalInfo string          `json:"additional_info,omitempty"`
	Description    string          `json:"description,omitempty"`
	Settings       json.RawMessage `json:"settings,omitempty"`
	Sources        []Source        `json:"sources,omitempty" validate:"dive"`
}

// Clone returns a deep copy so templates can be filled in without sharing slices.
func (r *TrackRequest) Clone() *TrackRequest {
	c := *r
	c.Datafiles = r.Datafiles.Clone()
	c.TrackTypes = slices.Clone(r.TrackTypes)
	c.Trigger = slices.Clone(r.Trigger)
	c.Sources = slices.Clone(r.Sources)
	c.Settings = bytes.Clone(r.Settings)
	if r.Category != nil {
		cat := *r.Category
		c.Category = &cat
	}
	if r.DisplayOrder != nil {
		v := *r.DisplayOrder
		c.DisplayOrder = &v
	}
	if r.OnByDefault != nil {
		v := *r.OnByDefault
		c.OnByDefault = &v
	}
	return &c
}

// Datafiles is either an ordered list of paths or an object keyed by file slot.
type Datafiles struct {
	Paths []string
	Slots map[string]string
}

// DatafileList builds a positional Datafiles value.
func DatafileList(paths ...string) Datafiles {
	return Datafiles{Paths: paths}
}

// DatafileSlots builds a slot keyed Datafiles value.
func DatafileSlots(slots map[string]string) Datafiles {
	if slots == nil {
		slots = map[string]string{}
	}
	return Datafiles{Slots: slots}
}

// IsSlotMap reports whether the files were given keyed by slot.
func (d Datafiles) IsSlotMap() bool {
	return d.Slots != nil
}

// Len returns the number of entries, empty slots included.
func (d Datafiles) Len() int {
	if d.IsSlotMap() {
		return len(d.Slots)
	}
	return len(d.Paths)
}

// Keys returns the slot names in sorted order.
func (d Datafiles) Keys() []string {
	return slices.Sorted(maps.Keys(d.Slots))
}

func (d Datafiles) Clone() Datafiles {
	if d.IsSlotMap() {
		return Datafiles{Slots: maps.Clone(d.Slots)}
	}
	return Datafiles{Paths: slices.Clone(d.Paths)}
}

func (d *Datafiles) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*d = Datafiles{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '[':
		return json.Unmarshal(b, &d.Paths)
	case '{':
		d.Slots = map[string]string{}
		return json.Unmarshal(b, &d.Slots)
	}
	return errors.New("datafiles must be a list of paths or an object keyed by file slot")
}

func (d Datafiles) MarshalJSON() ([]byte, error) {
	if d.IsSlotMap() {
		return json.Marshal(d.Slots)
	}
	if d.Paths == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Paths)
}

// CreateTrackRsp is returned when a track is created or updated.
type CreateTrackRsp struct {
	TrackID string `json:"track_id"`
}

// LinkTypeRequest links one more type to an existing track.
type LinkTypeRequest struct {
	TrackID  string `json:"track_id" validate:"required,uuid"`
	TypeName string `json:"type_name" validate:"required"`
}

type LinkTypeRsp struct {
	TrackID string `json:"track_id"`
	Message string `json:"message"`
}

// Track is a single track as read back from the catalog. Datafiles and
// Settings are only filled in when a track is read on its own.
type Track struct {
	TrackID        string            `json:"track_id"`
	Label          string            `json:"label"`
	Colour         string            `json:"colour"`
	Trigger        []string          `json:"trigger"`
	Kind           string            `json:"type"`
	DisplayOrder   int               `json:"display_order"`
	OnByDefault    bool              `json:"on_by_default"`
	Sources        []Source          `json:"sources"`
	TrackTypes     []string          `json:"track_types,omitempty"`
	AdditionalInfo string            `json:"additional_info,omitempty"`
	Description    string            `json:"description,omitempty"`
	Datafiles      map[string]string `json:"datafiles,omitempty"`
	Settings       json.RawMessage   `json:"settings,omitempty"`
}

// CategoryTracks is one category of a genome together with its tracks.
type CategoryTracks struct {
	Label      string   `json:"label"`
	CategoryID string   `json:"category_id"`
	Kind       string   `json:"type"`
	Types      []string `json:"types"`
	TrackList  []Track  `json:"track_list"`
}

type GenomeTracksRsp struct {
	TrackCategories []CategoryTracks `json:"track_categories"`
}
