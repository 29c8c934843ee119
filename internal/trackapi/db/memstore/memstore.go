// Package memstore is an in-process track store. It enforces the same unique
// keys and delete rules as the PostgreSQL store and is used for tests and
// single node development servers.
package memstore

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	commonuuid "github.com/tansive/trackcatalog/internal/common/uuid"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
	"github.com/tansive/trackcatalog/internal/trackapi/db/models"
)

type sourceKey struct {
	name string
	url  string
}

type Store struct {
	mu          sync.Mutex
	nextID      int64
	genomes     map[uuid.UUID]struct{}
	categories  map[string]*models.Category
	types       map[string]*models.TrackType
	tracks      []*models.Track
	typeLinks   map[uuid.UUID][]string
	sources     map[sourceKey]*models.Source
	sourceLinks map[uuid.UUID][]int64
	sourcesByID map[int64]*models.Source
}

func New() *Store {
	return &Store{
		genomes:     make(map[uuid.UUID]struct{}),
		categories:  make(map[string]*models.Category),
		types:       make(map[string]*models.TrackType),
		typeLinks:   make(map[uuid.UUID][]string),
		sources:     make(map[sourceKey]*models.Source),
		sourceLinks: make(map[uuid.UUID][]int64),
		sourcesByID: make(map[int64]*models.Source),
	}
}

func (s *Store) Close(ctx context.Context) {}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// HasGenome reports whether the genome row exists.
func (s *Store) HasGenome(genomeID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.genomes[genomeID]
	return ok
}

// SourceCount returns the number of stored sources.
func (s *Store) SourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

func (s *Store) getOrCreateCategory(c models.Category) *models.Category {
	if existing, ok := s.categories[c.CategoryID]; ok {
		return existing
	}
	c.ID = s.id()
	s.categories[c.CategoryID] = &c
	return &c
}

func (s *Store) UpsertTrackType(ctx context.Context, t *models.TrackType, category models.Category) apperrors.Error {
	if t == nil || t.Name == "" || category.CategoryID == "" {
		return dberror.ErrInvalidInput.Msg("type name and category are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateCategory(category)
	c := cloneType(t)
	c.CategoryID = category.CategoryID
	c.Category = nil
	if existing, ok := s.types[t.Name]; ok {
		c.ID = existing.ID
	} else {
		c.ID = s.id()
	}
	s.types[t.Name] = c
	t.ID = c.ID
	t.CategoryID = c.CategoryID
	return nil
}

func (s *Store) readType(t *models.TrackType) *models.TrackType {
	c := cloneType(t)
	if cat, ok := s.categories[t.CategoryID]; ok {
		cc := *cat
		c.Category = &cc
	}
	return c
}

func (s *Store) GetTrackType(ctx context.Context, name string) (*models.TrackType, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.types[name]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("track type not found")
	}
	return s.readType(t), nil
}

func (s *Store) GetTrackTypes(ctx context.Context, names []string) ([]*models.TrackType, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*models.TrackType
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if t, ok := s.types[name]; ok {
			found = append(found, s.readType(t))
		}
	}
	return found, nil
}

func (s *Store) ListTrackTypes(ctx context.Context) ([]*models.TrackType, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := slices.Sorted(maps.Keys(s.types))
	list := make([]*models.TrackType, 0, len(names))
	for _, name := range names {
		list = append(list, s.readType(s.types[name]))
	}
	return list, nil
}

func (s *Store) GetCategory(ctx context.Context, categoryID string) (*models.Category, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("category not found")
	}
	cc := *c
	return &cc, nil
}

func (s *Store) findTrack(genomeID uuid.UUID, label string, datafiles map[string]string) *models.Track {
	key := &models.Track{GenomeID: genomeID, Label: label, Datafiles: datafiles}
	for _, t := range s.tracks {
		if t.SameKey(key) {
			return t
		}
	}
	return nil
}

func (s *Store) trackByID(trackID uuid.UUID) (int, *models.Track) {
	for i, t := range s.tracks {
		if t.TrackID == trackID {
			return i, t
		}
	}
	return -1, nil
}

func (s *Store) FindTrack(ctx context.Context, genomeID uuid.UUID, label string, datafiles map[string]string) (*models.Track, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findTrack(genomeID, label, datafiles)
	if t == nil {
		return nil, dberror.ErrNotFound.Msg("track not found")
	}
	return s.readTrack(t), nil
}

func (s *Store) SaveTrack(ctx context.Context, w *models.TrackWrite) (uuid.UUID, apperrors.Error) {
	if w == nil || w.Track == nil || w.Category.CategoryID == "" {
		return uuid.Nil, dberror.ErrInvalidInput.Msg("track and category are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range w.TypeNames {
		if _, ok := s.types[name]; !ok {
			log.Ctx(ctx).Error().Str("type", name).Msg("track type does not exist")
			return uuid.Nil, dberror.ErrInvalidInput.Msg("track type does not exist: " + name)
		}
	}

	s.genomes[w.Track.GenomeID] = struct{}{}
	cat := s.getOrCreateCategory(w.Category)

	stored := s.findTrack(w.Track.GenomeID, w.Track.Label, w.Track.Datafiles)
	if stored == nil {
		t := cloneTrack(w.Track)
		if t.TrackID == uuid.Nil {
			t.TrackID = commonuuid.New()
		} else if _, dup := s.trackByID(t.TrackID); dup != nil {
			return uuid.Nil, dberror.ErrUniqueViolation.Msg("duplicate key value violates unique constraint on track_id")
		}
		t.ID = s.id()
		t.CategoryID = cat.CategoryID
		s.tracks = append(s.tracks, t)
		stored = t
		log.Ctx(ctx).Debug().Str("track_id", t.TrackID.String()).Msg("track created")
	} else {
		t := cloneTrack(w.Track)
		stored.DatasetID = t.DatasetID
		stored.CategoryID = cat.CategoryID
		stored.Colour = t.Colour
		stored.Trigger = t.Trigger
		stored.Kind = t.Kind
		stored.DisplayOrder = t.DisplayOrder
		stored.OnByDefault = t.OnByDefault
		stored.AdditionalInfo = t.AdditionalInfo
		stored.Description = t.Description
		stored.Settings = t.Settings
		log.Ctx(ctx).Debug().Str("track_id", stored.TrackID.String()).Msg("track updated")
	}

	if w.SelfTrigger && !slices.Contains(stored.Trigger, stored.TrackID.String()) {
		stored.Trigger = append(stored.Trigger, stored.TrackID.String())
	}

	for _, name := range w.TypeNames {
		if !slices.Contains(s.typeLinks[stored.TrackID], name) {
			s.typeLinks[stored.TrackID] = append(s.typeLinks[stored.TrackID], name)
		}
	}
	for _, src := range w.Sources {
		key := sourceKey{name: src.Name, url: src.URL}
		existing, ok := s.sources[key]
		if !ok {
			existing = &models.Source{ID: s.id(), Name: src.Name, URL: src.URL}
			s.sources[key] = existing
			s.sourcesByID[existing.ID] = existing
		}
		if !slices.Contains(s.sourceLinks[stored.TrackID], existing.ID) {
			s.sourceLinks[stored.TrackID] = append(s.sourceLinks[stored.TrackID], existing.ID)
		}
	}
	return stored.TrackID, nil
}

func (s *Store) readTrack(t *models.Track) *models.Track {
	c := cloneTrack(t)
	if cat, ok := s.categories[t.CategoryID]; ok {
		cc := *cat
		c.Category = &cc
	}
	c.Types = slices.Clone(s.typeLinks[t.TrackID])
	for _, id := range s.sourceLinks[t.TrackID] {
		c.Sources = append(c.Sources, *s.sourcesByID[id])
	}
	return c
}

func (s *Store) GetTrack(ctx context.Context, trackID uuid.UUID) (*models.Track, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t := s.trackByID(trackID)
	if t == nil {
		return nil, dberror.ErrNotFound.Msg("track not found")
	}
	return s.readTrack(t), nil
}

func (s *Store) LinkTrackType(ctx context.Context, trackID uuid.UUID, typeName string) apperrors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t := s.trackByID(trackID)
	if t == nil {
		return dberror.ErrNotFound.Msg("track not found")
	}
	if _, ok := s.types[typeName]; !ok {
		return dberror.ErrNotFound.Msg("track type not found")
	}
	if slices.Contains(s.typeLinks[trackID], typeName) {
		return dberror.ErrAlreadyExists.Msg("type already linked to track")
	}
	s.typeLinks[trackID] = append(s.typeLinks[trackID], typeName)
	return nil
}

func (s *Store) ListGenomeTracks(ctx context.Context, genomeID uuid.UUID) ([]*models.Track, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.Track
	for _, t := range s.tracks {
		if t.GenomeID == genomeID {
			list = append(list, s.readTrack(t))
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *Store) DeleteGenomeTracks(ctx context.Context, genomeID uuid.UUID) (int64, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	kept := s.tracks[:0]
	for _, t := range s.tracks {
		if t.GenomeID == genomeID {
			s.unlink(t.TrackID)
			n++
			continue
		}
		kept = append(kept, t)
	}
	s.tracks = kept
	delete(s.genomes, genomeID)
	return n, nil
}

func (s *Store) DeleteTrack(ctx context.Context, trackID uuid.UUID) apperrors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, t := s.trackByID(trackID)
	if t == nil {
		return dberror.ErrNotFound.Msg("track not found")
	}
	s.unlink(trackID)
	s.tracks = slices.Delete(s.tracks, i, i+1)
	for _, other := range s.tracks {
		if other.GenomeID == t.GenomeID {
			return nil
		}
	}
	delete(s.genomes, t.GenomeID)
	return nil
}

// unlink drops the type and source links of a track. Sources stay.
func (s *Store) unlink(trackID uuid.UUID) {
	delete(s.typeLinks, trackID)
	delete(s.sourceLinks, trackID)
}

func cloneJSONB(j pgtype.JSONB) pgtype.JSONB {
	return pgtype.JSONB{Bytes: bytes.Clone(j.Bytes), Status: j.Status}
}

func cloneType(t *models.TrackType) *models.TrackType {
	c := *t
	c.Trigger = slices.Clone(t.Trigger)
	c.FileKeys = slices.Clone(t.FileKeys)
	c.Settings = cloneJSONB(t.Settings)
	return &c
}

func cloneTrack(t *models.Track) *models.Track {
	c := *t
	c.Datafiles = maps.Clone(t.Datafiles)
	c.Trigger = slices.Clone(t.Trigger)
	c.Settings = cloneJSONB(t.Settings)
	c.Category = nil
	c.Types = nil
	c.Sources = nil
	return &c
}
