package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	commonuuid "github.com/tansive/trackcatalog/internal/common/uuid"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
	"github.com/tansive/trackcatalog/internal/trackapi/db/models"
)

const selectTrackQuery = `
	SELECT tr.id, tr.track_id, tr.genome_id, tr.dataset_id, tr.category_id, tr.label, tr.datafiles,
		tr.colour, tr.trigger, tr.kind, tr.display_order, tr.on_by_default, tr.additional_info,
		tr.description, tr.settings, c.id, c.label, c.kind
	FROM tracks tr
	JOIN categories c ON c.category_id = tr.category_id
`

func scanTrack(row rowScanner) (*models.Track, error) {
	var (
		t         models.Track
		c         models.Category
		datafiles pgtype.JSONB
		trigger   pgtype.TextArray
	)
	err := row.Scan(&t.ID, &t.TrackID, &t.GenomeID, &t.DatasetID, &t.CategoryID, &t.Label, &datafiles,
		&t.Colour, &trigger, &t.Kind, &t.DisplayOrder, &t.OnByDefault, &t.AdditionalInfo,
		&t.Description, &t.Settings, &c.ID, &c.Label, &c.Kind)
	if err != nil {
		return nil, err
	}
	if datafiles.Status == pgtype.Present {
		if err := json.Unmarshal(datafiles.Bytes, &t.Datafiles); err != nil {
			return nil, err
		}
	}
	t.Trigger = toStrings(trigger)
	c.CategoryID = t.CategoryID
	t.Category = &c
	return &t, nil
}

func (h *trackDb) FindTrack(ctx context.Context, genomeID uuid.UUID, label string, datafiles map[string]string) (*models.Track, apperrors.Error) {
	df, errjson := datafilesJSONB(datafiles)
	if errjson != nil {
		return nil, dberror.ErrInvalidInput.Err(errjson)
	}
	query := selectTrackQuery + ` WHERE tr.genome_id = $1 AND tr.label = $2 AND tr.datafiles = $3;`
	t, err := scanTrack(h.conn().QueryRowContext(ctx, query, genomeID, label, df))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("track not found")
		}
		return nil, mapDbError(ctx, err, "failed to find track")
	}
	if apperr := h.loadLinks(ctx, []*models.Track{t}, "track_id", t.TrackID); apperr != nil {
		return nil, apperr
	}
	return t, nil
}

// SaveTrack inserts the track or updates the row with the same
// (genome_id, label, datafiles) key in a single transaction.
func (h *trackDb) SaveTrack(ctx context.Context, w *models.TrackWrite) (trackID uuid.UUID, err apperrors.Error) {
	if w == nil || w.Track == nil || w.Category.CategoryID == "" {
		return uuid.Nil, dberror.ErrInvalidInput.Msg("track and category are required")
	}
	t := w.Track
	df, errjson := datafilesJSONB(t.Datafiles)
	if errjson != nil {
		return uuid.Nil, dberror.ErrInvalidInput.Err(errjson)
	}
	newID := t.TrackID
	if newID == uuid.Nil {
		newID = commonuuid.New()
	}

	tx, errdb := h.conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return uuid.Nil, dberror.ErrDatabase.Err(errdb)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// every named type must exist before anything is written
	var found int
	errdb = tx.QueryRowContext(ctx, `SELECT count(*) FROM track_types WHERE name = ANY($1);`,
		textArray(w.TypeNames)).Scan(&found)
	if errdb != nil {
		err = mapDbError(ctx, errdb, "failed to check track types")
		return uuid.Nil, err
	}
	if found != len(uniqueStrings(w.TypeNames)) {
		err = dberror.ErrInvalidInput.Msg("track type does not exist")
		return uuid.Nil, err
	}

	if _, errdb = tx.ExecContext(ctx, `INSERT INTO genomes (genome_id) VALUES ($1) ON CONFLICT DO NOTHING;`, t.GenomeID); errdb != nil {
		err = mapDbError(ctx, errdb, "failed to insert genome")
		return uuid.Nil, err
	}
	if err = ensureCategory(ctx, tx, w.Category); err != nil {
		return uuid.Nil, err
	}

	query := `
		INSERT INTO tracks (track_id, genome_id, dataset_id, category_id, label, datafiles, colour, trigger,
			kind, display_order, on_by_default, additional_info, description, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (genome_id, label, datafiles) DO UPDATE SET
			dataset_id = EXCLUDED.dataset_id,
			category_id = EXCLUDED.category_id,
			colour = EXCLUDED.colour,
			trigger = EXCLUDED.trigger,
			kind = EXCLUDED.kind,
			display_order = EXCLUDED.display_order,
			on_by_default = EXCLUDED.on_by_default,
			additional_info = EXCLUDED.additional_info,
			description = EXCLUDED.description,
			settings = EXCLUDED.settings
		RETURNING track_id;
	`
	errdb = tx.QueryRowContext(ctx, query, newID, t.GenomeID, t.DatasetID, w.Category.CategoryID, t.Label, df,
		t.Colour, textArray(t.Trigger), t.Kind, t.DisplayOrder, t.OnByDefault, t.AdditionalInfo,
		t.Description, jsonbOrNull(t.Settings)).Scan(&trackID)
	if errdb != nil {
		err = mapDbError(ctx, errdb, "failed to upsert track")
		return uuid.Nil, err
	}

	if w.SelfTrigger {
		_, errdb = tx.ExecContext(ctx, `
			UPDATE tracks SET trigger = array_append(trigger, track_id::text)
			WHERE track_id = $1 AND NOT (track_id::text = ANY(trigger));`, trackID)
		if errdb != nil {
			err = mapDbError(ctx, errdb, "failed to update trigger")
			return uuid.Nil, err
		}
	}

	linkQuery := `
		INSERT INTO track_type_links (track_id, type_id)
		SELECT $1, id FROM track_types WHERE name = $2
		ON CONFLICT DO NOTHING;
	`
	for _, name := range w.TypeNames {
		if _, errdb = tx.ExecContext(ctx, linkQuery, trackID, name); errdb != nil {
			err = mapDbError(ctx, errdb, "failed to link track type")
			return uuid.Nil, err
		}
	}

	sourceQuery := `
		INSERT INTO sources (name, url) VALUES ($1, $2)
		ON CONFLICT (name, url) DO UPDATE SET name = EXCLUDED.name
		RETURNING id;
	`
	for _, src := range w.Sources {
		var sourceID int64
		if errdb = tx.QueryRowContext(ctx, sourceQuery, src.Name, src.URL).Scan(&sourceID); errdb != nil {
			err = mapDbError(ctx, errdb, "failed to insert source")
			return uuid.Nil, err
		}
		_, errdb = tx.ExecContext(ctx, `INSERT INTO track_sources (track_id, source_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`,
			trackID, sourceID)
		if errdb != nil {
			err = mapDbError(ctx, errdb, "failed to link source")
			return uuid.Nil, err
		}
	}

	if errdb = tx.Commit(); errdb != nil {
		err = mapDbError(ctx, errdb, "failed to commit transaction")
		return uuid.Nil, err
	}
	return trackID, nil
}

func uniqueStrings(s []string) map[string]struct{} {
	m := make(map[string]struct{}, len(s))
	for _, v := range s {
		m[v] = struct{}{}
	}
	return m
}

// loadLinks fills in the linked type names and sources of tracks selected by
// column = arg. column is one of the fixed names used in this file.
func (h *trackDb) loadLinks(ctx context.Context, tracks []*models.Track, column string, arg any) apperrors.Error {
	if len(tracks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Track, len(tracks))
	for _, t := range tracks {
		byID[t.TrackID] = t
	}

	typeQuery := `
		SELECT l.track_id, tt.name
		FROM track_type_links l
		JOIN track_types tt ON tt.id = l.type_id
		JOIN tracks tr ON tr.track_id = l.track_id
		WHERE tr.` + column + ` = $1
		ORDER BY l.seq;
	`
	rows, err := h.conn().QueryContext(ctx, typeQuery, arg)
	if err != nil {
		return mapDbError(ctx, err, "failed to load track types")
	}
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return mapDbError(ctx, err, "failed to scan track type link")
		}
		if t, ok := byID[id]; ok {
			t.Types = append(t.Types, name)
		}
	}
	rows.Close()

	sourceQuery := `
		SELECT ts.track_id, s.id, s.name, s.url
		FROM track_sources ts
		JOIN sources s ON s.id = ts.source_id
		JOIN tracks tr ON tr.track_id = ts.track_id
		WHERE tr.` + column + ` = $1
		ORDER BY ts.seq;
	`
	rows, err = h.conn().QueryContext(ctx, sourceQuery, arg)
	if err != nil {
		return mapDbError(ctx, err, "failed to load sources")
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var s models.Source
		if err := rows.Scan(&id, &s.ID, &s.Name, &s.URL); err != nil {
			return mapDbError(ctx, err, "failed to scan source")
		}
		if t, ok := byID[id]; ok {
			t.Sources = append(t.Sources, s)
		}
	}
	if err := rows.Err(); err != nil {
		return mapDbError(ctx, err, "failed to read sources")
	}
	return nil
}

func (h *trackDb) GetTrack(ctx context.Context, trackID uuid.UUID) (*models.Track, apperrors.Error) {
	t, err := scanTrack(h.conn().QueryRowContext(ctx, selectTrackQuery+` WHERE tr.track_id = $1;`, trackID))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("track_id", trackID.String()).Msg("track not found")
			return nil, dberror.ErrNotFound.Msg("track not found")
		}
		return nil, mapDbError(ctx, err, "failed to get track")
	}
	if apperr := h.loadLinks(ctx, []*models.Track{t}, "track_id", trackID); apperr != nil {
		return nil, apperr
	}
	return t, nil
}

func (h *trackDb) LinkTrackType(ctx context.Context, trackID uuid.UUID, typeName string) apperrors.Error {
	var typeID int64
	err := h.conn().QueryRowContext(ctx, `SELECT id FROM track_types WHERE name = $1;`, typeName).Scan(&typeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("track type not found")
		}
		return mapDbError(ctx, err, "failed to get track type")
	}
	query := `
		INSERT INTO track_type_links (track_id, type_id)
		SELECT track_id, $2 FROM tracks WHERE track_id = $1
		ON CONFLICT DO NOTHING
		RETURNING track_id;
	`
	var linked uuid.UUID
	err = h.conn().QueryRowContext(ctx, query, trackID, typeID).Scan(&linked)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return mapDbError(ctx, err, "failed to link track type")
	}
	// nothing inserted: either the track is missing or the link exists
	var exists bool
	err = h.conn().QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tracks WHERE track_id = $1);`, trackID).Scan(&exists)
	if err != nil {
		return mapDbError(ctx, err, "failed to check track")
	}
	if !exists {
		return dberror.ErrNotFound.Msg("track not found")
	}
	return dberror.ErrAlreadyExists.Msg("type already linked to track")
}

func (h *trackDb) ListGenomeTracks(ctx context.Context, genomeID uuid.UUID) ([]*models.Track, apperrors.Error) {
	rows, err := h.conn().QueryContext(ctx, selectTrackQuery+` WHERE tr.genome_id = $1 ORDER BY tr.id;`, genomeID)
	if err != nil {
		return nil, mapDbError(ctx, err, "failed to list tracks")
	}
	defer rows.Close()
	var list []*models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, mapDbError(ctx, err, "failed to scan track")
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDbError(ctx, err, "failed to read tracks")
	}
	if apperr := h.loadLinks(ctx, list, "genome_id", genomeID); apperr != nil {
		return nil, apperr
	}
	return list, nil
}

// DeleteGenomeTracks removes the tracks of a genome. Links go with them
// through ON DELETE CASCADE. The genome row is removed once empty.
func (h *trackDb) DeleteGenomeTracks(ctx context.Context, genomeID uuid.UUID) (n int64, err apperrors.Error) {
	tx, errdb := h.conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return 0, dberror.ErrDatabase.Err(errdb)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	res, errdb := tx.ExecContext(ctx, `DELETE FROM tracks WHERE genome_id = $1;`, genomeID)
	if errdb != nil {
		err = mapDbError(ctx, errdb, "failed to delete tracks")
		return 0, err
	}
	n, _ = res.RowsAffected()
	if _, errdb = tx.ExecContext(ctx, `DELETE FROM genomes WHERE genome_id = $1;`, genomeID); errdb != nil {
		err = mapDbError(ctx, errdb, "failed to delete genome")
		return 0, err
	}
	if errdb = tx.Commit(); errdb != nil {
		err = mapDbError(ctx, errdb, "failed to commit transaction")
		return 0, err
	}
	return n, nil
}

func (h *trackDb) DeleteTrack(ctx context.Context, trackID uuid.UUID) (err apperrors.Error) {
	tx, errdb := h.conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var genomeID uuid.UUID
	errdb = tx.QueryRowContext(ctx, `DELETE FROM tracks WHERE track_id = $1 RETURNING genome_id;`, trackID).Scan(&genomeID)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			err = dberror.ErrNotFound.Msg("track not found")
			return err
		}
		err = mapDbError(ctx, errdb, "failed to delete track")
		return err
	}
	query := `
		DELETE FROM genomes g
		WHERE g.genome_id = $1 AND NOT EXISTS (SELECT 1 FROM tracks WHERE genome_id = $1);
	`
	if _, errdb = tx.ExecContext(ctx, query, genomeID); errdb != nil {
		err = mapDbError(ctx, errdb, "failed to delete genome")
		return err
	}
	if errdb = tx.Commit(); errdb != nil {
		err = mapDbError(ctx, errdb, "failed to commit transaction")
		return err
	}
	return nil
}
