package postgresql

import (
	"context"
	"database/sql"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
	"github.com/tansive/trackcatalog/internal/trackapi/db/models"
)

const insertCategoryQuery = `
	INSERT INTO categories (category_id, label, kind)
	VALUES ($1, $2, $3)
	ON CONFLICT (category_id) DO NOTHING;
`

// ensureCategory creates the category when missing. An existing category is
// never changed, the first write wins.
func ensureCategory(ctx context.Context, q querier, c models.Category) apperrors.Error {
	if _, err := q.ExecContext(ctx, insertCategoryQuery, c.CategoryID, c.Label, c.Kind); err != nil {
		return mapDbError(ctx, err, "failed to insert category")
	}
	return nil
}

// UpsertTrackType creates or replaces a type definition.
func (h *trackDb) UpsertTrackType(ctx context.Context, t *models.TrackType, category models.Category) (err apperrors.Error) {
	if t == nil || t.Name == "" || category.CategoryID == "" {
		return dberror.ErrInvalidInput.Msg("type name and category are required")
	}
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

	if err = ensureCategory(ctx, tx, category); err != nil {
		return err
	}

	query := `
		INSERT INTO track_types (name, label, category_id, trigger, kind, file_keys, display_order,
			on_by_default, colour, strand, browser, settings, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (name) DO UPDATE SET
			label = EXCLUDED.label,
			category_id = EXCLUDED.category_id,
			trigger = EXCLUDED.trigger,
			kind = EXCLUDED.kind,
			file_keys = EXCLUDED.file_keys,
			display_order = EXCLUDED.display_order,
			on_by_default = EXCLUDED.on_by_default,
			colour = EXCLUDED.colour,
			strand = EXCLUDED.strand,
			browser = EXCLUDED.browser,
			settings = EXCLUDED.settings,
			description = EXCLUDED.description
		RETURNING id;
	`
	errdb = tx.QueryRowContext(ctx, query, t.Name, t.Label, category.CategoryID, textArray(t.Trigger), t.Kind,
		textArray(t.FileKeys), t.DisplayOrder, t.OnByDefault, t.Colour, t.Strand, t.Browser,
		jsonbOrNull(t.Settings), t.Description).Scan(&t.ID)
	if errdb != nil {
		err = mapDbError(ctx, errdb, "failed to upsert track type")
		return err
	}
	t.CategoryID = category.CategoryID

	if errdb := tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const selectTypeQuery = `
	SELECT t.id, t.name, t.label, t.category_id, t.trigger, t.kind, t.file_keys, t.display_order,
		t.on_by_default, t.colour, t.strand, t.browser, t.settings, t.description,
		c.id, c.label, c.kind
	FROM track_types t
	JOIN categories c ON c.category_id = t.category_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrackType(row rowScanner) (*models.TrackType, error) {
	var (
		t                 models.TrackType
		c                 models.Category
		trigger, fileKeys pgtype.TextArray
	)
	err := row.Scan(&t.ID, &t.Name, &t.Label, &t.CategoryID, &trigger, &t.Kind, &fileKeys, &t.DisplayOrder,
		&t.OnByDefault, &t.Colour, &t.Strand, &t.Browser, &t.Settings, &t.Description,
		&c.ID, &c.Label, &c.Kind)
	if err != nil {
		return nil, err
	}
	t.Trigger = toStrings(trigger)
	t.FileKeys = toStrings(fileKeys)
	c.CategoryID = t.CategoryID
	t.Category = &c
	return &t, nil
}

func (h *trackDb) GetTrackType(ctx context.Context, name string) (*models.TrackType, apperrors.Error) {
	t, err := scanTrackType(h.conn().QueryRowContext(ctx, selectTypeQuery+` WHERE t.name = $1;`, name))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", name).Msg("track type not found")
			return nil, dberror.ErrNotFound.Msg("track type not found")
		}
		return nil, mapDbError(ctx, err, "failed to get track type")
	}
	return t, nil
}

func (h *trackDb) queryTypes(ctx context.Context, query string, args ...any) ([]*models.TrackType, apperrors.Error) {
	rows, err := h.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapDbError(ctx, err, "failed to query track types")
	}
	defer rows.Close()
	var list []*models.TrackType
	for rows.Next() {
		t, err := scanTrackType(rows)
		if err != nil {
			return nil, mapDbError(ctx, err, "failed to scan track type")
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDbError(ctx, err, "failed to read track types")
	}
	return list, nil
}

func (h *trackDb) GetTrackTypes(ctx context.Context, names []string) ([]*models.TrackType, apperrors.Error) {
	list, err := h.queryTypes(ctx, selectTypeQuery+` WHERE t.name = ANY($1);`, textArray(names))
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.TrackType, len(list))
	for _, t := range list {
		byName[t.Name] = t
	}
	var ordered []*models.TrackType
	for _, name := range names {
		if t, ok := byName[name]; ok {
			ordered = append(ordered, t)
			delete(byName, name)
		}
	}
	return ordered, nil
}

func (h *trackDb) ListTrackTypes(ctx context.Context) ([]*models.TrackType, apperrors.Error) {
	return h.queryTypes(ctx, selectTypeQuery+` ORDER BY t.name;`)
}

func (h *trackDb) GetCategory(ctx context.Context, categoryID string) (*models.Category, apperrors.Error) {
	var c models.Category
	query := `SELECT id, category_id, label, kind FROM categories WHERE category_id = $1;`
	err := h.conn().QueryRowContext(ctx, query, categoryID).Scan(&c.ID, &c.CategoryID, &c.Label, &c.Kind)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("category not found")
		}
		return nil, mapDbError(ctx, err, "failed to get category")
	}
	return &c, nil
}
