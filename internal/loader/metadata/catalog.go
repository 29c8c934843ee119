package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// DefaultCatalogView is the view of the genome metadata catalog that lists
// the track overrides of each genome.
const DefaultCatalogView = "genome_track_metadata"

// CatalogSource reads records from the genome metadata catalog. The view has
// one row per genome and track kind.
type CatalogSource struct {
	db    *sqlx.DB
	query string
}

type catalogRow struct {
	GenomeID    string         `db:"genome_uuid"`
	Description sql.NullString `db:"description"`
	TrackName   sql.NullString `db:"track_name"`
	SourceNames pq.StringArray `db:"source_names"`
	SourceURLs  pq.StringArray `db:"source_urls"`
}

// OpenCatalog connects to the catalog with the postgres driver.
func OpenCatalog(ctx context.Context, dsn, view string) (*CatalogSource, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to metadata catalog: %w", err)
	}
	return NewCatalogSource(db, view), nil
}

func NewCatalogSource(db *sqlx.DB, view string) *CatalogSource {
	if view == "" {
		view = DefaultCatalogView
	}
	return &CatalogSource{
		db: db,
		query: fmt.Sprintf(`SELECT genome_uuid, description, track_name, source_names, source_urls
			FROM %s WHERE genome_uuid = $1 AND track_kind = $2`, pq.QuoteIdentifier(view)),
	}
}

func (s *CatalogSource) Lookup(ctx context.Context, kind, genomeID string) (*Record, bool, error) {
	var row catalogRow
	if err := s.db.GetContext(ctx, &row, s.query, genomeID, kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			log.Ctx(ctx).Error().Str("code", string(pqErr.Code)).Str("genome_id", genomeID).Msg(pqErr.Message)
		}
		return nil, false, fmt.Errorf("metadata lookup for %s failed: %w", genomeID, err)
	}
	rec := &Record{
		GenomeID:    row.GenomeID,
		Description: row.Description.String,
		TrackName:   row.TrackName.String,
		SourceNames: []string(row.SourceNames),
		SourceURLs:  []string(row.SourceURLs),
	}
	if len(rec.SourceNames) == 0 {
		rec.SourceNames = []string{""}
	}
	if len(rec.SourceURLs) == 0 {
		rec.SourceURLs = []string{""}
	}
	return rec, true, nil
}

func (s *CatalogSource) Close() error {
	return s.db.Close()
}
