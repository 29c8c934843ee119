// Package postgresql implements the track store on PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dberror"
)

//go:embed schema.sql
var schemaSQL string

type trackDb struct {
	db *sql.DB
}

// NewTrackDb returns a store backed by the pool.
func NewTrackDb(db *sql.DB) *trackDb {
	return &trackDb{db: db}
}

func (h *trackDb) conn() *sql.DB {
	return h.db
}

func (h *trackDb) Close(ctx context.Context) {
	if err := h.db.Close(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to close db")
	}
}

// Migrate creates the tables that do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to apply schema")
		return err
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// mapDbError converts driver errors. Unique violations surface as
// dberror.ErrUniqueViolation so callers can tell a lost race from a failure.
func mapDbError(ctx context.Context, err error, msg string) apperrors.Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			log.Ctx(ctx).Info().Str("constraint", pgErr.ConstraintName).Msg(msg)
			return dberror.ErrUniqueViolation.Msg("duplicate key value violates unique constraint " + pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			log.Ctx(ctx).Info().Str("constraint", pgErr.ConstraintName).Msg(msg)
			return dberror.ErrInvalidInput.Msg("reference does not exist: " + pgErr.ConstraintName)
		}
	}
	log.Ctx(ctx).Error().Err(err).Msg(msg)
	return dberror.ErrDatabase.Err(err)
}

func textArray(s []string) pgtype.TextArray {
	if s == nil {
		s = []string{}
	}
	var a pgtype.TextArray
	_ = a.Set(s)
	return a
}

func toStrings(a pgtype.TextArray) []string {
	var s []string
	if a.Status == pgtype.Present {
		_ = a.AssignTo(&s)
	}
	return s
}

// jsonbOrNull turns an unset value into SQL NULL. An undefined JSONB cannot be encoded.
func jsonbOrNull(j pgtype.JSONB) pgtype.JSONB {
	if j.Status != pgtype.Present || len(j.Bytes) == 0 {
		return pgtype.JSONB{Status: pgtype.Null}
	}
	return j
}

func datafilesJSONB(datafiles map[string]string) (pgtype.JSONB, error) {
	if datafiles == nil {
		datafiles = map[string]string{}
	}
	b, err := json.Marshal(datafiles)
	if err != nil {
		return pgtype.JSONB{}, err
	}
	return pgtype.JSONB{Bytes: b, Status: pgtype.Present}, nil
}
