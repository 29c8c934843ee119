package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
	"github.com/tansive/trackcatalog/internal/trackapi/config"
	"github.com/tansive/trackcatalog/internal/trackapi/db/dbmanager"
	"github.com/tansive/trackcatalog/internal/trackapi/db/memstore"
	"github.com/tansive/trackcatalog/internal/trackapi/db/models"
	"github.com/tansive/trackcatalog/internal/trackapi/db/postgresql"
)

// CatalogManager stores the genome independent catalog: categories and track types.
type CatalogManager interface {
	// UpsertTrackType creates the type or replaces its definition. The
	// category is created when missing; an existing category is left as is.
	UpsertTrackType(ctx context.Context, t *models.TrackType, category models.Category) apperrors.Error
	GetTrackType(ctx context.Context, name string) (*models.TrackType, apperrors.Error)
	// GetTrackTypes returns the types that exist among names, in the order of names.
	GetTrackTypes(ctx context.Context, names []string) ([]*models.TrackType, apperrors.Error)
	ListTrackTypes(ctx context.Context) ([]*models.TrackType, apperrors.Error)
	GetCategory(ctx context.Context, categoryID string) (*models.Category, apperrors.Error)
}

// TrackManager stores genome specific tracks and their type and source links.
type TrackManager interface {
	// FindTrack looks a track up by its natural key.
	FindTrack(ctx context.Context, genomeID uuid.UUID, label string, datafiles map[string]string) (*models.Track, apperrors.Error)
	// SaveTrack inserts the track or updates the one with the same natural
	// key, then links its types and sources. With SelfTrigger set the stored
	// id is appended to the trigger. It runs as one transaction and returns
	// the id of the stored track.
	SaveTrack(ctx context.Context, w *models.TrackWrite) (uuid.UUID, apperrors.Error)
	GetTrack(ctx context.Context, trackID uuid.UUID) (*models.Track, apperrors.Error)
	LinkTrackType(ctx context.Context, trackID uuid.UUID, typeName string) apperrors.Error
	// ListGenomeTracks returns the tracks of a genome in insertion order.
	ListGenomeTracks(ctx context.Context, genomeID uuid.UUID) ([]*models.Track, apperrors.Error)
	// DeleteGenomeTracks removes every track of the genome with its links.
	// Categories, types and sources are kept.
	DeleteGenomeTracks(ctx context.Context, genomeID uuid.UUID) (int64, apperrors.Error)
	DeleteTrack(ctx context.Context, trackID uuid.UUID) apperrors.Error
}

type TrackStore interface {
	CatalogManager
	TrackManager
	Close(ctx context.Context)
}

// Open creates the store selected in the configuration.
func Open(ctx context.Context, c config.DBConfig) (TrackStore, error) {
	switch c.Type {
	case config.StoreMemory:
		log.Ctx(ctx).Info().Msg("using in-memory track store")
		return memstore.New(), nil
	case config.StorePostgres:
		sqlDB, err := dbmanager.NewPostgresqlDb(ctx, c.DSN())
		if err != nil {
			return nil, err
		}
		if c.AutoMigrate {
			if err := postgresql.Migrate(ctx, sqlDB); err != nil {
				sqlDB.Close()
				return nil, err
			}
		}
		return postgresql.NewTrackDb(sqlDB), nil
	}
	return nil, fmt.Errorf("unsupported db type: %q", c.Type)
}

type ctxDbKeyType string

const ctxDbKey ctxDbKeyType = "TrackCatalogDb"

// WithStore returns a context carrying the store.
func WithStore(ctx context.Context, s TrackStore) context.Context {
	return context.WithValue(ctx, ctxDbKey, s)
}

// DB returns the store carried in the context, or nil.
func DB(ctx context.Context) TrackStore {
	if s, ok := ctx.Value(ctxDbKey).(TrackStore); ok {
		return s
	}
	log.Ctx(ctx).Error().Msg("unable to get db from context")
	return nil
}
