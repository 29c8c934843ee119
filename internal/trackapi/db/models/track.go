package models

import (
	"maps"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
)

/*
    Column       |          Type          | Nullable
-----------------+------------------------+----------
 id              | bigserial              | not null
 track_id        | uuid                   | not null  (unique)
 genome_id       | uuid                   | not null  -> genomes(genome_id)
 dataset_id      | uuid                   |
 category_id     | character varying(100) | not null  -> categories(category_id)
 label           | character varying(100) | not null
 datafiles       | jsonb                  | not null
 colour          | character varying(30)  |
 trigger         | text[]                 | not null
 kind            | character varying(30)  | not null
 display_order   | integer                | not null
 on_by_default   | boolean                | not null
 additional_info | text                   |
 description     | text                   |
 settings        | jsonb                  |

 unique (genome_id, label, datafiles)
*/

// Track is one genome specific track. (GenomeID, Label, Datafiles) is its
// natural key: saving a track with an existing key updates that track.
type Track struct {
	ID             int64             `db:"id"`
	TrackID        uuid.UUID         `db:"track_id"`
	GenomeID       uuid.UUID         `db:"genome_id"`
	DatasetID      uuid.NullUUID     `db:"dataset_id"`
	CategoryID     string            `db:"category_id"`
	Label          string            `db:"label"`
	Datafiles      map[string]string `db:"datafiles"`
	Colour         string            `db:"colour"`
	Trigger        []string          `db:"trigger"`
	Kind           string            `db:"kind"`
	DisplayOrder   int               `db:"display_order"`
	OnByDefault    bool              `db:"on_by_default"`
	AdditionalInfo string            `db:"additional_info"`
	Description    string            `db:"description"`
	Settings       pgtype.JSONB      `db:"settings"`

	// filled in on read
	Category *Category `db:"-"`
	Types    []string  `db:"-"`
	Sources  []Source  `db:"-"`
}

// SameKey reports whether t and other share the natural key.
func (t *Track) SameKey(other *Track) bool {
	return t.GenomeID == other.GenomeID && t.Label == other.Label && maps.Equal(t.Datafiles, other.Datafiles)
}

// TrackWrite is everything persisted by one track submission. The category is
// created when missing and left untouched otherwise.
type TrackWrite struct {
	Track     *Track
	Category  Category
	TypeNames []string
	Sources   []Source
	// SelfTrigger appends the stored track id to the trigger, once.
	SelfTrigger bool
}
