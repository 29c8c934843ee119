package models

import (
	"slices"

	"github.com/jackc/pgtype"
)

/*
    Column      |          Type          | Nullable
----------------+------------------------+----------
 id             | bigint                 | not null
 name           | character varying(100) | not null  (unique)
 label          | character varying(100) | not null
 category_id    | character varying(100) | not null  -> categories(category_id)
 trigger        | text[]                 | not null
 kind           | character varying(30)  | not null
 file_keys      | text[]                 | not null
 display_order  | integer                | not null
 on_by_default  | boolean                | not null
 colour         | character varying(30)  |
 strand         | character varying(10)  |
 browser        | character varying(30)  |
 settings       | jsonb                  |
 description    | text                   |
*/

type TrackType struct {
	ID           int64        `db:"id"`
	Name         string       `db:"name"`
	Label        string       `db:"label"`
	CategoryID   string       `db:"category_id"`
	Category     *Category    `db:"-"`
	Trigger      []string     `db:"trigger"`
	Kind         string       `db:"kind"`
	FileKeys     []string     `db:"file_keys"`
	DisplayOrder int          `db:"display_order"`
	OnByDefault  bool         `db:"on_by_default"`
	Colour       string       `db:"colour"`
	Strand       string       `db:"strand"`
	Browser      string       `db:"browser"`
	Settings     pgtype.JSONB `db:"settings"`
	Description  string       `db:"description"`
}

// SameFileKeys reports whether both types declare the same ordered file slots.
func (t *TrackType) SameFileKeys(other *TrackType) bool {
	return slices.Equal(t.FileKeys, other.FileKeys)
}
