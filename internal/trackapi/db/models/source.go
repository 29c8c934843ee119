package models

// Source is a citation shared between tracks, unique by (Name, URL).
type Source struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	URL  string `db:"url"`
}
