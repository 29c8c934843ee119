package models

/*
    Column      |          Type          | Nullable
----------------+------------------------+----------
 id             | bigint                 | not null
 category_id    | character varying(100) | not null  (unique)
 label          | character varying(100) | not null
 kind           | character varying(30)  | not null
*/

// Category groups track types. CategoryID is the stable key supplied by callers.
type Category struct {
	ID         int64  `db:"id"`
	CategoryID string `db:"category_id"`
	Label      string `db:"label"`
	Kind       string `db:"kind"`
}
