package models

// Subsidiary is an organizational unit owning a set of lines.
type Subsidiary struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
