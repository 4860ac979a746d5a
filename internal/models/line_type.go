package models

// LineType is a registered catalog entry; line and request type codes
// must resolve against it at write time.
type LineType struct {
	ID    int64  `db:"id" json:"id"`
	Code  string `db:"code" json:"code"`
	Title string `db:"title" json:"title"`
}
