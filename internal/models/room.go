package models

// Room is a teaching room. Capacity is informational only.
type Room struct {
	ID       string `db:"id" json:"id"`
	Building string `db:"building" json:"building"`
	Floor    int    `db:"floor" json:"floor"`
	Capacity int    `db:"capacity" json:"capacity"`
}
