package models

type Content struct {
	ID             int64  `db:"id" json:"id"`
	Title          string `db:"title" json:"title"`
	Summary        string `db:"summary" json:"summary"`
	CanonicalLink  string `db:"canonical_url" json:"canonical_link"`
	ImageURL       string `db:"image_url" json:"image_url"`
	PostedToSocial bool   `db:"posted_to_social" json:"posted_to_social"`
}
