package domain

import "time"

// Vedlegg is an attachment uploaded for a form. The bytes live in the
// attachment store; this row keeps the metadata and the storage reference.
type Vedlegg struct {
	ID          string    `db:"id" json:"id"`
	SkjemaID    string    `db:"skjema_id" json:"skjemaId"`
	Filnavn     string    `db:"filnavn" json:"filnavn"`
	ContentType string    `db:"content_type" json:"contentType"`
	Stoerrelse  int64     `db:"stoerrelse" json:"stoerrelse"`
	LagringRef  string    `db:"lagring_ref" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// TillatteVedleggTyper is the accepted upload content type set
var TillatteVedleggTyper = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}
