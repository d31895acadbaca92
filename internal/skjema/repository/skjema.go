package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/pkg/database"
	"github.com/melosys/skjema-api/pkg/errors"
)

const skjemaColumns = `
	id, skjematype, eier, status, data,
	innsending_status, journalpost_id, korrelasjons_id, siste_feil,
	forsoek, sist_forsoekt, innsendt_at, created_at, updated_at
`

// SkjemaRepository handles skjema persistence
type SkjemaRepository struct {
	db *database.DB
}

// NewSkjemaRepository creates a new skjema repository
func NewSkjemaRepository(db *database.DB) *SkjemaRepository {
	return &SkjemaRepository{db: db}
}

// Create inserts a new draft form
func (r *SkjemaRepository) Create(ctx context.Context, skjema *domain.Skjema) error {
	if skjema.ID == "" {
		skjema.ID = uuid.New().String()
	}
	if skjema.Status == "" {
		skjema.Status = domain.SkjemaStatusUtkast
	}
	if len(skjema.Data) == 0 {
		skjema.Data = json.RawMessage("{}")
	}

	query := `
		INSERT INTO skjema (id, skjematype, eier, status, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		skjema.ID, skjema.Skjematype, skjema.Eier, skjema.Status, skjema.Data,
	).Scan(&skjema.CreatedAt, &skjema.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a form by ID
func (r *SkjemaRepository) GetByID(ctx context.Context, id string) (*domain.Skjema, error) {
	var skjema domain.Skjema

	query := `SELECT ` + skjemaColumns + ` FROM skjema WHERE id = $1`
	err := r.db.GetContext(ctx, &skjema, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("skjema")
		}
		return nil, err
	}

	return &skjema, nil
}

// ListByEier lists all forms owned by the given identity, newest first
func (r *SkjemaRepository) ListByEier(ctx context.Context, eier string) ([]*domain.Skjema, error) {
	var skjemaer []*domain.Skjema

	query := `SELECT ` + skjemaColumns + ` FROM skjema WHERE eier = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &skjemaer, query, eier); err != nil {
		return nil, err
	}

	return skjemaer, nil
}

// UpdateData replaces the payload of a draft. Submitted forms are immutable;
// updating one is a conflict.
func (r *SkjemaRepository) UpdateData(ctx context.Context, id string, data json.RawMessage) error {
	query := `
		UPDATE skjema
		SET data = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`
	res, err := r.db.ExecContext(ctx, query, id, data, domain.SkjemaStatusUtkast)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ConflictWithKey("skjema.innsending.ikke_utkast")
	}

	return nil
}

// SendInn transitions a draft to SENDT_INN and initializes the innsending
// metadata (MOTTATT, zero attempts) in the same statement. Submitting twice
// is a conflict.
func (r *SkjemaRepository) SendInn(ctx context.Context, id, korrelasjonsID string) error {
	query := `
		UPDATE skjema
		SET status = $2,
		    innsending_status = $3,
		    korrelasjons_id = $4,
		    forsoek = 0,
		    innsendt_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, id,
		domain.SkjemaStatusSendtInn, domain.InnsendingStatusMottatt,
		korrelasjonsID, domain.SkjemaStatusUtkast,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ConflictWithKey("skjema.innsending.allerede_sendt")
	}

	return nil
}

// RegistrerForsoek increments the attempt counter and stamps the attempt
// time. Called once per processing attempt; the counter never decrements.
func (r *SkjemaRepository) RegistrerForsoek(ctx context.Context, id string) (int, error) {
	var forsoek int

	query := `
		UPDATE skjema
		SET forsoek = forsoek + 1, sist_forsoekt = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING forsoek
	`
	if err := r.db.QueryRowxContext(ctx, query, id).Scan(&forsoek); err != nil {
		return 0, err
	}

	return forsoek, nil
}

// OppdaterInnsendingStatus records the outcome of a processing step
func (r *SkjemaRepository) OppdaterInnsendingStatus(ctx context.Context, id string, status domain.InnsendingStatus, journalpostID, sisteFeil *string) error {
	query := `
		UPDATE skjema
		SET innsending_status = $2,
		    journalpost_id = COALESCE($3, journalpost_id),
		    siste_feil = $4,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, status, journalpostID, sisteFeil)
	return err
}

// ClaimRetryKandidater selects and claims the forms the retry sweep should
// process: submitted forms under the attempt cap whose status is MOTTATT or
// a failure status, and whose last attempt (submission time when never
// attempted) is older than staleBefore. Claiming stamps sist_forsoekt so a
// concurrent sweep cannot pick the same rows inside the staleness window.
func (r *SkjemaRepository) ClaimRetryKandidater(ctx context.Context, staleBefore time.Time, maxForsoek int) ([]*domain.Skjema, error) {
	var kandidater []*domain.Skjema

	query := `
		UPDATE skjema
		SET sist_forsoekt = NOW()
		WHERE id IN (
			SELECT id FROM skjema
			WHERE status = $1
			  AND forsoek < $2
			  AND innsending_status IN ($3, $4, $5)
			  AND COALESCE(sist_forsoekt, innsendt_at) < $6
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + skjemaColumns
	err := r.db.SelectContext(ctx, &kandidater, query,
		domain.SkjemaStatusSendtInn, maxForsoek,
		domain.InnsendingStatusMottatt,
		domain.InnsendingStatusJournalforingFeilet,
		domain.InnsendingStatusMeldingFeilet,
		staleBefore,
	)
	if err != nil {
		return nil, err
	}

	return kandidater, nil
}

// CountPermanentFeilet counts submissions stuck in a failure status at or
// over the attempt cap. The sweep reports these once per cycle.
func (r *SkjemaRepository) CountPermanentFeilet(ctx context.Context, maxForsoek int) (int, error) {
	var count int

	query := `
		SELECT COUNT(*) FROM skjema
		WHERE status = $1
		  AND forsoek >= $2
		  AND innsending_status IN ($3, $4)
	`
	err := r.db.GetContext(ctx, &count, query,
		domain.SkjemaStatusSendtInn, maxForsoek,
		domain.InnsendingStatusJournalforingFeilet,
		domain.InnsendingStatusMeldingFeilet,
	)
	if err != nil {
		return 0, err
	}

	return count, nil
}
