package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/pkg/database"
	"github.com/melosys/skjema-api/pkg/errors"
)

// VedleggRepository handles vedlegg metadata persistence
type VedleggRepository struct {
	db *database.DB
}

// NewVedleggRepository creates a new vedlegg repository
func NewVedleggRepository(db *database.DB) *VedleggRepository {
	return &VedleggRepository{db: db}
}

// Create inserts attachment metadata for a form
func (r *VedleggRepository) Create(ctx context.Context, vedlegg *domain.Vedlegg) error {
	if vedlegg.ID == "" {
		vedlegg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO vedlegg (id, skjema_id, filnavn, content_type, stoerrelse, lagring_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		vedlegg.ID, vedlegg.SkjemaID, vedlegg.Filnavn,
		vedlegg.ContentType, vedlegg.Stoerrelse, vedlegg.LagringRef,
	).Scan(&vedlegg.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets attachment metadata by ID
func (r *VedleggRepository) GetByID(ctx context.Context, id string) (*domain.Vedlegg, error) {
	var vedlegg domain.Vedlegg

	query := `
		SELECT id, skjema_id, filnavn, content_type, stoerrelse, lagring_ref, created_at
		FROM vedlegg WHERE id = $1
	`
	err := r.db.GetContext(ctx, &vedlegg, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("vedlegg")
		}
		return nil, err
	}

	return &vedlegg, nil
}

// ListBySkjema lists attachments for a form in upload order
func (r *VedleggRepository) ListBySkjema(ctx context.Context, skjemaID string) ([]*domain.Vedlegg, error) {
	var vedlegg []*domain.Vedlegg

	query := `
		SELECT id, skjema_id, filnavn, content_type, stoerrelse, lagring_ref, created_at
		FROM vedlegg WHERE skjema_id = $1 ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &vedlegg, query, skjemaID); err != nil {
		return nil, err
	}

	return vedlegg, nil
}

// Delete removes attachment metadata
func (r *VedleggRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vedlegg WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("vedlegg")
	}

	return nil
}
