package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-console/internal/model"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

type patientRepository struct {
	BaseRepository
}

func (r *patientRepository) Load(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT id, name, age, address, phone, username, password FROM patients ORDER BY position`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, apperrors.NewPersistenceUnavailable("patients", err)
	}
	return patients, nil
}

func (r *patientRepository) Save(ctx context.Context, patients []*model.Patient) error {
	query := `
		INSERT INTO patients (id, name, age, address, phone, username, password, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	return r.rewrite(ctx, "patients", func(tx *sqlx.Tx) error {
		for i, p := range patients {
			_, err := tx.ExecContext(ctx, query,
				p.ID,
				p.Name,
				p.Age,
				p.Address,
				p.Phone,
				p.Username,
				p.Password,
				i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert patient %d: %w", p.ID, err)
			}
		}
		return nil
	})
}
