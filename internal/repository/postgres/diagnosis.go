package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-console/internal/model"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

type diagnosisRepository struct {
	BaseRepository
}

func (r *diagnosisRepository) Load(ctx context.Context) ([]*model.Diagnosis, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id, recorded_at, complaint, diagnosis, medication
		FROM diagnoses ORDER BY id
	`
	var records []*model.Diagnosis
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, apperrors.NewPersistenceUnavailable("diagnoses", err)
	}
	for _, d := range records {
		d.RecordedAt = r.local(d.RecordedAt)
	}
	return records, nil
}

func (r *diagnosisRepository) Save(ctx context.Context, records []*model.Diagnosis) error {
	query := `
		INSERT INTO diagnoses (id, appointment_id, patient_id, doctor_id, recorded_at, complaint, diagnosis, medication)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	return r.rewrite(ctx, "diagnoses", func(tx *sqlx.Tx) error {
		for _, d := range records {
			_, err := tx.ExecContext(ctx, query,
				d.ID,
				d.AppointmentID,
				d.PatientID,
				d.DoctorID,
				wall(d.RecordedAt),
				d.Complaint,
				d.Diagnosis,
				d.Medication,
			)
			if err != nil {
				return fmt.Errorf("failed to insert diagnosis %d: %w", d.ID, err)
			}
		}
		return nil
	})
}
