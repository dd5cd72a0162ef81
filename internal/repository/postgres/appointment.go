package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-console/internal/model"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

const appointmentColumns = `id, patient_id, doctor_id, scheduled_at, completed, complaint, diagnosis, medication`

type appointmentRepository struct {
	BaseRepository
}

func (r *appointmentRepository) LoadPending(ctx context.Context) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY position`
	return r.selectAppointments(ctx, "appointments", query)
}

func (r *appointmentRepository) SavePending(ctx context.Context, queue []*model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	return r.rewrite(ctx, "appointments", func(tx *sqlx.Tx) error {
		for i, a := range queue {
			_, err := tx.ExecContext(ctx, query,
				a.ID,
				a.PatientID,
				a.DoctorID,
				wall(a.ScheduledAt),
				a.Completed,
				a.Complaint,
				a.Diagnosis,
				a.Medication,
				i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert appointment %d: %w", a.ID, err)
			}
		}
		return nil
	})
}

func (r *appointmentRepository) LoadCompleted(ctx context.Context) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointment_history ORDER BY processed_seq`
	return r.selectAppointments(ctx, "appointment_history", query)
}

func (r *appointmentRepository) AppendCompleted(ctx context.Context, a *model.Appointment) error {
	start := time.Now()
	query := `
		INSERT INTO appointment_history (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.PatientID,
		a.DoctorID,
		wall(a.ScheduledAt),
		a.Completed,
		a.Complaint,
		a.Diagnosis,
		a.Medication,
	)
	r.metrics.ObserveWrite("appointment_history", time.Since(start).Seconds(), err)
	if err != nil {
		return apperrors.NewPersistenceUnavailable("appointment_history", err)
	}
	return nil
}

func (r *appointmentRepository) selectAppointments(ctx context.Context, table, query string) ([]*model.Appointment, error) {
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, apperrors.NewPersistenceUnavailable(table, err)
	}
	for _, a := range appointments {
		a.ScheduledAt = r.local(a.ScheduledAt)
	}
	return appointments, nil
}
