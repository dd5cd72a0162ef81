package repository

import (
	"context"

	"github.com/jwalitptl/clinic-console/internal/model"
)

// Every Save rewrites the whole collection; there is no per-record update.
type (
	// AppointmentRepository persists the pending queue and the completed
	// history as two separate collections.
	AppointmentRepository interface {
		// LoadPending returns the pending collection in queue order. Rows
		// already marked completed are legacy data; callers move them to the
		// completed history.
		LoadPending(ctx context.Context) ([]*model.Appointment, error)
		SavePending(ctx context.Context, queue []*model.Appointment) error
		LoadCompleted(ctx context.Context) ([]*model.Appointment, error)
		AppendCompleted(ctx context.Context, appointment *model.Appointment) error
	}

	PatientRepository interface {
		Load(ctx context.Context) ([]*model.Patient, error)
		Save(ctx context.Context, patients []*model.Patient) error
	}

	DiagnosisRepository interface {
		Load(ctx context.Context) ([]*model.Diagnosis, error)
		Save(ctx context.Context, records []*model.Diagnosis) error
	}
)
