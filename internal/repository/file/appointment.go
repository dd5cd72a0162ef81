package file

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-console/internal/model"
)

const (
	appointmentFields    = 8
	appointmentMinFields = 5
)

type appointmentRepository struct {
	store *Store
}

func (r *appointmentRepository) LoadPending(ctx context.Context) ([]*model.Appointment, error) {
	return r.load(AppointmentFile)
}

func (r *appointmentRepository) SavePending(ctx context.Context, queue []*model.Appointment) error {
	lines := make([]string, 0, len(queue))
	for _, a := range queue {
		lines = append(lines, encodeAppointment(a))
	}
	return r.store.writeLines(AppointmentFile, lines)
}

func (r *appointmentRepository) LoadCompleted(ctx context.Context) ([]*model.Appointment, error) {
	return r.load(AppointmentHistoryFile)
}

func (r *appointmentRepository) AppendCompleted(ctx context.Context, appointment *model.Appointment) error {
	return r.store.appendLine(AppointmentHistoryFile, encodeAppointment(appointment))
}

func (r *appointmentRepository) load(name string) ([]*model.Appointment, error) {
	records, err := r.store.readRecords(name)
	if err != nil {
		return nil, err
	}
	appointments := make([]*model.Appointment, 0, len(records))
	for _, rec := range records {
		a, err := r.decode(rec.fields)
		if err != nil {
			r.store.skip(name, rec, err)
			continue
		}
		appointments = append(appointments, a)
	}
	return appointments, nil
}

// decode accepts rows without the trailing free-text fields; those were
// written for appointments that had not been processed yet.
func (r *appointmentRepository) decode(f []string) (*model.Appointment, error) {
	if len(f) < appointmentMinFields || len(f) > appointmentFields {
		return nil, fmt.Errorf("expected %d to %d fields, got %d", appointmentMinFields, appointmentFields, len(f))
	}
	for len(f) < appointmentFields {
		f = append(f, "")
	}

	var (
		a   model.Appointment
		err error
	)
	if a.ID, err = parseInt(f[0], "id"); err != nil {
		return nil, err
	}
	if a.PatientID, err = parseInt(f[1], "patient id"); err != nil {
		return nil, err
	}
	if a.DoctorID, err = parseInt(f[2], "doctor id"); err != nil {
		return nil, err
	}
	if a.ScheduledAt, err = parseTime(f[3], r.store.loc); err != nil {
		return nil, err
	}
	a.Completed = parseBool(f[4])
	a.Complaint = f[5]
	a.Diagnosis = f[6]
	a.Medication = f[7]
	return &a, nil
}

func encodeAppointment(a *model.Appointment) string {
	return joinFields(
		formatInt(a.ID),
		formatInt(a.PatientID),
		formatInt(a.DoctorID),
		formatTime(a.ScheduledAt),
		formatBool(a.Completed),
		a.Complaint,
		a.Diagnosis,
		a.Medication,
	)
}
