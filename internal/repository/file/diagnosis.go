package file

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-console/internal/model"
)

const diagnosisFields = 8

type diagnosisRepository struct {
	store *Store
}

func (r *diagnosisRepository) Load(ctx context.Context) ([]*model.Diagnosis, error) {
	records, err := r.store.readRecords(DiagnosisFile)
	if err != nil {
		return nil, err
	}
	diagnoses := make([]*model.Diagnosis, 0, len(records))
	for _, rec := range records {
		d, err := r.decode(rec.fields)
		if err != nil {
			r.store.skip(DiagnosisFile, rec, err)
			continue
		}
		diagnoses = append(diagnoses, d)
	}
	return diagnoses, nil
}

func (r *diagnosisRepository) Save(ctx context.Context, records []*model.Diagnosis) error {
	lines := make([]string, 0, len(records))
	for _, d := range records {
		lines = append(lines, joinFields(
			formatInt(d.ID),
			formatInt(d.AppointmentID),
			formatInt(d.PatientID),
			formatInt(d.DoctorID),
			formatTime(d.RecordedAt),
			d.Complaint,
			d.Diagnosis,
			d.Medication,
		))
	}
	return r.store.writeLines(DiagnosisFile, lines)
}

func (r *diagnosisRepository) decode(f []string) (*model.Diagnosis, error) {
	if len(f) != diagnosisFields {
		return nil, fmt.Errorf("expected %d fields, got %d", diagnosisFields, len(f))
	}
	var (
		d   model.Diagnosis
		err error
	)
	if d.ID, err = parseInt(f[0], "id"); err != nil {
		return nil, err
	}
	if d.AppointmentID, err = parseInt(f[1], "appointment id"); err != nil {
		return nil, err
	}
	if d.PatientID, err = parseInt(f[2], "patient id"); err != nil {
		return nil, err
	}
	if d.DoctorID, err = parseInt(f[3], "doctor id"); err != nil {
		return nil, err
	}
	if d.RecordedAt, err = parseTime(f[4], r.store.loc); err != nil {
		return nil, err
	}
	d.Complaint = f[5]
	d.Diagnosis = f[6]
	d.Medication = f[7]
	return &d, nil
}
