package file

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-console/internal/model"
)

const patientFields = 7

type patientRepository struct {
	store *Store
}

func (r *patientRepository) Load(ctx context.Context) ([]*model.Patient, error) {
	records, err := r.store.readRecords(PatientFile)
	if err != nil {
		return nil, err
	}
	patients := make([]*model.Patient, 0, len(records))
	for _, rec := range records {
		p, err := decodePatient(rec.fields)
		if err != nil {
			r.store.skip(PatientFile, rec, err)
			continue
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func (r *patientRepository) Save(ctx context.Context, patients []*model.Patient) error {
	lines := make([]string, 0, len(patients))
	for _, p := range patients {
		lines = append(lines, joinFields(
			formatInt(p.ID),
			p.Name,
			formatInt(p.Age),
			p.Address,
			p.Phone,
			p.Username,
			p.Password,
		))
	}
	return r.store.writeLines(PatientFile, lines)
}

func decodePatient(f []string) (*model.Patient, error) {
	if len(f) != patientFields {
		return nil, fmt.Errorf("expected %d fields, got %d", patientFields, len(f))
	}
	id, err := parseInt(f[0], "id")
	if err != nil {
		return nil, err
	}
	age, err := parseInt(f[2], "age")
	if err != nil {
		return nil, err
	}
	return &model.Patient{
		ID:       id,
		Name:     f[1],
		Age:      age,
		Address:  f[3],
		Phone:    f[4],
		Username: f[5],
		Password: f[6],
	}, nil
}
