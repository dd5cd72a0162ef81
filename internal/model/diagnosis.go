package model

import "time"

// Diagnosis is a standalone medical history entry written when an
// appointment is processed with a complaint and a diagnosis.
type Diagnosis struct {
	ID            int       `json:"id" db:"id"`
	AppointmentID int       `json:"appointment_id" db:"appointment_id"`
	PatientID     int       `json:"patient_id" db:"patient_id"`
	DoctorID      int       `json:"doctor_id" db:"doctor_id"`
	RecordedAt    time.Time `json:"recorded_at" db:"recorded_at"`
	Complaint     string    `json:"complaint" db:"complaint"`
	Diagnosis     string    `json:"diagnosis" db:"diagnosis"`
	Medication    string    `json:"medication" db:"medication"`
}

func (d *Diagnosis) Clone() *Diagnosis {
	c := *d
	return &c
}

type DiagnosisFilters struct {
	PatientID int
	DoctorID  int
}
