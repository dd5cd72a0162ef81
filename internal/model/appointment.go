package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Appointment is pending until Completed is set. Completion happens once,
// when the appointment is taken off the queue, and freezes the free-text
// fields as history.
type Appointment struct {
	ID          int       `json:"id" db:"id"`
	PatientID   int       `json:"patient_id" db:"patient_id"`
	DoctorID    int       `json:"doctor_id" db:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
	Completed   bool      `json:"completed" db:"completed"`
	Complaint   string    `json:"complaint" db:"complaint"`
	Diagnosis   string    `json:"diagnosis" db:"diagnosis"`
	Medication  string    `json:"medication" db:"medication"`
}

func (a *Appointment) Status() AppointmentStatus {
	if a.Completed {
		return AppointmentStatusCompleted
	}
	return AppointmentStatusScheduled
}

// Clone returns a copy that shares nothing with a.
func (a *Appointment) Clone() *Appointment {
	c := *a
	return &c
}

// ScheduleAppointmentRequest carries the time as a local date-time string,
// see ParseDateTime.
type ScheduleAppointmentRequest struct {
	PatientID   int    `json:"patient_id" validate:"required,gt=0"`
	DoctorID    int    `json:"doctor_id" validate:"required,gt=0"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
}

type ProcessAppointmentRequest struct {
	Complaint  string `json:"complaint" validate:"max=2000"`
	Diagnosis  string `json:"diagnosis" validate:"max=2000"`
	Medication string `json:"medication" validate:"max=2000"`
}

type AppointmentFilters struct {
	DoctorID  int
	PatientID int
}
