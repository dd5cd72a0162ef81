package diagnosis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// Service keeps the diagnosis history in insertion order.
type Service struct {
	mu        sync.RWMutex
	repo      repository.DiagnosisRepository
	records   []*model.Diagnosis
	nextID    int
	publisher messaging.Publisher
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(repo repository.DiagnosisRepository, log *logger.Logger, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New("clinic", nil)
	}
	return &Service{
		repo:      repo,
		nextID:    1,
		publisher: messaging.NopPublisher{},
		logger:    log.Component("diagnosis_service"),
		metrics:   m,
		now:       time.Now,
	}
}

func (s *Service) SetPublisher(p messaging.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = messaging.NopPublisher{}
	}
	s.publisher = p
}

func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Service) Load(ctx context.Context) error {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load diagnoses: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, d := range records {
		maxID = max(maxID, d.ID)
	}
	s.records = records
	s.nextID = maxID + 1

	s.logger.Info("diagnoses loaded", "count", len(records), "next_id", s.nextID)
	return nil
}

// Record appends a diagnosis stamped with the current time and rewrites the
// collection.
func (s *Service) Record(ctx context.Context, appointmentID, patientID, doctorID int, complaint, diagnosis, medication string) (*model.Diagnosis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &model.Diagnosis{
		ID:            s.nextID,
		AppointmentID: appointmentID,
		PatientID:     patientID,
		DoctorID:      doctorID,
		RecordedAt:    s.now(),
		Complaint:     complaint,
		Diagnosis:     diagnosis,
		Medication:    medication,
	}

	records := append(s.records[:len(s.records):len(s.records)], d)
	if err := s.repo.Save(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist diagnoses: %w", err)
	}
	s.records = records
	s.nextID++

	s.metrics.DiagnosesRecorded.Inc()
	s.logger.Info("diagnosis recorded",
		"diagnosis_id", d.ID,
		"appointment_id", appointmentID,
		"patient_id", patientID,
	)
	s.publisher.Publish(ctx, messaging.EventDiagnosisRecorded, d.Clone())

	return d.Clone(), nil
}

func (s *Service) ForPatient(patientID int) []*model.Diagnosis {
	return s.filter(func(d *model.Diagnosis) bool { return d.PatientID == patientID })
}

func (s *Service) ForDoctor(doctorID int) []*model.Diagnosis {
	return s.filter(func(d *model.Diagnosis) bool { return d.DoctorID == doctorID })
}

func (s *Service) ByAppointment(appointmentID int) []*model.Diagnosis {
	return s.filter(func(d *model.Diagnosis) bool { return d.AppointmentID == appointmentID })
}

// List applies the non-zero filters.
func (s *Service) List(filters model.DiagnosisFilters) []*model.Diagnosis {
	return s.filter(func(d *model.Diagnosis) bool {
		if filters.PatientID != 0 && d.PatientID != filters.PatientID {
			return false
		}
		if filters.DoctorID != 0 && d.DoctorID != filters.DoctorID {
			return false
		}
		return true
	})
}

func (s *Service) All() []*model.Diagnosis {
	return s.filter(func(*model.Diagnosis) bool { return true })
}

func (s *Service) filter(keep func(*model.Diagnosis) bool) []*model.Diagnosis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Diagnosis{}
	for _, d := range s.records {
		if keep(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}
