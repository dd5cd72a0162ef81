package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// Causes a scheduling request can be rejected for. Every cause that applies
// is reported, joined, inside a ValidationRejected error.
var (
	ErrOutsideWindow   = errors.New("time is outside the bookable window")
	ErrDoctorConflict  = errors.New("doctor already has an appointment at this time")
	ErrPatientConflict = errors.New("patient already has an appointment at this time")
)

// DiagnosisRecorder receives a history entry when an appointment is processed
// with a complaint and a diagnosis.
type DiagnosisRecorder interface {
	Record(ctx context.Context, appointmentID, patientID, doctorID int, complaint, diagnosis, medication string) (*model.Diagnosis, error)
}

type Option func(*Service)

func WithRules(r Rules) Option {
	return func(s *Service) { s.rules = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithDiagnosisRecorder(r DiagnosisRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service owns the pending queue and the completed history. Appointments
// leave the queue strictly in admission order.
type Service struct {
	mu        sync.Mutex
	repo      repository.AppointmentRepository
	rules     Rules
	queue     queue
	history   []*model.Appointment
	nextID    int
	recorder  DiagnosisRecorder
	publisher messaging.Publisher
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(repo repository.AppointmentRepository, log *logger.Logger, m *metrics.Metrics, opts ...Option) *Service {
	if m == nil {
		m = metrics.New("clinic", nil)
	}
	s := &Service{
		repo:      repo,
		rules:     DefaultRules(),
		nextID:    1,
		publisher: messaging.NopPublisher{},
		logger:    log.Component("appointment_service"),
		metrics:   m,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDiagnosisRecorder attaches or, with nil, detaches the recorder.
func (s *Service) SetDiagnosisRecorder(r DiagnosisRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

func (s *Service) SetPublisher(p messaging.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = messaging.NopPublisher{}
	}
	s.publisher = p
}

// Load rebuilds the queue and the history from the repository. Completed
// rows still sitting in the pending collection are moved to the history.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.repo.LoadPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending appointments: %w", err)
	}
	completed, err := s.repo.LoadCompleted(ctx)
	if err != nil {
		return fmt.Errorf("failed to load appointment history: %w", err)
	}

	maxID := 0
	done := make(map[int]bool, len(completed))
	for _, a := range completed {
		done[a.ID] = true
		maxID = max(maxID, a.ID)
	}

	var q queue
	migrated := 0
	for _, a := range pending {
		maxID = max(maxID, a.ID)
		switch {
		case a.Completed && !done[a.ID]:
			if err := s.repo.AppendCompleted(ctx, a); err != nil {
				return fmt.Errorf("failed to move appointment %d to history: %w", a.ID, err)
			}
			completed = append(completed, a)
			done[a.ID] = true
			migrated++
		case done[a.ID]:
			s.logger.Warn("dropping pending appointment already in history", "appointment_id", a.ID)
			migrated++
		default:
			q.push(a)
		}
	}

	if migrated > 0 {
		if err := s.repo.SavePending(ctx, q.view()); err != nil {
			return fmt.Errorf("failed to rewrite pending appointments: %w", err)
		}
	}

	s.queue = q
	s.history = completed
	s.nextID = maxID + 1
	s.observeDepth()

	s.logger.Info("appointments loaded",
		"pending", s.queue.Len(),
		"completed", len(s.history),
		"next_id", s.nextID,
	)
	return nil
}

// Schedule admits a new appointment at the tail of the queue. A rejected
// request changes nothing and writes nothing.
func (s *Service) Schedule(ctx context.Context, patientID, doctorID int, at time.Time) (*model.Appointment, error) {
	if patientID <= 0 || doctorID <= 0 {
		return nil, apperrors.NewBadRequest("patient and doctor ids must be positive", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var causes []error
	if !s.rules.ValidateTime(at, s.now()) {
		causes = append(causes, ErrOutsideWindow)
	}
	if HasConflict(s.queue.view(), doctorID, at, RoleDoctor) {
		causes = append(causes, ErrDoctorConflict)
	}
	if HasConflict(s.queue.view(), patientID, at, RolePatient) {
		causes = append(causes, ErrPatientConflict)
	}
	if len(causes) > 0 {
		for _, c := range causes {
			s.metrics.AppointmentsRejected.WithLabelValues(rejectReason(c)).Inc()
		}
		joined := errors.Join(causes...)
		s.logger.Info("appointment rejected",
			"patient_id", patientID,
			"doctor_id", doctorID,
			"scheduled_at", at,
			"reason", joined.Error(),
		)
		return nil, apperrors.NewValidationRejected("appointment rejected", joined)
	}

	apt := &model.Appointment{
		ID:          s.nextID,
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at,
	}
	s.queue.push(apt)
	if err := s.repo.SavePending(ctx, s.queue.view()); err != nil {
		s.queue.dropLast()
		return nil, fmt.Errorf("failed to persist appointment queue: %w", err)
	}
	s.nextID++

	s.metrics.AppointmentsScheduled.Inc()
	s.observeDepth()
	s.logger.Info("appointment scheduled",
		"appointment_id", apt.ID,
		"patient_id", patientID,
		"doctor_id", doctorID,
		"scheduled_at", at,
	)
	s.publisher.Publish(ctx, messaging.EventAppointmentScheduled, apt.Clone())

	return apt.Clone(), nil
}

// ProcessNext completes the appointment at the head of the queue. A
// diagnosis is recorded only when a recorder is attached and both the
// complaint and the diagnosis are non-empty.
//
// Once the history entry is written the appointment counts as completed.
// Failures of the pending rewrite and of the recorder are joined and
// returned together with the completed appointment.
func (s *Service) ProcessNext(ctx context.Context, complaint, diagnosis, medication string) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.queue.pop()
	if head == nil {
		return nil, apperrors.NewEmptyQueue("appointments")
	}

	done := head.Clone()
	done.Completed = true
	done.Complaint = complaint
	done.Diagnosis = diagnosis
	done.Medication = medication

	if err := s.repo.AppendCompleted(ctx, done); err != nil {
		s.queue.pushFront(head)
		return nil, fmt.Errorf("failed to record completed appointment: %w", err)
	}
	s.history = append(s.history, done)
	s.metrics.AppointmentsProcessed.Inc()
	s.observeDepth()

	s.logger.Info("appointment processed",
		"appointment_id", done.ID,
		"patient_id", done.PatientID,
		"doctor_id", done.DoctorID,
	)
	s.publisher.Publish(ctx, messaging.EventAppointmentCompleted, done.Clone())

	var errs []error
	if err := s.repo.SavePending(ctx, s.queue.view()); err != nil {
		s.logger.Error(err, "pending queue not rewritten after processing", "appointment_id", done.ID)
		errs = append(errs, fmt.Errorf("failed to persist appointment queue: %w", err))
	}

	// The diagnosis is recorded even when the pending rewrite failed: the
	// appointment is already in the history and Load never replays it.
	if s.recorder != nil && complaint != "" && diagnosis != "" {
		if _, err := s.recorder.Record(ctx, done.ID, done.PatientID, done.DoctorID, complaint, diagnosis, medication); err != nil {
			s.logger.Error(err, "diagnosis not recorded", "appointment_id", done.ID)
			errs = append(errs, fmt.Errorf("appointment %d completed but diagnosis not recorded: %w", done.ID, err))
		}
	}

	return done.Clone(), errors.Join(errs...)
}

// Peek returns the appointment that ProcessNext would take.
func (s *Service) Peek() (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.queue.peek()
	if head == nil {
		return nil, apperrors.NewEmptyQueue("appointments")
	}
	return head.Clone(), nil
}

// ListPending returns the queue oldest first.
func (s *Service) ListPending() []*model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.snapshot()
}

func (s *Service) ForDoctor(doctorID int) []*model.Appointment {
	return s.filter(func(a *model.Appointment) bool { return a.DoctorID == doctorID })
}

func (s *Service) ForPatient(patientID int) []*model.Appointment {
	return s.filter(func(a *model.Appointment) bool { return a.PatientID == patientID })
}

// List applies the non-zero filters to the pending queue.
func (s *Service) List(filters model.AppointmentFilters) []*model.Appointment {
	return s.filter(func(a *model.Appointment) bool {
		if filters.DoctorID != 0 && a.DoctorID != filters.DoctorID {
			return false
		}
		if filters.PatientID != 0 && a.PatientID != filters.PatientID {
			return false
		}
		return true
	})
}

// History returns completed appointments in processing order.
func (s *Service) History() []*model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Appointment, len(s.history))
	for i, a := range s.history {
		out[i] = a.Clone()
	}
	return out
}

func (s *Service) filter(keep func(*model.Appointment) bool) []*model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Appointment
	for _, a := range s.queue.view() {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

func (s *Service) observeDepth() {
	s.metrics.QueueDepth.Set(float64(s.queue.Len()))
}

func rejectReason(cause error) string {
	switch {
	case errors.Is(cause, ErrDoctorConflict):
		return "doctor_conflict"
	case errors.Is(cause, ErrPatientConflict):
		return "patient_conflict"
	default:
		return "outside_window"
	}
}
