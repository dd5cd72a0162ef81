package patient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
	"github.com/jwalitptl/clinic-console/pkg/security"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type PatientService interface {
	Load(ctx context.Context) error
	Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error)
	Insert(ctx context.Context, p *model.Patient) error
	FindByID(id int) (*model.Patient, error)
	FindByName(substr string) (*model.Patient, error)
	FindByUsername(username string) (*model.Patient, error)
	RemoveByID(ctx context.Context, id int) (bool, error)
	UpdateProfile(ctx context.Context, id int, req *model.UpdateProfileRequest) (*model.Patient, error)
	Authenticate(username, password string) (*model.Patient, error)
	AllSorted() []*model.Patient
	All() []*model.Patient
}

type Service struct {
	mu        sync.RWMutex
	repo      repository.PatientRepository
	hasher    security.PasswordHasher
	validator validator.Validator
	publisher messaging.Publisher
	logger    *logger.Logger
	metrics   *metrics.Metrics
	index     *index
	nextID    int
}

func NewService(repo repository.PatientRepository, hasher security.PasswordHasher, log *logger.Logger, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New("clinic", nil)
	}
	return &Service{
		repo:      repo,
		hasher:    hasher,
		validator: validator.New(),
		publisher: messaging.NopPublisher{},
		logger:    log.Component("patient_service"),
		metrics:   m,
		index:     newIndex(),
		nextID:    1,
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

// Load replaces the index with the stored patients. A record repeating an
// ID already seen is dropped.
func (s *Service) Load(ctx context.Context) error {
	patients, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load patients: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := newIndex()
	maxID := 0
	for _, p := range patients {
		if !idx.insert(p) {
			s.logger.Warn("dropping patient with duplicate id", "patient_id", p.ID)
			continue
		}
		maxID = max(maxID, p.ID)
	}
	s.index = idx
	s.nextID = maxID + 1
	s.metrics.PatientsIndexed.Set(float64(idx.len()))

	s.logger.Info("patients loaded", "count", idx.len(), "next_id", s.nextID)
	return nil
}

// Register validates req, assigns the next ID and stores the patient with
// a hashed password. Usernames are unique.
func (s *Service) Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.NewBadRequest("invalid patient data", err)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.index.findByUsername(req.Username); taken {
		return nil, apperrors.NewConflict(fmt.Sprintf("username %q is already registered", req.Username), nil)
	}

	p := &model.Patient{
		ID:       s.nextID,
		Name:     req.Name,
		Age:      req.Age,
		Address:  req.Address,
		Phone:    req.Phone,
		Username: req.Username,
		Password: hashed,
	}
	if err := s.insert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("patient registered", "patient_id", p.ID, "username", p.Username)
	s.publisher.Publish(ctx, messaging.EventPatientRegistered, publicView(p))
	return p.Clone(), nil
}

// Insert stores p as given. The caller owns ID assignment and password
// hashing.
func (s *Service) Insert(ctx context.Context, p *model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(ctx, p.Clone())
}

func (s *Service) insert(ctx context.Context, p *model.Patient) error {
	if !s.index.insert(p) {
		return apperrors.NewConflict(fmt.Sprintf("patient %d already exists", p.ID), nil)
	}
	if err := s.repo.Save(ctx, s.index.list); err != nil {
		s.index.remove(p.ID)
		return fmt.Errorf("failed to persist patients: %w", err)
	}
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	s.metrics.PatientsIndexed.Set(float64(s.index.len()))
	return nil
}

func (s *Service) FindByID(id int) (*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.index.get(id)
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("patient %d", id), nil)
	}
	return p.Clone(), nil
}

// FindByName returns the first patient, in registration order, whose name
// contains substr ignoring case.
func (s *Service) FindByName(substr string) (*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.index.findByName(substr)
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("patient matching %q", substr), nil)
	}
	return p.Clone(), nil
}

func (s *Service) FindByUsername(username string) (*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.index.findByUsername(username)
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("patient %q", username), nil)
	}
	return p.Clone(), nil
}

// RemoveByID reports false when no patient has id. The removal is undone if
// it cannot be persisted.
func (s *Service) RemoveByID(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, p, ok := s.index.remove(id)
	if !ok {
		return false, nil
	}
	if err := s.repo.Save(ctx, s.index.list); err != nil {
		s.index.restore(pos, p)
		return false, fmt.Errorf("failed to persist patients: %w", err)
	}
	s.metrics.PatientsIndexed.Set(float64(s.index.len()))

	s.logger.Info("patient removed", "patient_id", id)
	s.publisher.Publish(ctx, messaging.EventPatientRemoved, map[string]int{"id": id})
	return true, nil
}

// UpdateProfile changes the contact details or password of a patient. Only
// non-nil request fields are applied.
func (s *Service) UpdateProfile(ctx context.Context, id int, req *model.UpdateProfileRequest) (*model.Patient, error) {
	if req == nil || req.Empty() {
		return nil, apperrors.NewBadRequest("nothing to update", nil)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.NewBadRequest("invalid profile data", err)
	}

	var hashed string
	if req.Password != nil {
		h, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashed = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.index.get(id)
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("patient %d", id), nil)
	}

	updated := current.Clone()
	if req.Address != nil {
		updated.Address = *req.Address
	}
	if req.Phone != nil {
		updated.Phone = *req.Phone
	}
	if req.Password != nil {
		updated.Password = hashed
	}

	s.index.replace(updated)
	if err := s.repo.Save(ctx, s.index.list); err != nil {
		s.index.replace(current)
		return nil, fmt.Errorf("failed to persist patients: %w", err)
	}

	s.logger.Info("patient profile updated", "patient_id", id)
	s.publisher.Publish(ctx, messaging.EventPatientUpdated, publicView(updated))
	return updated.Clone(), nil
}

// Authenticate checks a username and password pair. Unknown usernames and
// wrong passwords fail the same way.
func (s *Service) Authenticate(username, password string) (*model.Patient, error) {
	s.mu.RLock()
	p, ok := s.index.findByUsername(username)
	if ok {
		p = p.Clone()
	}
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.NewValidationRejected("authentication failed", ErrInvalidCredentials)
	}
	if err := s.hasher.Compare(p.Password, password); err != nil {
		return nil, apperrors.NewValidationRejected("authentication failed", ErrInvalidCredentials)
	}
	return p, nil
}

// AllSorted returns every patient in ascending ID order.
func (s *Service) AllSorted() []*model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.sorted()
}

// All returns every patient in registration order.
func (s *Service) All() []*model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.copies()
}

// publicView drops the password from an event payload.
func publicView(p *model.Patient) *model.Patient {
	c := p.Clone()
	c.Password = ""
	return c
}
