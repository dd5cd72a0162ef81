package file

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-console/internal/repository"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

const (
	AppointmentFile        = "Appointment.txt"
	AppointmentHistoryFile = "AppointmentHistory.txt"
	PatientFile            = "Patient.txt"
	DiagnosisFile          = "Diagnosis.txt"

	maxLineSize = 1 << 20
)

// Store keeps each collection in its own line-oriented text file under dir.
type Store struct {
	dir     string
	loc     *time.Location
	logger  *logger.Logger
	metrics *metrics.Metrics
	mu      sync.Mutex
}

func NewStore(dir string, loc *time.Location, log *logger.Logger, m *metrics.Metrics) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewPersistenceUnavailable("data directory", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		dir:     dir,
		loc:     loc,
		logger:  log.Component("file_store"),
		metrics: m,
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{store: s}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{store: s}
}

func (s *Store) Diagnoses() repository.DiagnosisRepository {
	return &diagnosisRepository{store: s}
}

// record is one non-empty line together with its 1-based line number.
type record struct {
	line   int
	fields []string
}

// readRecords returns the split records of a file. A missing file is an
// empty collection.
func (s *Store) readRecords(name string) ([]record, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("file not found, starting with an empty collection", "file", name)
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistenceUnavailable(name, err)
	}
	defer f.Close()

	var records []record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, record{line: n, fields: splitFields(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewPersistenceUnavailable(name, fmt.Errorf("read: %w", err))
	}
	return records, nil
}

// skip logs a record that could not be decoded. Bad lines never abort a load.
func (s *Store) skip(name string, rec record, err error) {
	s.logger.Warn("skipping malformed record",
		"file", name,
		"error", apperrors.NewMalformedRecord(name, rec.line, err).Error(),
	)
}

// writeLines replaces a file with lines. The new content is written to a
// temporary file first and renamed into place.
func (s *Store) writeLines(name string, lines []string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWrite(name, time.Since(start).Seconds(), err)
	}()

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return apperrors.NewPersistenceUnavailable(name, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err = w.Flush(); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return apperrors.NewPersistenceUnavailable(name, err)
	}

	if err = os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return apperrors.NewPersistenceUnavailable(name, err)
	}
	return nil
}

func (s *Store) appendLine(name, line string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWrite(name, time.Since(start).Seconds(), err)
	}()

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperrors.NewPersistenceUnavailable(name, err)
	}
	if _, err = f.WriteString(line + "\n"); err != nil {
		f.Close()
		return apperrors.NewPersistenceUnavailable(name, err)
	}
	if err = f.Close(); err != nil {
		return apperrors.NewPersistenceUnavailable(name, err)
	}
	return nil
}
