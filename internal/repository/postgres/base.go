package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-console/internal/repository"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	loc     *time.Location
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. Timestamps are stored
// without a zone and read back as wall-clock times in loc.
func NewBaseRepository(db *sqlx.DB, loc *time.Location, m *metrics.Metrics) BaseRepository {
	if loc == nil {
		loc = time.Local
	}
	return BaseRepository{db: db, loc: loc, metrics: m}
}

// Store bundles the three collections over one connection pool.
type Store struct {
	base BaseRepository
}

func NewStore(db *sqlx.DB, loc *time.Location, m *metrics.Metrics) *Store {
	return &Store{base: NewBaseRepository(db, loc, m)}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: s.base}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{BaseRepository: s.base}
}

func (s *Store) Diagnoses() repository.DiagnosisRepository {
	return &diagnosisRepository{BaseRepository: s.base}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// rewrite replaces every row of table inside one transaction.
func (r *BaseRepository) rewrite(ctx context.Context, table string, insert func(*sqlx.Tx) error) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveWrite(table, time.Since(start).Seconds(), err)
	}()

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		return insert(tx)
	})
	if err != nil {
		return apperrors.NewPersistenceUnavailable(table, err)
	}
	return nil
}

// local reinterprets a zone-less timestamp in the configured location.
func (r *BaseRepository) local(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), r.loc)
}

// wall strips the zone so the database stores the wall-clock time as is.
func wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
