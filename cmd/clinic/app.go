package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-console/internal/config"
	"github.com/jwalitptl/clinic-console/internal/handler/health"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/internal/repository/file"
	"github.com/jwalitptl/clinic-console/internal/repository/postgres"
	"github.com/jwalitptl/clinic-console/internal/service/appointment"
	"github.com/jwalitptl/clinic-console/internal/service/diagnosis"
	"github.com/jwalitptl/clinic-console/internal/service/patient"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
	"github.com/jwalitptl/clinic-console/pkg/security"
	"github.com/jwalitptl/clinic-console/pkg/worker"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	loc      *time.Location

	patients     *patient.Service
	appointments *appointment.Service
	diagnoses    *diagnosis.Service

	checks  map[string]health.Check
	outbox  *worker.Outbox
	closers []func() error
}

type stores struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	diagnoses    repository.DiagnosisRepository
}

// newApp loads the configuration and every collection. With async set,
// events are buffered in an outbox that the caller must start.
func newApp(cmd *cobra.Command, async bool) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stderr,
		Pretty:     cfg.Log.Pretty,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  metrics.New("clinic", registry),
		loc:      time.Local,
		checks:   map[string]health.Check{},
	}

	st, err := a.openStores()
	if err != nil {
		a.Close()
		return nil, err
	}

	rules, err := rulesFromConfig(cfg.Clinic)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.patients = patient.NewService(st.patients, security.NewBcryptHasher(cfg.Security.BcryptCost), log, a.metrics)
	a.diagnoses = diagnosis.NewService(st.diagnoses, log, a.metrics)
	a.appointments = appointment.NewService(st.appointments, log, a.metrics,
		appointment.WithRules(rules),
		appointment.WithDiagnosisRecorder(a.diagnoses),
	)

	if err := a.connectBroker(async); err != nil {
		a.Close()
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStores() (stores, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(a.cfg.Database)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(context.Background(), db); err != nil {
			return stores{}, err
		}
		a.checks["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }

		s := postgres.NewStore(db, a.loc, a.metrics)
		a.log.Info("using postgres storage")
		return stores{s.Appointments(), s.Patients(), s.Diagnoses()}, nil
	default:
		s, err := file.NewStore(a.cfg.Storage.DataDir, a.loc, a.log, a.metrics)
		if err != nil {
			return stores{}, err
		}
		a.checks["store"] = func(context.Context) error {
			_, err := os.Stat(s.Dir())
			return err
		}

		a.log.Info("using file storage", "dir", s.Dir())
		return stores{s.Appointments(), s.Patients(), s.Diagnoses()}, nil
	}
}

// connectBroker attaches an event publisher when a Redis URL is configured.
func (a *app) connectBroker(async bool) error {
	if a.cfg.Redis.URL == "" {
		return nil
	}

	zl := a.log.Component("redis").ZL
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:        a.cfg.Redis.URL,
		MaxRetries: a.cfg.Redis.MaxRetries,
		PoolSize:   a.cfg.Redis.PoolSize,
	}, &zl)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, broker.Close)

	var publisher messaging.Publisher
	if async {
		a.outbox = worker.NewOutbox(broker, a.cfg.Redis.Channel, worker.DefaultOutboxConfig(), a.log, a.metrics)
		publisher = a.outbox
	} else {
		publisher = messaging.NewEventPublisher(broker, a.cfg.Redis.Channel, a.log, a.metrics)
	}

	a.patients.SetPublisher(publisher)
	a.appointments.SetPublisher(publisher)
	a.diagnoses.SetPublisher(publisher)
	a.log.Info("event publishing enabled", "channel", a.cfg.Redis.Channel, "async", async)
	return nil
}

func (a *app) load(ctx context.Context) error {
	if err := a.patients.Load(ctx); err != nil {
		return err
	}
	if err := a.diagnoses.Load(ctx); err != nil {
		return err
	}
	return a.appointments.Load(ctx)
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error(err, "failed to close resource")
		}
	}
	a.closers = nil
}

func rulesFromConfig(c config.ClinicConfig) (appointment.Rules, error) {
	opens, closes, err := c.Hours()
	if err != nil {
		return appointment.Rules{}, fmt.Errorf("invalid clinic hours: %w", err)
	}
	return appointment.Rules{
		OpensAt:      opens,
		ClosesAt:     closes,
		HorizonYears: c.HorizonYears,
	}, nil
}
