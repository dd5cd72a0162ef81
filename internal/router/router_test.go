package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-console/internal/handler"
	appointmentHandler "github.com/jwalitptl/clinic-console/internal/handler/appointment"
	diagnosisHandler "github.com/jwalitptl/clinic-console/internal/handler/diagnosis"
	"github.com/jwalitptl/clinic-console/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-console/internal/handler/patient"
	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/repository/file"
	appointmentService "github.com/jwalitptl/clinic-console/internal/service/appointment"
	diagnosisService "github.com/jwalitptl/clinic-console/internal/service/diagnosis"
	patientService "github.com/jwalitptl/clinic-console/internal/service/patient"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
	"github.com/jwalitptl/clinic-console/pkg/security"
)

var testNow = time.Date(2029, 6, 1, 10, 0, 0, 0, time.Local)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	m := metrics.New("clinic", reg)
	log := logger.Nop()

	store, err := file.NewStore(t.TempDir(), time.Local, log, m)
	require.NoError(t, err)

	diagnoses := diagnosisService.NewService(store.Diagnoses(), log, m)
	diagnoses.SetClock(func() time.Time { return testNow })
	appointments := appointmentService.NewService(store.Appointments(), log, m,
		appointmentService.WithClock(func() time.Time { return testNow }),
		appointmentService.WithDiagnosisRecorder(diagnoses),
	)
	patients := patientService.NewService(store.Patients(), security.NewBcryptHasher(bcrypt.MinCost), log, m)

	r := NewRouter(log, handler.NewHandler(reg), middleware.NewHTTPMetrics("clinic", reg),
		health.NewHandler(map[string]health.Check{"store": func(context.Context) error { return nil }}),
		RouterConfig{},
		patientHandler.NewHandler(patients),
		appointmentHandler.NewHandler(appointments, time.Local),
		diagnosisHandler.NewHandler(diagnoses),
	)
	r.Setup()
	return r.Engine()
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func TestAppointmentFlow(t *testing.T) {
	r := newTestServer(t)

	code, _ := call(t, r, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"patient_id": 10, "doctor_id": 5, "scheduled_at": "2030-01-01T09:00",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := call(t, r, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"patient_id": 10, "doctor_id": 5, "scheduled_at": "2030-01-01T09:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Len(t, env.Errors, 2, "doctor and patient conflicts are both reported")

	code, _ = call(t, r, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"patient_id": 11, "doctor_id": 5, "scheduled_at": "2030-01-01 06:59",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(t, r, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"patient_id": 11, "doctor_id": 5, "scheduled_at": "tomorrow",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, r, http.MethodGet, "/api/v1/appointments/next", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"id":1`)

	code, env = call(t, r, http.MethodPost, "/api/v1/appointments/process", map[string]string{
		"complaint": "headache", "diagnosis": "migraine", "medication": "rest",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"completed":true`)

	code, _ = call(t, r, http.MethodPost, "/api/v1/appointments/process", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = call(t, r, http.MethodGet, "/api/v1/appointments/history", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"diagnosis":"migraine"`)

	code, env = call(t, r, http.MethodGet, "/api/v1/diagnoses?patient_id=10", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"appointment_id":1`)

	code, _ = call(t, r, http.MethodGet, "/api/v1/appointments?doctor_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPatientFlow(t *testing.T) {
	r := newTestServer(t)

	code, env := call(t, r, http.MethodPost, "/api/v1/patients", map[string]interface{}{
		"name": "Ann Lee", "age": 40, "address": "1 Main St", "phone": "555",
		"username": "ann", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.NotContains(t, string(env.Data), "password")

	code, _ = call(t, r, http.MethodPost, "/api/v1/patients", map[string]interface{}{
		"name": "Ann Two", "age": 40, "address": "2 Main St", "phone": "556",
		"username": "ann", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, env = call(t, r, http.MethodGet, "/api/v1/patients/search?name=LEE", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"username":"ann"`)

	code, _ = call(t, r, http.MethodPost, "/api/v1/patients/authenticate", map[string]string{
		"username": "ann", "password": "s3cret",
	})
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, r, http.MethodPatch, "/api/v1/patients/1/profile", map[string]string{"phone": "999"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"phone":"999"`)

	code, _ = call(t, r, http.MethodDelete, "/api/v1/patients/1", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = call(t, r, http.MethodGet, "/api/v1/patients/1", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, r, http.MethodDelete, "/api/v1/patients/1", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, r, http.MethodGet, "/api/v1/patients/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServiceEndpoints(t *testing.T) {
	r := newTestServer(t)

	code, _ := call(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, r, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic_appointments_queue_depth")
}
