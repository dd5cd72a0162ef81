package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/internal/repository/file"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func nextMonthAt(hour int) string {
	d := time.Now().AddDate(0, 1, 0)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.Local).Format("2006-01-02T15:04")
}

func TestCLI_PatientLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "patient", "register",
		"--name", "Ana Diaz", "--age", "34", "--address", "1 Main St",
		"--phone", "555-0100", "--username", "ana", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered patient 1")

	out, err = run(t, dir, "patient", "find", "--name", "diaz")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Diaz")
	assert.NotContains(t, out, "secret")

	_, err = run(t, dir, "patient", "update", "1", "--phone", "555-0199")
	require.NoError(t, err)

	out, err = run(t, dir, "patient", "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "555-0199")

	out, err = run(t, dir, "patient", "remove", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed patient 1")

	_, err = run(t, dir, "patient", "get", "1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestCLI_AppointmentFlow(t *testing.T) {
	dir := t.TempDir()
	at := nextMonthAt(9)

	out, err := run(t, dir, "appointment", "schedule", "--patient", "1", "--doctor", "2", "--at", at)
	require.NoError(t, err)
	assert.Contains(t, out, "Scheduled appointment 1")

	_, err = run(t, dir, "appointment", "schedule", "--patient", "1", "--doctor", "2", "--at", at)
	require.Error(t, err)
	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "doctor already has an appointment")
	assert.Contains(t, buf.String(), "patient already has an appointment")

	out, err = run(t, dir, "appointment", "next")
	require.NoError(t, err)
	assert.Contains(t, out, "scheduled")

	out, err = run(t, dir, "appointment", "process", "--complaint", "cough", "--diagnosis", "cold", "--medication", "rest")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed appointment 1")

	out, err = run(t, dir, "appointment", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "cough")

	out, err = run(t, dir, "diagnosis", "list", "--appointment", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "cold")

	_, err = run(t, dir, "appointment", "process")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrEmptyQueue))

	_, statErr := os.Stat(filepath.Join(dir, file.AppointmentHistoryFile))
	assert.NoError(t, statErr)
}

func TestCLI_ScheduleRejectsClosedHours(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "appointment", "schedule", "--patient", "1", "--doctor", "2", "--at", nextMonthAt(23))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrValidationRejected))

	out, err := run(t, dir, "appointment", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending appointments.")
}

func TestParseIDArg(t *testing.T) {
	id, err := parseIDArg("patient", "7")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = parseIDArg("patient", "0")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	_, err = parseIDArg("patient", "abc")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}
