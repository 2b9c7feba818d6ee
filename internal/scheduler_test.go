package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rm-hull/pixelbench/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	published []*stats.Report
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, r *stats.Report) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.published = append(m.published, r)
	return "1-0", nil
}

func okReport() *stats.Report {
	return &stats.Report{
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Workers:   2,
		Pipelines: []stats.PipelineResult{{Name: "Gaussian blur", Sequential: time.Second, Parallel: time.Second}},
	}
}

func TestRunAndRecord(t *testing.T) {
	t.Run("successful run", func(t *testing.T) {
		dir := t.TempDir()
		latest := &Latest{}
		pub := &mockPublisher{}

		err := RunAndRecord(func() (*stats.Report, error) { return okReport(), nil }, latest, dir, pub)
		require.NoError(t, err)

		snap := latest.Get()
		assert.NoError(t, snap.Err)
		assert.Equal(t, 1, snap.Runs)
		assert.Len(t, pub.published, 1)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("partial failure still records pipelines", func(t *testing.T) {
		dir := t.TempDir()
		latest := &Latest{}
		failure := errors.New("RGB difference: image dimensions differ")

		err := RunAndRecord(func() (*stats.Report, error) { return okReport(), failure }, latest, dir, nil)
		assert.ErrorIs(t, err, failure)
		assert.ErrorIs(t, latest.Get().Err, failure)
		assert.FileExists(t, filepath.Join(dir, "pixelbench_2025-01-01_00-00-00.txt"))
	})

	t.Run("publisher failure is not fatal", func(t *testing.T) {
		latest := &Latest{}
		pub := &mockPublisher{err: errors.New("connection refused")}

		err := RunAndRecord(func() (*stats.Report, error) { return okReport(), nil }, latest, t.TempDir(), pub)
		assert.NoError(t, err)
	})

	t.Run("nothing to record", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		latest := &Latest{}

		err := RunAndRecord(func() (*stats.Report, error) { return &stats.Report{}, errors.New("boom") }, latest, dir, nil)
		assert.Error(t, err)
		assert.NoDirExists(t, dir)
		assert.Equal(t, 1, latest.Get().Runs)
	})
}

func TestNewSchedulerRejectsBadInterval(t *testing.T) {
	_, err := NewScheduler(0, func() (*stats.Report, error) { return okReport(), nil }, &Latest{}, t.TempDir(), nil)
	assert.Error(t, err)
}

func TestNewSchedulerRunsImmediately(t *testing.T) {
	latest := &Latest{}
	sched, err := NewScheduler(time.Hour, func() (*stats.Report, error) { return okReport(), nil }, latest, t.TempDir(), nil)
	require.NoError(t, err)
	defer func() { _ = sched.Shutdown() }()

	assert.Equal(t, 1, latest.Get().Runs)
	assert.NotNil(t, latest.Get().Report)
}
