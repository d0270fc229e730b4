package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileproof/internal/validate"
)

func TestStartDelimitedFile(t *testing.T) {
	svc := New(t.TempDir())

	id, err := svc.Start("orders.csv", strings.NewReader("a,b,c\n1,2,3\n"), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	report, err := svc.Result(id)
	require.NoError(t, err)
	assert.True(t, report.Passed)
	assert.Equal(t, "orders.csv", report.FileName, "report carries the upload name, not the spool name")
	assert.Equal(t, 2, report.TotalRows)
}

func TestStartSelectsJSONByExtension(t *testing.T) {
	svc := New(t.TempDir())

	id, err := svc.Start("data.JSON", strings.NewReader(`[{"a":1},{"a":2}]`), Options{})
	require.NoError(t, err)

	report, err := svc.Result(id)
	require.NoError(t, err)
	assert.Equal(t, "JSON", report.FileType)
	assert.True(t, report.Passed)
}

func TestStartPassesOptions(t *testing.T) {
	svc := New(t.TempDir())

	id, err := svc.Start("dup.csv", strings.NewReader("h1,h2\nx,y\nx,y\n"), Options{
		Delimiter:       ',',
		CheckDuplicates: true,
	})
	require.NoError(t, err)

	report, err := svc.Result(id)
	require.NoError(t, err)
	require.Len(t, report.Duplicates, 2)
	assert.True(t, report.Passed, "duplicates never fail a run")
}

func TestSubscribeProgress(t *testing.T) {
	svc := New(t.TempDir())

	id, err := svc.Start("ok.csv", strings.NewReader("a,b\n1,2\n"), Options{})
	require.NoError(t, err)

	ch, err := svc.SubscribeProgress(id)
	require.NoError(t, err)

	var last Progress
	var got int
	for p := range ch {
		last = p
		got++
	}
	require.NotZero(t, got, "at least one update before close")
	assert.Equal(t, PhaseComplete, last.Phase)
	assert.Equal(t, float64(100), last.Percent)
	assert.Equal(t, id, last.SessionID)
}

func TestSubscribeAfterCompletion(t *testing.T) {
	svc := New(t.TempDir())

	id, err := svc.Start("ok.csv", strings.NewReader("a,b\n1,2\n"), Options{})
	require.NoError(t, err)
	_, err = svc.Result(id)
	require.NoError(t, err)

	ch, err := svc.SubscribeProgress(id)
	require.NoError(t, err)

	// The stream must deliver the final snapshot and then end instead of
	// blocking a late subscriber forever.
	var last Progress
	for p := range ch {
		last = p
	}
	assert.Equal(t, PhaseComplete, last.Phase)
}

func TestCancelMidRun(t *testing.T) {
	var b strings.Builder
	b.WriteString("a,b,c\n")
	for i := 0; i < 200000; i++ {
		b.WriteString("one,two,three\n")
	}

	svc := New(t.TempDir())
	id, err := svc.Start("big.csv", strings.NewReader(b.String()), Options{})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(id))

	report, err := svc.Result(id)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Less(t, report.TotalRows, 200001)

	p, err := svc.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, PhaseCancelled, p.Phase)
}

func TestUnknownSession(t *testing.T) {
	svc := New(t.TempDir())

	_, err := svc.Progress("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Result("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SubscribeProgress("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Cancel("nope"), ErrNotFound)
}

func TestSessionCleanup(t *testing.T) {
	old := CleanupDelay
	CleanupDelay = 10 * time.Millisecond
	defer func() { CleanupDelay = old }()

	svc := New(t.TempDir())
	id, err := svc.Start("ok.csv", strings.NewReader("a,b\n1,2\n"), Options{})
	require.NoError(t, err)

	_, err = svc.Result(id)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := svc.Progress(id)
		return err != nil
	}, time.Second, 5*time.Millisecond, "session should be dropped after the delay")
}

func TestProgressSnapshotAfterCompletion(t *testing.T) {
	svc := New(t.TempDir())
	id, err := svc.Start("bad.csv", strings.NewReader("a,b\n1\n"), Options{})
	require.NoError(t, err)

	report, err := svc.Result(id)
	require.NoError(t, err)
	require.False(t, report.Passed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, validate.KindColumnCountMismatch, report.Errors[0].Kind)

	p, err := svc.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, p.Phase)
	assert.Equal(t, 1, p.Errors)
}
