package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umlpdf/internal/report"
)

func testJobs(retention time.Duration) *Jobs {
	return NewJobs(retention, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func wait(t *testing.T, j *Jobs, id string) JobView {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	view, err := j.Wait(ctx, id)
	require.NoError(t, err)
	return view
}

func TestJobs_ProgressReachesSubscribers(t *testing.T) {
	j := testJobs(0)
	release := make(chan struct{})
	view := j.Start(context.Background(), "Shop", "out.pdf", report.FormatPDF, func(ctx context.Context, progress func(report.Progress)) (*report.RunReport, error) {
		<-release
		for i := 1; i <= 3; i++ {
			progress(report.Progress{Stage: "render", Done: i, Total: 3})
		}
		return report.NewRunReport("out.pdf", report.FormatPDF), nil
	})
	events, unsubscribe, ok := j.Subscribe(view.ID)
	require.True(t, ok)
	defer unsubscribe()
	close(release)

	var done []int
	for p := range events {
		done = append(done, p.Done)
	}
	assert.Equal(t, []int{1, 2, 3}, done)

	final := wait(t, j, view.ID)
	assert.Equal(t, StatusSucceeded, final.Status)
	assert.Equal(t, 3, final.Progress.Done)
	path, rep, finished := j.Result(view.ID)
	assert.True(t, finished)
	assert.Equal(t, "out.pdf", path)
	assert.NotNil(t, rep)
}

func TestJobs_Cancel(t *testing.T) {
	j := testJobs(0)
	started := make(chan struct{})
	view := j.Start(context.Background(), "Shop", "out.pdf", report.FormatPDF, func(ctx context.Context, _ func(report.Progress)) (*report.RunReport, error) {
		close(started)
		<-ctx.Done()
		return nil, &report.Error{Kind: report.KindCancelled, Code: report.CodeRunCancelled, Message: "generation cancelled", Cause: ctx.Err()}
	})
	<-started

	_, _, finished := j.Result(view.ID)
	assert.False(t, finished)
	assert.True(t, j.Cancel(view.ID))
	assert.False(t, j.Cancel("unknown"))

	final := wait(t, j, view.ID)
	assert.Equal(t, StatusCancelled, final.Status)
	assert.Equal(t, report.CodeRunCancelled, final.ErrorCode)
}

func TestJobs_FailureAndLateSubscriber(t *testing.T) {
	j := testJobs(0)
	view := j.Start(context.Background(), "Shop", "out.pdf", report.FormatPDF, func(context.Context, func(report.Progress)) (*report.RunReport, error) {
		return nil, errors.New("boom")
	})
	final := wait(t, j, view.ID)
	assert.Equal(t, StatusFailed, final.Status)
	assert.Equal(t, "boom", final.Error)

	events, unsubscribe, ok := j.Subscribe(view.ID)
	require.True(t, ok)
	unsubscribe()
	_, open := <-events
	assert.False(t, open)

	_, _, ok = j.Subscribe("unknown")
	assert.False(t, ok)
}

func TestJobs_SweepRemovesExpiredOutput(t *testing.T) {
	j := testJobs(time.Hour)
	clock := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }

	out := filepath.Join(t.TempDir(), "old.pdf")
	require.NoError(t, os.WriteFile(out, []byte("%PDF-"), 0644))
	view := j.Start(context.Background(), "Shop", out, report.FormatPDF, func(context.Context, func(report.Progress)) (*report.RunReport, error) {
		return nil, nil
	})
	wait(t, j, view.ID)

	assert.Equal(t, 0, j.Sweep())
	clock = clock.Add(2 * time.Hour)
	assert.Equal(t, 1, j.Sweep())

	_, ok := j.Get(view.ID)
	assert.False(t, ok)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestJobs_Shutdown(t *testing.T) {
	j := testJobs(0)
	for i := 0; i < 3; i++ {
		j.Start(context.Background(), "Shop", "out.pdf", report.FormatPDF, func(ctx context.Context, _ func(report.Progress)) (*report.RunReport, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, j.Shutdown(ctx))
	for _, v := range j.List() {
		assert.Equal(t, StatusFailed, v.Status)
	}
	assert.Len(t, j.List(), 3)
}
