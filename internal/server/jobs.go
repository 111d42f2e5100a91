package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"umlpdf/internal/report"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Finished reports whether a job in status s will not change any more.
func (s JobStatus) Finished() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// JobView is a snapshot of a job.
type JobView struct {
	ID        string          `json:"id"`
	Model     string          `json:"model"`
	Format    report.Format   `json:"format"`
	Status    JobStatus       `json:"status"`
	Progress  report.Progress `json:"progress"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RunFunc performs the export of one job. It reports progress through
// progress and returns the run report.
type RunFunc func(ctx context.Context, progress func(report.Progress)) (*report.RunReport, error)

type job struct {
	view   JobView
	output string
	report *report.RunReport
	cancel context.CancelFunc
	done   chan struct{}
	subs   map[chan report.Progress]struct{}
}

// Jobs runs exports in the background, one goroutine per job, and fans
// their progress out to subscribers.
type Jobs struct {
	mu        sync.Mutex
	jobs      map[string]*job
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
	wg        sync.WaitGroup
}

const subscriberBuffer = 64

func NewJobs(retention time.Duration, logger *slog.Logger) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{
		jobs:      make(map[string]*job),
		retention: retention,
		log:       logger,
		now:       time.Now,
	}
}

// Start registers a job writing to output and runs fn for it. The job's
// context derives from parent, not from the request that created it.
func (j *Jobs) Start(parent context.Context, modelName, output string, format report.Format, fn RunFunc) JobView {
	ctx, cancel := context.WithCancel(parent)
	now := j.now().UTC()
	jb := &job{
		view: JobView{
			ID:        uuid.NewString(),
			Model:     modelName,
			Format:    format,
			Status:    StatusQueued,
			CreatedAt: now,
			UpdatedAt: now,
		},
		output: output,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[chan report.Progress]struct{}),
	}

	j.mu.Lock()
	j.jobs[jb.view.ID] = jb
	view := jb.view
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run(ctx, jb, fn)
	return view
}

func (j *Jobs) run(ctx context.Context, jb *job, fn RunFunc) {
	defer j.wg.Done()
	defer jb.cancel()

	j.update(jb, func(v *JobView) { v.Status = StatusRunning })
	j.log.Info("export started", "job", jb.view.ID, "model", jb.view.Model)

	rep, err := fn(ctx, func(p report.Progress) { j.publish(jb, p) })

	j.mu.Lock()
	jb.report = rep
	switch {
	case err == nil:
		jb.view.Status = StatusSucceeded
	case errors.Is(err, report.ErrCancelled):
		jb.view.Status = StatusCancelled
	default:
		jb.view.Status = StatusFailed
	}
	if err != nil {
		jb.view.Error = err.Error()
		jb.view.ErrorCode = report.CodeOf(err)
	}
	jb.view.UpdatedAt = j.now().UTC()
	for ch := range jb.subs {
		close(ch)
		delete(jb.subs, ch)
	}
	close(jb.done)
	view := jb.view
	j.mu.Unlock()

	if err != nil {
		j.log.Warn("export finished", "job", view.ID, "status", view.Status, "code", view.ErrorCode, "error", err)
		return
	}
	j.log.Info("export finished", "job", view.ID, "status", view.Status)
}

func (j *Jobs) update(jb *job, fn func(*JobView)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&jb.view)
	jb.view.UpdatedAt = j.now().UTC()
}

// publish records p and hands it to every subscriber whose buffer has room.
func (j *Jobs) publish(jb *job, p report.Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	jb.view.Progress = p
	jb.view.UpdatedAt = j.now().UTC()
	for ch := range jb.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

func (j *Jobs) Get(id string) (JobView, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	jb, ok := j.jobs[id]
	if !ok {
		return JobView{}, false
	}
	return jb.view, true
}

// List returns every known job, oldest first.
func (j *Jobs) List() []JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]JobView, 0, len(j.jobs))
	for _, jb := range j.jobs {
		out = append(out, jb.view)
	}
	sortViews(out)
	return out
}

func sortViews(views []JobView) {
	sort.Slice(views, func(a, b int) bool {
		if views[a].CreatedAt.Equal(views[b].CreatedAt) {
			return views[a].ID < views[b].ID
		}
		return views[a].CreatedAt.Before(views[b].CreatedAt)
	})
}

// Result returns the output path and run report of a finished job.
func (j *Jobs) Result(id string) (string, *report.RunReport, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	jb, ok := j.jobs[id]
	if !ok || !jb.view.Status.Finished() {
		return "", nil, false
	}
	return jb.output, jb.report, true
}

// Cancel asks a running job to stop. It reports false for unknown jobs.
func (j *Jobs) Cancel(id string) bool {
	j.mu.Lock()
	jb, ok := j.jobs[id]
	j.mu.Unlock()
	if ok {
		jb.cancel()
	}
	return ok
}

// Subscribe returns a channel of progress events for job id. The channel is
// closed when the job finishes, at once if it already has.
func (j *Jobs) Subscribe(id string) (<-chan report.Progress, func(), bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	jb, ok := j.jobs[id]
	if !ok {
		return nil, nil, false
	}
	ch := make(chan report.Progress, subscriberBuffer)
	if jb.view.Status.Finished() {
		close(ch)
		return ch, func() {}, true
	}
	jb.subs[ch] = struct{}{}
	unsubscribe := func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if _, ok := jb.subs[ch]; ok {
			delete(jb.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe, true
}

// Wait blocks until job id finishes or ctx ends.
func (j *Jobs) Wait(ctx context.Context, id string) (JobView, error) {
	j.mu.Lock()
	jb, ok := j.jobs[id]
	j.mu.Unlock()
	if !ok {
		return JobView{}, errors.New("unknown job " + id)
	}
	select {
	case <-jb.done:
	case <-ctx.Done():
		return JobView{}, ctx.Err()
	}
	view, _ := j.Get(id)
	return view, nil
}

// Sweep forgets finished jobs older than the retention period and removes
// their output files. It returns how many jobs were dropped.
func (j *Jobs) Sweep() int {
	if j.retention <= 0 {
		return 0
	}
	cutoff := j.now().UTC().Add(-j.retention)
	j.mu.Lock()
	var expired []*job
	for id, jb := range j.jobs {
		if jb.view.Status.Finished() && jb.view.UpdatedAt.Before(cutoff) {
			expired = append(expired, jb)
			delete(j.jobs, id)
		}
	}
	j.mu.Unlock()

	for _, jb := range expired {
		if err := os.Remove(jb.output); err != nil && !os.IsNotExist(err) {
			j.log.Warn("failed to remove export", "job", jb.view.ID, "path", jb.output, "error", err)
		}
	}
	return len(expired)
}

// Shutdown cancels every job and waits for them to stop.
func (j *Jobs) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	for _, jb := range j.jobs {
		jb.cancel()
	}
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
