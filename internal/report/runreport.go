package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"umlpdf/internal/xref"
)

// Signal codes besides the error codes.
const (
	SignalUnresolvedReference = "UNRESOLVED_REFERENCE"
	SignalEmptyDocument       = "EMPTY_DOCUMENT"
)

type Signal struct {
	Code     string `json:"code"`
	Stage    string `json:"stage"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Entity   string `json:"entity,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type Summary struct {
	Outcome           string         `json:"outcome"`
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	Chapters          int            `json:"chapters"`
	Pages             int            `json:"pages"`
	Diagrams          int            `json:"diagrams"`
	Anchors           xref.Stats     `json:"anchors"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// RunReport describes one generation run: how long each stage took, what
// could not be rendered and how it ended.
type RunReport struct {
	Version     string        `json:"version"`
	Output      string        `json:"output"`
	Format      Format        `json:"format"`
	GeneratedAt string        `json:"generated_at"`
	Stages      []StageMetric `json:"stages"`
	Signals     []Signal      `json:"signals,omitempty"`
	Error       string        `json:"error,omitempty"`
	ErrorCode   string        `json:"error_code,omitempty"`
	Summary     Summary       `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func NewRunReport(output string, format Format) *RunReport {
	return &RunReport{
		Version:     "v1",
		Output:      output,
		Format:      format,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stages:      []StageMetric{},
		Signals:     []Signal{},
	}
}

func (r *RunReport) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *RunReport) EndStage(h StageHandle, counters map[string]float64, err error) {
	if r == nil || h.name == "" {
		return
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     "ok",
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
	}
	if err != nil {
		m.Status = "error"
		m.Error = err.Error()
	}
	r.Stages = append(r.Stages, m)
}

func (r *RunReport) AddSignal(code, stage, severity, message, entity string) {
	if r == nil {
		return
	}
	s := Signal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Entity:   strings.TrimSpace(entity),
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

// Fail records the error that ended the run.
func (r *RunReport) Fail(err error) {
	if r == nil || err == nil {
		return
	}
	r.Error = err.Error()
	r.ErrorCode = CodeOf(err)
}

// Finalize orders signals by severity and computes the summary.
func (r *RunReport) Finalize() {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	severityCount := map[string]int{
		"critical": 0,
		"warning":  0,
		"info":     0,
	}
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi := signalPriority(r.Signals[i].Severity)
		pj := signalPriority(r.Signals[j].Severity)
		if pi == pj {
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}
	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	r.Summary.StageCount = len(r.Stages)
	r.Summary.FailedStages = failed
	r.Summary.SignalsBySeverity = severityCount
	switch {
	case r.ErrorCode == CodeRunCancelled:
		r.Summary.Outcome = "cancelled"
	case r.Error != "":
		r.Summary.Outcome = "failed"
	default:
		r.Summary.Outcome = "ok"
	}
}

func (r *RunReport) Save(path string) error {
	if r == nil {
		return nil
	}
	r.Finalize()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func cleanCounters(raw map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func signalPriority(severity string) int {
	switch severity {
	case "critical":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}
