// Package report assembles the selected parts of a model into a document
// and writes it out.
package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"umlpdf/internal/diagram"
	"umlpdf/internal/document"
	"umlpdf/internal/model"
	"umlpdf/internal/render"
	"umlpdf/internal/selection"
)

// DefaultSubject is the document subject when none is given.
const DefaultSubject = "UML model report"

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts "pdf" and "docx" in any case. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unknown output format %q (want pdf or docx)", s)
}

// FormatFor guesses the format from the output file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return FormatDOCX
	}
	return FormatPDF
}

// OpenWriter creates the writer for format at path.
func OpenWriter(path string, format Format) (document.Writer, error) {
	if format == FormatDOCX {
		return document.NewDOCXWriter(path)
	}
	return document.NewPDFWriter(path)
}

type Options struct {
	Output string
	Format Format
	Title  string
	Author string
	// Subject defaults to DefaultSubject.
	Subject string
	// Logo is an image file drawn on the title page.
	Logo string

	TitlePage       bool
	TableOfContents bool
	Diagrams        bool

	// Progress receives an event at every checkpoint of the run.
	Progress func(Progress)
}

// Progress reports how far a run is. Done and Total count diagrams during
// the render stage.
type Progress struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Item  string `json:"item,omitempty"`
}

// Engine generates documents from one model. It holds no per-run state and
// may serve several runs in sequence or in parallel.
type Engine struct {
	Model    *model.Model
	Diagrams diagram.Renderer
	Logger   *slog.Logger
	// Creator is written to the document metadata, "<tool> <version>".
	Creator string
	// Open creates the output writer; OpenWriter by default.
	Open func(path string, format Format) (document.Writer, error)
}

func NewEngine(m *model.Model, renderer diagram.Renderer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Model:    m,
		Diagrams: renderer,
		Logger:   logger,
		Creator:  "umlpdf",
		Open:     OpenWriter,
	}
}

// Generate writes the selected parts of tree to opts.Output. The result is
// nil or a single *Error.
func (e *Engine) Generate(ctx context.Context, tree *selection.Node, opts Options) error {
	_, err := e.Run(ctx, tree, opts)
	return err
}

// Run is Generate that also returns the run report, for failed runs too.
func (e *Engine) Run(ctx context.Context, tree *selection.Node, opts Options) (*RunReport, error) {
	if opts.Format == "" {
		opts.Format = FormatFor(opts.Output)
	}
	rep := NewRunReport(opts.Output, opts.Format)
	r := &run{engine: e, opts: opts, rep: rep, log: e.Logger}
	err := r.execute(ctx, tree)
	if err != nil {
		rep.Fail(err)
		rep.AddSignal(CodeOf(err), r.stage, "critical", err.Error(), "")
		e.Logger.Error("generation failed", "output", opts.Output, "code", CodeOf(err), "error", err)
	} else {
		e.Logger.Info("generation finished", "output", opts.Output, "chapters", rep.Summary.Chapters, "pages", rep.Summary.Pages)
	}
	rep.Finalize()
	return rep, err
}

// run is the state of one Generate call.
type run struct {
	engine *Engine
	opts   Options
	rep    *RunReport
	log    *slog.Logger

	stage  string
	writer document.Writer
	logo   *document.Raster
	ac     *render.AssemblyContext
	done   int
	total  int
}

func (r *run) progress(item string) {
	if r.opts.Progress != nil {
		r.opts.Progress(Progress{Stage: r.stage, Done: r.done, Total: r.total, Item: item})
	}
}

// step runs one stage and records it in the report.
func (r *run) step(name string, fn func() (map[string]float64, error)) error {
	r.stage = name
	r.log.Debug("stage started", "stage", name)
	h := r.rep.BeginStage(name)
	r.progress("")
	counters, err := fn()
	r.rep.EndStage(h, counters, err)
	r.log.Debug("stage finished", "stage", name, "error", err)
	return err
}

func (r *run) execute(ctx context.Context, tree *selection.Node) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = r.recovered(p)
		}
	}()

	if err := r.step("validate", r.validate); err != nil {
		return err
	}
	if err := r.step("open", r.open); err != nil {
		return err
	}
	if err := r.step("render", func() (map[string]float64, error) { return r.render(ctx, tree) }); err != nil {
		return r.abort(err)
	}
	if err := r.step("write", func() (map[string]float64, error) { return r.write(ctx) }); err != nil {
		return r.abort(err)
	}
	return r.step("close", r.close)
}

func (r *run) validate() (map[string]float64, error) {
	if strings.TrimSpace(r.opts.Output) == "" {
		return nil, configError(CodeOutputPathMissing, "no output path given")
	}
	if r.opts.Logo == "" {
		return nil, nil
	}
	data, err := os.ReadFile(r.opts.Logo)
	if err != nil {
		return nil, newError(KindConfiguration, CodeLogoUndecodable, fmt.Sprintf("cannot read logo %s", r.opts.Logo), err)
	}
	logo, err := document.DecodeRaster(filepath.Base(r.opts.Logo), data)
	if err != nil {
		return nil, newError(KindConfiguration, CodeLogoUndecodable, fmt.Sprintf("logo %s is not an image", r.opts.Logo), err)
	}
	r.logo = logo
	return nil, nil
}

func (r *run) open() (map[string]float64, error) {
	w, err := r.engine.Open(r.opts.Output, r.opts.Format)
	if err != nil {
		return nil, openError(r.opts.Output, err)
	}
	r.writer = w
	subject := r.opts.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	err = w.Metadata(document.Metadata{
		Title:   r.opts.Title,
		Author:  r.opts.Author,
		Subject: subject,
		Creator: r.engine.Creator,
	})
	if err != nil {
		return nil, r.abort(ioError(err))
	}
	return nil, nil
}

func openError(path string, err error) *Error {
	if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
		return newError(KindResource, CodeOutputUnwritable, fmt.Sprintf("output %s is a directory", path), err)
	}
	switch {
	case errors.Is(err, document.ErrLocked):
		return newError(KindResource, CodeOutputLocked, fmt.Sprintf("output %s is open in another program", path), err)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
		return newError(KindResource, CodeOutputUnwritable, fmt.Sprintf("cannot write output %s", path), err)
	}
	return newError(KindResource, CodeOutputIO, fmt.Sprintf("cannot create output %s", path), err)
}

func ioError(err error) *Error {
	return newError(KindResource, CodeOutputIO, "failed to write document", err)
}

func cancelled(err error) *Error {
	return newError(KindCancelled, CodeRunCancelled, "generation cancelled", err)
}

func exhaustion(err error) *Error {
	return newError(KindExhaustion, CodeOutOfMemory, "ran out of memory while generating", err)
}

// abort releases the writer. Exhaustion keeps what was written; anything
// else removes the partial output.
func (r *run) abort(err error) error {
	if r.writer == nil {
		return err
	}
	w := r.writer
	r.writer = nil
	if errors.Is(err, ErrExhaustion) {
		if cerr := w.Close(); cerr != nil {
			r.log.Warn("closing after exhaustion failed", "error", cerr)
			_ = w.Abort()
		}
		return err
	}
	if aerr := w.Abort(); aerr != nil {
		r.log.Warn("failed to remove partial output", "output", r.opts.Output, "error", aerr)
	}
	return err
}

func (r *run) recovered(p any) error {
	perr := render.PanicError(p)
	var err error
	if errors.Is(perr, render.ErrExhausted) {
		err = exhaustion(perr)
	} else {
		err = newError(KindResource, CodeOutputIO, "unexpected failure in stage "+r.stage, perr)
	}
	r.rep.EndStage(r.rep.BeginStage(r.stage), nil, err)
	return r.abort(err)
}

func (r *run) close() (map[string]float64, error) {
	w := r.writer
	r.writer = nil
	pages := w.PageCount()
	if err := w.Close(); err != nil {
		_ = w.Abort()
		return nil, ioError(err)
	}
	r.rep.Summary.Pages = pages
	return map[string]float64{"pages": float64(pages)}, nil
}

// stopError converts the reason a render stopped into a run error.
func stopError(err error) error {
	switch {
	case errors.Is(err, render.ErrExhausted), errors.Is(err, diagram.ErrExhausted):
		return exhaustion(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return cancelled(err)
	}
	return newError(KindRender, CodeRenderFailed, "rendering stopped", err)
}
