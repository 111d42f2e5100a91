package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"umlpdf/internal/diagram"
	"umlpdf/internal/document"
	"umlpdf/internal/model"
	"umlpdf/internal/xref"
)

// ErrExhausted marks a run stopped because memory or another hard limit ran
// out while rendering.
var ErrExhausted = errors.New("resources exhausted")

type Options struct {
	// Diagrams embeds diagram rasters. Without it images and the page
	// breaks that follow them are left out.
	Diagrams bool
}

// Signal records a fragment that could not be rendered. The run goes on.
type Signal struct {
	Entity  string `json:"entity"`
	Kind    string `json:"kind"`
	Part    string `json:"part"`
	Message string `json:"message"`
}

// AssemblyContext carries the state of one generation run: the chapter
// counter, the collaborators and the render failures seen so far.
type AssemblyContext struct {
	Ctx      context.Context
	Model    *model.Model
	Facade   model.Facade
	Refs     *xref.Resolver
	Diagrams diagram.Renderer
	Logger   *slog.Logger
	Options  Options

	// BoxWidth and BoxHeight bound embedded images, in points.
	BoxWidth  float64
	BoxHeight float64

	// Contents lists what to render inside a package, in order. Nil means
	// every owned class diagram, mixed diagram and subpackage.
	Contents func(p *model.Package) []model.Entity

	// OnDiagram is called before each diagram is rendered.
	OnDiagram func(d *model.Diagram)

	chapter  int
	chapters []*document.Section
	signals  []Signal
	err      error
}

// NewContext prepares a context for one run over m. The model is also the
// facade; box is the writer's content box.
func NewContext(ctx context.Context, m *model.Model, renderer diagram.Renderer, boxW, boxH float64, opts Options, logger *slog.Logger) *AssemblyContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssemblyContext{
		Ctx:       ctx,
		Model:     m,
		Facade:    m,
		Refs:      xref.New(),
		Diagrams:  renderer,
		Logger:    logger,
		Options:   opts,
		BoxWidth:  boxW,
		BoxHeight: boxH,
	}
}

// NewChapter creates the next numbered chapter and appends it to the
// document.
func (ac *AssemblyContext) NewChapter(title string) *document.Section {
	ch := document.NewChapter(title, 0)
	ac.Attach(ch)
	return ch
}

// Attach numbers a chapter built elsewhere and appends it. Numbers are only
// handed out here, so a discarded draft never leaves a gap.
func (ac *AssemblyContext) Attach(ch *document.Section) {
	ac.chapter++
	ch.Number = ac.chapter
	ch.Depth = 0
	ac.chapters = append(ac.chapters, ch)
}

func (ac *AssemblyContext) Chapters() []*document.Section { return ac.chapters }

// ChapterCount is the number of chapters handed out so far.
func (ac *AssemblyContext) ChapterCount() int { return ac.chapter }

func (ac *AssemblyContext) Signals() []Signal { return ac.signals }

// Err is the error that stopped the run: cancellation or exhaustion.
// Renderers stop adding content once it is set.
func (ac *AssemblyContext) Err() error { return ac.err }

func (ac *AssemblyContext) stop(err error) {
	if ac.err == nil {
		ac.err = err
	}
}

// open returns a chapter titled title when parent is nil and a subsection
// of parent otherwise.
func (ac *AssemblyContext) open(parent *document.Section, title string) *document.Section {
	if parent == nil {
		return ac.NewChapter(title)
	}
	return parent.AddSubsection(title)
}

// Fail records a render failure of part of e.
func (ac *AssemblyContext) Fail(e model.Entity, part string, err error) {
	s := Signal{Part: part, Message: err.Error()}
	if e != nil {
		s.Entity = model.DisplayName(e)
		s.Kind = string(e.Kind())
	}
	ac.signals = append(ac.signals, s)
	ac.Logger.Warn("render error", "entity", s.Entity, "kind", s.Kind, "part", part, "error", err)
}

// guard runs fn and turns a panic into a render failure. Exhaustion stops
// the run instead.
func (ac *AssemblyContext) guard(e model.Entity, part string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := PanicError(r)
			if errors.Is(err, ErrExhausted) {
				ac.stop(err)
				return
			}
			ac.Fail(e, part, err)
		}
	}()
	fn()
}

// PanicError converts a recovered value into an error. Runtime failures
// that signal memory exhaustion wrap ErrExhausted.
func PanicError(r any) error {
	switch v := r.(type) {
	case runtime.Error:
		if exhausted(v.Error()) {
			return fmt.Errorf("%w: %v", ErrExhausted, v)
		}
		return fmt.Errorf("panic: %w", v)
	case error:
		if errors.Is(v, diagram.ErrExhausted) {
			return fmt.Errorf("%w: %v", ErrExhausted, v)
		}
		return fmt.Errorf("panic: %w", v)
	}
	return fmt.Errorf("panic: %v", r)
}

func exhausted(msg string) bool {
	for _, s := range []string{"out of memory", "len out of range", "cap out of range"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// checkpoint reports whether rendering may continue with d. It notifies
// OnDiagram and records cancellation.
func (ac *AssemblyContext) checkpoint(d *model.Diagram) bool {
	if ac.err != nil {
		return false
	}
	if ac.Ctx != nil {
		if err := ac.Ctx.Err(); err != nil {
			ac.stop(err)
			return false
		}
	}
	if ac.OnDiagram != nil && d != nil {
		ac.OnDiagram(d)
	}
	return true
}

// raster asks the diagram renderer for d. Failures are recorded and give no
// image.
func (ac *AssemblyContext) raster(d *model.Diagram) *document.Raster {
	if !ac.Options.Diagrams || ac.Diagrams == nil {
		return nil
	}
	ctx := ac.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := ac.Diagrams.Render(ctx, d)
	switch {
	case errors.Is(err, diagram.ErrExhausted):
		ac.stop(fmt.Errorf("%w: %v", ErrExhausted, err))
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ac.stop(err)
		return nil
	case err != nil:
		ac.Fail(d, "image", err)
		return nil
	}
	return r
}

// embed adds the image of d to s followed by a page break. Nothing is added
// when diagrams are off or d has no image.
func (ac *AssemblyContext) embed(s *document.Section, d *model.Diagram) bool {
	r := ac.raster(d)
	if r == nil {
		return false
	}
	s.Add(document.FitImage(r, ac.BoxWidth, ac.BoxHeight), document.PageBreak{})
	return true
}
