package document

import "fmt"

type OpKind string

const (
	OpMetadata  OpKind = "metadata"
	OpParagraph OpKind = "paragraph"
	OpLabel     OpKind = "label"
	OpTable     OpKind = "table"
	OpImage     OpKind = "image"
	OpPageBreak OpKind = "page_break"
	OpOpen      OpKind = "open"
	OpClose     OpKind = "close"
	OpAnchor    OpKind = "anchor"
	OpContents  OpKind = "contents"
	OpText      OpKind = "text"
)

// Op is one recorded writer call.
type Op struct {
	Kind    OpKind
	Text    string
	Depth   int
	Number  int
	Anchor  string
	Defines bool
	Size    float64
	Y       float64
	Meta    Metadata
	Table   *Table
	Image   *Image
	Section *Section
	Entries []TOCEntry
}

// Recorder is an in-memory Writer that keeps every call. It backs dry runs
// and tests.
type Recorder struct {
	Ops     []Op
	Width   float64
	Height  float64
	Closed  bool
	Aborted bool

	// FailOn makes the recorder return an error for that op kind.
	FailOn OpKind

	pages int
	depth int
}

var _ Writer = (*Recorder)(nil)

// NewRecorder returns a recorder with an A4 content box.
func NewRecorder() *Recorder {
	return &Recorder{Width: a4Width - 2*pageMargin, Height: a4Height - 2*pageMargin}
}

func (r *Recorder) record(op Op) error {
	if r.Closed || r.Aborted {
		return fmt.Errorf("writer is closed")
	}
	if r.FailOn != "" && op.Kind == r.FailOn {
		return fmt.Errorf("recorder: %s failed", op.Kind)
	}
	switch op.Kind {
	case OpParagraph, OpLabel, OpTable, OpImage, OpText:
		if r.pages == 0 {
			r.pages = 1
		}
	}
	r.Ops = append(r.Ops, op)
	return nil
}

func (r *Recorder) Metadata(meta Metadata) error {
	return r.record(Op{Kind: OpMetadata, Meta: meta})
}

func (r *Recorder) Paragraph(p *Paragraph) error {
	return r.record(Op{Kind: OpParagraph, Text: p.Text, Size: p.Size, Y: p.SpaceBefore})
}

func (r *Recorder) Label(l *Label) error {
	return r.record(Op{Kind: OpLabel, Text: l.Text, Anchor: l.Anchor, Defines: l.Defines})
}

func (r *Recorder) Table(t *Table) error {
	return r.record(Op{Kind: OpTable, Table: t})
}

func (r *Recorder) Image(img *Image) error {
	return r.record(Op{Kind: OpImage, Image: img, Text: img.Raster.Name})
}

func (r *Recorder) PageBreak() error {
	if err := r.record(Op{Kind: OpPageBreak}); err != nil {
		return err
	}
	r.pages++
	return nil
}

func (r *Recorder) OpenSection(s *Section) error {
	if err := r.record(Op{Kind: OpOpen, Text: s.Title, Depth: s.Depth, Number: s.Number, Section: s}); err != nil {
		return err
	}
	if s.Depth == 0 {
		r.pages++
	}
	r.depth++
	return nil
}

func (r *Recorder) CloseSection(s *Section) error {
	r.depth--
	return r.record(Op{Kind: OpClose, Text: s.Title, Depth: s.Depth})
}

func (r *Recorder) DeclareAnchor(anchor string) error {
	return r.record(Op{Kind: OpAnchor, Anchor: anchor, Defines: true})
}

func (r *Recorder) Contents(entries []TOCEntry) error {
	if err := r.record(Op{Kind: OpContents, Entries: entries}); err != nil {
		return err
	}
	r.pages++
	return nil
}

func (r *Recorder) PlaceText(text string, y float64, size float64) error {
	return r.record(Op{Kind: OpText, Text: text, Y: y, Size: size})
}

func (r *Recorder) ContentBox() (float64, float64) { return r.Width, r.Height }

func (r *Recorder) PageCount() int { return r.pages }

func (r *Recorder) Close() error {
	if r.Closed {
		return fmt.Errorf("writer already closed")
	}
	r.Closed = true
	return nil
}

func (r *Recorder) Abort() error {
	r.Aborted = true
	return nil
}

// Find returns the recorded ops of the given kind.
func (r *Recorder) Find(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Chapters returns the open ops of depth 0 sections.
func (r *Recorder) Chapters() []Op {
	var out []Op
	for _, op := range r.Find(OpOpen) {
		if op.Depth == 0 {
			out = append(out, op)
		}
	}
	return out
}

// Tables returns the recorded tables in order.
func (r *Recorder) Tables() []*Table {
	var out []*Table
	for _, op := range r.Find(OpTable) {
		out = append(out, op.Table)
	}
	return out
}
