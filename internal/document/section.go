package document

// Fragment is one content item of a section: *Paragraph, *Label, *Table,
// *Image, PageBreak or *Section.
type Fragment interface {
	fragment()
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Style flags for text runs.
type Style uint8

const (
	Bold Style = 1 << iota
	Italic
	Underline
)

type Paragraph struct {
	Text string
	// Size is the font size in points; zero means body text.
	Size  float64
	Style Style
	Align Align
	// SpaceBefore is extra vertical space in points.
	SpaceBefore float64
}

// Label is an icon followed by a name. A label either defines an anchor
// (the target of links) or links to one.
type Label struct {
	Icon    string
	Text    string
	Anchor  string
	Defines bool
	Style   Style
	Size    float64
}

// Cell is a table cell. Link makes the text a reference to an anchor.
// A cell with Nested holds a whole table instead of text.
type Cell struct {
	Icon   string
	Text   string
	Link   string
	Style  Style
	Span   int
	Nested *Table
}

type Row struct {
	Cells []Cell
	// Header rows are shaded.
	Header bool
}

// Table is a grid of cells. Widths are relative column weights.
type Table struct {
	Widths []float64
	Rows   []Row
}

// Image is a raster scaled to Width x Height points.
type Image struct {
	Raster *Raster
	Width  float64
	Height float64
}

// PageBreak forces the next content onto a new page.
type PageBreak struct{}

func (*Paragraph) fragment() {}
func (*Label) fragment() {}
func (*Table) fragment() {}
func (*Image) fragment() {}
func (PageBreak) fragment() {}
func (*Section) fragment() {}

// Section is a titled block of content. Depth 0 sections are chapters and
// carry a number.
type Section struct {
	Title         string
	BookmarkTitle string
	Depth         int
	Number        int
	Anchor        string
	Content       []Fragment
	Parent        *Section
}

// NewChapter creates a depth 0 section numbered n.
func NewChapter(title string, n int) *Section {
	return &Section{Title: title, BookmarkTitle: title, Number: n}
}

// AddSubsection appends a section one level below s.
func (s *Section) AddSubsection(title string) *Section {
	sub := &Section{Title: title, BookmarkTitle: title, Depth: s.Depth + 1, Parent: s}
	s.Content = append(s.Content, sub)
	return sub
}

func (s *Section) Add(f ...Fragment) {
	for _, x := range f {
		if sub, ok := x.(*Section); ok {
			sub.Parent = s
		}
		s.Content = append(s.Content, x)
	}
}

// Remove deletes f from the direct content of s.
func (s *Section) Remove(f Fragment) {
	for i, x := range s.Content {
		if x == f {
			s.Content = append(s.Content[:i], s.Content[i+1:]...)
			return
		}
	}
}

// Empty reports whether s has no content.
func (s *Section) Empty() bool { return len(s.Content) == 0 }

// Subsections returns the direct child sections of s.
func (s *Section) Subsections() []*Section {
	var out []*Section
	for _, f := range s.Content {
		if sub, ok := f.(*Section); ok {
			out = append(out, sub)
		}
	}
	return out
}

// HeadingSize is the title font size for a section at depth.
func HeadingSize(depth int) float64 {
	switch depth {
	case 0:
		return 25
	case 1:
		return 20
	case 2:
		return 18
	case 3:
		return 16
	case 4:
		return 14
	}
	return 12
}

// NewTable builds a table with one header row.
func NewTable(widths []float64, header ...string) *Table {
	t := &Table{Widths: widths}
	if len(header) > 0 {
		row := Row{Header: true}
		for _, h := range header {
			row.Cells = append(row.Cells, Cell{Text: h, Style: Bold})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// HeaderRow appends a single shaded cell spanning every column.
func (t *Table) HeaderRow(text string) {
	t.Rows = append(t.Rows, Row{Header: true, Cells: []Cell{{Text: text, Style: Bold, Span: t.Columns()}}})
}

func (t *Table) AddRow(cells ...Cell) {
	t.Rows = append(t.Rows, Row{Cells: cells})
}

// Columns is the number of columns.
func (t *Table) Columns() int {
	if len(t.Widths) > 0 {
		return len(t.Widths)
	}
	n := 0
	for _, r := range t.Rows {
		if len(r.Cells) > n {
			n = len(r.Cells)
		}
	}
	return n
}

// DataRows counts the rows that are not headers.
func (t *Table) DataRows() int {
	n := 0
	for _, r := range t.Rows {
		if !r.Header {
			n++
		}
	}
	return n
}

// Text is a plain cell.
func Text(s string) Cell { return Cell{Text: s} }
