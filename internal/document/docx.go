package document

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fumiama/go-docx"
)

// emuPerPoint converts points to the EMU unit used by drawings.
const emuPerPoint = 12700

var iconLetters = map[string]string{
	"Class":       "[C] ",
	"Interface":   "[I] ",
	"Enumeration": "[E] ",
	"Actor":       "[A] ",
	"UseCase":     "[U] ",
}

// DOCXWriter writes an A4 Word document through go-docx. Internal links are
// shown as styled text since the library has no bookmark support, and the
// table of contents lists titles without page numbers.
type DOCXWriter struct {
	doc    *docx.Docx
	path   string
	file   *os.File
	unlock func()
	meta   Metadata
	pages  int
	done   bool
}

var _ Writer = (*DOCXWriter)(nil)

func NewDOCXWriter(path string) (*DOCXWriter, error) {
	unlock, err := lockOutput(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		unlock()
		return nil, err
	}
	return &DOCXWriter{
		doc:    docx.New().WithDefaultTheme().WithA4Page(),
		path:   path,
		file:   f,
		unlock: unlock,
	}, nil
}

// halfPoints is the run size unit of Word.
func halfPoints(size float64) string {
	return strconv.Itoa(int(size * 2))
}

func styleRun(r *docx.Run, s Style) *docx.Run {
	if s&Bold != 0 {
		r.Bold()
	}
	if s&Italic != 0 {
		r.Italic()
	}
	if s&Underline != 0 {
		r.Underline("single")
	}
	return r
}

func (w *DOCXWriter) touch() {
	if w.pages == 0 {
		w.pages = 1
	}
}

// Metadata is kept for the title heading only; go-docx does not expose the
// core properties part.
func (w *DOCXWriter) Metadata(meta Metadata) error {
	w.meta = meta
	return nil
}

func justification(a Align) string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "end"
	}
	return "start"
}

func (w *DOCXWriter) Paragraph(p *Paragraph) error {
	w.touch()
	if p.SpaceBefore > 0 {
		// one empty line per 20 points of spacing
		for i := 0; i < int(p.SpaceBefore/20); i++ {
			w.doc.AddParagraph()
		}
	}
	size := p.Size
	if size == 0 {
		size = bodySize
	}
	para := w.doc.AddParagraph().Justification(justification(p.Align))
	styleRun(para.AddText(p.Text).Size(halfPoints(size)), p.Style)
	return nil
}

func (w *DOCXWriter) Label(l *Label) error {
	w.touch()
	size := l.Size
	if size == 0 {
		size = bodySize + 2
	}
	para := w.doc.AddParagraph()
	if prefix := iconLetters[l.Icon]; prefix != "" {
		para.AddText(prefix).Size(halfPoints(size)).Color("808080")
	}
	run := styleRun(para.AddText(l.Text).Size(halfPoints(size)), l.Style)
	if l.Anchor != "" && !l.Defines {
		run.Color("143CA0").Underline("single")
	}
	return nil
}

func (w *DOCXWriter) fillCell(cell *docx.WTableCell, c Cell, header bool) {
	para := cell.AddParagraph()
	if prefix := iconLetters[c.Icon]; prefix != "" {
		para.AddText(prefix).Color("808080")
	}
	style := c.Style
	if header {
		style |= Bold
		cell.Shade("clear", "auto", "E1E1E1")
	}
	run := styleRun(para.AddText(c.Text).Size(halfPoints(bodySize)), style)
	if c.Link != "" {
		run.Color("143CA0")
	}
}

// Table writes t as one or more Word tables. A row holding a nested table
// ends the current table; the nested one follows it.
func (w *DOCXWriter) Table(t *Table) error {
	w.touch()
	cols := t.Columns()
	if cols == 0 {
		return nil
	}
	var pending []Row
	flush := func() {
		if len(pending) == 0 {
			return
		}
		tbl := w.doc.AddTable(len(pending), cols, 0, nil)
		for i, row := range pending {
			cells := tbl.TableRows[i].TableCells
			used := 0
			for _, c := range row.Cells {
				if used >= len(cells) {
					break
				}
				w.fillCell(cells[used], c, row.Header)
				if c.Span > 1 {
					cells[used].TableCellProperties.GridSpan = &docx.WGridSpan{Val: c.Span}
					drop := c.Span - 1
					if used+1+drop > len(cells) {
						drop = len(cells) - used - 1
					}
					cells = append(cells[:used+1], cells[used+1+drop:]...)
				}
				used++
			}
			for ; used < len(cells); used++ {
				cells[used].AddParagraph()
			}
			tbl.TableRows[i].TableCells = cells
		}
		pending = nil
	}
	for _, row := range t.Rows {
		var nested []*Table
		plain := Row{Header: row.Header}
		for _, c := range row.Cells {
			if c.Nested != nil {
				nested = append(nested, c.Nested)
				continue
			}
			plain.Cells = append(plain.Cells, c)
		}
		if len(plain.Cells) > 0 {
			pending = append(pending, plain)
		}
		if len(nested) > 0 {
			flush()
			for _, n := range nested {
				if err := w.Table(n); err != nil {
					return err
				}
			}
		}
	}
	flush()
	w.doc.AddParagraph()
	return nil
}

func (w *DOCXWriter) Image(img *Image) error {
	if img == nil || img.Raster == nil {
		return nil
	}
	w.touch()
	run, err := w.doc.AddParagraph().AddInlineDrawing(img.Raster.Data)
	if err != nil {
		return fmt.Errorf("failed to embed image %s: %w", img.Raster.Name, err)
	}
	if len(run.Children) > 0 {
		if d, ok := run.Children[0].(*docx.Drawing); ok && d.Inline != nil {
			d.Inline.Size(int64(img.Width*emuPerPoint), int64(img.Height*emuPerPoint))
		}
	}
	return nil
}

func (w *DOCXWriter) PageBreak() error {
	w.doc.AddParagraph().AddPageBreaks()
	w.pages++
	return nil
}

func (w *DOCXWriter) OpenSection(s *Section) error {
	if s.Depth == 0 {
		if w.pages > 0 {
			w.doc.AddParagraph().AddPageBreaks()
		}
		w.pages++
	}
	w.touch()
	if s.Title == "" {
		return nil
	}
	title := s.Title
	if s.Depth == 0 && s.Number > 0 {
		title = fmt.Sprintf("%d. %s", s.Number, s.Title)
	}
	w.doc.AddParagraph().AddText(title).Bold().Size(halfPoints(HeadingSize(s.Depth)))
	return nil
}

func (w *DOCXWriter) CloseSection(*Section) error { return nil }

func (w *DOCXWriter) DeclareAnchor(string) error { return nil }

func (w *DOCXWriter) Contents(entries []TOCEntry) error {
	if w.pages > 0 {
		w.doc.AddParagraph().AddPageBreaks()
	}
	w.pages++
	w.doc.AddParagraph().AddText("Table of Contents").Bold().Size(halfPoints(HeadingSize(1)))
	for _, e := range entries {
		title := e.Title
		if e.Depth == 0 && e.Number > 0 {
			title = fmt.Sprintf("%d. %s", e.Number, e.Title)
		}
		para := w.doc.AddParagraph()
		for i := 0; i < e.Depth; i++ {
			para.AddTab()
		}
		run := para.AddText(title).Size(halfPoints(bodySize + 1))
		if e.Depth == 0 {
			run.Bold()
		}
	}
	return nil
}

// PlaceText has no absolute positioning in Word; the text becomes a
// centered paragraph.
func (w *DOCXWriter) PlaceText(text string, y float64, size float64) error {
	w.touch()
	w.doc.AddParagraph().Justification("center").AddText(text).Size(halfPoints(size))
	return nil
}

func (w *DOCXWriter) ContentBox() (float64, float64) {
	return a4Width - 2*72, a4Height - 2*72
}

// PageCount is an estimate: page breaks and chapters each start a page.
func (w *DOCXWriter) PageCount() int { return w.pages }

func (w *DOCXWriter) Close() error {
	if w.done {
		return fmt.Errorf("docx writer already closed")
	}
	w.done = true
	defer w.unlock()
	_, err := w.doc.WriteTo(w.file)
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(w.path)
		return fmt.Errorf("failed to write docx %s: %w", w.path, err)
	}
	return nil
}

func (w *DOCXWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	defer w.unlock()
	w.file.Close()
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
