package document

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	a4Width    = 595.28
	a4Height   = 841.89
	pageMargin = 36
	bodySize   = 10
	cellPad    = 3
	iconSize   = 9
)

type tocSlot struct {
	link     int
	alias    string
	resolved bool
}

// PDFWriter writes A4 portrait PDF through gofpdf. All units are points.
type PDFWriter struct {
	pdf    *gofpdf.Fpdf
	path   string
	file   *os.File
	unlock func()
	tr     func(string) string

	links  map[string]int
	toc    map[*Section]*tocSlot
	images int
	level  int
	done   bool
}

var _ Writer = (*PDFWriter)(nil)

// NewPDFWriter creates path and prepares an empty document. The file is
// held open and locked until Close or Abort.
func NewPDFWriter(path string) (*PDFWriter, error) {
	unlock, err := lockOutput(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		unlock()
		return nil, err
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCellMargin(cellPad)
	pdf.SetFont("Helvetica", "", bodySize)

	return &PDFWriter{
		pdf:    pdf,
		path:   path,
		file:   f,
		unlock: unlock,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		links:  make(map[string]int),
		toc:    make(map[*Section]*tocSlot),
		level:  -1,
	}, nil
}

func (w *PDFWriter) ensurePage() {
	if w.pdf.PageNo() == 0 {
		w.pdf.AddPage()
	}
}

func (w *PDFWriter) link(anchor string) int {
	if id, ok := w.links[anchor]; ok {
		return id
	}
	id := w.pdf.AddLink()
	w.links[anchor] = id
	return id
}

func fontStyle(s Style) string {
	var b strings.Builder
	if s&Bold != 0 {
		b.WriteString("B")
	}
	if s&Italic != 0 {
		b.WriteString("I")
	}
	if s&Underline != 0 {
		b.WriteString("U")
	}
	return b.String()
}

func alignStr(a Align) string {
	switch a {
	case AlignCenter:
		return "C"
	case AlignRight:
		return "R"
	}
	return "L"
}

func (w *PDFWriter) bottom() float64 {
	_, h := w.pdf.GetPageSize()
	_, _, _, b := w.pdf.GetMargins()
	return h - b
}

// room starts a new page unless h points fit below the cursor.
func (w *PDFWriter) room(h float64) {
	_, top, _, _ := w.pdf.GetMargins()
	if w.pdf.GetY()+h > w.bottom() && w.pdf.GetY() > top {
		w.pdf.AddPage()
	}
}

func (w *PDFWriter) Metadata(meta Metadata) error {
	w.pdf.SetTitle(meta.Title, true)
	w.pdf.SetAuthor(meta.Author, true)
	w.pdf.SetSubject(meta.Subject, true)
	w.pdf.SetCreator(meta.Creator, true)
	w.pdf.SetCreationDate(time.Now())
	return w.pdf.Error()
}

func (w *PDFWriter) Paragraph(p *Paragraph) error {
	w.ensurePage()
	size := p.Size
	if size == 0 {
		size = bodySize
	}
	if p.SpaceBefore > 0 {
		w.pdf.Ln(p.SpaceBefore)
	}
	w.pdf.SetFont("Helvetica", fontStyle(p.Style), size)
	w.pdf.MultiCell(0, size*1.3, w.tr(p.Text), "", alignStr(p.Align), false)
	return w.pdf.Error()
}

var iconColors = map[string][3]int{
	"Class":       {242, 196, 72},
	"Interface":   {120, 170, 220},
	"Enumeration": {150, 200, 120},
	"Actor":       {220, 140, 110},
	"UseCase":     {170, 140, 210},
}

// drawIcon paints a small colored box with the first letter of the icon
// name at x, y and returns the horizontal space it takes.
func (w *PDFWriter) drawIcon(icon string, x, y float64) float64 {
	if icon == "" {
		return 0
	}
	c, ok := iconColors[icon]
	if !ok {
		c = [3]int{200, 200, 200}
	}
	w.pdf.SetFillColor(c[0], c[1], c[2])
	w.pdf.SetDrawColor(90, 90, 90)
	w.pdf.Rect(x, y, iconSize, iconSize, "FD")
	w.pdf.SetFont("Helvetica", "B", 7)
	w.pdf.SetTextColor(255, 255, 255)
	w.pdf.Text(x+(iconSize-w.pdf.GetStringWidth(icon[:1]))/2, y+iconSize-2, icon[:1])
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.SetDrawColor(0, 0, 0)
	return iconSize + 3
}

func (w *PDFWriter) Label(l *Label) error {
	w.ensurePage()
	size := l.Size
	if size == 0 {
		size = bodySize + 2
	}
	h := size * 1.4
	w.room(h)
	x, y := w.pdf.GetX(), w.pdf.GetY()
	offset := w.drawIcon(l.Icon, x, y+(h-iconSize)/2)

	link := 0
	if l.Anchor != "" {
		if l.Defines {
			w.pdf.SetLink(w.link(l.Anchor), y, -1)
		} else {
			link = w.link(l.Anchor)
			w.pdf.SetTextColor(20, 60, 160)
		}
	}
	w.pdf.SetFont("Helvetica", fontStyle(l.Style), size)
	w.pdf.SetXY(x+offset, y)
	w.pdf.CellFormat(0, h, w.tr(l.Text), "", 1, "L", false, link, "")
	w.pdf.SetTextColor(0, 0, 0)
	return w.pdf.Error()
}

func (w *PDFWriter) contentWidth() float64 {
	pw, _ := w.pdf.GetPageSize()
	l, _, r, _ := w.pdf.GetMargins()
	return pw - l - r
}

func (w *PDFWriter) Table(t *Table) error {
	w.ensurePage()
	l, _, _, _ := w.pdf.GetMargins()
	w.table(t, l, w.contentWidth())
	w.pdf.Ln(6)
	return w.pdf.Error()
}

func columnWidths(t *Table, width float64) []float64 {
	n := t.Columns()
	if n == 0 {
		return nil
	}
	weights := t.Widths
	if len(weights) != n {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}
	total := 0.0
	for _, wt := range weights {
		total += wt
	}
	out := make([]float64, n)
	for i, wt := range weights {
		out[i] = width * wt / total
	}
	return out
}

// table draws t at x with the given width. Nested tables are drawn as an
// indented block below the row that holds them.
func (w *PDFWriter) table(t *Table, x, width float64) {
	cols := columnWidths(t, width)
	lh := bodySize * 1.3
	for _, row := range t.Rows {
		type placed struct {
			cell  Cell
			x, w  float64
			lines []string
		}
		var cells []placed
		var nested []*Table
		cx, col := x, 0
		for _, c := range row.Cells {
			if c.Nested != nil {
				nested = append(nested, c.Nested)
				continue
			}
			span := c.Span
			if span <= 0 {
				span = 1
			}
			cw := 0.0
			for i := col; i < col+span && i < len(cols); i++ {
				cw += cols[i]
			}
			col += span
			textW := cw - 2*cellPad
			if c.Icon != "" {
				textW -= iconSize + 3
			}
			w.pdf.SetFont("Helvetica", fontStyle(c.Style|headerStyle(row)), bodySize)
			lines := w.wrap(c.Text, textW)
			cells = append(cells, placed{cell: c, x: cx, w: cw, lines: lines})
			cx += cw
		}
		if len(cells) > 0 {
			h := 0.0
			for _, p := range cells {
				if ch := float64(len(p.lines))*lh + 2*cellPad; ch > h {
					h = ch
				}
			}
			w.room(h)
			y := w.pdf.GetY()
			for _, p := range cells {
				style := "D"
				if row.Header {
					w.pdf.SetFillColor(225, 225, 225)
					style = "FD"
				}
				w.pdf.Rect(p.x, y, p.w, h, style)
				tx := p.x + cellPad
				tx += w.drawIcon(p.cell.Icon, tx, y+cellPad+(lh-iconSize)/2)
				link := 0
				if p.cell.Link != "" {
					link = w.link(p.cell.Link)
					w.pdf.SetTextColor(20, 60, 160)
				}
				w.pdf.SetFont("Helvetica", fontStyle(p.cell.Style|headerStyle(row)), bodySize)
				for i, line := range p.lines {
					w.pdf.SetXY(tx-cellPad, y+cellPad+float64(i)*lh)
					w.pdf.CellFormat(p.w-(tx-p.x), lh, line, "", 0, "L", false, link, "")
				}
				w.pdf.SetTextColor(0, 0, 0)
			}
			w.pdf.SetXY(x, y+h)
		}
		for _, n := range nested {
			w.table(n, x+12, width-12)
		}
	}
}

// wrap breaks text into translated lines no wider than width in the current
// font. Explicit newlines are kept and words longer than a line are cut.
func (w *PDFWriter) wrap(text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if w.pdf.GetStringWidth(w.tr(candidate)) <= width || line == "" && len([]rune(word)) == 1 {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, w.tr(line))
				line = ""
			}
			for w.pdf.GetStringWidth(w.tr(word)) > width && len([]rune(word)) > 1 {
				r := []rune(word)
				n := len(r) - 1
				for n > 1 && w.pdf.GetStringWidth(w.tr(string(r[:n]))) > width {
					n--
				}
				lines = append(lines, w.tr(string(r[:n])))
				word = string(r[n:])
			}
			line = word
		}
		lines = append(lines, w.tr(line))
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

func headerStyle(r Row) Style {
	if r.Header {
		return Bold
	}
	return 0
}

func (w *PDFWriter) Image(img *Image) error {
	if img == nil || img.Raster == nil {
		return nil
	}
	w.ensurePage()
	w.room(img.Height)
	w.images++
	name := fmt.Sprintf("img%d_%s", w.images, img.Raster.Name)
	opts := gofpdf.ImageOptions{ImageType: imageType(img.Raster.Format)}
	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Raster.Data))
	l, _, _, _ := w.pdf.GetMargins()
	y := w.pdf.GetY()
	w.pdf.ImageOptions(name, l, y, img.Width, img.Height, false, opts, 0, "")
	w.pdf.SetXY(l, y+img.Height+6)
	return w.pdf.Error()
}

func imageType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "JPG"
	case "gif":
		return "GIF"
	}
	return "PNG"
}

func (w *PDFWriter) PageBreak() error {
	w.pdf.AddPage()
	return w.pdf.Error()
}

func (w *PDFWriter) OpenSection(s *Section) error {
	if s.Depth == 0 {
		w.pdf.AddPage()
	} else {
		w.ensurePage()
	}
	size := HeadingSize(s.Depth)
	if s.Title != "" {
		w.room(size * 2.5)
		w.pdf.Ln(size * 0.4)
	}

	if slot, ok := w.toc[s]; ok {
		w.pdf.SetLink(slot.link, w.pdf.GetY(), -1)
		w.pdf.RegisterAlias(slot.alias, strconv.Itoa(w.pdf.PageNo()))
		slot.resolved = true
	}
	bookmark := s.BookmarkTitle
	if bookmark == "" {
		bookmark = s.Title
	}
	if bookmark != "" {
		w.bookmark(bookmark, s.Depth)
	}

	// untitled sections only carry a bookmark
	if s.Title == "" {
		return w.pdf.Error()
	}
	title := s.Title
	if s.Depth == 0 && s.Number > 0 {
		title = fmt.Sprintf("%d. %s", s.Number, s.Title)
	}
	w.pdf.SetFont("Helvetica", "B", size)
	w.pdf.MultiCell(0, size*1.2, w.tr(title), "", "L", false)
	w.pdf.Ln(size * 0.3)
	w.pdf.SetFont("Helvetica", "", bodySize)
	return w.pdf.Error()
}

// bookmark adds an outline entry. Outline levels may only grow by one, so a
// section below an unlisted parent is attached one level deeper than the
// last entry.
func (w *PDFWriter) bookmark(text string, depth int) {
	if depth > w.level+1 {
		depth = w.level + 1
	}
	w.level = depth
	w.pdf.Bookmark(w.tr(text), depth, -1)
}

func (w *PDFWriter) CloseSection(s *Section) error {
	return w.pdf.Error()
}

func (w *PDFWriter) DeclareAnchor(anchor string) error {
	w.ensurePage()
	w.pdf.SetLink(w.link(anchor), w.pdf.GetY(), -1)
	return w.pdf.Error()
}

// Contents writes the listing with page placeholders that are replaced by
// the real page numbers when the sections are opened.
func (w *PDFWriter) Contents(entries []TOCEntry) error {
	w.pdf.AddPage()
	w.bookmark("Table of Contents", 0)
	w.pdf.SetFont("Helvetica", "B", HeadingSize(1))
	w.pdf.MultiCell(0, HeadingSize(1)*1.2, "Table of Contents", "", "L", false)
	w.pdf.Ln(8)

	lh := bodySize * 1.6
	width := w.contentWidth()
	l, _, _, _ := w.pdf.GetMargins()
	for i, e := range entries {
		slot := &tocSlot{link: w.pdf.AddLink(), alias: fmt.Sprintf("{toc%04d}", i)}
		w.toc[e.Section] = slot

		title := e.Title
		if e.Depth == 0 && e.Number > 0 {
			title = fmt.Sprintf("%d. %s", e.Number, e.Title)
		}
		style := ""
		if e.Depth == 0 {
			style = "B"
		}
		indent := float64(e.Depth) * 14
		w.room(lh)
		w.pdf.SetFont("Helvetica", style, bodySize+1-float64(e.Depth))
		w.pdf.SetX(l + indent)
		w.pdf.CellFormat(width-indent-50, lh, w.tr(title), "", 0, "L", false, slot.link, "")
		w.pdf.CellFormat(50, lh, slot.alias, "", 1, "R", false, slot.link, "")
	}
	w.pdf.SetFont("Helvetica", "", bodySize)
	return w.pdf.Error()
}

func (w *PDFWriter) PlaceText(text string, y float64, size float64) error {
	w.ensurePage()
	pw, ph := w.pdf.GetPageSize()
	w.pdf.SetFont("Helvetica", "", size)
	t := w.tr(text)
	w.pdf.Text((pw-w.pdf.GetStringWidth(t))/2, ph-y, t)
	w.pdf.SetFont("Helvetica", "", bodySize)
	return w.pdf.Error()
}

func (w *PDFWriter) ContentBox() (float64, float64) {
	pw, ph := w.pdf.GetPageSize()
	l, t, r, b := w.pdf.GetMargins()
	return pw - l - r, ph - t - b
}

func (w *PDFWriter) PageCount() int { return w.pdf.PageCount() }

// Close renders the document into the output file. On failure the partial
// file is removed.
func (w *PDFWriter) Close() error {
	if w.done {
		return fmt.Errorf("pdf writer already closed")
	}
	w.done = true
	defer w.unlock()
	for _, slot := range w.toc {
		if !slot.resolved {
			w.pdf.RegisterAlias(slot.alias, "")
		}
	}
	err := w.pdf.Output(w.file)
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(w.path)
		return fmt.Errorf("failed to write pdf %s: %w", w.path, err)
	}
	return nil
}

func (w *PDFWriter) Abort() error {
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
