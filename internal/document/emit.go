package document

import (
	"context"
	"fmt"
)

type EmitOptions struct {
	// Contents writes a table of contents before the first chapter.
	Contents bool
	// ContentsDepth is the deepest section level listed; chapters are 0.
	ContentsDepth int
}

// DeclaredAnchors collects the anchors defined anywhere in chapters, by
// section anchors and by defining labels.
func DeclaredAnchors(chapters []*Section) map[string]bool {
	declared := make(map[string]bool)
	var visit func(s *Section)
	visit = func(s *Section) {
		if s.Anchor != "" {
			declared[s.Anchor] = true
		}
		for _, f := range s.Content {
			switch v := f.(type) {
			case *Label:
				if v.Defines && v.Anchor != "" {
					declared[v.Anchor] = true
				}
			case *Section:
				visit(v)
			}
		}
	}
	for _, c := range chapters {
		visit(c)
	}
	return declared
}

// ContentsEntries lists chapters and their sections down to maxDepth.
// Untitled sections are listed by their bookmark title.
func ContentsEntries(chapters []*Section, maxDepth int) []TOCEntry {
	var out []TOCEntry
	var visit func(s *Section)
	visit = func(s *Section) {
		if s.Depth > maxDepth {
			return
		}
		title := s.Title
		if title == "" {
			title = s.BookmarkTitle
		}
		if title != "" {
			out = append(out, TOCEntry{Title: title, Number: s.Number, Depth: s.Depth, Section: s})
		}
		for _, sub := range s.Subsections() {
			visit(sub)
		}
	}
	for _, c := range chapters {
		visit(c)
	}
	return out
}

// Emit writes chapters to w in order. Links whose anchor is never declared
// are written as plain text.
func Emit(ctx context.Context, w Writer, chapters []*Section, opts EmitOptions) error {
	declared := DeclaredAnchors(chapters)
	if opts.Contents && len(chapters) > 0 {
		depth := opts.ContentsDepth
		if depth <= 0 {
			depth = 2
		}
		if err := w.Contents(ContentsEntries(chapters, depth)); err != nil {
			return fmt.Errorf("failed to write table of contents: %w", err)
		}
	}
	for _, c := range chapters {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emitSection(w, c, declared); err != nil {
			return fmt.Errorf("failed to write chapter %q: %w", c.Title, err)
		}
	}
	return nil
}

func emitSection(w Writer, s *Section, declared map[string]bool) error {
	if err := w.OpenSection(s); err != nil {
		return err
	}
	if s.Anchor != "" {
		if err := w.DeclareAnchor(s.Anchor); err != nil {
			return err
		}
	}
	for _, f := range s.Content {
		var err error
		switch v := f.(type) {
		case *Paragraph:
			err = w.Paragraph(v)
		case *Label:
			if !v.Defines && !declared[v.Anchor] {
				v.Anchor = ""
			}
			err = w.Label(v)
		case *Table:
			unlink(v, declared)
			err = w.Table(v)
		case *Image:
			err = w.Image(v)
		case PageBreak:
			err = w.PageBreak()
		case *Section:
			err = emitSection(w, v, declared)
		}
		if err != nil {
			return err
		}
	}
	return w.CloseSection(s)
}

func unlink(t *Table, declared map[string]bool) {
	for i := range t.Rows {
		for j := range t.Rows[i].Cells {
			c := &t.Rows[i].Cells[j]
			if c.Link != "" && !declared[c.Link] {
				c.Link = ""
			}
			if c.Nested != nil {
				unlink(c.Nested, declared)
			}
		}
	}
}
