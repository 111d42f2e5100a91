// Package inspect reads generated PDF documents back: page count,
// metadata, outline and page text.
package inspect

import (
	"fmt"
	"io"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Entry is one bookmark of the document outline.
type Entry struct {
	Title    string  `json:"title"`
	Children []Entry `json:"children,omitempty"`
}

type Document struct {
	Path    string   `json:"path"`
	Pages   int      `json:"pages"`
	Title   string   `json:"title,omitempty"`
	Author  string   `json:"author,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Creator string   `json:"creator,omitempty"`
	Outline []Entry  `json:"outline,omitempty"`
	Text    []string `json:"-"`
}

// Read opens the PDF at path and extracts everything Document holds.
func Read(path string) (doc *Document, err error) {
	// the reader panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("failed to read %s: %v", path, r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info := reader.Trailer().Key("Info")
	doc = &Document{
		Path:    path,
		Pages:   reader.NumPage(),
		Title:   info.Key("Title").Text(),
		Author:  info.Key("Author").Text(),
		Subject: info.Key("Subject").Text(),
		Creator: info.Key("Creator").Text(),
		Outline: entries(reader.Outline()),
	}
	for i := 1; i <= doc.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			doc.Text = append(doc.Text, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		doc.Text = append(doc.Text, text)
	}
	return doc, nil
}

func entries(o pdflib.Outline) []Entry {
	var out []Entry
	for _, c := range o.Child {
		out = append(out, Entry{Title: c.Title, Children: entries(c)})
	}
	return out
}

// Titles flattens the outline depth-first.
func (d *Document) Titles() []string {
	var out []string
	var walk func([]Entry)
	walk = func(list []Entry) {
		for _, e := range list {
			out = append(out, e.Title)
			walk(e.Children)
		}
	}
	walk(d.Outline)
	return out
}

// Contains reports whether s occurs in the text of any page. Whitespace is
// ignored since extracted text loses spacing between runs.
func (d *Document) Contains(s string) bool {
	needle := squash(s)
	for _, t := range d.Text {
		if strings.Contains(squash(t), needle) {
			return true
		}
	}
	return false
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Print writes a human-readable summary of d.
func Print(w io.Writer, d *Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "File:    %s\n", d.Path)
	fmt.Fprintf(&b, "Pages:   %d\n", d.Pages)
	for _, kv := range [][2]string{{"Title", d.Title}, {"Author", d.Author}, {"Subject", d.Subject}, {"Creator", d.Creator}} {
		if kv[1] != "" {
			fmt.Fprintf(&b, "%-8s %s\n", kv[0]+":", kv[1])
		}
	}
	if len(d.Outline) > 0 {
		b.WriteString("Outline:\n")
		var walk func([]Entry, int)
		walk = func(list []Entry, depth int) {
			for _, e := range list {
				fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", depth+1), e.Title)
				walk(e.Children, depth+1)
			}
		}
		walk(d.Outline, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
