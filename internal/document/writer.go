package document

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by writers when the destination is held by another
// process.
var ErrLocked = errors.New("output is locked by another process")

// lockOutput takes the lock file next to path without waiting. release
// removes the lock file and unlocks it.
func lockOutput(path string) (release func(), err error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		os.Remove(lock.Path())
		lock.Unlock()
	}, nil
}

type Metadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// TOCEntry is one line of the table of contents. Section identifies the
// target so the writer can resolve its page when it is written.
type TOCEntry struct {
	Title   string
	Number  int
	Depth   int
	Section *Section
}

// Writer turns assembled content into an output format. Calls happen in
// document order; the first failure is sticky and returned by later calls.
type Writer interface {
	Metadata(meta Metadata) error
	Paragraph(p *Paragraph) error
	Label(l *Label) error
	Table(t *Table) error
	Image(img *Image) error
	PageBreak() error

	// OpenSection writes the heading of s. Sections nest: every open is
	// matched by a CloseSection in reverse order.
	OpenSection(s *Section) error
	CloseSection(s *Section) error

	// DeclareAnchor makes anchor point at the current position.
	DeclareAnchor(anchor string) error

	// Contents writes a table of contents whose page numbers are resolved
	// when the listed sections are written.
	Contents(entries []TOCEntry) error

	// PlaceText writes unflowed text centered horizontally, y points above
	// the bottom of the current page.
	PlaceText(text string, y float64, size float64) error

	// ContentBox is the usable width and height of a page in points.
	ContentBox() (float64, float64)
	PageCount() int

	// Close writes the output. Abort releases it without writing and
	// removes anything already created.
	Close() error
	Abort() error
}
