package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"umlpdf/internal/report"
)

const clearLine = "\r\033[K"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// progressLine shows generation progress. On a terminal it rewrites one
// line; elsewhere it prints one line per stage.
type progressLine struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	stage string
}

func newProgressLine(w io.Writer) *progressLine {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &progressLine{w: w, tty: tty}
}

func (p *progressLine) Update(ev report.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.tty {
		if ev.Stage != p.stage {
			fmt.Fprintf(p.w, "  -> %s\n", ev.Stage)
		}
		p.stage = ev.Stage
		return
	}
	p.stage = ev.Stage
	line := fmt.Sprintf("⏳ %s", ev.Stage)
	if ev.Total > 0 {
		line += fmt.Sprintf(" %d/%d", ev.Done, ev.Total)
	}
	if ev.Item != "" {
		line += " " + ev.Item
	}
	fmt.Fprint(p.w, clearLine+line)
}

func (p *progressLine) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty {
		fmt.Fprint(p.w, clearLine)
	}
}
