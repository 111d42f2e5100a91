package report

import (
	"context"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
	"umlpdf/internal/render"
	"umlpdf/internal/selection"
)

const (
	titleSize      = 25
	titleSpacing   = 200
	authorY        = 100
	authorSize     = 12
	contentsDepth  = 2
	minTitleMargin = 10
)

// render builds the chapters of every selected top-level group in tree
// order. The first selected top-level package opens a chapter; later ones
// become its subsections. Groups that end up empty get no chapter.
func (r *run) render(ctx context.Context, tree *selection.Node) (map[string]float64, error) {
	boxW, boxH := r.writer.ContentBox()
	ac := render.NewContext(ctx, r.engine.Model, r.engine.Diagrams, boxW, boxH, render.Options{Diagrams: r.opts.Diagrams}, r.log)
	r.ac = ac

	packages := packageNodes(tree)
	ac.Contents = func(p *model.Package) []model.Entity {
		n, ok := packages[p]
		if !ok {
			return nil
		}
		return selectedEntities(n)
	}
	r.total = countDiagrams(tree)
	ac.OnDiagram = func(d *model.Diagram) {
		r.done++
		r.progress(model.DisplayName(d))
	}

	if tree != nil && tree.IsSelected() {
		// Top-level packages are contiguous in the tree. The chapter of the
		// first one collects the others and is numbered only when the run
		// of packages ends with something in it.
		var packageChapter *document.Section
		flush := func() {
			if packageChapter != nil && !packageChapter.Empty() {
				ac.Attach(packageChapter)
			}
			packageChapter = nil
		}
		for _, n := range tree.Children {
			if !n.IsSelected() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return r.renderCounters(), stopError(err)
			}
			if _, ok := n.Entity.(*model.Package); !ok {
				flush()
			}
			switch v := n.Entity.(type) {
			case selection.UseCaseGroup:
				render.UseCases(ac, selectedDiagrams(n))
			case *model.Package:
				if packageChapter == nil {
					packageChapter = render.PackageDraft(ac, v)
				} else if sub := render.Render(ac, v, packageChapter); sub != nil && sub.Empty() {
					packageChapter.Remove(sub)
				}
			case *model.Diagram:
				render.Render(ac, v, nil)
			}
			if err := ac.Err(); err != nil {
				return r.renderCounters(), stopError(err)
			}
		}
		flush()
	}

	for _, s := range ac.Signals() {
		r.rep.AddSignal(CodeRenderFailed, "render", "warning", s.Part+": "+s.Message, s.Entity)
	}
	return r.renderCounters(), nil
}

func (r *run) renderCounters() map[string]float64 {
	r.rep.Summary.Diagrams = r.done
	return map[string]float64{
		"chapters": float64(r.ac.ChapterCount()),
		"diagrams": float64(r.done),
		"failures": float64(len(r.ac.Signals())),
	}
}

// packageNodes indexes the package nodes of tree.
func packageNodes(tree *selection.Node) map[*model.Package]*selection.Node {
	out := make(map[*model.Package]*selection.Node)
	if tree == nil {
		return out
	}
	tree.Walk(func(n *selection.Node, _ int) bool {
		if p, ok := n.Entity.(*model.Package); ok {
			out[p] = n
		}
		return true
	})
	return out
}

// selectedEntities lists the selected children of n in tree order.
func selectedEntities(n *selection.Node) []model.Entity {
	var out []model.Entity
	for _, c := range n.Children {
		if e, ok := c.Entity.(model.Entity); ok && c.IsSelected() {
			out = append(out, e)
		}
	}
	return out
}

func selectedDiagrams(n *selection.Node) []*model.Diagram {
	var out []*model.Diagram
	for _, c := range n.Children {
		if d, ok := c.Entity.(*model.Diagram); ok && c.IsSelected() {
			out = append(out, d)
		}
	}
	return out
}

// countDiagrams counts the selected diagrams reachable through selected
// nodes.
func countDiagrams(tree *selection.Node) int {
	if tree == nil {
		return 0
	}
	n := 0
	tree.Walk(func(node *selection.Node, _ int) bool {
		if !node.IsSelected() {
			return false
		}
		if _, ok := node.Entity.(*model.Diagram); ok {
			n++
		}
		return true
	})
	return n
}

func (r *run) write(ctx context.Context) (map[string]float64, error) {
	w := r.writer
	if r.opts.TitlePage {
		if err := r.titlePage(); err != nil {
			return nil, ioError(err)
		}
	}
	chapters := r.ac.Chapters()
	err := document.Emit(ctx, w, chapters, document.EmitOptions{
		Contents:      r.opts.TableOfContents,
		ContentsDepth: contentsDepth,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(err)
		}
		return nil, ioError(err)
	}
	if w.PageCount() == 0 {
		r.rep.AddSignal(SignalEmptyDocument, "write", "info", "nothing selected produced content", "")
		if err := w.Paragraph(&document.Paragraph{Text: " "}); err != nil {
			return nil, ioError(err)
		}
	}

	stats := r.ac.Refs.Stats()
	r.rep.Summary.Chapters = len(chapters)
	r.rep.Summary.Anchors = stats
	for _, ref := range r.ac.Refs.Unresolved() {
		r.rep.AddSignal(SignalUnresolvedReference, "write", "info", "link to "+ref.Text+" written as plain text", ref.Text)
	}
	return map[string]float64{
		"chapters":   float64(len(chapters)),
		"anchors":    float64(stats.Declared),
		"unresolved": float64(stats.Unresolved),
	}, nil
}

// titlePage writes the logo at the top left, the title centered below it
// and the author near the bottom of the page.
func (r *run) titlePage() error {
	w := r.writer
	logoHeight := 0.0
	if r.logo != nil {
		boxW, boxH := w.ContentBox()
		img := document.FitImage(r.logo, boxW, boxH)
		if err := w.Image(img); err != nil {
			return err
		}
		logoHeight = img.Height
	}
	spacing := titleSpacing - logoHeight
	if logoHeight >= titleSpacing {
		spacing = minTitleMargin
	}
	err := w.Paragraph(&document.Paragraph{
		Text:        r.opts.Title,
		Size:        titleSize,
		Style:       document.Bold,
		Align:       document.AlignCenter,
		SpaceBefore: spacing,
	})
	if err != nil {
		return err
	}
	if r.opts.Author == "" {
		return nil
	}
	return w.PlaceText(r.opts.Author, authorY, authorSize)
}
