package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umlpdf/internal/diagram"
	"umlpdf/internal/document"
	"umlpdf/internal/inspect"
	"umlpdf/internal/model"
	"umlpdf/internal/selection"
)

// shop has a use case diagram and two packages with one class diagram each.
func shop() *model.Model {
	m := model.New("Shop")
	customer := m.NewActor(m, "Customer")
	login := m.NewUseCase(m, "Login")
	m.NewAssociation("", customer, login)
	m.NewDiagram(m, model.DiagramUseCase, "Ordering", customer, login)

	sales := m.NewPackage(m, "Sales")
	basket := m.NewClass(sales, "Basket")
	m.NewAttribute(basket, "total", m.NewDataType(m, "Money"))
	m.NewDiagram(sales, model.DiagramClass, "Sales Overview", basket)

	billing := m.NewPackage(m, "Billing")
	invoice := m.NewClass(billing, "Invoice")
	m.NewAssociation("bills", invoice, basket)
	m.NewDiagram(billing, model.DiagramClass, "Billing Overview", invoice)
	return m
}

func selectAll(m *model.Model) *selection.Node {
	tree := selection.Build(m)
	tree.SetSelected(true)
	return tree
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recording returns an engine writing to fresh recorders; the last one
// opened is stored in *last.
func recording(m *model.Model, renderer diagram.Renderer, last **document.Recorder) *Engine {
	e := NewEngine(m, renderer, quietLogger())
	e.Open = func(string, Format) (document.Writer, error) {
		*last = document.NewRecorder()
		return *last, nil
	}
	return e
}

func fixedRaster() diagram.Renderer {
	return diagram.RendererFunc(func(_ context.Context, d *model.Diagram) (*document.Raster, error) {
		return &document.Raster{Name: d.Name + ".png", Format: "png", Width: 400, Height: 200}, nil
	})
}

func pngFile(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func chapterTitles(r *document.Recorder) []string {
	var out []string
	for _, op := range r.Chapters() {
		out = append(out, fmt.Sprintf("%d %s", op.Number, op.Text))
	}
	return out
}

func TestGenerate_ChaptersFollowTreeOrder(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)

	rep, err := e.Run(context.Background(), selectAll(e.Model), Options{Output: "shop.pdf"})
	require.NoError(t, err)

	assert.Equal(t, []string{"1 Use Cases", "2 Package Sales"}, chapterTitles(rec))
	var billing *document.Op
	for _, op := range rec.Find(document.OpOpen) {
		if op.Text == "Package Billing" {
			billing = &op
			break
		}
	}
	require.NotNil(t, billing)
	assert.Equal(t, 1, billing.Depth)

	assert.True(t, rec.Closed)
	assert.False(t, rec.Aborted)
	assert.Equal(t, "ok", rep.Summary.Outcome)
	assert.Equal(t, 2, rep.Summary.Chapters)
	assert.Equal(t, rec.PageCount(), rep.Summary.Pages)
	assert.Equal(t, 3, rep.Summary.Diagrams)

	meta := rec.Find(document.OpMetadata)
	require.Len(t, meta, 1)
	assert.Equal(t, DefaultSubject, meta[0].Meta.Subject)
	assert.Equal(t, "umlpdf", meta[0].Meta.Creator)
}

func TestGenerate_EmptyPackagesOpenNoChapter(t *testing.T) {
	t.Run("only package is empty", func(t *testing.T) {
		m := model.New("Bare")
		m.NewClass(m.NewPackage(m, "Empty"), "Lonely")

		var rec *document.Recorder
		e := recording(m, nil, &rec)
		rep, err := e.Run(context.Background(), selectAll(m), Options{Output: "bare.pdf"})
		require.NoError(t, err)

		assert.Empty(t, chapterTitles(rec))
		assert.Equal(t, 0, rep.Summary.Chapters)
		var codes []string
		for _, s := range rep.Signals {
			codes = append(codes, s.Code)
		}
		assert.Contains(t, codes, SignalEmptyDocument)
	})

	t.Run("empty package after a filled one", func(t *testing.T) {
		m := model.New("Mixed")
		sales := m.NewPackage(m, "Sales")
		basket := m.NewClass(sales, "Basket")
		m.NewDiagram(sales, model.DiagramClass, "Sales Overview", basket)
		m.NewPackage(m, "Empty")

		var rec *document.Recorder
		e := recording(m, nil, &rec)
		_, err := e.Run(context.Background(), selectAll(m), Options{Output: "mixed.pdf"})
		require.NoError(t, err)

		assert.Equal(t, []string{"1 Package Sales"}, chapterTitles(rec))
		for _, op := range rec.Find(document.OpOpen) {
			assert.NotEqual(t, "Package Empty", op.Text)
		}
	})
}

func TestGenerate_ChapterNumbersRestartPerRun(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)

	for i := 0; i < 2; i++ {
		require.NoError(t, e.Generate(context.Background(), selectAll(e.Model), Options{Output: "shop.pdf"}))
		assert.Equal(t, []string{"1 Use Cases", "2 Package Sales"}, chapterTitles(rec))
	}
}

func TestGenerate_PartialSelection(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)
	tree := selection.Build(e.Model)
	require.NoError(t, selection.SelectPaths(tree, "Billing/Billing Overview"))

	require.NoError(t, e.Generate(context.Background(), tree, Options{Output: "shop.pdf"}))
	assert.Equal(t, []string{"1 Package Billing"}, chapterTitles(rec))

	var opened []string
	for _, op := range rec.Find(document.OpOpen) {
		if op.Text != "" {
			opened = append(opened, op.Text)
		}
	}
	assert.NotContains(t, opened, "Sales Overview")
	assert.Contains(t, opened, "Billing Overview")
}

func TestGenerate_NothingSelected(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)

	rep, err := e.Run(context.Background(), selection.Build(e.Model), Options{Output: "empty.pdf", TableOfContents: true})
	require.NoError(t, err)

	assert.Empty(t, rec.Chapters())
	assert.Empty(t, rec.Find(document.OpContents))
	paragraphs := rec.Find(document.OpParagraph)
	require.Len(t, paragraphs, 1)
	assert.Equal(t, " ", paragraphs[0].Text)
	assert.Equal(t, 1, rep.Summary.Pages)
	require.Len(t, rep.Signals, 1)
	assert.Equal(t, SignalEmptyDocument, rep.Signals[0].Code)
	assert.True(t, rec.Closed)
}

func TestGenerate_TableOfContents(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)

	require.NoError(t, e.Generate(context.Background(), selectAll(e.Model), Options{Output: "shop.pdf", TableOfContents: true}))

	contents := rec.Find(document.OpContents)
	require.Len(t, contents, 1)
	var titles []string
	for _, entry := range contents[0].Entries {
		assert.LessOrEqual(t, entry.Depth, contentsDepth)
		titles = append(titles, entry.Title)
	}
	assert.Equal(t, "Use Cases", titles[0])
	assert.Contains(t, titles, "Package Billing")
	assert.Equal(t, document.OpContents, rec.Ops[1].Kind)
}

func TestTitlePage_Spacing(t *testing.T) {
	tests := []struct {
		name    string
		logo    func(t *testing.T) string
		spacing float64
		images  int
	}{
		{name: "no logo", spacing: 200},
		{name: "small logo", logo: func(t *testing.T) string { return pngFile(t, 100, 50) }, spacing: 150, images: 1},
		{name: "tall logo", logo: func(t *testing.T) string { return pngFile(t, 300, 250) }, spacing: 10, images: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *document.Recorder
			e := recording(shop(), nil, &rec)
			opts := Options{Output: "shop.pdf", Title: "Shop Model", Author: "Team", TitlePage: true}
			if tt.logo != nil {
				opts.Logo = tt.logo(t)
			}
			require.NoError(t, e.Generate(context.Background(), selection.Build(e.Model), opts))

			assert.Len(t, rec.Find(document.OpImage), tt.images)
			title := rec.Find(document.OpParagraph)[0]
			assert.Equal(t, "Shop Model", title.Text)
			assert.Equal(t, float64(titleSize), title.Size)
			assert.InDelta(t, tt.spacing, title.Y, 0.001)

			author := rec.Find(document.OpText)
			require.Len(t, author, 1)
			assert.Equal(t, "Team", author[0].Text)
			assert.Equal(t, float64(authorY), author[0].Y)
			assert.Equal(t, float64(authorSize), author[0].Size)
		})
	}
}

func TestTitlePage_NoAuthor(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)
	require.NoError(t, e.Generate(context.Background(), selection.Build(e.Model), Options{Output: "shop.pdf", Title: "Shop", TitlePage: true}))
	assert.Empty(t, rec.Find(document.OpText))
	// the title page is content, so no blank paragraph follows
	assert.Len(t, rec.Find(document.OpParagraph), 1)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)
	tree := selectAll(e.Model)

	err := e.Generate(context.Background(), tree, Options{Output: "  "})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, CodeOutputPathMissing, CodeOf(err))

	err = e.Generate(context.Background(), tree, Options{Output: "x.pdf", Logo: filepath.Join(t.TempDir(), "missing.png")})
	assert.Equal(t, CodeLogoUndecodable, CodeOf(err))

	notImage := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(notImage, []byte("plain text"), 0644))
	rep, err := e.Run(context.Background(), tree, Options{Output: "x.pdf", Logo: notImage})
	assert.Equal(t, CodeLogoUndecodable, CodeOf(err))
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Equal(t, "failed", rep.Summary.Outcome)
	assert.Nil(t, rec, "no writer is opened when validation fails")
}

func TestGenerate_OpenErrors(t *testing.T) {
	e := NewEngine(shop(), nil, quietLogger())
	tree := selectAll(e.Model)

	err := e.Generate(context.Background(), tree, Options{Output: t.TempDir()})
	assert.Equal(t, CodeOutputUnwritable, CodeOf(err))

	err = e.Generate(context.Background(), tree, Options{Output: filepath.Join(t.TempDir(), "missing", "out.pdf")})
	assert.Equal(t, CodeOutputUnwritable, CodeOf(err))

	e.Open = func(string, Format) (document.Writer, error) {
		return nil, fmt.Errorf("open report.pdf: %w", document.ErrLocked)
	}
	err = e.Generate(context.Background(), tree, Options{Output: "report.pdf"})
	assert.Equal(t, CodeOutputLocked, CodeOf(err))
	assert.ErrorIs(t, err, ErrResource)
	assert.ErrorIs(t, err, document.ErrLocked)

	e.Open = func(string, Format) (document.Writer, error) { return nil, errors.New("disk on fire") }
	err = e.Generate(context.Background(), tree, Options{Output: "report.pdf"})
	assert.Equal(t, CodeOutputIO, CodeOf(err))
}

func TestGenerate_WriteFailureAborts(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)
	inner := e.Open
	e.Open = func(path string, f Format) (document.Writer, error) {
		w, err := inner(path, f)
		rec.FailOn = document.OpTable
		return w, err
	}

	rep, err := e.Run(context.Background(), selectAll(e.Model), Options{Output: "shop.pdf"})
	assert.Equal(t, CodeOutputIO, CodeOf(err))
	assert.True(t, rec.Aborted)
	assert.False(t, rec.Closed)
	require.NotEmpty(t, rep.Stages)
	last := rep.Stages[len(rep.Stages)-1]
	assert.Equal(t, "write", last.Name)
	assert.Equal(t, "error", last.Status)
}

func TestGenerate_Cancelled(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), nil, &rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := e.Run(ctx, selectAll(e.Model), Options{Output: "shop.pdf"})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, rec.Aborted)
	assert.Equal(t, "cancelled", rep.Summary.Outcome)
}

func TestGenerate_CancelledMidRender(t *testing.T) {
	var rec *document.Recorder
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	renderer := diagram.RendererFunc(func(context.Context, *model.Diagram) (*document.Raster, error) {
		cancel()
		return nil, nil
	})
	e := recording(shop(), renderer, &rec)

	err := e.Generate(ctx, selectAll(e.Model), Options{Output: "shop.pdf", Diagrams: true})
	assert.Equal(t, CodeRunCancelled, CodeOf(err))
	assert.True(t, rec.Aborted)
}

func TestGenerate_ExhaustionKeepsOutput(t *testing.T) {
	var rec *document.Recorder
	renderer := diagram.RendererFunc(func(context.Context, *model.Diagram) (*document.Raster, error) {
		return nil, fmt.Errorf("decode: %w", diagram.ErrExhausted)
	})
	e := recording(shop(), renderer, &rec)

	rep, err := e.Run(context.Background(), selectAll(e.Model), Options{Output: "shop.pdf", Diagrams: true})
	assert.ErrorIs(t, err, ErrExhaustion)
	assert.Equal(t, CodeOutOfMemory, CodeOf(err))
	assert.True(t, rec.Closed)
	assert.False(t, rec.Aborted)
	assert.Equal(t, "failed", rep.Summary.Outcome)
	require.NotEmpty(t, rep.Signals)
	assert.Equal(t, "critical", rep.Signals[0].Severity)
}

func TestGenerate_DiagramFailureIsASignal(t *testing.T) {
	var rec *document.Recorder
	renderer := diagram.RendererFunc(func(_ context.Context, d *model.Diagram) (*document.Raster, error) {
		if d.Name == "Sales Overview" {
			return nil, errors.New("corrupt image")
		}
		return &document.Raster{Name: d.Name, Format: "png", Width: 100, Height: 100}, nil
	})
	e := recording(shop(), renderer, &rec)

	rep, err := e.Run(context.Background(), selectAll(e.Model), Options{Output: "shop.pdf", Diagrams: true})
	require.NoError(t, err)

	assert.Len(t, rec.Find(document.OpImage), 2)
	require.Len(t, rep.Signals, 1)
	assert.Equal(t, CodeRenderFailed, rep.Signals[0].Code)
	assert.Equal(t, "warning", rep.Signals[0].Severity)
	assert.Equal(t, "render", rep.Signals[0].Stage)
	assert.Equal(t, "Sales Overview", rep.Signals[0].Entity)
	assert.Equal(t, "ok", rep.Summary.Outcome)
}

func TestGenerate_Progress(t *testing.T) {
	var rec *document.Recorder
	e := recording(shop(), fixedRaster(), &rec)
	var events []Progress

	err := e.Generate(context.Background(), selectAll(e.Model), Options{
		Output:   "shop.pdf",
		Diagrams: true,
		Progress: func(p Progress) { events = append(events, p) },
	})
	require.NoError(t, err)

	var stages []string
	var items []string
	for _, ev := range events {
		if ev.Item == "" {
			stages = append(stages, ev.Stage)
			continue
		}
		assert.Equal(t, "render", ev.Stage)
		assert.Equal(t, 3, ev.Total)
		items = append(items, ev.Item)
	}
	assert.Equal(t, []string{"validate", "open", "render", "write", "close"}, stages)
	assert.Equal(t, []string{"Ordering", "Sales Overview", "Billing Overview"}, items)
	assert.Equal(t, 3, events[len(events)-1].Done)
}

func TestGenerate_PDFEndToEnd(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "shop.pdf")
	e := NewEngine(shop(), &diagram.Schematic{}, quietLogger())
	e.Creator = "umlpdf test"

	rep, err := e.Run(context.Background(), selectAll(e.Model), Options{
		Output:          out,
		Title:           "Shop Model",
		Author:          "Modelling Team",
		Logo:            pngFile(t, 120, 40),
		TitlePage:       true,
		TableOfContents: true,
		Diagrams:        true,
	})
	require.NoError(t, err)

	doc, err := inspect.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "Shop Model", doc.Title)
	assert.Equal(t, "Modelling Team", doc.Author)
	assert.Equal(t, DefaultSubject, doc.Subject)
	assert.Equal(t, "umlpdf test", doc.Creator)
	assert.Equal(t, rep.Summary.Pages, doc.Pages)

	titles := doc.Titles()
	assert.Equal(t, "Table of Contents", titles[0])
	assert.Contains(t, titles, "Use Cases")
	assert.Contains(t, titles, "Package Sales")
	assert.Contains(t, titles, "Basket")
	assert.NotContains(t, titles, "Properties")
	assert.NotContains(t, titles, "Attributes")
	assert.True(t, doc.Contains("Shop Model"))
	assert.True(t, doc.Contains("Invoice"))

	reportPath := filepath.Join(dir, "reports", "run.json")
	require.NoError(t, rep.Save(reportPath))
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var saved RunReport
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "ok", saved.Summary.Outcome)
	assert.Equal(t, FormatPDF, saved.Format)
	assert.Len(t, saved.Stages, 5)
}

func TestGenerate_DOCX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "shop.docx")
	e := NewEngine(shop(), nil, quietLogger())

	rep, err := e.Run(context.Background(), selectAll(e.Model), Options{Output: out, TableOfContents: true})
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, rep.Format)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" DOCX ")
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	_, err = ParseFormat("html")
	assert.Error(t, err)

	assert.Equal(t, FormatDOCX, FormatFor("out/Report.DOCX"))
	assert.Equal(t, FormatPDF, FormatFor("out/report"))
}
