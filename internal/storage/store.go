package storage

import (
	"context"
	"errors"
	"time"

	"umlpdf/internal/model"
)

// ErrNotFound is returned when a model or image does not exist.
var ErrNotFound = errors.New("not found")

// Store combines model document and diagram image storage.
type Store interface {
	ModelStore
	ImageStore
	Close() error
}

// ModelStore persists model documents and an index of their elements.
type ModelStore interface {
	// SaveModel replaces the stored snapshot of doc.Name.
	SaveModel(ctx context.Context, doc *model.Document) error

	// LoadModel returns the stored document for name.
	LoadModel(ctx context.Context, name string) (*model.Document, error)

	// ListModels returns one entry per stored model, ordered by name.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// FindElements searches the element index of a model by simple or
	// qualified name.
	FindElements(ctx context.Context, modelName, name string) ([]ElementRow, error)

	DeleteModel(ctx context.Context, name string) error
}

// ImageStore keeps pre-rendered diagram rasters next to their model.
type ImageStore interface {
	SaveImage(ctx context.Context, modelName, name string, data []byte) error
	LoadImage(ctx context.Context, modelName, name string) ([]byte, error)
}

type ModelInfo struct {
	Name        string
	ContentHash string
	Elements    int
	Diagrams    int
	UpdatedAt   time.Time
}

type ElementRow struct {
	ID        string
	Kind      string
	Name      string
	Qualified string
}
