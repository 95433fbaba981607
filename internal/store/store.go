// Package store defines the read contracts the optimization engine loads
// jobs and stock through, plus in-memory implementations for tooling and
// tests. Durable backends implement the same interfaces elsewhere.
package store

import (
	"context"
	"errors"

	"github.com/optifab/cutplanner/internal/model"
)

var (
	ErrJobNotFound   = errors.New("store: job not found")
	ErrStockNotFound = errors.New("store: stock item not found")
)

// JobItem is one line of a cutting job. Geometry1D items use Length only;
// Geometry2D items use Width and Height.
type JobItem struct {
	ID        string         `json:"id"`
	Geometry  model.Geometry `json:"geometry"`
	Length    int            `json:"length,omitempty"`
	Width     int            `json:"width,omitempty"`
	Height    int            `json:"height,omitempty"`
	Quantity  int            `json:"quantity"`
	CanRotate bool           `json:"canRotate,omitempty"`
}

// Job is a named set of pieces to cut from one material.
type Job struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	MaterialTypeID string    `json:"materialTypeId"`
	Thickness      int       `json:"thickness"`
	Items          []JobItem `json:"items"`
}

// StockItem is one stock family in inventory.
type StockItem struct {
	ID             string         `json:"id"`
	MaterialTypeID string         `json:"materialTypeId"`
	Thickness      int            `json:"thickness"`
	Geometry       model.Geometry `json:"geometry"`
	Length         int            `json:"length,omitempty"`
	Width          int            `json:"width,omitempty"`
	Height         int            `json:"height,omitempty"`
	Available      int            `json:"available"`
	UnitPrice      float64        `json:"unitPrice,omitempty"`
}

// StockQuery narrows a stock lookup. Zero-valued fields match everything;
// a non-empty IDs list restricts the result to those families.
type StockQuery struct {
	MaterialTypeID string
	Thickness      int
	Geometry       model.Geometry
	IDs            []string
}

// JobStore loads jobs by id.
type JobStore interface {
	GetJob(ctx context.Context, id string) (Job, error)
}

// StockStore answers stock queries. Implementations return families in a
// stable order so optimization input does not depend on backend iteration.
type StockStore interface {
	QueryStock(ctx context.Context, q StockQuery) ([]StockItem, error)
}
