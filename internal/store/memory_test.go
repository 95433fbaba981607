package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optifab/cutplanner/internal/model"
)

func TestMemoryJobStore_RoundTrip(t *testing.T) {
	s := NewMemoryJobStore()
	s.PutJob(Job{ID: "j1", Name: "frames", MaterialTypeID: "steel", Thickness: 2})

	job, err := s.GetJob(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "frames", job.Name)

	_, err = s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryStockStore_Filters(t *testing.T) {
	s := NewMemoryStockStore()
	s.PutStock(StockItem{ID: "a", MaterialTypeID: "steel", Thickness: 2, Geometry: model.Geometry1D, Length: 6000, Available: 10})
	s.PutStock(StockItem{ID: "b", MaterialTypeID: "steel", Thickness: 3, Geometry: model.Geometry1D, Length: 6000, Available: 5})
	s.PutStock(StockItem{ID: "c", MaterialTypeID: "alu", Thickness: 2, Geometry: model.Geometry1D, Length: 4000, Available: 2})
	s.PutStock(StockItem{ID: "d", MaterialTypeID: "steel", Thickness: 2, Geometry: model.Geometry2D, Width: 1000, Height: 2000, Available: 3})

	got, err := s.QueryStock(context.Background(), StockQuery{MaterialTypeID: "steel", Thickness: 2, Geometry: model.Geometry1D})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = s.QueryStock(context.Background(), StockQuery{MaterialTypeID: "steel"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Stable id order regardless of map iteration.
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "d", got[2].ID)
}

func TestMemoryStockStore_IDAllowlist(t *testing.T) {
	s := NewMemoryStockStore()
	s.PutStock(StockItem{ID: "a", MaterialTypeID: "steel", Geometry: model.Geometry1D, Length: 6000, Available: 1})
	s.PutStock(StockItem{ID: "b", MaterialTypeID: "steel", Geometry: model.Geometry1D, Length: 4000, Available: 1})

	got, err := s.QueryStock(context.Background(), StockQuery{IDs: []string{"b", "nope"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestMemoryStockStore_EmptyResult(t *testing.T) {
	s := NewMemoryStockStore()
	got, err := s.QueryStock(context.Background(), StockQuery{MaterialTypeID: "steel"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStores_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryJobStore().GetJob(ctx, "j1")
	assert.Error(t, err)
	_, err = NewMemoryStockStore().QueryStock(ctx, StockQuery{})
	assert.Error(t, err)
}
