package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optifab/cutplanner/internal/model"
)

func TestExpand1D_DerivedIDs(t *testing.T) {
	units := expand1D([]model.Piece1D{
		{ID: "p1", OrderItemID: "o1", Length: 100, Quantity: 3},
		{ID: "p2", OrderItemID: "o2", Length: 200, Quantity: 1},
	})

	require.Len(t, units, 4)
	assert.Equal(t, "p1_1", units[0].id)
	assert.Equal(t, "p1_3", units[2].id)
	assert.Equal(t, "p2_1", units[3].id)
	assert.Equal(t, "p1", units[1].originalID)
	assert.Equal(t, "o1", units[1].orderItemID)
}

func TestSortUnits1D_DescendingWithStableTies(t *testing.T) {
	units := expand1D([]model.Piece1D{
		{ID: "b", Length: 500, Quantity: 2},
		{ID: "a", Length: 500, Quantity: 1},
		{ID: "c", Length: 700, Quantity: 1},
	})
	sortUnits1D(units)

	assert.Equal(t, "c_1", units[0].id)
	// Equal lengths order by original id ascending.
	assert.Equal(t, "a_1", units[1].id)
	assert.Equal(t, "b_1", units[2].id)
	assert.Equal(t, "b_2", units[3].id)
}

func TestSortUnits2D_DescendingArea(t *testing.T) {
	units := expand2D([]model.Piece2D{
		{ID: "wide", Width: 100, Height: 10, Quantity: 1},
		{ID: "big", Width: 50, Height: 40, Quantity: 1},
	})
	sortUnits2D(units)

	assert.Equal(t, "big_1", units[0].id)
	assert.Equal(t, "wide_1", units[1].id)
}

func TestAggregateUnplaced_ResidualQuantities(t *testing.T) {
	pieces := []model.Piece1D{
		{ID: "p1", OrderItemID: "o1", Length: 100, Quantity: 4},
		{ID: "p2", OrderItemID: "o2", Length: 200, Quantity: 2},
	}
	unplaced := aggregateUnplaced1D(pieces, map[string]int{"p1": 3, "p2": 2})

	require.Len(t, unplaced, 1)
	assert.Equal(t, "p1", unplaced[0].ID)
	assert.Equal(t, 1, unplaced[0].Quantity)
	assert.Equal(t, 100, unplaced[0].Length)
}

func TestRegistry_BuiltinNames(t *testing.T) {
	r := Builtin()
	assert.Equal(t, []string{BFD1D, FFD1D, BottomLeft2D, Guillotine2D}, r.Names())

	_, ok := r.Get("1D_MAGIC")
	assert.False(t, ok)
}

func TestRegistry_FirstRegistrationWins(t *testing.T) {
	r := NewRegistry()
	first := NewFFD()
	r.Register(first)
	r.Register(NewFFD())

	got, ok := r.Get(FFD1D)
	require.True(t, ok)
	assert.Equal(t, first, got)
}
