package packing

import (
	"fmt"
	"sort"

	"github.com/optifab/cutplanner/internal/model"
)

// unit1D is a single expanded instance of a 1D piece.
type unit1D struct {
	id          string // "<originalID>_<n>", n starting at 1
	originalID  string
	orderItemID string
	length      int
}

// unit2D is a single expanded instance of a 2D piece.
type unit2D struct {
	id          string
	originalID  string
	orderItemID string
	width       int
	height      int
	canRotate   bool
}

func (u unit2D) area() int {
	return u.width * u.height
}

// expand1D explodes quantity-bearing pieces into unit instances with stable
// derived ids. Order is input-preserving.
func expand1D(pieces []model.Piece1D) []unit1D {
	var units []unit1D
	for _, p := range pieces {
		for n := 1; n <= p.Quantity; n++ {
			units = append(units, unit1D{
				id:          fmt.Sprintf("%s_%d", p.ID, n),
				originalID:  p.ID,
				orderItemID: p.OrderItemID,
				length:      p.Length,
			})
		}
	}
	return units
}

// expand2D is the 2D counterpart of expand1D.
func expand2D(pieces []model.Piece2D) []unit2D {
	var units []unit2D
	for _, p := range pieces {
		for n := 1; n <= p.Quantity; n++ {
			units = append(units, unit2D{
				id:          fmt.Sprintf("%s_%d", p.ID, n),
				originalID:  p.ID,
				orderItemID: p.OrderItemID,
				width:       p.Width,
				height:      p.Height,
				canRotate:   p.CanRotate,
			})
		}
	}
	return units
}

// sortUnits1D orders units by descending length; ties break by original id
// ascending, then by expansion order, so runs are deterministic.
func sortUnits1D(units []unit1D) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].length != units[j].length {
			return units[i].length > units[j].length
		}
		return units[i].originalID < units[j].originalID
	})
}

// sortUnits2D orders units by descending area with the same tie rules.
func sortUnits2D(units []unit2D) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].area() != units[j].area() {
			return units[i].area() > units[j].area()
		}
		return units[i].originalID < units[j].originalID
	})
}

// aggregateUnplaced1D folds per-unit placement counts back into the original
// pieces, reporting residual quantities in input order.
func aggregateUnplaced1D(pieces []model.Piece1D, placed map[string]int) []model.UnplacedPiece {
	var unplaced []model.UnplacedPiece
	for _, p := range pieces {
		if rest := p.Quantity - placed[p.ID]; rest > 0 {
			unplaced = append(unplaced, model.UnplacedPiece{
				ID:          p.ID,
				OrderItemID: p.OrderItemID,
				Quantity:    rest,
				Length:      p.Length,
			})
		}
	}
	return unplaced
}

func aggregateUnplaced2D(pieces []model.Piece2D, placed map[string]int) []model.UnplacedPiece {
	var unplaced []model.UnplacedPiece
	for _, p := range pieces {
		if rest := p.Quantity - placed[p.ID]; rest > 0 {
			unplaced = append(unplaced, model.UnplacedPiece{
				ID:          p.ID,
				OrderItemID: p.OrderItemID,
				Quantity:    rest,
				Width:       p.Width,
				Height:      p.Height,
			})
		}
	}
	return unplaced
}
