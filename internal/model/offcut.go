package model

import (
	"sort"

	"github.com/google/uuid"
)

// Offcut is a usable rectangular remnant of a used sheet, the 2D counterpart
// of the 1D usable-waste marker. Offcuts can re-enter stock as new sheets.
type Offcut struct {
	ID         string  `json:"id"`
	StockID    string  `json:"stockId"`
	SheetIndex int     `json:"sheetIndex"` // index of the source sheet in the result
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	UnitPrice  float64 `json:"unitPrice,omitempty"` // inherited, proportional to area
}

// Area returns the offcut area in square mm.
func (o Offcut) Area() int {
	return o.Width * o.Height
}

// ToStock converts an offcut into a single-sheet stock family for reuse.
func (o Offcut) ToStock() Stock2D {
	return Stock2D{
		ID:        "offcut_" + o.ID,
		Width:     o.Width,
		Height:    o.Height,
		Available: 1,
		UnitPrice: o.UnitPrice,
	}
}

// MinOffcutDimension is the minimum width or height in mm for a remnant to
// be considered usable. Smaller remnants are waste.
const MinOffcutDimension = 50

// MinOffcutArea is the minimum area in square mm for a usable remnant.
const MinOffcutArea = 10000

// DetectOffcuts identifies rectangular remnant strips of a sheet that are
// large enough to reuse: the strip right of all placements and the strip
// above them, each shrunk by one kerf for the detaching cut.
func DetectOffcuts(sr SheetResult, sheetIndex, kerf int, unitPrice float64) []Offcut {
	if len(sr.Placements) == 0 {
		return nil
	}

	var maxRight, maxTop int
	for _, p := range sr.Placements {
		if right := p.X + p.Width + kerf; right > maxRight {
			maxRight = right
		}
		if top := p.Y + p.Height + kerf; top > maxTop {
			maxTop = top
		}
	}

	var offcuts []Offcut

	rightW := sr.SheetWidth - maxRight
	if rightW >= MinOffcutDimension && sr.SheetHeight >= MinOffcutDimension && rightW*sr.SheetHeight >= MinOffcutArea {
		offcuts = append(offcuts, Offcut{
			ID:         uuid.New().String()[:8],
			StockID:    sr.StockID,
			SheetIndex: sheetIndex,
			X:          maxRight,
			Y:          0,
			Width:      rightW,
			Height:     sr.SheetHeight,
		})
	}

	// Top strip only spans up to the right edge of the placements, so it
	// never overlaps the right strip.
	topH := sr.SheetHeight - maxTop
	topW := min(maxRight, sr.SheetWidth)
	if topH >= MinOffcutDimension && topW >= MinOffcutDimension && topH*topW >= MinOffcutArea {
		offcuts = append(offcuts, Offcut{
			ID:         uuid.New().String()[:8],
			StockID:    sr.StockID,
			SheetIndex: sheetIndex,
			X:          0,
			Y:          maxTop,
			Width:      topW,
			Height:     topH,
		})
	}

	if unitPrice > 0 {
		sheetArea := sr.SheetWidth * sr.SheetHeight
		for i := range offcuts {
			offcuts[i].UnitPrice = float64(offcuts[i].Area()) / float64(sheetArea) * unitPrice
		}
	}

	sort.Slice(offcuts, func(i, j int) bool {
		return offcuts[i].Area() > offcuts[j].Area()
	})

	return offcuts
}

// DetectAllOffcuts finds offcuts across every sheet of a packing result.
// Unit prices are looked up per stock family when provided.
func DetectAllOffcuts(result PackingResult, kerf int, prices map[string]float64) []Offcut {
	var all []Offcut
	for i, sheet := range result.Sheets {
		all = append(all, DetectOffcuts(sheet, i, kerf, prices[sheet.StockID])...)
	}
	return all
}

// TotalOffcutArea returns the combined area of all offcuts in square mm.
func TotalOffcutArea(offcuts []Offcut) int {
	total := 0
	for _, o := range offcuts {
		total += o.Area()
	}
	return total
}
