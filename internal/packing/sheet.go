package packing

import (
	"sort"

	"github.com/optifab/cutplanner/internal/model"
)

// openSheet tracks one sheet in use during a 2D run. free is maintained by
// the guillotine algorithm only; bottom-left fill scans placements directly.
type openSheet struct {
	stockID string
	width   int
	height  int

	placements []model.Placement
	free       []rect
}

func (s *openSheet) place(u unit2D, x, y, w, h int, rotated bool) {
	s.placements = append(s.placements, model.Placement{
		PieceID:     u.id,
		OrderItemID: u.orderItemID,
		X:           x,
		Y:           y,
		Width:       w,
		Height:      h,
		Rotated:     rotated,
	})
}

// orient is one admissible orientation of a unit. The natural orientation
// always comes first; the 90-degree rotation is added only when rotation is
// allowed, the piece permits it, and the piece is not square.
type orient struct {
	w, h    int
	rotated bool
}

func orientations(u unit2D, allowRotation bool) []orient {
	list := []orient{{w: u.width, h: u.height}}
	if allowRotation && u.canRotate && u.width != u.height {
		list = append(list, orient{w: u.height, h: u.width, rotated: true})
	}
	return list
}

// sortStock2D orders sheet families by descending area; ties break by id.
func sortStock2D(stock []model.Stock2D) []model.Stock2D {
	sorted := make([]model.Stock2D, len(stock))
	copy(sorted, stock)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Area() != sorted[j].Area() {
			return sorted[i].Area() > sorted[j].Area()
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// finish2D assembles sheet results, waste accounting, and run statistics.
func finish2D(in Input, sheets []*openSheet, units []unit2D, placed map[string]int) model.PackingResult {
	prices := make(map[string]float64, len(in.Stock2D))
	for _, s := range in.Stock2D {
		prices[s.ID] = s.UnitPrice
	}

	results := make([]model.SheetResult, 0, len(sheets))
	totalWaste, totalStock, totalUsed := 0, 0, 0
	totalCost := 0.0
	for _, s := range sheets {
		used := 0
		for _, p := range s.placements {
			used += p.Width * p.Height
		}
		area := s.width * s.height
		sr := model.SheetResult{
			StockID:     s.stockID,
			SheetWidth:  s.width,
			SheetHeight: s.height,
			Placements:  s.placements,
			UsedArea:    used,
			WasteArea:   area - used,
		}
		if area > 0 {
			sr.WastePercentage = float64(sr.WasteArea) / float64(area) * 100.0
		}
		results = append(results, sr)

		totalWaste += sr.WasteArea
		totalStock += area
		totalUsed += used
		totalCost += prices[s.stockID]
	}

	res := model.PackingResult{
		Success:        len(units) > 0,
		Sheets:         results,
		TotalWaste:     totalWaste,
		StockUsedCount: len(sheets),
		Unplaced:       aggregateUnplaced2D(in.Pieces2D, placed),
		Stats: model.PackingStats{
			TotalPieces:      len(units),
			TotalStockExtent: totalStock,
			TotalUsedExtent:  totalUsed,
			TotalCost:        totalCost,
		},
	}
	if totalStock > 0 {
		res.TotalWastePercentage = float64(totalWaste) / float64(totalStock) * 100.0
		res.Stats.Efficiency = float64(totalUsed) / float64(totalStock) * 100.0
	}
	return res
}
