package packing

import (
	"sort"

	"github.com/optifab/cutplanner/internal/model"
)

// openBar tracks one bar in use during a 1D run. cursor is the end position
// of the last cut; the kerf gap is charged before the second and later cuts,
// never before the first.
type openBar struct {
	stockID string
	length  int
	cuts    []model.Cut
	cursor  int
}

// need returns the extent a piece would consume on this bar, including the
// leading kerf gap when cuts are already present.
func (b *openBar) need(pieceLen, kerf int) int {
	if len(b.cuts) > 0 {
		return pieceLen + kerf
	}
	return pieceLen
}

func (b *openBar) fits(pieceLen, kerf int) bool {
	return b.need(pieceLen, kerf) <= b.length-b.cursor
}

// remainingAfter returns the free length left if the piece were placed, or
// -1 when it does not fit.
func (b *openBar) remainingAfter(pieceLen, kerf int) int {
	need := b.need(pieceLen, kerf)
	if need > b.length-b.cursor {
		return -1
	}
	return b.length - b.cursor - need
}

func (b *openBar) place(u unit1D, kerf int) {
	pos := 0
	if len(b.cuts) > 0 {
		pos = b.cursor + kerf
	}
	b.cuts = append(b.cuts, model.Cut{
		PieceID:     u.id,
		OrderItemID: u.orderItemID,
		Position:    pos,
		Length:      u.length,
	})
	b.cursor = pos + u.length
}

// sortStock1D orders stock families by length (descending or ascending);
// ties break by id ascending.
func sortStock1D(stock []model.Stock1D, descending bool) []model.Stock1D {
	sorted := make([]model.Stock1D, len(stock))
	copy(sorted, stock)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Length != sorted[j].Length {
			if descending {
				return sorted[i].Length > sorted[j].Length
			}
			return sorted[i].Length < sorted[j].Length
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// finish1D assembles bar results, waste accounting, and run statistics.
func finish1D(in Input, bars []*openBar, units []unit1D, placed map[string]int) model.PackingResult {
	opts := in.Options

	prices := make(map[string]float64, len(in.Stock1D))
	for _, s := range in.Stock1D {
		prices[s.ID] = s.UnitPrice
	}

	results := make([]model.BarResult, 0, len(bars))
	totalWaste, totalStock, totalUsed := 0, 0, 0
	totalCost := 0.0
	for _, b := range bars {
		waste := b.length - b.cursor
		br := model.BarResult{
			StockID:     b.stockID,
			StockLength: b.length,
			Cuts:        b.cuts,
			Waste:       waste,
		}
		if b.length > 0 {
			br.WastePercentage = float64(waste) / float64(b.length) * 100.0
		}
		// A remnant needs one detaching cut, so anything shorter than the
		// kerf itself cannot re-enter stock.
		if waste > 0 && waste >= opts.MinUsableWaste && waste-opts.Kerf > 0 {
			br.UsableWaste = &model.UsableWaste{
				Position: b.cursor + opts.Kerf,
				Length:   waste - opts.Kerf,
			}
		}
		results = append(results, br)

		totalWaste += waste
		totalStock += b.length
		for _, c := range b.cuts {
			totalUsed += c.Length
		}
		totalCost += prices[b.stockID]
	}

	res := model.PackingResult{
		Success:        len(units) > 0,
		Bars:           results,
		TotalWaste:     totalWaste,
		StockUsedCount: len(bars),
		Unplaced:       aggregateUnplaced1D(in.Pieces1D, placed),
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
