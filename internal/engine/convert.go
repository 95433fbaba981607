package engine

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/optifab/cutplanner/internal/model"
)

// toPlanData converts a packing result into the persistent plan
// representation: one Layout per used stock unit with a dense 1-indexed
// sequence and a canonical serialized layout.
func toPlanData(r model.PackingResult) (model.PlanData, error) {
	plan := model.PlanData{
		TotalWaste:      r.TotalWaste,
		WastePercentage: r.TotalWastePercentage,
		StockUsedCount:  r.StockUsedCount,
		Efficiency:      r.Stats.Efficiency,
		Layouts:         []model.Layout{},
		UnplacedCount:   r.UnplacedCount(),
		TotalCost:       r.Stats.TotalCost,
	}

	for _, bar := range r.Bars {
		serialized, err := model.SerializeBar(bar)
		if err != nil {
			return model.PlanData{}, err
		}
		plan.Layouts = append(plan.Layouts, model.Layout{
			StockItemID:      bar.StockID,
			Sequence:         len(plan.Layouts) + 1,
			Waste:            bar.Waste,
			WastePercentage:  bar.WastePercentage,
			SerializedLayout: serialized,
		})
	}

	for _, sheet := range r.Sheets {
		// Canonical placement order is (y, x) ascending.
		placements := make([]model.Placement, len(sheet.Placements))
		copy(placements, sheet.Placements)
		sort.SliceStable(placements, func(i, j int) bool {
			if placements[i].Y != placements[j].Y {
				return placements[i].Y < placements[j].Y
			}
			return placements[i].X < placements[j].X
		})
		sheet.Placements = placements

		serialized, err := model.SerializeSheet(sheet)
		if err != nil {
			return model.PlanData{}, err
		}
		plan.Layouts = append(plan.Layouts, model.Layout{
			StockItemID:      sheet.StockID,
			Sequence:         len(plan.Layouts) + 1,
			Waste:            sheet.WasteArea,
			WastePercentage:  sheet.WastePercentage,
			SerializedLayout: serialized,
		})
	}

	return plan, nil
}

// newPlanID returns a fresh plan id and its human-facing plan number.
func newPlanID() (id string, number string) {
	id = uuid.New().String()
	return id, "PLN-" + strings.ToUpper(id[:8])
}
