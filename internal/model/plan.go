package model

import "encoding/json"

// Layout describes one used stock unit inside a plan. Sequence is dense and
// 1-indexed in emission order. SerializedLayout is the canonical UTF-8 JSON
// encoding of the unit's cuts or placements and their carrier geometry.
type Layout struct {
	StockItemID      string  `json:"stockItemId"`
	Sequence         int     `json:"sequence"`
	Waste            int     `json:"waste"`
	WastePercentage  float64 `json:"wastePercentage"`
	SerializedLayout string  `json:"serializedLayout"`
}

// PlanData is the persistent plan representation handed back to the caller.
type PlanData struct {
	TotalWaste      int      `json:"totalWaste"`
	WastePercentage float64  `json:"wastePercentage"` // 0..100
	StockUsedCount  int      `json:"stockUsedCount"`
	Efficiency      float64  `json:"efficiency"` // 0..100
	Layouts         []Layout `json:"layouts"`
	UnplacedCount   int      `json:"unplacedCount"`
	TotalCost       float64  `json:"totalCost,omitempty"`
}

// barLayout is the canonical wire form of a 1D layout. Field order is the
// serialization order; cuts are sorted by ascending position.
type barLayout struct {
	BarID       string       `json:"barId"`
	BarLength   int          `json:"barLength"`
	Cuts        []Cut        `json:"cuts"`
	Waste       int          `json:"waste"`
	UsableWaste *UsableWaste `json:"usableWaste,omitempty"`
}

// sheetLayout is the canonical wire form of a 2D layout. Placements are
// sorted by (y, x) ascending.
type sheetLayout struct {
	SheetID     string      `json:"sheetId"`
	SheetWidth  int         `json:"sheetWidth"`
	SheetHeight int         `json:"sheetHeight"`
	Placements  []Placement `json:"placements"`
}

// SerializeBar encodes a bar result into its canonical layout string.
// Cut order inside BarResult is already ascending by position; the encoding
// preserves it, so identical inputs serialize byte-identically.
func SerializeBar(b BarResult) (string, error) {
	cuts := b.Cuts
	if cuts == nil {
		cuts = []Cut{}
	}
	data, err := json.Marshal(barLayout{
		BarID:       b.StockID,
		BarLength:   b.StockLength,
		Cuts:        cuts,
		Waste:       b.Waste,
		UsableWaste: b.UsableWaste,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SerializeSheet encodes a sheet result into its canonical layout string.
// Placements must already be sorted by (y, x) ascending.
func SerializeSheet(s SheetResult) (string, error) {
	placements := s.Placements
	if placements == nil {
		placements = []Placement{}
	}
	data, err := json.Marshal(sheetLayout{
		SheetID:     s.StockID,
		SheetWidth:  s.SheetWidth,
		SheetHeight: s.SheetHeight,
		Placements:  placements,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
