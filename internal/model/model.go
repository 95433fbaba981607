package model

// Geometry distinguishes linear bar jobs from rectangular sheet jobs.
type Geometry string

const (
	Geometry1D Geometry = "1D"
	Geometry2D Geometry = "2D"
)

// Piece1D is an ordered linear piece to be cut from bar stock.
type Piece1D struct {
	ID          string `json:"id"`
	OrderItemID string `json:"orderItemId"`
	Length      int    `json:"length"` // mm
	Quantity    int    `json:"quantity"`
}

// Piece2D is an ordered rectangular piece to be cut from sheet stock.
type Piece2D struct {
	ID          string `json:"id"`
	OrderItemID string `json:"orderItemId"`
	Width       int    `json:"width"`  // mm
	Height      int    `json:"height"` // mm
	Quantity    int    `json:"quantity"`
	CanRotate   bool   `json:"canRotate"`
}

// Area returns the piece area in square mm.
func (p Piece2D) Area() int {
	return p.Width * p.Height
}

// Stock1D is a family of identical bars available for cutting.
type Stock1D struct {
	ID        string  `json:"id"`
	Length    int     `json:"length"` // mm
	Available int     `json:"available"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
}

// Stock2D is a family of identical sheets available for cutting.
type Stock2D struct {
	ID        string  `json:"id"`
	Width     int     `json:"width"`  // mm
	Height    int     `json:"height"` // mm
	Available int     `json:"available"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
}

// Area returns the sheet area in square mm.
func (s Stock2D) Area() int {
	return s.Width * s.Height
}

// Cut is a single piece positioned on a bar. Within a bar, consecutive cuts
// sorted by position satisfy position[i] + length[i] + kerf <= position[i+1].
type Cut struct {
	PieceID     string `json:"pieceId"`
	OrderItemID string `json:"orderItemId"`
	Position    int    `json:"position"` // mm from bar start
	Length      int    `json:"length"`   // mm
}

// UsableWaste marks a trailing bar remnant long enough to re-enter stock.
type UsableWaste struct {
	Position int `json:"position"` // mm from bar start
	Length   int `json:"length"`   // mm
}

// Placement is a single piece positioned on a sheet. Width and Height are the
// placed dimensions, with rotation already applied.
type Placement struct {
	PieceID     string `json:"pieceId"`
	OrderItemID string `json:"orderItemId"`
	X           int    `json:"x"`      // mm from sheet left edge
	Y           int    `json:"y"`      // mm from sheet bottom edge
	Width       int    `json:"width"`  // mm
	Height      int    `json:"height"` // mm
	Rotated     bool   `json:"rotated"`
}

// BarResult is one used bar with its cut list and waste accounting.
type BarResult struct {
	StockID         string       `json:"stockId"`
	StockLength     int          `json:"stockLength"`
	Cuts            []Cut        `json:"cuts"`
	Waste           int          `json:"waste"`
	WastePercentage float64      `json:"wastePercentage"`
	UsableWaste     *UsableWaste `json:"usableWaste,omitempty"`
}

// UsedLength returns the extent consumed by cuts and kerf gaps.
func (b BarResult) UsedLength() int {
	return b.StockLength - b.Waste
}

// SheetResult is one used sheet with its placements and waste accounting.
type SheetResult struct {
	StockID         string      `json:"stockId"`
	SheetWidth      int         `json:"sheetWidth"`
	SheetHeight     int         `json:"sheetHeight"`
	Placements      []Placement `json:"placements"`
	UsedArea        int         `json:"usedArea"`
	WasteArea       int         `json:"wasteArea"`
	WastePercentage float64     `json:"wastePercentage"`
}

// Efficiency returns the used share of the sheet as a percentage.
func (s SheetResult) Efficiency() float64 {
	area := s.SheetWidth * s.SheetHeight
	if area == 0 {
		return 0
	}
	return float64(s.UsedArea) / float64(area) * 100.0
}

// UnplacedPiece reports a piece no candidate stock could admit, aggregated
// back to its original id with the residual quantity.
type UnplacedPiece struct {
	ID          string `json:"id"`
	OrderItemID string `json:"orderItemId"`
	Quantity    int    `json:"quantity"`
	Length      int    `json:"length,omitempty"` // 1D
	Width       int    `json:"width,omitempty"`  // 2D
	Height      int    `json:"height,omitempty"` // 2D
}

// PackingStats aggregates run-level usage figures. Extent is length in mm
// for 1D runs and area in square mm for 2D runs.
type PackingStats struct {
	TotalPieces      int     `json:"totalPieces"`
	TotalStockExtent int     `json:"totalStockExtent"`
	TotalUsedExtent  int     `json:"totalUsedExtent"`
	Efficiency       float64 `json:"efficiency"` // 0..100
	TotalCost        float64 `json:"totalCost,omitempty"`
}

// PackingResult is the complete outcome of one algorithm run. Exactly one of
// Bars or Sheets is populated, matching the algorithm's geometry.
type PackingResult struct {
	Success              bool            `json:"success"`
	Bars                 []BarResult     `json:"bars,omitempty"`
	Sheets               []SheetResult   `json:"sheets,omitempty"`
	TotalWaste           int             `json:"totalWaste"`
	TotalWastePercentage float64         `json:"totalWastePercentage"`
	StockUsedCount       int             `json:"stockUsedCount"`
	Unplaced             []UnplacedPiece `json:"unplaced,omitempty"`
	Stats                PackingStats    `json:"stats"`
}

// PlacedCount returns the number of cuts or placements across all stock units.
func (r PackingResult) PlacedCount() int {
	n := 0
	for _, b := range r.Bars {
		n += len(b.Cuts)
	}
	for _, s := range r.Sheets {
		n += len(s.Placements)
	}
	return n
}

// UnplacedCount returns the total residual quantity of unplaced pieces.
func (r PackingResult) UnplacedCount() int {
	n := 0
	for _, u := range r.Unplaced {
		n += u.Quantity
	}
	return n
}
