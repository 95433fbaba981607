// Package packing implements the deterministic bin-packing algorithms for
// one-dimensional bar cutting and two-dimensional sheet cutting.
//
// Algorithms are pure functions: no I/O, no shared mutable state, and
// bit-identical output for identical input. All lengths and coordinates are
// integer millimetres.
package packing

import "github.com/optifab/cutplanner/internal/model"

// Registered algorithm names.
const (
	FFD1D        = "1D_FFD"
	BFD1D        = "1D_BFD"
	BottomLeft2D = "2D_BOTTOM_LEFT"
	Guillotine2D = "2D_GUILLOTINE"
)

// Options carries per-run packing parameters. Kerf applies to both
// geometries, MinUsableWaste to 1D only, AllowRotation to 2D only.
type Options struct {
	Kerf           int
	MinUsableWaste int
	AllowRotation  bool
	GuillotineOnly bool
}

// Input bundles the pieces and candidate stock for one run. Exactly one of
// the 1D/2D pairs is populated, matching the algorithm's geometry.
type Input struct {
	Pieces1D []model.Piece1D
	Stock1D  []model.Stock1D
	Pieces2D []model.Piece2D
	Stock2D  []model.Stock2D
	Options  Options
}

// Algorithm is the contract every packing heuristic implements. Execute
// never fails on empty input; it returns an empty, unsuccessful result.
// Invariant violations detected during a run panic and are classified by
// the executor.
type Algorithm interface {
	Name() string
	Geometry() model.Geometry
	Execute(in Input) model.PackingResult
}
