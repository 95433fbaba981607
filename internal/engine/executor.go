// Package engine orchestrates optimization runs: it loads jobs and stock,
// selects and executes a packing algorithm, converts results into plans,
// and emits lifecycle events.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/optifab/cutplanner/internal/model"
	"github.com/optifab/cutplanner/internal/packing"
)

// Parameter defaults and bounds.
const (
	DefaultKerf           = 3
	MaxKerf               = 20
	DefaultMinUsableWaste = 50
)

// Params carries per-request overrides. Nil pointer fields take defaults.
type Params struct {
	Algorithm        string   `json:"algorithm,omitempty"`
	Kerf             *int     `json:"kerf,omitempty"`
	MinUsableWaste   *int     `json:"minUsableWaste,omitempty"`
	AllowRotation    *bool    `json:"allowRotation,omitempty"`
	GuillotineOnly   bool     `json:"guillotineOnly,omitempty"`
	SelectedStockIDs []string `json:"selectedStockIds,omitempty"`
	WorkersOnly      bool     `json:"workersOnly,omitempty"`
}

// options resolves the pointer fields into concrete packing options.
func (p Params) options() packing.Options {
	opts := packing.Options{
		Kerf:           DefaultKerf,
		MinUsableWaste: DefaultMinUsableWaste,
		AllowRotation:  true,
		GuillotineOnly: p.GuillotineOnly,
	}
	if p.Kerf != nil {
		opts.Kerf = *p.Kerf
	}
	if p.MinUsableWaste != nil {
		opts.MinUsableWaste = *p.MinUsableWaste
	}
	if p.AllowRotation != nil {
		opts.AllowRotation = *p.AllowRotation
	}
	return opts
}

func (p Params) validate() *model.Error {
	if p.Kerf != nil && (*p.Kerf < 0 || *p.Kerf > MaxKerf) {
		return model.NewError(model.CodeValidation, "kerf %d outside 0..%d mm", *p.Kerf, MaxKerf)
	}
	if p.MinUsableWaste != nil && *p.MinUsableWaste < 0 {
		return model.NewError(model.CodeValidation, "minUsableWaste %d must not be negative", *p.MinUsableWaste)
	}
	return nil
}

// Outcome is the result envelope of one executor run.
type Outcome struct {
	Success   bool
	Result    model.PackingResult
	Algorithm string
	ElapsedMS int64
	Err       *model.Error
}

// Executor dispatches packing runs against the algorithm registry with
// parameter defaulting, validation, and wall-clock timing.
type Executor struct {
	registry *packing.Registry
	log      zerolog.Logger
}

func NewExecutor(registry *packing.Registry, log zerolog.Logger) *Executor {
	return &Executor{registry: registry, log: log}
}

// Execute1D runs a bar-packing algorithm. An unspecified algorithm defaults
// to 1D_FFD.
func (x *Executor) Execute1D(pieces []model.Piece1D, stock []model.Stock1D, p Params) Outcome {
	name := p.Algorithm
	if name == "" {
		name = packing.FFD1D
	}
	return x.run(name, model.Geometry1D, packing.Input{
		Pieces1D: pieces,
		Stock1D:  stock,
		Options:  p.options(),
	}, p)
}

// Execute2D runs a sheet-packing algorithm. An unspecified algorithm
// defaults to 2D_BOTTOM_LEFT, or 2D_GUILLOTINE when GuillotineOnly is set.
func (x *Executor) Execute2D(pieces []model.Piece2D, stock []model.Stock2D, p Params) Outcome {
	name := p.Algorithm
	if name == "" {
		name = packing.BottomLeft2D
		if p.GuillotineOnly {
			name = packing.Guillotine2D
		}
	}
	return x.run(name, model.Geometry2D, packing.Input{
		Pieces2D: pieces,
		Stock2D:  stock,
		Options:  p.options(),
	}, p)
}

func (x *Executor) run(name string, geometry model.Geometry, in packing.Input, p Params) (out Outcome) {
	out.Algorithm = name
	if err := p.validate(); err != nil {
		out.Err = err
		return out
	}

	algo, ok := x.registry.Get(name)
	if !ok {
		out.Err = model.NewError(model.CodeUnknownAlgorithm, "unknown algorithm %q", name)
		return out
	}
	if algo.Geometry() != geometry {
		out.Err = model.NewError(model.CodeAlgorithmMismatch, "algorithm %q is %s, job is %s", name, algo.Geometry(), geometry)
		return out
	}

	started := time.Now()
	defer func() {
		out.ElapsedMS = time.Since(started).Milliseconds()
		if r := recover(); r != nil {
			x.log.Error().Str("algorithm", name).Interface("panic", r).Msg("algorithm panicked")
			out.Success = false
			out.Result = model.PackingResult{}
			out.Err = model.NewError(model.CodeInternal, "algorithm %s panicked: %v", name, r)
		}
	}()

	out.Result = algo.Execute(in)
	out.Success = true
	x.log.Debug().
		Str("algorithm", name).
		Int("stockUsed", out.Result.StockUsedCount).
		Float64("wastePct", out.Result.TotalWastePercentage).
		Msg("algorithm run finished")
	return out
}
