package engine

import (
	"sort"

	"github.com/optifab/cutplanner/internal/model"
)

// Scenario is one what-if variant in a comparison run: a name and the
// parameters to try.
type Scenario struct {
	Name   string
	Params Params
}

// ComparisonEntry is one scenario's outcome inside a ranked comparison.
type ComparisonEntry struct {
	Name    string
	Outcome Outcome
}

// Compare1D runs the same pieces and stock through every scenario and ranks
// the outcomes by waste percentage ascending. Failed runs sort last. The
// stock slice is shared read-only across runs.
func (x *Executor) Compare1D(pieces []model.Piece1D, stock []model.Stock1D, scenarios []Scenario) []ComparisonEntry {
	entries := make([]ComparisonEntry, 0, len(scenarios))
	for _, s := range scenarios {
		entries = append(entries, ComparisonEntry{
			Name:    s.Name,
			Outcome: x.Execute1D(pieces, stock, s.Params),
		})
	}
	rank(entries)
	return entries
}

// Compare2D is the sheet-cutting counterpart of Compare1D.
func (x *Executor) Compare2D(pieces []model.Piece2D, stock []model.Stock2D, scenarios []Scenario) []ComparisonEntry {
	entries := make([]ComparisonEntry, 0, len(scenarios))
	for _, s := range scenarios {
		entries = append(entries, ComparisonEntry{
			Name:    s.Name,
			Outcome: x.Execute2D(pieces, stock, s.Params),
		})
	}
	rank(entries)
	return entries
}

// AlgorithmScenarios builds one scenario per algorithm name, carrying the
// shared base parameters. Useful for comparing all registered algorithms of
// one geometry.
func AlgorithmScenarios(base Params, names ...string) []Scenario {
	scenarios := make([]Scenario, 0, len(names))
	for _, name := range names {
		p := base
		p.Algorithm = name
		scenarios = append(scenarios, Scenario{Name: name, Params: p})
	}
	return scenarios
}

// rank orders entries best-first: successful runs by ascending waste
// percentage with fewer unplaced pieces winning ties, failures last. The
// sort is stable so equal scenarios keep their declaration order.
func rank(entries []ComparisonEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Outcome, entries[j].Outcome
		if a.Success != b.Success {
			return a.Success
		}
		if !a.Success {
			return false
		}
		if a.Result.UnplacedCount() != b.Result.UnplacedCount() {
			return a.Result.UnplacedCount() < b.Result.UnplacedCount()
		}
		return a.Result.TotalWastePercentage < b.Result.TotalWastePercentage
	})
}
