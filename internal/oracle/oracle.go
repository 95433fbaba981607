// Package oracle holds the learned-policy interface used to pick a packing
// algorithm when the caller does not specify one.
package oracle

import "errors"

// ErrNoRecommendation signals that the selector has nothing to suggest; the
// engine falls back to its defaults.
var ErrNoRecommendation = errors.New("oracle: no recommendation")

// Features is the vector derived from a job before algorithm selection.
type Features struct {
	Is1D            bool    `json:"is1D"`
	TotalPieces     int     `json:"totalPieces"`
	UniquePieces    int     `json:"uniquePieces"`
	AreaVariance    float64 `json:"pieceAreaVariance"`
	AspectRatioMean float64 `json:"pieceAspectRatioMean"`
	StockCount      int     `json:"stockCount"`
}

// Recommendation is the selector's answer, tagged with a prediction id so
// the actual outcome can be reported back.
type Recommendation struct {
	PredictionID string  `json:"predictionId"`
	Algorithm    string  `json:"algorithm"`
	Confidence   float64 `json:"confidence"` // 0..1
}

// Selector chooses algorithms and learns from run outcomes. SelectAlgorithm
// must be side-effect free; RecordOutcome is best-effort and must not block
// the caller.
type Selector interface {
	SelectAlgorithm(f Features) (Recommendation, error)
	RecordOutcome(predictionID string, wastePercentage float64, runtimeMS int64)
}

// Noop is a Selector that never recommends. A valid production choice when
// no policy model is deployed.
type Noop struct{}

func (Noop) SelectAlgorithm(Features) (Recommendation, error) {
	return Recommendation{}, ErrNoRecommendation
}

func (Noop) RecordOutcome(string, float64, int64) {}
