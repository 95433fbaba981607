package oracle

import (
	"sync"

	"github.com/google/uuid"
)

// History is a Selector that learns from recorded outcomes: it buckets
// feature vectors coarsely and recommends the algorithm with the lowest
// observed mean waste for the bucket.
type History struct {
	mu         sync.Mutex
	buckets    map[string]map[string]*algoStats
	pending    map[string]prediction
	minSamples int
}

type algoStats struct {
	runs     int
	wasteSum float64
}

type prediction struct {
	bucket    string
	algorithm string
}

// NewHistory returns a History requiring minSamples outcomes per algorithm
// before it recommends one. minSamples below 1 is treated as 1.
func NewHistory(minSamples int) *History {
	if minSamples < 1 {
		minSamples = 1
	}
	return &History{
		buckets:    make(map[string]map[string]*algoStats),
		pending:    make(map[string]prediction),
		minSamples: minSamples,
	}
}

// bucketKey folds a feature vector into a coarse class: geometry plus
// piece-count and stock-count bands.
func bucketKey(f Features) string {
	geometry := "2D"
	if f.Is1D {
		geometry = "1D"
	}
	return geometry + "|" + band(f.TotalPieces) + "|" + band(f.StockCount)
}

func band(n int) string {
	switch {
	case n <= 20:
		return "s"
	case n <= 100:
		return "m"
	default:
		return "l"
	}
}

// SelectAlgorithm recommends the historically best algorithm for the
// feature bucket, or ErrNoRecommendation when no algorithm has enough
// samples yet.
func (h *History) SelectAlgorithm(f Features) (Recommendation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bucket := bucketKey(f)
	best, bestMean, bestRuns := "", 0.0, 0
	for name, s := range h.buckets[bucket] {
		if s.runs < h.minSamples {
			continue
		}
		mean := s.wasteSum / float64(s.runs)
		if best == "" || mean < bestMean || (mean == bestMean && name < best) {
			best, bestMean, bestRuns = name, mean, s.runs
		}
	}
	if best == "" {
		return Recommendation{}, ErrNoRecommendation
	}

	rec := Recommendation{
		PredictionID: uuid.New().String(),
		Algorithm:    best,
		Confidence:   float64(bestRuns) / float64(bestRuns+1),
	}
	h.pending[rec.PredictionID] = prediction{bucket: bucket, algorithm: best}
	return rec, nil
}

// RecordOutcome folds an actual run result into the statistics. Unknown
// prediction ids are ignored.
func (h *History) RecordOutcome(predictionID string, wastePercentage float64, runtimeMS int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.pending[predictionID]
	if !ok {
		return
	}
	delete(h.pending, predictionID)

	algos := h.buckets[p.bucket]
	if algos == nil {
		algos = make(map[string]*algoStats)
		h.buckets[p.bucket] = algos
	}
	s := algos[p.algorithm]
	if s == nil {
		s = &algoStats{}
		algos[p.algorithm] = s
	}
	s.runs++
	s.wasteSum += wastePercentage
}

// Observe seeds the history with an outcome that did not come from a
// recommendation, e.g. from scenario comparison runs.
func (h *History) Observe(f Features, algorithm string, wastePercentage float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bucket := bucketKey(f)
	algos := h.buckets[bucket]
	if algos == nil {
		algos = make(map[string]*algoStats)
		h.buckets[bucket] = algos
	}
	s := algos[algorithm]
	if s == nil {
		s = &algoStats{}
		algos[algorithm] = s
	}
	s.runs++
	s.wasteSum += wastePercentage
}
