package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optifab/cutplanner/internal/events"
	"github.com/optifab/cutplanner/internal/model"
	"github.com/optifab/cutplanner/internal/oracle"
	"github.com/optifab/cutplanner/internal/packing"
	"github.com/optifab/cutplanner/internal/store"
	"github.com/optifab/cutplanner/internal/workerpool"
)

type engineFixture struct {
	engine *Engine
	jobs   *store.MemoryJobStore
	stock  *store.MemoryStockStore
	bus    *events.MemoryBus
}

func newFixture(t *testing.T, selector oracle.Selector) *engineFixture {
	t.Helper()
	jobs := store.NewMemoryJobStore()
	stock := store.NewMemoryStockStore()
	bus := events.NewMemoryBus()
	executor := NewExecutor(packing.Builtin(), zerolog.Nop())
	eng := New(jobs, stock, executor, workerpool.Config{MinWorkers: 1, MaxWorkers: 2}, selector, bus, zerolog.Nop())
	t.Cleanup(func() { eng.Close(context.Background()) })
	return &engineFixture{engine: eng, jobs: jobs, stock: stock, bus: bus}
}

func (f *engineFixture) seed1D() {
	f.jobs.PutJob(store.Job{
		ID: "job-1", Name: "window frames", MaterialTypeID: "steel", Thickness: 2,
		Items: []store.JobItem{
			{ID: "item-1", Geometry: model.Geometry1D, Length: 900, Quantity: 2},
			{ID: "item-2", Geometry: model.Geometry1D, Length: 450, Quantity: 3},
		},
	})
	f.stock.PutStock(store.StockItem{
		ID: "bar-6m", MaterialTypeID: "steel", Thickness: 2,
		Geometry: model.Geometry1D, Length: 6000, Available: 4, UnitPrice: 30,
	})
}

func (f *engineFixture) collectEvents() *[]events.Event {
	var got []events.Event
	f.bus.Subscribe(func(e events.Event) { got = append(got, e) })
	return &got
}

func TestEngine_Run1DHappyPath(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	f.seed1D()
	got := f.collectEvents()

	out := f.engine.Run(context.Background(), Request{
		JobID: "job-1", ScenarioID: "sc-1", ScenarioName: "baseline",
	})

	require.True(t, out.Success)
	require.Nil(t, out.Err)
	assert.NotEmpty(t, out.PlanID)
	assert.Equal(t, 1, out.Plan.StockUsedCount)
	require.Len(t, out.Plan.Layouts, 1)
	assert.Equal(t, 1, out.Plan.Layouts[0].Sequence)
	assert.Equal(t, "bar-6m", out.Plan.Layouts[0].StockItemID)
	assert.Contains(t, out.Plan.Layouts[0].SerializedLayout, `"barId":"bar-6m"`)
	assert.Equal(t, 0, out.Plan.UnplacedCount)
	assert.InDelta(t, 30.0, out.Plan.TotalCost, 1e-9)

	// started strictly precedes the terminal event.
	evts := *got
	require.GreaterOrEqual(t, len(evts), 2)
	assert.Equal(t, events.KindStarted, evts[0].Kind)
	assert.Equal(t, events.KindCompleted, evts[len(evts)-1].Kind)
	for _, e := range evts {
		assert.Equal(t, "sc-1", e.ScenarioID)
	}
}

func TestEngine_Run2DHappyPath(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	f.jobs.PutJob(store.Job{
		ID: "job-2", MaterialTypeID: "mdf", Thickness: 18,
		Items: []store.JobItem{
			{ID: "panel", Geometry: model.Geometry2D, Width: 600, Height: 400, Quantity: 2, CanRotate: true},
		},
	})
	f.stock.PutStock(store.StockItem{
		ID: "sheet-a", MaterialTypeID: "mdf", Thickness: 18,
		Geometry: model.Geometry2D, Width: 2440, Height: 1220, Available: 2,
	})

	out := f.engine.Run(context.Background(), Request{JobID: "job-2", ScenarioID: "sc-2"})

	require.True(t, out.Success)
	assert.Equal(t, 1, out.Plan.StockUsedCount)
	require.Len(t, out.Plan.Layouts, 1)
	assert.Contains(t, out.Plan.Layouts[0].SerializedLayout, `"sheetId":"sheet-a"`)
	assert.Equal(t, 0, out.Plan.UnplacedCount)
}

func TestEngine_JobNotFound(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	got := f.collectEvents()

	out := f.engine.Run(context.Background(), Request{JobID: "missing", ScenarioID: "sc-3"})

	require.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, model.CodeJobNotFound, out.Err.Code)

	evts := *got
	require.Len(t, evts, 2)
	assert.Equal(t, events.KindStarted, evts[0].Kind)
	assert.Equal(t, events.KindFailed, evts[1].Kind)
}

func TestEngine_NoStock(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	f.jobs.PutJob(store.Job{
		ID: "job-4", MaterialTypeID: "steel", Thickness: 2,
		Items: []store.JobItem{{ID: "item", Geometry: model.Geometry1D, Length: 100, Quantity: 1}},
	})

	out := f.engine.Run(context.Background(), Request{JobID: "job-4", ScenarioID: "sc-4"})

	require.False(t, out.Success)
	require.NotNil(t, out.Err)
	assert.Equal(t, model.CodeNoStock, out.Err.Code)
}

func TestEngine_EmptyJobYieldsEmptyPlan(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	f.jobs.PutJob(store.Job{ID: "job-5", MaterialTypeID: "steel"})
	got := f.collectEvents()

	out := f.engine.Run(context.Background(), Request{JobID: "job-5", ScenarioID: "sc-5"})

	require.True(t, out.Success)
	assert.Empty(t, out.Plan.Layouts)
	assert.Equal(t, 0, out.Plan.StockUsedCount)

	evts := *got
	require.Len(t, evts, 2)
	assert.Equal(t, events.KindCompleted, evts[1].Kind)
}

func TestEngine_StockIDAllowlist(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	f.seed1D()
	f.stock.PutStock(store.StockItem{
		ID: "bar-4m", MaterialTypeID: "steel", Thickness: 2,
		Geometry: model.Geometry1D, Length: 4000, Available: 4,
	})

	out := f.engine.Run(context.Background(), Request{
		JobID: "job-1", ScenarioID: "sc-6",
		Params: Params{SelectedStockIDs: []string{"bar-4m"}},
	})

	require.True(t, out.Success)
	for _, layout := range out.Plan.Layouts {
		assert.Equal(t, "bar-4m", layout.StockItemID)
	}
}

func TestEngine_DeterministicAcrossRuns(t *testing.T) {
	// The pool path and repeated runs must serialize identically.
	f := newFixture(t, oracle.Noop{})
	f.seed1D()

	first := f.engine.Run(context.Background(), Request{JobID: "job-1", ScenarioID: "sc-7"})
	second := f.engine.Run(context.Background(), Request{JobID: "job-1", ScenarioID: "sc-8"})

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.Plan.Layouts, second.Plan.Layouts)
	assert.Equal(t, first.Plan.TotalWaste, second.Plan.TotalWaste)
}

// recordingSelector always recommends and captures the reported outcome.
type recordingSelector struct {
	algorithm string
	features  oracle.Features
	outcomes  chan [2]float64 // wastePercentage, runtimeMS
}

func (s *recordingSelector) SelectAlgorithm(f oracle.Features) (oracle.Recommendation, error) {
	s.features = f
	return oracle.Recommendation{PredictionID: "pred-1", Algorithm: s.algorithm, Confidence: 0.8}, nil
}

func (s *recordingSelector) RecordOutcome(predictionID string, wastePercentage float64, runtimeMS int64) {
	if predictionID == "pred-1" {
		s.outcomes <- [2]float64{wastePercentage, float64(runtimeMS)}
	}
}

func TestEngine_OracleRecommendationAndOutcome(t *testing.T) {
	selector := &recordingSelector{algorithm: packing.BFD1D, outcomes: make(chan [2]float64, 1)}
	f := newFixture(t, selector)
	f.seed1D()

	out := f.engine.Run(context.Background(), Request{JobID: "job-1", ScenarioID: "sc-9"})

	require.True(t, out.Success)
	assert.True(t, selector.features.Is1D)
	assert.Equal(t, 5, selector.features.TotalPieces)
	assert.Equal(t, 2, selector.features.UniquePieces)
	assert.Equal(t, 1, selector.features.StockCount)

	select {
	case outcome := <-selector.outcomes:
		assert.InDelta(t, out.Plan.WastePercentage, outcome[0], 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("RecordOutcome was never called")
	}
}

func TestEngine_ExplicitAlgorithmSkipsOracle(t *testing.T) {
	selector := &recordingSelector{algorithm: packing.BFD1D, outcomes: make(chan [2]float64, 1)}
	f := newFixture(t, selector)
	f.seed1D()

	out := f.engine.Run(context.Background(), Request{
		JobID: "job-1", ScenarioID: "sc-10",
		Params: Params{Algorithm: packing.FFD1D},
	})

	require.True(t, out.Success)
	assert.Equal(t, oracle.Features{}, selector.features)
}

func TestEngine_UnknownAlgorithmFails(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	f.seed1D()
	got := f.collectEvents()

	out := f.engine.Run(context.Background(), Request{
		JobID: "job-1", ScenarioID: "sc-11",
		Params: Params{Algorithm: "1D_BRANCH_BOUND"},
	})

	require.False(t, out.Success)
	assert.Equal(t, model.CodeUnknownAlgorithm, out.Err.Code)
	evts := *got
	assert.Equal(t, events.KindFailed, evts[len(evts)-1].Kind)
}

func TestEngine_PoolHealthExposed(t *testing.T) {
	f := newFixture(t, oracle.Noop{})
	assert.True(t, f.engine.Healthy())
	stats := f.engine.PoolStats()
	assert.GreaterOrEqual(t, stats.Live, 1)
}
