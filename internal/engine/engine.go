package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/optifab/cutplanner/internal/events"
	"github.com/optifab/cutplanner/internal/model"
	"github.com/optifab/cutplanner/internal/oracle"
	"github.com/optifab/cutplanner/internal/packing"
	"github.com/optifab/cutplanner/internal/store"
	"github.com/optifab/cutplanner/internal/workerpool"
)

// Request asks for one optimization run.
type Request struct {
	JobID        string `json:"jobId"`
	ScenarioID   string `json:"scenarioId"`
	ScenarioName string `json:"scenarioName,omitempty"`
	Params       Params `json:"parameters"`
}

// Output is the engine's answer. Success does not require every piece to be
// placed; Plan.UnplacedCount signals leftovers. Only infrastructural
// failures set Success false.
type Output struct {
	Success bool           `json:"success"`
	Plan    model.PlanData `json:"planData"`
	PlanID  string         `json:"planId,omitempty"`
	Err     *model.Error   `json:"error,omitempty"`
}

// runPayload crosses into the worker pool by value.
type runPayload struct {
	Geometry model.Geometry
	Pieces1D []model.Piece1D
	Stock1D  []model.Stock1D
	Pieces2D []model.Piece2D
	Stock2D  []model.Stock2D
	Params   Params
}

// Engine runs optimization scenarios end to end.
type Engine struct {
	jobs     store.JobStore
	stock    store.StockStore
	executor *Executor
	pool     *workerpool.Pool[runPayload, Outcome]
	selector oracle.Selector
	bus      events.Bus
	log      zerolog.Logger
}

// PoolConfig re-exported for callers wiring the engine.
type PoolConfig = workerpool.Config

// New wires an engine with its own worker pool. selector may be nil to
// disable the policy oracle; bus may be nil to suppress lifecycle events.
func New(jobs store.JobStore, stock store.StockStore, executor *Executor, poolCfg PoolConfig, selector oracle.Selector, bus events.Bus, log zerolog.Logger) *Engine {
	e := &Engine{
		jobs:     jobs,
		stock:    stock,
		executor: executor,
		selector: selector,
		bus:      bus,
		log:      log,
	}
	e.pool = workerpool.New(poolCfg, e.process, log.With().Str("component", "pool").Logger())
	return e
}

// process is the pool-side entrypoint; it runs on a worker.
func (e *Engine) process(ctx context.Context, task workerpool.Task[runPayload]) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	p := task.Payload
	if p.Geometry == model.Geometry1D {
		return e.executor.Execute1D(p.Pieces1D, p.Stock1D, p.Params), nil
	}
	return e.executor.Execute2D(p.Pieces2D, p.Stock2D, p.Params), nil
}

// Run executes one optimization scenario: load, classify, select, pack,
// convert, report. It publishes started before any failure can occur and
// exactly one terminal event.
func (e *Engine) Run(ctx context.Context, req Request) Output {
	log := e.log.With().Str("scenario", req.ScenarioID).Str("job", req.JobID).Logger()
	e.publish(ctx, events.New(events.KindStarted, req.ScenarioID, events.Started{
		ScenarioName: req.ScenarioName,
		JobID:        req.JobID,
		StartedAt:    time.Now(),
	}))

	job, err := e.jobs.GetJob(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return e.fail(ctx, req.ScenarioID, log, model.NewError(model.CodeJobNotFound, "job %s not found", req.JobID))
		}
		return e.fail(ctx, req.ScenarioID, log, model.NewError(model.CodeInternal, "load job: %v", err))
	}

	geometry := model.Geometry1D
	if len(job.Items) > 0 {
		geometry = job.Items[0].Geometry
	} else {
		// Nothing to cut is still a valid, empty plan.
		planID, planNumber := newPlanID()
		plan := model.PlanData{Efficiency: 0, Layouts: []model.Layout{}}
		e.complete(ctx, req.ScenarioID, planID, planNumber, plan)
		return Output{Success: true, Plan: plan, PlanID: planID}
	}

	stockItems, err := e.stock.QueryStock(ctx, store.StockQuery{
		MaterialTypeID: job.MaterialTypeID,
		Thickness:      job.Thickness,
		Geometry:       geometry,
		IDs:            req.Params.SelectedStockIDs,
	})
	if err != nil {
		return e.fail(ctx, req.ScenarioID, log, model.NewError(model.CodeInternal, "load stock: %v", err))
	}
	if len(stockItems) == 0 {
		return e.fail(ctx, req.ScenarioID, log, model.NewError(model.CodeNoStock, "no stock for material %s thickness %d", job.MaterialTypeID, job.Thickness))
	}

	payload := buildPayload(job, stockItems, geometry, req.Params)
	predictionID := e.enrich(&payload, log)

	outcome, execErr := e.dispatch(ctx, payload, req.Params.WorkersOnly, log)
	if execErr != nil {
		return e.fail(ctx, req.ScenarioID, log, execErr)
	}
	if outcome.Err != nil {
		return e.fail(ctx, req.ScenarioID, log, outcome.Err)
	}

	e.publish(ctx, events.New(events.KindProgress, req.ScenarioID, events.Progress{
		Progress: 0.9,
		Message:  "converting result",
	}))

	plan, err := toPlanData(outcome.Result)
	if err != nil {
		return e.fail(ctx, req.ScenarioID, log, model.NewError(model.CodeInternal, "serialize plan: %v", err))
	}

	if predictionID != "" && e.selector != nil {
		// Best effort; never blocks the response.
		go e.selector.RecordOutcome(predictionID, plan.WastePercentage, outcome.ElapsedMS)
	}

	planID, planNumber := newPlanID()
	e.complete(ctx, req.ScenarioID, planID, planNumber, plan)
	log.Info().
		Str("algorithm", outcome.Algorithm).
		Int64("elapsedMs", outcome.ElapsedMS).
		Int("stockUsed", plan.StockUsedCount).
		Float64("wastePct", plan.WastePercentage).
		Int("unplaced", plan.UnplacedCount).
		Msg("optimization completed")
	return Output{Success: true, Plan: plan, PlanID: planID}
}

// enrich fills in the algorithm from the policy oracle when the request
// left it unspecified. Any oracle miss falls back to the safe defaults.
// It returns the prediction id to report the outcome against, if any.
func (e *Engine) enrich(p *runPayload, log zerolog.Logger) string {
	if p.Params.Algorithm != "" || e.selector == nil {
		return ""
	}
	rec, err := e.selector.SelectAlgorithm(extractFeatures(*p))
	if err != nil {
		if !errors.Is(err, oracle.ErrNoRecommendation) {
			log.Warn().Err(err).Msg("oracle selection failed, using defaults")
		}
		p.Params.Algorithm = fallbackAlgorithm(p.Geometry)
		return ""
	}
	log.Debug().Str("algorithm", rec.Algorithm).Float64("confidence", rec.Confidence).Msg("oracle recommendation")
	p.Params.Algorithm = rec.Algorithm
	return rec.PredictionID
}

// dispatch runs the payload on the worker pool, falling back to inline
// execution on pool capacity or execution errors unless workersOnly is set.
func (e *Engine) dispatch(ctx context.Context, payload runPayload, workersOnly bool, log zerolog.Logger) (Outcome, *model.Error) {
	pending, err := e.pool.Submit(workerpool.Task[runPayload]{
		Kind:    string(payload.Geometry),
		Payload: payload,
	})
	if err == nil {
		outcome, waitErr := pending.Wait(ctx)
		if waitErr == nil {
			return outcome, nil
		}
		if errors.Is(waitErr, context.Canceled) || errors.Is(waitErr, context.DeadlineExceeded) {
			pending.Abort()
			return Outcome{}, model.NewError(model.CodeCancelled, "optimization cancelled")
		}
		err = waitErr
	}

	if code, fallback := classifyPoolError(err); !fallback || workersOnly {
		return Outcome{}, &model.Error{Code: code, Message: err.Error()}
	}
	log.Warn().Err(err).Msg("pool execution failed, running inline")
	return e.runInline(payload), nil
}

func (e *Engine) runInline(p runPayload) Outcome {
	if p.Geometry == model.Geometry1D {
		return e.executor.Execute1D(p.Pieces1D, p.Stock1D, p.Params)
	}
	return e.executor.Execute2D(p.Pieces2D, p.Stock2D, p.Params)
}

// classifyPoolError maps pool sentinels to boundary codes and decides
// whether inline fallback applies. Cancellation and shutdown never fall
// back; capacity and execution failures do.
func classifyPoolError(err error) (model.Code, bool) {
	switch {
	case errors.Is(err, workerpool.ErrQueueFull):
		return model.CodeQueueFull, true
	case errors.Is(err, workerpool.ErrTimeout):
		return model.CodeTimeout, true
	case errors.Is(err, workerpool.ErrWorkerCrash):
		return model.CodeWorkerCrash, true
	case errors.Is(err, workerpool.ErrCancelled):
		return model.CodeCancelled, false
	case errors.Is(err, workerpool.ErrShuttingDown):
		return model.CodeShuttingDown, false
	default:
		return model.CodeInternal, true
	}
}

func fallbackAlgorithm(g model.Geometry) string {
	if g == model.Geometry1D {
		return packing.FFD1D
	}
	return packing.Guillotine2D
}

// buildPayload projects job items and stock families onto the algorithm DTOs.
func buildPayload(job store.Job, stockItems []store.StockItem, geometry model.Geometry, params Params) runPayload {
	p := runPayload{Geometry: geometry, Params: params}
	if geometry == model.Geometry1D {
		for _, item := range job.Items {
			p.Pieces1D = append(p.Pieces1D, model.Piece1D{
				ID:          item.ID,
				OrderItemID: item.ID,
				Length:      item.Length,
				Quantity:    item.Quantity,
			})
		}
		for _, s := range stockItems {
			p.Stock1D = append(p.Stock1D, model.Stock1D{
				ID:        s.ID,
				Length:    s.Length,
				Available: s.Available,
				UnitPrice: s.UnitPrice,
			})
		}
		return p
	}
	for _, item := range job.Items {
		p.Pieces2D = append(p.Pieces2D, model.Piece2D{
			ID:          item.ID,
			OrderItemID: item.ID,
			Width:       item.Width,
			Height:      item.Height,
			Quantity:    item.Quantity,
			CanRotate:   item.CanRotate,
		})
	}
	for _, s := range stockItems {
		p.Stock2D = append(p.Stock2D, model.Stock2D{
			ID:        s.ID,
			Width:     s.Width,
			Height:    s.Height,
			Available: s.Available,
			UnitPrice: s.UnitPrice,
		})
	}
	return p
}

// extractFeatures derives the oracle feature vector from a run payload.
func extractFeatures(p runPayload) oracle.Features {
	f := oracle.Features{Is1D: p.Geometry == model.Geometry1D}
	if f.Is1D {
		f.UniquePieces = len(p.Pieces1D)
		f.StockCount = len(p.Stock1D)
		var sum, count float64
		for _, piece := range p.Pieces1D {
			f.TotalPieces += piece.Quantity
			sum += float64(piece.Length)
			count++
		}
		if count > 0 {
			mean := sum / count
			var variance float64
			for _, piece := range p.Pieces1D {
				d := float64(piece.Length) - mean
				variance += d * d
			}
			f.AreaVariance = variance / count
			f.AspectRatioMean = 1
		}
		return f
	}

	f.UniquePieces = len(p.Pieces2D)
	f.StockCount = len(p.Stock2D)
	var areaSum, ratioSum, count float64
	for _, piece := range p.Pieces2D {
		f.TotalPieces += piece.Quantity
		areaSum += float64(piece.Area())
		if piece.Height > 0 {
			ratioSum += float64(piece.Width) / float64(piece.Height)
		}
		count++
	}
	if count > 0 {
		mean := areaSum / count
		var variance float64
		for _, piece := range p.Pieces2D {
			d := float64(piece.Area()) - mean
			variance += d * d
		}
		f.AreaVariance = variance / count
		f.AspectRatioMean = ratioSum / count
	}
	return f
}

func (e *Engine) complete(ctx context.Context, scenarioID string, planID, planNumber string, plan model.PlanData) {
	e.publish(ctx, events.New(events.KindCompleted, scenarioID, events.Completed{
		PlanID:          planID,
		PlanNumber:      planNumber,
		TotalWaste:      plan.TotalWaste,
		WastePercentage: plan.WastePercentage,
		StockUsedCount:  plan.StockUsedCount,
		CompletedAt:     time.Now(),
	}))
}

func (e *Engine) fail(ctx context.Context, scenarioID string, log zerolog.Logger, err *model.Error) Output {
	log.Error().Str("code", string(err.Code)).Str("message", err.Message).Msg("optimization failed")
	e.publish(ctx, events.New(events.KindFailed, scenarioID, events.Failed{
		Error:    err.Error(),
		FailedAt: time.Now(),
	}))
	return Output{Success: false, Err: err}
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, ev); err != nil {
		e.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("event publish failed")
	}
}

// PoolStats returns a snapshot of the engine's worker pool.
func (e *Engine) PoolStats() workerpool.Stats {
	return e.pool.Stats()
}

// Healthy reports whether the pool has execution headroom.
func (e *Engine) Healthy() bool {
	return e.pool.Healthy()
}

// Close drains the worker pool.
func (e *Engine) Close(ctx context.Context) error {
	return e.pool.Shutdown(ctx)
}
