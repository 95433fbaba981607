// Command cutplanner runs a cutting job from a JSON file through the
// optimization engine and prints the resulting plan.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/optifab/cutplanner/internal/config"
	"github.com/optifab/cutplanner/internal/engine"
	"github.com/optifab/cutplanner/internal/events"
	"github.com/optifab/cutplanner/internal/model"
	"github.com/optifab/cutplanner/internal/oracle"
	"github.com/optifab/cutplanner/internal/packing"
	"github.com/optifab/cutplanner/internal/store"
	"github.com/optifab/cutplanner/internal/workerpool"
)

// jobFile is the on-disk input: one job plus the candidate stock.
type jobFile struct {
	Job   store.Job         `json:"job"`
	Stock []store.StockItem `json:"stock"`
}

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (optional)")
		jobPath    = flag.String("job", "", "path to JSON job file (required)")
		algorithm  = flag.String("algorithm", "", "force a specific algorithm")
		compare    = flag.Bool("compare", false, "run all algorithms and rank them")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *jobPath == "" {
		fmt.Fprintln(os.Stderr, "usage: cutplanner -job <file.json> [-config <file.yaml>] [-algorithm <name>] [-compare]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	} else if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	if err := run(cfg, log, *jobPath, *algorithm, *compare); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, log zerolog.Logger, jobPath, algorithm string, compare bool) error {
	data, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}
	var input jobFile
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("parse job file %s: %w", jobPath, err)
	}
	if input.Job.ID == "" {
		input.Job.ID = uuid.New().String()
	}

	jobs := store.NewMemoryJobStore()
	jobs.PutJob(input.Job)
	stock := store.NewMemoryStockStore()
	for _, item := range input.Stock {
		stock.PutStock(item)
	}

	registry := packing.Builtin()
	executor := engine.NewExecutor(registry, log)

	if compare {
		return runComparison(executor, registry, input, cfg, log)
	}

	bus := events.NewMemoryBus()
	bus.Subscribe(func(ev events.Event) {
		log.Debug().Str("kind", string(ev.Kind)).Str("scenario", ev.ScenarioID).Msg("event")
	})

	eng := engine.New(jobs, stock, executor, workerpool.Config{
		MinWorkers:   cfg.Pool.MinWorkers,
		MaxWorkers:   cfg.Pool.MaxWorkers,
		MaxQueue:     cfg.Pool.MaxQueue,
		TaskTimeout:  cfg.Pool.TaskTimeout(),
		IdleTimeout:  cfg.Pool.IdleTimeout(),
		DrainTimeout: cfg.Pool.DrainTimeout(),
	}, oracle.Noop{}, bus, log)
	defer eng.Close(context.Background())

	params := defaultParams(cfg, algorithm)
	params.WorkersOnly = cfg.WorkersOnly

	out := eng.Run(context.Background(), engine.Request{
		JobID:        input.Job.ID,
		ScenarioID:   uuid.New().String(),
		ScenarioName: input.Job.Name,
		Params:       params,
	})
	if !out.Success {
		return out.Err
	}
	printPlan(os.Stdout, out.Plan)
	return nil
}

func runComparison(executor *engine.Executor, registry *packing.Registry, input jobFile, cfg config.Config, log zerolog.Logger) error {
	base := defaultParams(cfg, "")
	base.Algorithm = ""

	geometry := model.Geometry1D
	if len(input.Job.Items) > 0 {
		geometry = input.Job.Items[0].Geometry
	}

	var names []string
	for _, name := range registry.Names() {
		if a, ok := registry.Get(name); ok && a.Geometry() == geometry {
			names = append(names, name)
		}
	}
	scenarios := engine.AlgorithmScenarios(base, names...)

	var entries []engine.ComparisonEntry
	if geometry == model.Geometry1D {
		var pieces []model.Piece1D
		for _, item := range input.Job.Items {
			pieces = append(pieces, model.Piece1D{ID: item.ID, OrderItemID: item.ID, Length: item.Length, Quantity: item.Quantity})
		}
		var bars []model.Stock1D
		for _, s := range input.Stock {
			if s.Geometry == model.Geometry1D {
				bars = append(bars, model.Stock1D{ID: s.ID, Length: s.Length, Available: s.Available, UnitPrice: s.UnitPrice})
			}
		}
		entries = executor.Compare1D(pieces, bars, scenarios)
	} else {
		var pieces []model.Piece2D
		for _, item := range input.Job.Items {
			pieces = append(pieces, model.Piece2D{ID: item.ID, OrderItemID: item.ID, Width: item.Width, Height: item.Height, Quantity: item.Quantity, CanRotate: item.CanRotate})
		}
		var sheets []model.Stock2D
		for _, s := range input.Stock {
			if s.Geometry == model.Geometry2D {
				sheets = append(sheets, model.Stock2D{ID: s.ID, Width: s.Width, Height: s.Height, Available: s.Available, UnitPrice: s.UnitPrice})
			}
		}
		entries = executor.Compare2D(pieces, sheets, scenarios)
	}

	fmt.Println("rank  algorithm        waste%   stock  unplaced  elapsed")
	for i, entry := range entries {
		o := entry.Outcome
		if !o.Success {
			fmt.Printf("%4d  %-15s  failed: %s\n", i+1, entry.Name, o.Err)
			continue
		}
		fmt.Printf("%4d  %-15s  %6.2f  %5d  %8d  %5dms\n",
			i+1, entry.Name, o.Result.TotalWastePercentage, o.Result.StockUsedCount, o.Result.UnplacedCount(), o.ElapsedMS)
	}
	return nil
}

func defaultParams(cfg config.Config, algorithm string) engine.Params {
	kerf := cfg.Cut.Kerf
	minWaste := cfg.Cut.MinUsableWaste
	rotate := cfg.Cut.AllowRotation
	return engine.Params{
		Algorithm:      algorithm,
		Kerf:           &kerf,
		MinUsableWaste: &minWaste,
		AllowRotation:  &rotate,
	}
}

func printPlan(w *os.File, plan model.PlanData) {
	fmt.Fprintf(w, "stock used: %d  waste: %d mm (%.2f%%)  efficiency: %.2f%%  unplaced: %d\n",
		plan.StockUsedCount, plan.TotalWaste, plan.WastePercentage, plan.Efficiency, plan.UnplacedCount)
	if plan.TotalCost > 0 {
		fmt.Fprintf(w, "material cost: %.2f\n", plan.TotalCost)
	}
	for _, layout := range plan.Layouts {
		fmt.Fprintf(w, "#%d %s waste=%d (%.2f%%)\n  %s\n",
			layout.Sequence, layout.StockItemID, layout.Waste, layout.WastePercentage, layout.SerializedLayout)
	}
}
