// Package main tunes the evolutionary knobs with CMA-ES, searching for
// settings under which both corgi teams survive and keep contesting the map.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/corgis/config"
	"github.com/pthm-cable/corgis/territory"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 20000, "Maximum simulation duration in ticks (cap)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = 4 + 3 ln n)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*configPath, *outputDir, *maxTicks, *seeds, *maxEvals, *population); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, maxTicks, numSeeds, maxEvals, population int) error {
	if outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evalSeeds := make([]int64, numSeeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, int32(maxTicks), evalSeeds, baseCfg)

	dim := params.Dim()
	popSize := population
	if popSize <= 0 {
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	log, err := newEvalLog(filepath.Join(outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer log.Close()

	best := math.Inf(1)
	var bestParams []float64
	evals := 0
	start := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			summary := evaluator.LastSummary()
			evals++

			if fitness < best {
				best = fitness
				bestParams = raw
			}
			if err := log.Write(evals, summary, raw); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}

			elapsed := time.Since(start)
			remaining := time.Duration(maxEvals-evals) * (elapsed / time.Duration(evals))
			slog.Info("eval",
				"n", evals,
				"of", maxEvals,
				"fitness", fitness,
				"best", best,
				"survival_ticks", summary.SurvivalTicks,
				"quality", summary.Quality,
				"blue_share", summary.Share[territory.TeamA],
				"red_share", summary.Share[territory.TeamB],
				"blue_alive", summary.Survivors[territory.TeamA],
				"red_alive", summary.Survivors[territory.TeamB],
				"elapsed", elapsed.Round(time.Second).String(),
				"eta", remaining.Round(time.Second).String(),
			)
			return fitness
		},
	}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", maxEvals,
		"seeds", numSeeds,
		"max_ticks", maxTicks,
	)

	result, err := optimize.Minimize(problem,
		params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		slog.Warn("optimization ended early", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	attrs := []any{"evals", evals, "fitness", best, "elapsed", time.Since(start).Round(time.Second).String()}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Name, bestParams[i])
	}
	slog.Info("optimization complete", attrs...)

	bestCfg := baseCfg.Clone()
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		return fmt.Errorf("applying best parameters: %w", err)
	}
	path := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(path); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	slog.Info("best config saved", "path", path)
	return nil
}

// evalLog writes one CSV row per evaluation. The header depends on the
// parameter set, so rows are built by hand rather than from struct tags.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}

	header := []string{"eval", "fitness", "survival_ticks", "quality",
		"blue_share", "red_share", "blue_alive", "red_alive"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Write appends and flushes one evaluation row.
func (l *evalLog) Write(n int, s EvalSummary, values []float64) error {
	row := []string{
		strconv.Itoa(n),
		ftoa(s.Fitness),
		ftoa(s.SurvivalTicks),
		ftoa(s.Quality),
		ftoa(s.Share[territory.TeamA]),
		ftoa(s.Share[territory.TeamB]),
		ftoa(s.Survivors[territory.TeamA]),
		ftoa(s.Survivors[territory.TeamB]),
	}
	for _, v := range values {
		row = append(row, ftoa(v))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
