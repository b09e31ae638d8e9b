package app

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"martisim/domain/core"
	"martisim/domain/mode"
	"martisim/domain/run"
	"martisim/domain/stats"
	"martisim/domain/trial"
	"martisim/internal"
	"martisim/internal/analysis"
	apperrors "martisim/internal/errors"
	"martisim/ports"
)

// SimulationService drives modes through the trial engine and the aggregator
type SimulationService struct {
	rngPort  ports.RNGPort
	analyzer *analysis.DistributionAnalyzer
	events   ports.EventSink
	logger   *internal.Logger
	workers  int
}

// SimulationOptions configures a SimulationService
type SimulationOptions struct {
	// Workers bounds concurrent trials; <= 0 means runtime.NumCPU()
	Workers int
	// Confidence of the profit chance interval; 0 means analysis.DefaultConfidence
	Confidence float64
	// Events receives run progress; nil discards it
	Events ports.EventSink
	Logger *internal.Logger
}

// runScope carries per-run state through the mode loop
type runScope struct {
	id          core.RunID
	log         *internal.Logger
	totalTrials int
	doneTrials  int
}

// NewSimulationService creates a simulation service
func NewSimulationService(rngPort ports.RNGPort, opts SimulationOptions) (*SimulationService, error) {
	if rngPort == nil {
		return nil, apperrors.ConfigInvalid("rng port is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Confidence == 0 {
		opts.Confidence = analysis.DefaultConfidence
	}
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}

	analyzer, err := analysis.NewDistributionAnalyzer(opts.Confidence)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}

	return &SimulationService{
		rngPort:  rngPort,
		analyzer: analyzer,
		events:   opts.Events,
		logger:   opts.Logger,
		workers:  opts.Workers,
	}, nil
}

// WithEvents returns a copy of the service publishing to sink
func (s *SimulationService) WithEvents(sink ports.EventSink) *SimulationService {
	c := *s
	c.events = sink
	return &c
}

// Workers returns the concurrency limit
func (s *SimulationService) Workers() int {
	return s.workers
}

// RunModes validates every mode up front, then runs them in order under a
// new run ID. Nothing is simulated if any mode is invalid.
func (s *SimulationService) RunModes(ctx context.Context, modes []mode.Mode) (*run.Report, error) {
	return s.RunModesWithID(ctx, core.NewRunID(), modes)
}

// RunModesWithID is RunModes under a caller-chosen run ID, so callers can
// subscribe to its events before it starts.
func (s *SimulationService) RunModesWithID(ctx context.Context, runID core.RunID, modes []mode.Mode) (*run.Report, error) {
	if err := mode.ValidateAll(modes); err != nil {
		return nil, err
	}

	start := time.Now()
	seed, reproducible := s.rngPort.Seed()
	manifest := run.NewRunManifest(runID, modes, seed, reproducible, s.workers)

	scope := &runScope{id: runID, log: s.logger.With("run_id", runID.String())}
	for _, m := range modes {
		scope.totalTrials += m.Trials
	}
	scope.log.Info("starting run over %d modes (fingerprint %s, reproducible=%t)",
		len(modes), manifest.Fingerprint.Fingerprint.Short(), reproducible)
	s.publish(scope, ports.EventRunStarted, "", map[string]interface{}{
		"modes":       len(modes),
		"fingerprint": manifest.Fingerprint.Fingerprint.String(),
	})

	results := make([]mode.Result, 0, len(modes))
	for _, m := range modes {
		res, err := s.runMode(ctx, scope, m)
		if err != nil {
			err = apperrors.Wrapf(err, "mode %q", m.Name)
			s.publish(scope, ports.EventRunFailed, m.Name, map[string]interface{}{"error": err.Error()})
			return nil, err
		}
		results = append(results, *res)
	}

	report := &run.Report{
		Manifest: manifest,
		Results:  results,
		Duration: time.Since(start),
	}
	scope.log.Info("run finished in %s", report.Duration)
	s.publish(scope, ports.EventRunFinished, "", map[string]interface{}{"duration_ms": report.Duration.Milliseconds()})
	return report, nil
}

// RunMode validates and runs a single mode
func (s *SimulationService) RunMode(ctx context.Context, m mode.Mode) (*mode.Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	scope := &runScope{id: core.NewRunID(), log: s.logger, totalTrials: m.Trials}
	return s.runMode(ctx, scope, m)
}

// RunBatch runs m.Trials independent trials and returns every outcome, in
// trial order, with full balance series. The mode is not validated.
func (s *SimulationService) RunBatch(ctx context.Context, m mode.Mode) ([]trial.Outcome, error) {
	scope := &runScope{id: core.NewRunID(), log: s.logger, totalTrials: m.Trials}
	return s.runBatch(ctx, scope, m, m.Trials)
}

func (s *SimulationService) runMode(ctx context.Context, scope *runScope, m mode.Mode) (*mode.Result, error) {
	start := time.Now()
	log := scope.log.With("mode", m.Name)
	log.Info("running %d trials (base bet %v, streak cap %d, max rounds %d) on %d workers",
		m.Trials, m.Config.BaseBet, m.Config.StreakCap, m.Config.MaxRounds, s.workers)
	s.publish(scope, ports.EventModeStarted, m.Name, nil)

	batch, err := s.runBatch(ctx, scope, m, m.SampleSize)
	if err != nil {
		return nil, err
	}
	scope.doneTrials += m.Trials

	dist, err := s.analyzer.AnalyzeBatch(batch)
	if err != nil {
		return nil, apperrors.Wrap(err, "analyze final balances")
	}

	sampleSize := min(m.SampleSize, len(batch))
	samples := make([][]float64, sampleSize)
	for i := range samples {
		samples[i] = batch[i].BalanceSeries
	}

	res := &mode.Result{
		Mode:         m,
		Stats:        stats.Aggregate(batch, m.Config.BaseBet),
		Distribution: dist,
		Streaks:      analysis.SummarizeStreaks(batch),
		Samples:      samples,
		Duration:     time.Since(start),
	}
	log.Info("done in %s: %d profitable, %d lossy, %d lost everything",
		res.Duration, res.Stats.NumProfitable, res.Stats.NumLossy, res.Stats.LostEverything)
	s.publish(scope, ports.EventModeFinished, m.Name, map[string]interface{}{
		"profit_chance_percent": res.Stats.ProfitChancePercent,
		"lost_everything":       res.Stats.LostEverything,
	})
	return res, nil
}

// runBatch fans trials out over the worker pool. Outcomes land in a slice
// indexed by trial, so the batch order never depends on scheduling. Trials at
// index >= keepFull keep only their final balance to bound memory.
func (s *SimulationService) runBatch(ctx context.Context, scope *runScope, m mode.Mode, keepFull int) ([]trial.Outcome, error) {
	outcomes := make([]trial.Outcome, m.Trials)

	var done atomic.Int64
	step := int64(max(m.Trials/10, 1))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < m.Trials; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := s.rngPort.TrialStream(gctx, m.Name, i)
			if err != nil {
				return apperrors.Wrapf(err, "random stream for trial %d", i)
			}

			o := trial.RunTrial(m.Config, src)
			if i >= keepFull {
				o = compact(o)
			}
			outcomes[i] = o

			if n := done.Add(1); n%step == 0 {
				scope.log.Debug("%s: %d/%d trials done", m.Name, n, m.Trials)
				s.publishProgress(scope, m, int(n))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *SimulationService) publish(scope *runScope, eventType, modeName string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ports.RunEvent{
		RunID:     scope.id.String(),
		EventType: eventType,
		Mode:      modeName,
		Done:      scope.doneTrials,
		Total:     scope.totalTrials,
		Progress:  percent(scope.doneTrials, scope.totalTrials),
		Data:      data,
		Timestamp: time.Now(),
	})
}

// publishProgress reports trials finished so far. Called from workers, so it
// reads scope.doneTrials only; that field changes between modes, never during one.
func (s *SimulationService) publishProgress(scope *runScope, m mode.Mode, doneInMode int) {
	if s.events == nil {
		return
	}
	done := scope.doneTrials + doneInMode
	s.events.Publish(ports.RunEvent{
		RunID:     scope.id.String(),
		EventType: ports.EventProgress,
		Mode:      m.Name,
		Done:      done,
		Total:     scope.totalTrials,
		Progress:  percent(done, scope.totalTrials),
		Timestamp: time.Now(),
	})
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(done) / float64(total)
}

// compact drops all but the final recorded balance
func compact(o trial.Outcome) trial.Outcome {
	if n := len(o.BalanceSeries); n > 1 {
		o.BalanceSeries = []float64{o.BalanceSeries[n-1]}
	}
	return o
}
