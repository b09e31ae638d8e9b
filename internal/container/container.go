package container

import (
	"context"
	"fmt"
	"os"

	"martisim/adapters/excel"
	"martisim/adapters/memory"
	"martisim/adapters/report"
	"martisim/adapters/rng"
	"martisim/app"
	"martisim/domain/mode"
	"martisim/domain/run"
	"martisim/internal"
	"martisim/internal/api"
	"martisim/internal/config"
	"martisim/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Randomness
	RNG ports.RNGPort

	// Simulation components
	Modes      []mode.Mode
	Simulation *app.SimulationService

	// Background runs
	RunRepo ports.RunRepository
	Events  *api.SSEHub
	Runs    *app.RunService

	// Output
	Console  *report.ConsoleReporter
	Markdown *report.MarkdownRenderer
	Excel    *excel.TrajectoryWriter
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)),
	}

	if err := c.initRandomness(); err != nil {
		return nil, fmt.Errorf("failed to initialize randomness: %w", err)
	}

	if err := c.initSimulation(); err != nil {
		return nil, fmt.Errorf("failed to initialize simulation: %w", err)
	}

	c.initRuns()
	c.initOutput()

	c.Logger.Debug("container initialized with %d modes and %d workers", len(c.Modes), c.Simulation.Workers())
	return c, nil
}

// initRandomness picks a seeded port when a base seed is configured and an
// entropy-seeded one otherwise
func (c *Container) initRandomness() error {
	if c.Config.Simulation.HasSeed() {
		c.RNG = rng.NewSeededAdapter(*c.Config.Simulation.Seed)
		c.Logger.Info("using fixed base seed %d", *c.Config.Simulation.Seed)
		return nil
	}

	c.RNG = rng.NewEntropyAdapter()
	c.Logger.Info("no SIM_SEED set, trial streams are seeded from OS entropy")
	return nil
}

// initSimulation loads the modes and builds the simulation service
func (c *Container) initSimulation() error {
	sim := c.Config.Simulation

	modes, err := config.LoadModes(sim.ModesFile, sim.Trials, sim.SampleSize)
	if err != nil {
		return err
	}
	c.Modes = modes

	c.Simulation, err = app.NewSimulationService(c.RNG, app.SimulationOptions{
		Workers:    sim.Workers,
		Confidence: sim.Confidence,
		Events:     api.NewEventLogger(c.Logger),
		Logger:     c.Logger,
	})
	return err
}

// initRuns sets up background runs. Their events reach SSE clients and the log.
func (c *Container) initRuns() {
	c.RunRepo = memory.NewRunRepository(c.Config.Server.RunCapacity)
	c.Events = api.NewSSEHub(c.Logger)
	c.Runs = app.NewRunService(c.Simulation, c.RunRepo,
		api.NewEventFanout(c.Events, api.NewEventLogger(c.Logger)), c.Logger)
}

func (c *Container) initOutput() {
	c.Console = report.NewConsoleReporter()
	c.Markdown = report.NewMarkdownRenderer()
	c.Excel = excel.NewTrajectoryWriter(excel.DefaultWriterConfig())
}

// Export writes the configured report files for rep. Nothing is written
// when no output path is set.
func (c *Container) Export(rep *run.Report) error {
	out := c.Config.Output
	if out.ExportXLSX != "" {
		if err := c.Excel.WriteFile(out.ExportXLSX, rep.Manifest, rep.Results); err != nil {
			return fmt.Errorf("failed to export workbook: %w", err)
		}
		c.Logger.Info("balance trajectories written to %s", out.ExportXLSX)
	}
	if out.MarkdownFile != "" {
		md := c.Markdown.Render(rep.Manifest, rep.Results)
		if err := os.WriteFile(out.MarkdownFile, []byte(md), 0o644); err != nil {
			return fmt.Errorf("failed to export markdown report: %w", err)
		}
		c.Logger.Info("markdown report written to %s", out.MarkdownFile)
	}
	return nil
}

// Shutdown stops background runs and flushes buffered log entries
func (c *Container) Shutdown(ctx context.Context) error {
	var err error
	if c.Runs != nil {
		if err = c.Runs.Shutdown(ctx); err != nil {
			c.Logger.Warn("background runs did not stop in time: %v", err)
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	return err
}
