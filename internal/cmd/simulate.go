package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/drawbridge/internal/bridge"
	"github.com/Iron-Ham/drawbridge/internal/config"
	"github.com/Iron-Ham/drawbridge/internal/errors"
	"github.com/Iron-Ham/drawbridge/internal/event"
	"github.com/Iron-Ham/drawbridge/internal/logging"
	"github.com/Iron-Ham/drawbridge/internal/metrics"
	"github.com/Iron-Ham/drawbridge/internal/sim"
	"github.com/Iron-Ham/drawbridge/internal/trace"
	"github.com/Iron-Ham/drawbridge/internal/tui"
	"github.com/Iron-Ham/drawbridge/internal/tui/styles"
)

// simulateFlagKeys maps flags onto config keys.
var simulateFlagKeys = map[string]string{
	"cars":           "simulation.cars",
	"ships":          "simulation.ships",
	"crit-ships":     "bridge.crit_ships",
	"seed":           "simulation.seed",
	"wave":           "simulation.waves",
	"original":       "simulation.original",
	"verify":         "simulation.verify",
	"tui":            "tui.enabled",
	"metrics-listen": "metrics.listen",
	"log-level":      "logging.level",
	"log-file":       "logging.file",
}

func init() {
	rootCmd.AddCommand(newSimulateCmd())
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a drawbridge simulation",
		Long: `Run a drawbridge simulation.

Actors arrive in waves. Use --wave to describe each wave in c/s notation
(c = car, s = ship), --original for the classroom schedule, or --cars and
--ships for a single shuffled wave. Every actor holds the crossing for a
random time between --min-delay and --max-delay.

Examples:
  drawbridge simulate --original --verify
  drawbridge simulate --wave cccss --wave ssss --wave-gap 2s
  drawbridge simulate --cars 50 --ships 20 --crit-ships 4 --tui`,
		Args:    cobra.NoArgs,
		PreRunE: bindSimulateFlags,
		RunE:    runSimulate,
	}

	flags := cmd.Flags()
	flags.Int("cars", 0, "number of cars in a shuffled population")
	flags.Int("ships", 0, "number of ships in a shuffled population")
	flags.Int("crit-ships", bridge.DefaultCritShips, "waiting ships needed to raise the bridge")
	flags.Duration("min-delay", sim.DefaultMinDelay, "minimum time an actor holds the crossing")
	flags.Duration("max-delay", sim.DefaultMaxDelay, "maximum time an actor holds the crossing")
	flags.Uint64("seed", 1, "seed for the population shuffle and crossing delays")
	flags.StringArray("wave", nil, "arrival wave in c/s notation (repeatable)")
	flags.Duration("wave-gap", 3*time.Second, "pause between waves")
	flags.Bool("original", false, "replay the classroom arrival schedule")
	flags.Duration("timeout", 0, "cancel the run after this long (0 = no timeout)")
	flags.Bool("no-drain", false, "let ships short of the threshold wait forever")
	flags.Bool("verify", false, "check the recorded trace against the bridge rules")
	flags.Bool("tui", false, "show the live bridge view")
	flags.String("metrics-listen", "", "serve Prometheus metrics on this host:port")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "write logs to this file instead of stderr")
	return cmd
}

// bindSimulateFlags hands explicitly set flags to viper. Duration flags are
// converted to the config's integer units.
func bindSimulateFlags(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	for name, key := range simulateFlagKeys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}

	setMillis(flags, "min-delay", "simulation.min_delay_ms")
	setMillis(flags, "max-delay", "simulation.max_delay_ms")
	setMillis(flags, "wave-gap", "simulation.wave_gap_ms")

	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		viper.Set("simulation.timeout_seconds", int((d+time.Second-1)/time.Second))
	}
	if noDrain, _ := flags.GetBool("no-drain"); noDrain {
		viper.Set("simulation.drain", false)
	}
	return nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	if cfg.TUI.Enabled && !isTerminal(out) {
		return fmt.Errorf("--tui requires a terminal on stdout")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	plan, err := buildPlan(&cfg.Simulation)
	if err != nil {
		return err
	}

	bus := event.NewBus(event.WithLogger(logger))
	rec := trace.NewRecorder(bus)
	defer rec.Close()

	monitor := bridge.New(
		bridge.WithCritShips(cfg.Bridge.CritShips),
		bridge.WithLogger(logger),
		bridge.WithBus(bus),
	)
	simulator, err := sim.New(monitor, plan,
		sim.WithDelays(cfg.Simulation.MinDelay(), cfg.Simulation.MaxDelay()),
		sim.WithSeed(cfg.Simulation.Seed),
		sim.WithDrain(cfg.Simulation.Drain),
		sim.WithLogger(logger),
		sim.WithBus(bus),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := cfg.Simulation.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(ctx)
	servicesCtx, stopServices := context.WithCancel(gctx)
	defer stopServices()

	if cfg.Metrics.Listen != "" {
		collector := metrics.NewCollector()
		collector.Attach(bus)
		defer collector.Detach()

		server := metrics.NewServer(cfg.Metrics.Listen, collector.Registry(), logger)
		g.Go(func() error {
			return server.Run(servicesCtx)
		})
	}

	if cfg.TUI.Enabled {
		app := tui.New(bus, tui.NewModel(plan.Total(), cfg.Bridge.CritShips, cfg.TUI.EventLines, cancelRun))
		g.Go(func() error {
			if err := app.Run(gctx); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		})
	} else {
		p := newPrinter(out, isTerminal(out))
		sub := bus.SubscribeAll(p.handle)
		defer bus.Unsubscribe(sub)
	}

	var (
		report *sim.Report
		runErr error
	)
	g.Go(func() error {
		defer stopServices()
		report, runErr = simulator.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	renderSummary(out, trace.Summarize(rec.Events()), report)

	if cfg.Simulation.Verify {
		if err := verify(out, rec.Events()); err != nil {
			return err
		}
	}
	if errors.IsCanceled(runErr) {
		fmt.Fprintln(out, styles.WarningMsg.Render(runErr.Error()))
	}
	return runErr
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	switch {
	case cfg.Logging.File != "":
		logger, err := logging.NewFileLogger(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return logger, nil
	case cfg.TUI.Enabled:
		// stderr would tear the alternate screen
		return logging.NopLogger(), nil
	default:
		return logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format), nil
	}
}

func buildPlan(s *config.SimulationConfig) (sim.Plan, error) {
	switch {
	case s.Original:
		return sim.OriginalPlan(), nil
	case len(s.Waves) > 0:
		return sim.ParsePlan(s.Waves, s.WaveGap())
	default:
		return sim.PopulationPlan(s.Cars, s.Ships, s.Seed)
	}
}

func verify(out io.Writer, events []event.Event) error {
	err := trace.Check(events)
	if err == nil {
		fmt.Fprintln(out, styles.SuccessMsg.Render(
			fmt.Sprintf("trace verified: %d events, no violations", len(events))))
		return nil
	}

	var violations trace.Violations
	if errors.As(err, &violations) {
		for _, v := range violations {
			fmt.Fprintln(out, styles.ErrorMsg.Render("✗ ")+v.String())
		}
	}
	return err
}

// setMillis overrides key with the flag's duration in milliseconds when the
// flag was given.
func setMillis(flags *pflag.FlagSet, name, key string) {
	if !flags.Changed(name) {
		return
	}
	if d, err := flags.GetDuration(name); err == nil {
		viper.Set(key, d.Milliseconds())
	}
}
