package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/bench"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/qtree"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	verbosity int

	configFile string
	preset     string
	particles  int
	steps      int
	mode       string
	workers    int
	seed       uint64
	dt         float64
	softening  float64

	sizes        []int
	warmup       int
	save         bool
	stepsPerTick int
	capacity     int
	maxDepth     int
	pad          float64
	near         int

	log logr.Logger
)

// main registers the gravsim commands and exits with status 1 if the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "gravsim",
		Short:        "2-d gravitational n-body simulator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = newLogger(verbosity)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory for saved reports")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "step a universe and report diagnostics",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().StringVar(&mode, "mode", config.DefaultMode, "step mode: seq or par")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare sequential and parallel step throughput",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", config.DefaultBenchSizes, "particle counts to measure")
	benchCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "timed steps per size and mode")
	benchCmd.Flags().IntVar(&warmup, "warmup", config.DefaultWarmup, "untimed steps before measuring")
	benchCmd.Flags().BoolVar(&save, "save", false, "save the report under --data")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved benchmark reports",
		Args:  cobra.NoArgs,
		RunE:  listReports,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [report_id]",
		Short: "plot steps/sec against particle count",
		Args:  cobra.ExactArgs(1),
		RunE:  plotReport,
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "live step rate and diagnostics monitor",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	addSimFlags(watchCmd)
	watchCmd.Flags().StringVar(&mode, "mode", config.DefaultMode, "step mode: seq or par")
	watchCmd.Flags().IntVar(&stepsPerTick, "steps-per-frame", 1, "steps per frame")

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "index the current particles in a quadtree and print its shape",
		Args:  cobra.NoArgs,
		RunE:  runTree,
	}
	addSimFlags(treeCmd)
	treeCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "steps to advance before indexing")
	treeCmd.Flags().IntVar(&capacity, "capacity", qtree.DefaultCapacity, "node capacity")
	treeCmd.Flags().IntVar(&maxDepth, "max-depth", qtree.DefaultMaxDepth, "maximum depth")
	treeCmd.Flags().Float64Var(&pad, "pad", 0.01, "margin around the particle bounds")
	treeCmd.Flags().IntVar(&near, "near", -1, "also report the elements near this particle index")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICLES\tSTEPS\tMODE\tDT")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%g\n", name, p.Particles, p.Steps, p.Mode, p.Dt)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, benchCmd, listCmd, plotCmd, watchCmd, treeCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(v int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintln(os.Stderr, prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: v, LogTimestamp: true})
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVarP(&particles, "particles", "n", config.DefaultParticles, "number of particles")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "integration step")
	cmd.Flags().Float64Var(&softening, "softening", gravity.DefaultSoftening, "softening added to squared distance")
}

// loadConfig layers defaults, then --config or --preset, then any flag the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case configFile != "" && preset != "":
		return nil, fmt.Errorf("--config and --preset are mutually exclusive")
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
		cfg.Bench.Steps = steps
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("softening") {
		cfg.Softening = softening
	}
	if flags.Changed("sizes") {
		cfg.Bench.Sizes = sizes
	}
	if flags.Changed("warmup") {
		cfg.Bench.Warmup = warmup
	}
	if flags.Changed("capacity") {
		cfg.Tree.Capacity = capacity
	}
	if flags.Changed("max-depth") {
		cfg.Tree.MaxDepth = maxDepth
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.V(1).Info("config resolved", "particles", cfg.Particles, "mode", cfg.Mode, "seed", cfg.Seed, "dt", cfg.Dt)
	return cfg, nil
}

func newUniverse(cfg *config.Config) *sim.Universe {
	opts := append(cfg.SimOptions(), sim.WithLogger(log.WithName("sim")))
	return sim.NewSeeded(cfg.Particles, cfg.Seed, opts...)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	u := newUniverse(cfg)
	before := metrics.Summarize(u)

	step := u.StepParallel
	if cfg.Sequential() {
		step = u.StepSequential
	}

	start := time.Now()
	for i := 0; i < cfg.Steps; i++ {
		step()
	}
	elapsed := time.Since(start)
	after := metrics.Summarize(u)

	fmt.Println(viz.HeaderStyle.Render(viz.Title.Render("gravsim run")))
	fmt.Printf("particles: %d  steps: %d  mode: %s  backend: %s\n", cfg.Particles, cfg.Steps, cfg.Mode, u.Backend().Name())
	if cfg.Steps > 0 {
		fmt.Printf("elapsed: %s  (%.2f steps/sec)\n\n", elapsed.Round(time.Microsecond), float64(cfg.Steps)/elapsed.Seconds())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tSTEP\tKINETIC\tPOTENTIAL\tENERGY\tMOMENTUM\tCENTER")
	for _, s := range []struct {
		label string
		sum   metrics.Summary
	}{{"before", before}, {"after", after}} {
		fmt.Fprintf(w, "%s\t%d\t%.6e\t%.6e\t%.6e\t(%.2e, %.2e)\t(%.4f, %.4f)\n",
			s.label, s.sum.Time, s.sum.Kinetic, s.sum.Potential, s.sum.Energy(),
			s.sum.Momentum.X, s.sum.Momentum.Y, s.sum.CenterOfMass.X, s.sum.CenterOfMass.Y)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nenergy drift: %.3e\n", metrics.Drift(before, after))
	if !after.Finite {
		return fmt.Errorf("state became non-finite after %d steps", after.Time)
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &bench.Runner{
		Sizes:   cfg.Bench.Sizes,
		Steps:   cfg.Bench.Steps,
		Warmup:  cfg.Bench.Warmup,
		Seed:    cfg.Seed,
		Options: cfg.SimOptions(),
		Log:     log.WithName("bench"),
	}

	result, err := runner.Run(ctx)
	if err != nil && result == nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(viz.Title.Render("gravsim bench") + "  " + viz.Subtle.Render(result.Backend)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tSEQ STEPS/SEC\tPAR STEPS/SEC\tSPEEDUP\tPAR PAIRS/SEC\tDIVERGENCE")
	for _, p := range result.Points {
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2fx\t%.3e\t%.1e\n",
			p.Particles, p.Sequential.StepsPerSec, p.Parallel.StepsPerSec, p.Speedup(),
			p.Parallel.PairsPerSec, p.Divergence)
	}
	if werr := w.Flush(); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(storage.ReportMetadata{
			Seed:      cfg.Seed,
			Steps:     cfg.Bench.Steps,
			Warmup:    cfg.Bench.Warmup,
			Dt:        cfg.Dt,
			Softening: cfg.Softening,
		}, result)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Printf("\nsaved: %s\n", id)
	}
	return nil
}

func listReports(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	reports, err := st.List()
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Println("no reports found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tBACKEND\tSTEPS\tSIZES\tMAX DIVERGENCE")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%.1e\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Backend,
			r.Steps,
			r.Sizes,
			r.MaxDivergence,
		)
	}
	return w.Flush()
}

func plotReport(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	timings, err := st.LoadTimings(args[0])
	if err != nil {
		return err
	}

	sizes, seq, par := storage.Series(timings)
	if len(sizes) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("report: %s\n", meta.ID)
	fmt.Printf("backend: %s\n", meta.Backend)
	fmt.Printf("sizes: %v\n\n", sizes)

	if len(sizes) == 1 {
		fmt.Printf("seq: %.2f steps/sec  par: %.2f steps/sec\n", seq[0], par[0])
		return nil
	}

	graph := asciigraph.PlotMany([][]float64{seq, par},
		asciigraph.Height(12),
		asciigraph.Width(60),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.Caption("steps/sec by size (red: seq, green: par)"))
	fmt.Println(graph)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return viz.Run(newUniverse(cfg), !cfg.Sequential(), stepsPerTick)
}

func runTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	u := newUniverse(cfg)
	for i := 0; i < cfg.Steps; i++ {
		u.StepParallel()
	}

	current := u.Current()
	arena, refs := qtree.ArenaOf([]sim.Particle(current))
	bounds := qtree.Enclosing(refs, pad)

	start := time.Now()
	tree := qtree.Build(bounds, refs, cfg.TreeOptions()...)
	elapsed := time.Since(start)
	stats := tree.Stats()

	fmt.Println(viz.HeaderStyle.Render(viz.Title.Render("gravsim tree")))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "particles\t%d\n", arena.Len())
	fmt.Fprintf(w, "step\t%d\n", u.Time())
	fmt.Fprintf(w, "bounds\t(%.4f, %.4f) %.4f x %.4f\n", bounds.X, bounds.Y, bounds.Width, bounds.Height)
	fmt.Fprintf(w, "capacity / max depth\t%d / %d\n", cfg.Tree.Capacity, cfg.Tree.MaxDepth)
	fmt.Fprintf(w, "nodes\t%d\n", stats.Nodes)
	fmt.Fprintf(w, "leaves\t%d\n", stats.Leaves)
	fmt.Fprintf(w, "depth\t%d\n", stats.MaxDepth)
	fmt.Fprintf(w, "floating\t%d\n", stats.Floating)
	fmt.Fprintf(w, "build\t%s\n", elapsed.Round(time.Microsecond))

	if near >= 0 {
		if near >= len(refs) {
			return fmt.Errorf("--near %d out of range [0, %d)", near, len(refs))
		}
		count := 0
		for range tree.Near(refs[near]) {
			count++
		}
		fmt.Fprintf(w, "near #%d\t%d of %d\n", near, count, tree.Len())
	}
	return w.Flush()
}
