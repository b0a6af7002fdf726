package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/coulomb/internal/analysis"
	"github.com/san-kum/coulomb/internal/config"
	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/experiment"
	"github.com/san-kum/coulomb/internal/export"
	"github.com/san-kum/coulomb/internal/field"
	"github.com/san-kum/coulomb/internal/physics"
	"github.com/san-kum/coulomb/internal/storage"
	"github.com/san-kum/coulomb/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	dt         float64
	steps      int
	integrator string
	rtol       float64
	atol       float64
	workers    int
	noSave     bool
	component  string
	trails     bool
	frameStep  int
	gridSize   int
	gridBound  float64
	outFile    string
	benchN     int
	presetName string
	particle   int
	delta      float64
	svgFile    string

	log = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "coulomb",
		Short:         "2d charged particle simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".coulomb", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot particle coordinates of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&component, "component", "x", "component to plot (x, y, vx, vy)")
	plotCmd.Flags().BoolVar(&trails, "trails", false, "draw particle trails instead of a chart")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "write the particle trails to an svg file")

	fieldCmd := &cobra.Command{
		Use:   "field [run_id]",
		Short: "draw the field of a stored run or a preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  drawField,
	}
	fieldCmd.Flags().IntVar(&frameStep, "step", 0, "recorded step to draw (stored runs)")
	fieldCmd.Flags().IntVar(&gridSize, "n", 0, "grid points per axis (default from scenario)")
	fieldCmd.Flags().Float64Var(&gridBound, "bound", 0, "grid half width in pm (default from scenario)")
	fieldCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml) when no run id is given")
	fieldCmd.Flags().StringVar(&presetName, "preset", "", "preset to draw when no run id is given")
	fieldCmd.Flags().StringVar(&svgFile, "svg", "", "also write the field to an svg file")

	playCmd := &cobra.Command{
		Use:   "play [run_id]",
		Short: "play back a stored run with its field",
		Args:  cobra.ExactArgs(1),
		RunE:  playRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICLES\tSTEPS\tDT")
			for _, name := range config.ListPresets() {
				cfg, err := config.GetPreset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%gs\n", name, len(cfg.Particles), cfg.Steps, cfg.Dt)
			}
			return w.Flush()
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [integrator...]",
		Short: "run one scenario with several integrators",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addScenarioFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time derivative evaluations for growing ensembles",
		Args:  cobra.NoArgs,
		RunE:  benchDerivative,
	}
	benchCmd.Flags().IntVar(&benchN, "max", 512, "largest ensemble size")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "power spectrum of one particle coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}
	spectrumCmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	spectrumCmd.Flags().StringVar(&component, "component", "x", "component (x, y, vx, vy)")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity [preset]",
		Short: "growth rate of a small initial displacement",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sensitivity,
	}
	addScenarioFlags(sensitivityCmd)
	sensitivityCmd.Flags().IntVar(&particle, "particle", 0, "particle to displace")
	sensitivityCmd.Flags().Float64Var(&delta, "delta", 1e-3, "x displacement in pm")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, fieldCmd, playCmd, presetsCmd, exportJSONCmd, compareCmd, benchCmd, spectrumCmd, sensitivityCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "recorded step in seconds")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of recorded steps")
	cmd.Flags().StringVar(&integrator, "integrator", config.IntegratorDopri, "integrator (dopri5, rk4)")
	cmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRtol, "relative tolerance (dopri5)")
	cmd.Flags().Float64Var(&atol, "atol", config.DefaultAtol, "absolute tolerance (dopri5)")
	cmd.Flags().IntVar(&workers, "workers", 1, "goroutines for the pairwise loop (0 = all CPUs)")
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch logFormat {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}
	return nil
}

// resolveConfig starts from the preset named in args (or the config file,
// or the default scenario) and applies every flag the user set.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
	case len(args) > 0:
		cfg, err = config.GetPreset(args[0])
		if err != nil {
			err = fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("rtol") {
		cfg.Rtol = rtol
	}
	if flags.Changed("atol") {
		cfg.Atol = atol
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d particles, %d steps of %gs)...\n", cfg.Name, len(cfg.Particles), cfg.Steps, cfg.Dt)
	start := time.Now()

	result, err := experiment.NewRunner(log).Run(ctx, cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	if !noSave {
		st := storage.New(dataDir, log)
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("steps: %d (substeps %d, rejected %d)\n", result.StepsTaken, result.SubSteps, result.Rejected)
	printMetrics(result.Metrics)

	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-16s %.6g\n", name, metrics[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, log)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tPARTICLES\tSTEPS\tDT\tINTEG\tENERGY DRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%gs\t%s\t%.2e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Metrics["energy_drift"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir, log)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", tr.Len())

	if svgFile != "" {
		cfg, err := st.LoadConfig(runID)
		if err != nil {
			return err
		}
		if err := writeFile(svgFile, func(f *os.File) error {
			return export.TrailsSVG(f, tr, cfg.Particles.Charges(), cfg.Field.Bound, 800)
		}); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
		return nil
	}

	if trails {
		cfg, err := st.LoadConfig(runID)
		if err != nil {
			return err
		}
		canvas := viz.NewCanvas(80, 40)
		canvas.Trails(tr, cfg.Field.Bound)
		fmt.Print(canvas.String())
		return nil
	}

	c, err := viz.ParseComponent(component)
	if err != nil {
		return err
	}
	caption := fmt.Sprintf("%s vs step (one line per particle)", viz.ComponentName(c))
	fmt.Println(viz.PlotSeries(viz.ParticleSeries(tr, c), caption, 80, 15))

	return nil
}

func drawField(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var x dynamo.State

	if len(args) == 1 {
		st := storage.New(dataDir, log)
		var err error
		if cfg, err = st.LoadConfig(args[0]); err != nil {
			return err
		}
		tr, err := st.LoadStates(args[0])
		if err != nil {
			return err
		}
		if frameStep < 0 || frameStep >= tr.Len() {
			return fmt.Errorf("step %d outside 0..%d: %w", frameStep, tr.Len()-1, dynamo.ErrParameterBounds)
		}
		x = tr.At(frameStep)
	} else {
		var named []string
		if presetName != "" {
			named = []string{presetName}
		}
		var err error
		if cfg, err = resolveConfig(cmd, named); err != nil {
			return err
		}
		x = cfg.Particles.State()
	}

	n, bound := cfg.Field.N, cfg.Field.Bound
	if cmd.Flags().Changed("n") {
		n = gridSize
	}
	if cmd.Flags().Changed("bound") {
		bound = gridBound
	}

	sampler := field.NewSampler(cfg.Constants)
	sampler.Workers = runtime.NumCPU()
	grid, err := sampler.Sample(x, cfg.Particles.Charges(), bound, n)
	if err != nil {
		return err
	}

	markers := viz.Markers(x, cfg.Particles.Masses(), cfg.Particles.Charges())
	lo, hi := field.Range(grid.LogStrength())
	heat := viz.NewHeatmap(80, 40)
	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%s  log|E|² in [%.1f, %.1f]", cfg.Name, lo, hi)))
	fmt.Println(heat.Render(grid, markers))

	if svgFile != "" {
		if err := writeFile(svgFile, func(f *os.File) error {
			return export.FieldSVG(f, grid, heat.Colormap, markers, 6)
		}); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func playRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, log)
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("run %s has no states", args[0])
	}
	return viz.Play(viz.NewPlayer(cfg, tr))
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, log)

	if outFile == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}

	if err := writeFile(outFile, func(f *os.File) error {
		return st.ExportJSON(f, args[0])
	}); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], outFile)
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}

	names := args[1:]
	if len(names) == 0 {
		names = experiment.NewRegistry().ListIntegrators()
	}

	cfgs := make([]*config.Config, len(names))
	for i, name := range names {
		cfgs[i] = base.Clone()
		cfgs[i].Integrator = name
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing integrators for %s (dt=%g, steps=%d)\n\n", base.Name, base.Dt, base.Steps)

	start := time.Now()
	results, err := experiment.NewRunner(log).RunAll(ctx, cfgs)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	ref := results[0].Trajectory.Final()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "INTEGRATOR\tSUBSTEPS\tENERGY DRIFT\tMOMENTUM DRIFT\tMAX Δx vs %s\n", names[0])
	for i, res := range results {
		final := res.Trajectory.Final()
		maxDiff := 0.0
		for p := 0; p+1 < len(final); p += 4 {
			maxDiff = math.Max(maxDiff, math.Hypot(final[p]-ref[p], final[p+1]-ref[p+1]))
		}
		fmt.Fprintf(w, "%s\t%d\t%.2e\t%.2e\t%.3g pm\n",
			names[i], res.SubSteps, res.Metrics["energy_drift"], res.Metrics["momentum_drift"], maxDiff)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ntotal %v\n", elapsed.Round(time.Millisecond))
	return nil
}

func benchDerivative(cmd *cobra.Command, args []string) error {
	c := physics.DefaultConstants()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tWORKERS\tEVALS\tTIME/EVAL\tSPEEDUP")

	for n := 8; n <= benchN; n *= 2 {
		masses := make([]float64, n)
		charges := make([]float64, n)
		x := make(dynamo.State, n*4)
		for i := 0; i < n; i++ {
			angle := 2 * math.Pi * float64(i) / float64(n)
			masses[i] = 938
			charges[i] = float64(1 - 2*(i%2))
			x[i*4] = 100 * math.Cos(angle)
			x[i*4+1] = 100 * math.Sin(angle)
		}
		sys, err := physics.NewCoulomb(masses, charges, c)
		if err != nil {
			return err
		}

		dst := make(dynamo.State, len(x))
		evals := 1 + 200000/(n*n)

		var serial time.Duration
		for _, wk := range []int{1, runtime.NumCPU()} {
			sys.Workers = wk
			start := time.Now()
			for i := 0; i < evals; i++ {
				sys.DeriveInto(dst, x, 0)
			}
			per := time.Since(start) / time.Duration(evals)
			if wk == 1 {
				serial = per
			}
			speedup := 1.0
			if per > 0 {
				speedup = float64(serial) / float64(per)
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.2fx\n", n, wk, evals, per, speedup)
		}
	}

	return w.Flush()
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, log)
	tr, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	c, err := viz.ParseComponent(component)
	if err != nil {
		return err
	}
	series := viz.ParticleSeries(tr, c)
	if particle < 0 || particle >= len(series) {
		return fmt.Errorf("particle %d outside 0..%d: %w", particle, len(series)-1, dynamo.ErrParameterBounds)
	}

	freqs, power, err := analysis.Spectrum(series[particle], tr.Step)
	if err != nil {
		return err
	}
	f, err := analysis.DominantFrequency(series[particle], tr.Step)
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("power of particle %d %s, %d bins up to %.3g Hz", particle, viz.ComponentName(c), len(freqs), freqs[len(freqs)-1])
	fmt.Println(viz.PlotSeries([][]float64{power}, caption, 80, 12))
	if f > 0 {
		fmt.Printf("\ndominant frequency: %.4g Hz (period %.4g s)\n", f, 1/f)
	} else {
		fmt.Println("\nno oscillation found")
	}
	return nil
}

func sensitivity(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if particle < 0 || particle >= len(base.Particles) {
		return fmt.Errorf("particle %d outside 0..%d: %w", particle, len(base.Particles)-1, dynamo.ErrParameterBounds)
	}

	nudged := base.Clone()
	nudged.Particles[particle].X += delta

	ctx, cancel := signalContext()
	defer cancel()

	results, err := experiment.NewRunner(log).RunAll(ctx, []*config.Config{base, nudged})
	if err != nil {
		return err
	}

	rate, seps, err := analysis.Divergence(results[0].Trajectory, results[1].Trajectory)
	if err != nil {
		return err
	}

	fmt.Printf("%s: particle %d displaced by %g pm\n", base.Name, particle, delta)
	fmt.Printf("final separation: %.4g\n", seps[len(seps)-1])
	fmt.Printf("growth rate: %.4g 1/s\n", rate)
	return nil
}
