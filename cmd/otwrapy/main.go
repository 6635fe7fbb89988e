package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jschueller/otwrapy/internal/beam"
	"github.com/jschueller/otwrapy/internal/config"
	"github.com/jschueller/otwrapy/internal/doe"
	"github.com/jschueller/otwrapy/internal/model"
	"github.com/jschueller/otwrapy/internal/pool"
	"github.com/jschueller/otwrapy/internal/remote"
	"github.com/jschueller/otwrapy/internal/store"
	"github.com/jschueller/otwrapy/internal/vector"
	"github.com/jschueller/otwrapy/internal/wrapper"
)

var (
	dataDir    string
	configFile string
	verbose    bool

	site        string
	seed        int64
	monteCarlo  int
	xValues     []float64
	doePath     string
	workers     int
	backendName string
	execute     bool
	dump        bool
	sleep       time.Duration
	noCache     bool
	workDir     string
	keepWorkDir bool
	workerURLs  []string
	timeout     time.Duration
	retries     int

	addr string

	benchSize       int
	benchMaxWorkers int

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "otwrapy",
		Short: "distribute a file-driven simulation code as a cached vector function",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".otwrapy", "data directory for persisted runs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "site config file path (yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "evaluate a design of experiments on the model",
		RunE:  runBatch,
	}
	runCmd.Flags().StringVar(&site, "site", "", "site configuration to use")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed for the Monte Carlo design")
	runCmd.Flags().IntVar(&monteCarlo, "montecarlo", 0, "generate a Monte Carlo design of this size")
	runCmd.Flags().Float64SliceVar(&xValues, "x", nil, "evaluate a single explicit input vector")
	runCmd.Flags().StringVar(&doePath, "doe", "", "load the input design from a parquet file")
	runCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "worker count for the local backend")
	runCmd.Flags().StringVar(&backendName, "backend", string(wrapper.ModeLocal), "backend: sequential, local or remote")
	runCmd.Flags().BoolVar(&execute, "execute", false, "run the model on the design")
	runCmd.Flags().BoolVar(&dump, "dump", false, "persist inputs and outputs for post-treatment")
	runCmd.Flags().DurationVar(&sleep, "sleep", 0, "intentional delay per evaluation")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result memoization")
	runCmd.Flags().StringVar(&workDir, "workdir", "", "base directory for scoped work directories (overrides site)")
	runCmd.Flags().BoolVar(&keepWorkDir, "keep-workdir", false, "keep work directories for inspection")
	runCmd.Flags().StringSliceVar(&workerURLs, "worker-url", nil, "remote worker base URL (repeatable)")
	runCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "remote per-call timeout")
	runCmd.Flags().IntVar(&retries, "retries", config.DefaultRetries, "remote transport retries")

	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "serve single-point evaluations to remote dispatchers",
		RunE:  runWorker,
	}
	workerCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	workerCmd.Flags().StringVar(&site, "site", "", "site configuration to use")
	workerCmd.Flags().DurationVar(&sleep, "sleep", 0, "intentional delay per evaluation")
	workerCmd.Flags().StringVar(&workDir, "workdir", "", "base directory for scoped work directories")
	workerCmd.Flags().BoolVar(&keepWorkDir, "keep-workdir", false, "keep work directories for inspection")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare sequential and local backends on a synthetic model",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchSize, "size", 20, "batch size")
	benchCmd.Flags().DurationVar(&sleep, "sleep", 100*time.Millisecond, "delay per evaluation")
	benchCmd.Flags().IntVar(&benchMaxWorkers, "max-workers", 8, "largest worker count to sweep")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list persisted runs",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(runCmd, workerCmd, benchCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSite() (config.Site, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return config.Site{}, fmt.Errorf("load config: %w", err)
		}
	}
	return cfg.Site(site)
}

func evaluatorOptions(st config.Site) []model.Option {
	base := st.WorkDir
	if workDir != "" {
		base = workDir
	}
	opts := []model.Option{
		model.WithBaseDir(base),
		model.WithPrefix("ot-beam-"),
	}
	if sleep > 0 {
		opts = append(opts, model.WithDelay(sleep))
	}
	if keepWorkDir {
		opts = append(opts, model.WithKeepWorkDir())
	}
	return opts
}

func buildInputs() (vector.Sample, error) {
	switch {
	case monteCarlo > 0:
		sampler, err := vector.NewSampler(beam.Marginals(), seed)
		if err != nil {
			return nil, err
		}
		xs := sampler.Draw(monteCarlo)
		logger.Info("generated Monte Carlo design",
			zap.Int("size", monteCarlo), zap.Int64("seed", seed))
		return xs, nil
	case len(xValues) > 0:
		x := vector.Point(xValues)
		if !x.IsValid() {
			return nil, fmt.Errorf("input %s contains NaN or Inf", x)
		}
		return vector.Sample{x}, nil
	case doePath != "":
		xs, err := doe.Load(doePath)
		if err != nil {
			return nil, err
		}
		for i, x := range xs {
			if !x.IsValid() {
				return nil, fmt.Errorf("design point %d contains NaN or Inf: %s", i, x)
			}
		}
		logger.Info("loaded design of experiments",
			zap.String("path", doePath), zap.Int("size", len(xs)))
		return xs, nil
	default:
		return nil, fmt.Errorf("no input: use --montecarlo, --x or --doe")
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	st, err := loadSite()
	if err != nil {
		return err
	}

	mode, err := wrapper.ParseMode(backendName)
	if err != nil {
		return err
	}

	m := &beam.Model{
		TemplatePath: st.Template,
		Executable:   st.Executable,
		Args:         st.Args,
	}
	fn, err := wrapper.New(m, wrapper.Config{
		Mode:         mode,
		Workers:      workers,
		WorkerURLs:   workerURLs,
		Timeout:      timeout,
		Retries:      retries,
		DisableCache: noCache,
	},
		wrapper.WithLogger(logger),
		wrapper.WithEvaluatorOptions(evaluatorOptions(st)...),
	)
	if err != nil {
		return err
	}

	xs, err := buildInputs()
	if err != nil {
		return err
	}

	if !execute {
		fmt.Printf("input design of size %d ready; pass --execute to run it\n", len(xs))
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	ys, evalErr := fn.CallBatch(ctx, xs)
	wall := time.Since(start)

	var batchErr *pool.BatchError
	if evalErr != nil && !errors.As(evalErr, &batchErr) {
		return evalErr
	}

	failed := 0
	if batchErr != nil {
		failed = len(batchErr.Failures)
		for _, f := range batchErr.Failures {
			logger.Error("evaluation failed",
				zap.Int("position", f.Position),
				zap.String("x", xs[f.Position].String()),
				zap.Error(f.Err))
		}
	}
	fmt.Printf("evaluated %d points on %s backend in %s (%d failed)\n",
		len(xs), fn.BackendName(), wall.Round(time.Millisecond), failed)

	if dump {
		s := store.New(dataDir)
		if err := s.Init(); err != nil {
			return err
		}
		runID, err := s.Save(store.RunMetadata{
			Site:     site,
			Backend:  fn.BackendName(),
			Workers:  workers,
			Seed:     seed,
			WallTime: wall.Seconds(),
		}, xs, ys)
		if err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		fmt.Printf("saved run %s\n", runID)
	}

	return evalErr
}

func runWorker(cmd *cobra.Command, args []string) error {
	st, err := loadSite()
	if err != nil {
		return err
	}

	m := &beam.Model{
		TemplatePath: st.Template,
		Executable:   st.Executable,
		Args:         st.Args,
	}
	opts := append(evaluatorOptions(st), model.WithLogger(logger))
	eval := model.NewEvaluator(m, opts...)

	srv := remote.NewServer(eval, logger)
	httpServer := &http.Server{Addr: addr, Handler: srv.Router()}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("worker listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("worker shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func runBench(cmd *cobra.Command, args []string) error {
	m := &delayModel{delay: sleep}
	eval := model.NewEvaluator(m, model.WithLogger(logger))

	sampler, err := vector.NewSampler([]vector.Marginal{
		{Name: "x0", Mean: 0, StdDev: 1},
		{Name: "x1", Mean: 0, StdDev: 1},
	}, seed)
	if err != nil {
		return err
	}
	xs := sampler.Draw(benchSize)

	ctx := cmd.Context()

	var counts []int
	for n := 1; n <= benchMaxWorkers; n *= 2 {
		counts = append(counts, n)
	}

	walls := make([]float64, 0, len(counts))
	var sequentialWall float64
	for _, n := range counts {
		var backend pool.Backend
		if n == 1 {
			backend = pool.NewSequential(eval)
		} else {
			backend = pool.NewLocal(eval, n)
		}
		start := time.Now()
		if _, err := backend.EvaluateBatch(ctx, xs); err != nil {
			return err
		}
		wall := time.Since(start).Seconds()
		walls = append(walls, wall)
		if n == 1 {
			sequentialWall = wall
		}
	}

	fmt.Println(asciigraph.Plot(walls,
		asciigraph.Height(10),
		asciigraph.Caption(fmt.Sprintf("wall time (s) for worker counts %v", counts))))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "workers\twall\tspeedup")
	for i, n := range counts {
		fmt.Fprintf(w, "%d\t%.3fs\t%.2fx\n", n, walls[i], sequentialWall/walls[i])
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tsite\tbackend\tsize\tfailed\twall\twhen")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2fs\t%s\n",
			r.ID, r.Site, r.Backend, r.Size, r.Failed, r.WallTime,
			r.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}
