package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lcm-hq/intellimap/pkg/cli"
	"lcm-hq/intellimap/pkg/config"
	"lcm-hq/intellimap/pkg/limits/pruner"
	"lcm-hq/intellimap/pkg/mapper"
	"lcm-hq/intellimap/pkg/telemetry/health"
	"lcm-hq/intellimap/pkg/watch"
)

var mapFlags struct {
	targetsFile string
	targets     []string
	prompt      string
	promptFile  string
	output      string
	clientID    string
	metricsAddr string
	concurrency int
	structured  bool
	watch       bool
}

var mapCmd = &cobra.Command{
	Use:   "map [input...]",
	Short: "Map record files onto target fields",
	Long: `Map one or more record files onto a catalog of target fields.

Each input is one batch. Input may be JSON, delimited dictionaries
([*F1:a,F2:b]) or key=value lines; the format is detected per input. With no
input, or "-", records are read from stdin.

Batches run concurrently up to --concurrency and share one rate limiter. A
batch that fails does not stop the others.

Exit codes:
  0    every record mapped or skipped
  1    a batch failed
  2    configuration error
  3    some records failed
  130  interrupted

Examples:
  # Map a file using a targets list
  intellimap map --targets fields.txt --prompt "Map the vendor record" vendor.json

  # Inline targets, JSON output
  intellimap map --target "F1:Name" --target "F2:Email" --prompt-file prompt.txt -o json data.txt

  # Re-map inputs whenever they change
  intellimap map --targets fields.yaml --prompt "Map" --watch inbox/`,
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	f := mapCmd.Flags()
	f.StringVarP(&mapFlags.targetsFile, "targets", "t", "", "file of target fields (one per line, or a YAML/JSON list)")
	f.StringArrayVar(&mapFlags.targets, "target", nil, `target field, e.g. "F1:Name" (repeatable)`)
	f.StringVarP(&mapFlags.prompt, "prompt", "p", "", "instruction placed before the field catalog")
	f.StringVar(&mapFlags.promptFile, "prompt-file", "", "read the instruction from a file")
	f.StringVarP(&mapFlags.output, "output", "o", "text", "output format (text, json)")
	f.StringVar(&mapFlags.clientID, "client-id", "", "rate limit identity (generated per batch when empty)")
	f.StringVar(&mapFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.IntVar(&mapFlags.concurrency, "concurrency", 0, "batches mapped at once (overrides batch.concurrency)")
	f.BoolVar(&mapFlags.structured, "structured", false, "decode JSON inputs into mappings before detection")
	f.BoolVarP(&mapFlags.watch, "watch", "w", false, "re-map inputs when they change")
}

// batchReport is the printed outcome of one input.
type batchReport struct {
	Input string `json:"input"`
	*mapper.AggregateResult
	Error string `json:"error,omitempty"`

	err error
}

// WriteText renders the report for terminals.
func (r *batchReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "== %s\n", r.Input)
	if r.AggregateResult == nil {
		_, err := fmt.Fprintf(w, "error: %s\n", r.Error)
		return err
	}
	res := r.AggregateResult
	fmt.Fprintf(w, "format: %s  batch: %s\n", res.Format, res.BatchID)
	fmt.Fprintf(w, "records: %d succeeded, %d skipped, %d failed\n", res.Succeeded, res.Skipped, res.Failed)
	fmt.Fprintf(w, "confidence: %.1f\n", res.Confidence)
	for _, o := range res.Records {
		if o.Error != "" {
			fmt.Fprintf(w, "  #%d %s: %s\n", o.Index, o.State, o.Error)
		}
	}
	if r.Error != "" {
		fmt.Fprintf(w, "error: %s\n", r.Error)
	}
	_, err := fmt.Fprintln(w, res.JSON())
	return err
}

func (r *batchReport) summary() string {
	if r.AggregateResult == nil {
		return ""
	}
	return fmt.Sprintf("%d fields, %d ok, %d failed, confidence %.1f",
		len(r.Fields), r.Succeeded, r.Failed, r.Confidence)
}

// mapRun is the resolved configuration of one map command.
type mapRun struct {
	app        *app
	targets    []string
	prompt     string
	clientID   string
	structured bool
	limit      int
	formatter  cli.Formatter
	out        io.Writer
	progress   cli.ProgressReporter
}

func runMap(cmd *cobra.Command, args []string) error {
	outFormat, err := cli.ParseOutputFormat(mapFlags.output)
	if err != nil {
		return err
	}
	if outFormat == cli.FormatYAML {
		return cli.NewConfigError("output", "map supports text or json output")
	}
	targets, err := loadTargets(mapFlags.targetsFile, mapFlags.targets)
	if err != nil {
		return err
	}
	prompt, err := loadPrompt(mapFlags.prompt, mapFlags.promptFile)
	if err != nil {
		return err
	}
	if mapFlags.watch && (len(args) == 0 || containsStdin(args)) {
		return cli.NewConfigError("watch", "--watch needs file or directory inputs")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mapFlags.metricsAddr != "" {
		cfg.Telemetry.Metrics.Address = mapFlags.metricsAddr
	}
	if cfg.Telemetry.Metrics.Address != "" {
		cfg.Telemetry.Metrics.Enabled = true
	}
	if mapFlags.concurrency > 0 {
		cfg.Batch.Concurrency = mapFlags.concurrency
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	az, err := a.azure(ctx)
	if err != nil {
		return cli.NewConfigError("secrets", err.Error())
	}
	if err := config.RequireAzure(&az); err != nil {
		return cli.NewConfigError("azure", err.Error())
	}

	checker := health.New(2 * time.Second)
	checker.Register("rate_store", health.StoreCheck(a.store))
	if cfg.Telemetry.Metrics.Address != "" {
		shutdown := serveMetrics(a, &cfg.Telemetry.Metrics, checker)
		defer shutdown()
	}

	r := &mapRun{
		app:        a,
		targets:    targets,
		prompt:     prompt,
		clientID:   mapFlags.clientID,
		structured: mapFlags.structured,
		limit:      cfg.Batch.Concurrency,
		formatter:  cli.NewFormatter(outFormat),
		out:        cmd.OutOrStdout(),
		progress:   cli.NewProgressReporter(cmd.ErrOrStderr()),
	}

	if mapFlags.watch {
		return r.watch(ctx, args, checker)
	}

	sources, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("map", err)
	}
	return r.runAll(ctx, sources)
}

// runAll maps every source and prints the reports in input order.
func (r *mapRun) runAll(ctx context.Context, sources []inputSource) error {
	reports := make([]*batchReport, len(sources))

	r.progress.Start(len(sources))
	g := new(errgroup.Group)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, src := range sources {
		g.Go(func() error {
			rep := r.mapSource(ctx, src)
			reports[i] = rep
			r.progress.Done(src.Name, rep.summary(), rep.err)
			return nil
		})
	}
	_ = g.Wait()
	r.progress.Finish()

	for _, rep := range reports {
		if err := r.formatter.FormatTo(r.out, rep); err != nil {
			return cli.NewCommandError("map", err)
		}
	}
	return exitError(reports)
}

// mapSource runs one batch. Errors are kept on the report.
func (r *mapRun) mapSource(ctx context.Context, src inputSource) *batchReport {
	rep := &batchReport{Input: src.Name}

	in, err := rawInput(src, r.structured)
	if err != nil {
		rep.err = err
		rep.Error = err.Error()
		return rep
	}

	az, err := r.app.azure(ctx)
	if err != nil {
		rep.err = err
		rep.Error = err.Error()
		return rep
	}
	res, err := r.app.mapper.Map(ctx, mapper.Invocation{
		Input:        in,
		Endpoint:     az.Endpoint,
		APIKey:       az.APIKey,
		Deployment:   az.Deployment,
		APIVersion:   az.APIVersion,
		UserPrompt:   r.prompt,
		TargetFields: r.targets,
		ClientID:     r.clientID,
	})
	rep.AggregateResult = res
	if err != nil {
		rep.err = err
		rep.Error = err.Error()
	}
	return rep
}

// exitError folds batch outcomes into the command error. Interruption wins
// over failure, failure over partial success.
func exitError(reports []*batchReport) error {
	var (
		failed  error
		partial bool
	)
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		if rep.err != nil {
			if errors.Is(rep.err, context.Canceled) {
				return cli.NewCommandError("map", rep.err)
			}
			if failed == nil {
				failed = fmt.Errorf("%s: %w", rep.Input, rep.err)
			}
			continue
		}
		if rep.Failed > 0 {
			partial = true
		}
	}
	switch {
	case failed != nil:
		return cli.NewCommandError("map", failed)
	case partial:
		return cli.NewCommandError("map", cli.ErrPartial)
	}
	return nil
}

// watch maps every input once, then again each time one changes, until ctx
// ends. Expired rate windows are pruned on the configured schedule.
func (r *mapRun) watch(ctx context.Context, paths []string, checker *health.Checker) error {
	a := r.app
	w, err := watch.New(watch.Config{Paths: paths}, a.logger.Slog())
	if err != nil {
		return cli.NewConfigError("watch", err.Error())
	}
	var watching atomic.Bool
	checker.Register("watcher", health.FlagCheck(watching.Load, errors.New("initial run not finished")))

	sched := pruner.NewScheduler(a.limiter, a.cfg.Limits.Rate.PruneSchedule).WithLogger(a.logger.Slog())
	if err := sched.Start(ctx); err != nil {
		return cli.NewConfigError("limits.rate.prune_schedule", err.Error())
	}
	defer sched.Stop()

	initial, err := w.Inputs()
	if err != nil {
		return cli.NewCommandError("map", err)
	}
	r.runPaths(ctx, initial)
	watching.Store(true)

	a.logger.Info("watching inputs", "paths", paths)
	err = w.Watch(ctx, func(path string) {
		r.runPaths(ctx, []string{path})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("watch", err)
	}
	return nil
}

func (r *mapRun) runPaths(ctx context.Context, paths []string) {
	sources := make([]inputSource, 0, len(paths))
	for _, p := range paths {
		src, err := readInput(p, nil)
		if err != nil {
			r.app.logger.Warn("input unreadable", "path", p, "error", err)
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return
	}
	if err := r.runAll(ctx, sources); err != nil && ctx.Err() == nil {
		r.app.logger.Warn("watch run finished with errors", "error", err)
	}
}

// serveMetrics exposes the collector and the health probes over HTTP and
// returns a shutdown func.
func serveMetrics(a *app, cfg *config.MetricsConfig, checker *health.Checker) func() {
	mux := http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, a.metrics.Handler())
	checker.Mount(mux)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", "address", cfg.Address, "path", path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func containsStdin(paths []string) bool {
	for _, p := range paths {
		if p == stdinName {
			return true
		}
	}
	return false
}
