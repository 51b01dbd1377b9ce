package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kestrel/internal/diag"
	"kestrel/internal/diagfmt"
	"kestrel/internal/driver"
	"kestrel/internal/observ"
	"kestrel/internal/scope"
	"kestrel/internal/scopescript"
)

var errScriptsFailed = errors.New("scope scripts reported errors")

type scopesFlags struct {
	format     string
	policy     string
	buckets    int
	loadFactor float64
	jobs       int
	width      int
	output     string
	noNotes    bool
	diagFormat string
	pathMode   string
	cache      bool
	cacheDir   string
}

func newScopesCmd() *cobra.Command {
	var f scopesFlags
	cmd := &cobra.Command{
		Use:   "scopes <file|dir>...",
		Short: "Check and evaluate scope scripts",
		Long: `Check and evaluate scope scripts. Each script declares nested scopes with
their bindings; kestrel builds the symbol tables, prints what every scope
sees in iteration order and answers the script's queries.

Defaults come from kestrel.toml (searched upwards from the working directory)
and can be overridden with flags. Exit status is 1 when any script has errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return instrumented(cmd, func(ctx context.Context) error {
				return runScopes(ctx, cmd, args, f)
			})
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "", "output format (text|json|msgpack); default from kestrel.toml or text")
	cmd.Flags().StringVar(&f.policy, "policy", "", "iteration policy (visible|all)")
	cmd.Flags().IntVar(&f.buckets, "buckets", 0, "initial bucket count of every table")
	cmd.Flags().Float64Var(&f.loadFactor, "load-factor", 0, "entries per bucket that trigger growth, in (0, 8]")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "scripts evaluated in parallel (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&f.width, "width", 0, "cap the key column of text output (0 = no cap)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write results to file instead of stdout")
	cmd.Flags().BoolVar(&f.noNotes, "no-notes", false, "omit diagnostic notes")
	cmd.Flags().StringVar(&f.diagFormat, "diag-format", "pretty", "diagnostic format on stderr (pretty|json)")
	cmd.Flags().BoolVar(&f.cache, "cache", false, "reuse results of unchanged scripts")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "cache directory (default $XDG_CACHE_HOME/kestrel)")
	cmd.Flags().StringVar(&f.pathMode, "path-mode", "auto", "file paths in JSON diagnostics (auto|absolute|relative|basename)")
	return cmd
}

// resolveSettings merges defaults, kestrel.toml and flags, in that order.
func resolveSettings(cmd *cobra.Command, f scopesFlags) (settings, error) {
	s := defaultSettings()
	manifest, _, err := loadProjectManifest(".")
	if err != nil {
		return s, err
	}
	s = manifest.apply(s)

	flags := cmd.Flags()
	if flags.Changed("format") {
		if s.format, err = scopescript.ParseFormat(f.format); err != nil {
			return s, err
		}
	}
	if flags.Changed("policy") {
		if s.defaults.Policy, err = scope.ParsePolicy(f.policy); err != nil {
			return s, err
		}
	}
	if flags.Changed("buckets") {
		if f.buckets <= 0 || f.buckets > scope.MaxBuckets {
			return s, fmt.Errorf("--buckets must be in [1, %d]", scope.MaxBuckets)
		}
		s.defaults.Buckets = f.buckets
	}
	if flags.Changed("load-factor") {
		if f.loadFactor <= 0 || f.loadFactor > 8 {
			return s, fmt.Errorf("--load-factor must be in (0, 8]")
		}
		s.defaults.LoadFactor = f.loadFactor
	}
	return s, nil
}

func runScopes(ctx context.Context, cmd *cobra.Command, args []string, f scopesFlags) error {
	root := cmd.Root().PersistentFlags()
	quiet, _ := root.GetBool("quiet")
	showTimings, _ := root.GetBool("timings")
	maxDiagnostics, _ := root.GetInt("max-diagnostics")
	colorFlag, _ := root.GetString("color")
	uiFlag, _ := root.GetString("ui")

	useColor, err := readColor(colorFlag, os.Stderr)
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, f)
	if err != nil {
		return err
	}
	if f.diagFormat != "pretty" && f.diagFormat != "json" {
		return fmt.Errorf("unsupported --diag-format %q (must be pretty or json)", f.diagFormat)
	}
	if _, ok := diagfmt.ParsePathMode(f.pathMode); !ok {
		return fmt.Errorf("invalid --path-mode %q (expected auto|absolute|relative|basename)", f.pathMode)
	}

	timer := observ.NewTimer()
	idx := timer.Begin("list")
	files, err := driver.ListScripts(args)
	timer.End(idx, fmt.Sprintf("%d script(s)", len(files)))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no scope scripts found in %v", args)
	}

	opts := driver.Options{
		Defaults:       s.defaults,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           f.jobs,
	}
	if f.cache || f.cacheDir != "" {
		if opts.Cache, err = openCache(f.cacheDir); err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}
	idx = timer.Begin("evaluate")
	var results []driver.FileResult
	if len(files) > 1 && !quiet && shouldUseTUI(mode) {
		results, err = runEvalWithUI(ctx, "scopes", files, opts)
	} else {
		results, err = driver.EvalFiles(ctx, files, opts)
	}
	timer.End(idx, "")
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if err := reportDiagnostics(stderr, results, f, quiet, useColor); err != nil {
		return err
	}

	idx = timer.Begin("render")
	err = writeResults(cmd, results, s.format, f, useColor && f.output == "")
	timer.End(idx, s.format.String())
	if err != nil {
		return err
	}

	if showTimings && !quiet {
		for _, r := range results {
			timer.Record(r.Path, time.Duration(r.Timing.TotalMS*float64(time.Millisecond)), "")
		}
		fmt.Fprint(stderr, timer.Summary())
	}

	sum := driver.Summarize(results)
	if !quiet && len(results) > 1 {
		fmt.Fprintf(stderr, "%d script(s), %d failed, %d error(s), %d warning(s)\n",
			sum.Files, sum.Failed, sum.Errors, sum.Warnings)
	}
	if sum.Failed > 0 {
		return errScriptsFailed
	}
	return nil
}

func writeResults(cmd *cobra.Command, results []driver.FileResult, format scopescript.Format, f scopesFlags, useColor bool) (err error) {
	evaluated := make([]*scopescript.Result, 0, len(results))
	for _, r := range results {
		if r.Result != nil {
			evaluated = append(evaluated, r.Result)
		}
	}

	var out io.Writer = cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		out = file
	}
	return scopescript.Render(out, evaluated, format, scopescript.RenderOpts{Color: useColor, Width: f.width})
}

func reportDiagnostics(w io.Writer, results []driver.FileResult, f scopesFlags, quiet, useColor bool) error {
	bags := make([]*diag.Bag, 0, len(results))
	for _, r := range results {
		if r.Bag.Len() == 0 || (quiet && !r.Bag.HasErrors()) {
			continue
		}
		r.Bag.Sort()
		bags = append(bags, r.Bag)
	}
	if f.diagFormat == "json" {
		mode, _ := diagfmt.ParsePathMode(f.pathMode)
		return diagfmt.JSON(w, bags, diagfmt.JSONOpts{PathMode: mode, IncludeNotes: !f.noNotes})
	}
	for _, bag := range bags {
		if err := diag.Pretty(w, bag, diag.PrettyOpts{Color: useColor, Notes: !f.noNotes}); err != nil {
			return err
		}
	}
	return nil
}

func openCache(dir string) (*driver.ResultCache, error) {
	if dir != "" {
		return driver.NewResultCache(dir)
	}
	return driver.OpenResultCache("kestrel")
}
