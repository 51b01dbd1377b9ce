package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"kestrel/internal/diag"
	"kestrel/internal/observ"
	"kestrel/internal/scopescript"
	"kestrel/internal/trace"
)

// Options configure a run over one or more scope scripts.
type Options struct {
	Defaults       scopescript.Options
	MaxDiagnostics int
	// Jobs bounds the number of scripts evaluated at once; <= 0 means GOMAXPROCS.
	Jobs     int
	Progress ProgressSink
	// Cache, when set, skips scripts whose bytes and options were seen before.
	Cache *ResultCache
}

// FileResult is the outcome for one script. Result is nil when the script
// could not be parsed or failed its checks.
type FileResult struct {
	Path   string
	Bag    *diag.Bag
	Result *scopescript.Result
	Timing observ.Report
}

// Failed reports whether the script produced error diagnostics.
func (r FileResult) Failed() bool {
	return r.Bag != nil && r.Bag.HasErrors()
}

func (o Options) sink() ProgressSink {
	if o.Progress == nil {
		return nopSink{}
	}
	return o.Progress
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

// EvalFile loads, checks and evaluates the script at path. Syntax and
// semantic problems end up in the result's bag; only I/O failures and
// cancellation are returned as errors.
func EvalFile(ctx context.Context, path string, opts Options) (FileResult, error) {
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.TierScript, "script:"+path, trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	sink := opts.sink()
	bag := diag.NewBag(opts.maxDiagnostics())
	reporter := diag.BagReporter{Bag: bag}
	timer := observ.NewTimer()
	res := FileResult{Path: path, Bag: bag}
	finish := func(status Status, err error) (FileResult, error) {
		res.Timing = timer.Report()
		sink.OnEvent(Event{File: path, Stage: StageEval, Status: status, Err: err,
			Elapsed: time.Duration(res.Timing.TotalMS * float64(time.Millisecond))})
		errs, warns := bag.Counts()
		span.WithExtra("errors", strconv.Itoa(errs)).WithExtra("warnings", strconv.Itoa(warns)).End(string(status))
		return res, err
	}

	sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusWorking})
	idx := timer.Begin("load")
	data, err := os.ReadFile(path)
	if err != nil {
		timer.End(idx, "")
		return finish(StatusError, fmt.Errorf("read scope script: %w", err))
	}
	var key Digest
	if opts.Cache != nil {
		key = runDigest(path, data, opts)
		run, ok, cerr := opts.Cache.Get(key)
		if cerr != nil {
			// битая запись: считаем промахом, перезапишем ниже
			trace.Point(tr, trace.TierScript, "cache:"+path, cerr.Error(), span.ID(), nil)
		}
		if ok {
			timer.End(idx, "cached")
			run.restore(bag)
			res.Result = run.Result
			span.WithExtra("cache", "hit")
			if bag.HasErrors() {
				return finish(StatusError, nil)
			}
			return finish(StatusDone, nil)
		}
	}
	store := func() {
		if opts.Cache == nil {
			return
		}
		if perr := opts.Cache.Put(key, runFromBag(bag, res.Result)); perr != nil {
			trace.Point(tr, trace.TierScript, "cache:"+path, perr.Error(), span.ID(), nil)
		}
	}
	script, err := scopescript.Parse(path, data)
	timer.End(idx, "")
	if err != nil {
		if !errors.Is(err, scopescript.ErrSyntax) {
			return finish(StatusError, err)
		}
		diag.ReportError(reporter, diag.DocBadTOML, diag.Location{File: path}, err.Error()).Emit()
		store()
		return finish(StatusError, nil)
	}

	sink.OnEvent(Event{File: path, Stage: StageCheck, Status: StatusWorking})
	idx = timer.Begin("check")
	eff := scopescript.Check(script, opts.Defaults, reporter)
	timer.End(idx, "")
	if bag.HasErrors() {
		store()
		return finish(StatusError, nil)
	}

	sink.OnEvent(Event{File: path, Stage: StageEval, Status: StatusWorking})
	idx = timer.Begin("eval")
	result, err := scopescript.Eval(ctx, script, eff, reporter)
	if result != nil {
		scopes, bindings := result.Counts()
		timer.End(idx, strconv.Itoa(scopes)+" scopes, "+strconv.Itoa(bindings)+" bindings")
	} else {
		timer.End(idx, "")
	}
	if err != nil {
		return finish(StatusError, err)
	}
	res.Result = result
	store()
	if bag.HasErrors() {
		return finish(StatusError, nil)
	}
	return finish(StatusDone, nil)
}

// EvalFiles evaluates scripts in parallel. Results keep the order of paths.
// The first I/O error or cancellation stops the run.
func EvalFiles(ctx context.Context, paths []string, opts Options) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	span := trace.Begin(trace.FromContext(ctx), trace.TierPass, "eval-files", trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	sink := opts.sink()
	for _, p := range paths {
		sink.OnEvent(Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := EvalFile(gctx, path, opts)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	span.WithExtra("files", strconv.Itoa(len(paths)))
	return results, nil
}

// Summary totals diagnostics over results.
type Summary struct {
	Files    int
	Failed   int
	Errors   int
	Warnings int
	Dropped  int
}

// Summarize folds results into a Summary.
func Summarize(results []FileResult) Summary {
	s := Summary{Files: len(results)}
	for _, r := range results {
		if r.Bag == nil {
			continue
		}
		if r.Failed() {
			s.Failed++
		}
		errs, warns := r.Bag.Counts()
		s.Errors += errs
		s.Warnings += warns
		s.Dropped += r.Bag.Dropped()
	}
	return s
}
