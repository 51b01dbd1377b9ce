package selftest

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"kestrel/internal/buffer"
	"kestrel/internal/dict"
	"kestrel/internal/observ"
	"kestrel/internal/scope"
	"kestrel/internal/trace"
	"kestrel/internal/vector"
)

// BenchConfig sizes the workloads.
type BenchConfig struct {
	Keys   int
	Rounds int
	// Jobs bounds how many workloads run at once; <= 0 means GOMAXPROCS.
	Jobs int
}

// DefaultBenchConfig is what `kestrel bench` runs without flags.
func DefaultBenchConfig() BenchConfig {
	return BenchConfig{Keys: 100_000, Rounds: 3}
}

// BenchResult is the timing of one workload. Stats is set for map-backed
// workloads.
type BenchResult struct {
	Name   string        `json:"name"`
	Rounds int           `json:"rounds"`
	Best   time.Duration `json:"best_ns"`
	Total  time.Duration `json:"total_ns"`
	Stats  *scope.Stats  `json:"stats,omitempty"`
}

// PerOp is the best round divided by the key count.
func (r BenchResult) PerOp(keys int) time.Duration {
	if keys <= 0 {
		return 0
	}
	return r.Best / time.Duration(keys)
}

type workload struct {
	name string
	run  func(keys int) *scope.Stats
}

func workloads() []workload {
	return []workload{
		{"buffer-append", benchBuffer},
		{"vector-push-shift", benchVector},
		{"map-put-get", benchMap},
		{"map-remove-reinsert", benchMapChurn},
		{"map-stack-iter", benchMapStack},
		{"dict-put", benchDict},
	}
}

// Bench runs every workload cfg.Rounds times, workloads in parallel.
// Results keep workload order.
func Bench(ctx context.Context, cfg BenchConfig) ([]BenchResult, error) {
	if cfg.Keys <= 0 || cfg.Rounds <= 0 {
		return nil, fmt.Errorf("bench: keys and rounds must be positive (got %d, %d)", cfg.Keys, cfg.Rounds)
	}
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)

	wls := workloads()
	results := make([]BenchResult, len(wls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, wl := range wls {
		g.Go(func() error {
			span := trace.Begin(tr, trace.TierPass, "bench:"+wl.name, parent)
			timer := observ.NewTimer()
			res := BenchResult{Name: wl.name, Rounds: cfg.Rounds}
			for round := range cfg.Rounds {
				if err := gctx.Err(); err != nil {
					span.End("cancelled")
					return err
				}
				idx := timer.Begin("round " + strconv.Itoa(round))
				start := time.Now()
				res.Stats = wl.run(cfg.Keys)
				dur := time.Since(start)
				timer.End(idx, "")
				res.Total += dur
				if round == 0 || dur < res.Best {
					res.Best = dur
				}
			}
			if res.Stats != nil {
				span.WithStats(*res.Stats)
			}
			span.End(fmt.Sprintf("%.3f ms total", timer.Report().TotalMS))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func benchBuffer(keys int) *scope.Stats {
	b := buffer.New()
	for i := range keys {
		b.Printf("%d,", i)
	}
	return nil
}

func benchVector(keys int) *scope.Stats {
	v := vector.New[int]()
	for i := range keys {
		v.Push(i)
	}
	for v.Len() > 0 {
		_, _ = v.Shift()
	}
	return nil
}

func keyNames(keys int) []string {
	names := make([]string, keys)
	for i := range names {
		names[i] = "k" + strconv.Itoa(i)
	}
	return names
}

func benchMap(keys int) *scope.Stats {
	m := scope.New[int]()
	names := keyNames(keys)
	for i, k := range names {
		m.Put(k, i)
	}
	for _, k := range names {
		_, _ = m.Get(k)
	}
	st := m.Stats()
	return &st
}

func benchMapChurn(keys int) *scope.Stats {
	m := scope.New[int]()
	names := keyNames(keys)
	for i, k := range names {
		m.Put(k, i)
	}
	for i, k := range names {
		if i%2 == 0 {
			m.Remove(k)
		}
	}
	for i, k := range names {
		if i%2 == 0 {
			m.Put(k, i)
		}
	}
	st := m.Stats()
	return &st
}

// benchMapStack builds a chain of scopes, each shadowing some of the keys
// of its parent, and iterates the innermost one.
func benchMapStack(keys int) *scope.Stats {
	const depth = 8
	names := keyNames(keys / depth)
	m := scope.New[int]()
	for level := range depth {
		if level > 0 {
			m = scope.NewChild(m)
		}
		for i, k := range names {
			if level == 0 || i%depth == level {
				m.Put(k, level)
			}
		}
	}
	for range m.All() {
	}
	st := m.Stats()
	return &st
}

func benchDict(keys int) *scope.Stats {
	d := dict.New[int]()
	for i, k := range keyNames(keys) {
		d.Put(k, i)
	}
	for range d.All() {
	}
	return nil
}
