// Command mempool-bench drives a request-style workload against one pool per
// worker goroutine and reports pool statistics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/davecgh/go-spew/spew"
	"github.com/lmittmann/tint"
	"github.com/pavanmanishd/mempool"
	"github.com/pavanmanishd/mempool/internal/pflagx"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var (
	EnvPrefix    = "MEMPOOL_"
	Workers      = pflag.IntP("workers", "w", 4, "number of workers, each owning one pool")
	PoolSize     = pflag.IntP("pool-size", "s", mempool.DefaultPoolSize, "slab size of each pool")
	Requests     = pflag.IntP("requests", "n", 10000, "requests per worker")
	AllocsPerReq = pflag.Int("allocs", 32, "allocations per request")
	MaxAlloc     = pflag.IntP("max-alloc", "m", 2048, "largest small allocation")
	LargeEvery   = pflag.Int("large-every", 64, "make every nth allocation large (0 to disable)")
	AlignedEvery = pflag.Int("aligned-every", 0, "make every nth allocation a 4096-byte aligned one (0 to disable)")
	Provider     = pflag.StringP("provider", "p", "heap", "memory provider (heap, mmap)")
	Budget       = pflag.Int("budget", 0, "byte budget for the heap provider (0 for unbounded)")
	Seed         = pflag.Uint64("seed", 1, "random seed")
	Dump         = pflag.Bool("dump", false, "dump final pool stats")
	LogLevel     = pflagx.LevelP("log-level", "L", slog.LevelInfo, "log level")
	LogJSON      = pflag.Bool("log-json", false, "use json logs")
	Help         = pflag.BoolP("help", "h", false, "show this help text")
)

func main() {
	if err := pflagx.ParseEnv(EnvPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	pflag.Parse()

	if *Help || pflag.NArg() != 0 {
		fmt.Printf("usage: %s [options]\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if *Help {
			return
		}
		os.Exit(2)
	}

	if *LogJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: LogLevel,
		})))
	} else {
		slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: LogLevel,
		})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("benchmark failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if *Workers <= 0 || *Requests < 0 || *AllocsPerReq <= 0 || *MaxAlloc <= 0 {
		return errors.New("workers, allocs and max-alloc must be positive")
	}

	provider, err := newProvider(*Provider, *Budget)
	if err != nil {
		return err
	}

	stats := make([]mempool.Stats, *Workers)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for i := range *Workers {
		g.Go(func() error {
			l := mempool.NewLocal(*PoolSize,
				mempool.WithProvider(provider),
				mempool.WithLogger(slog.Default().With("worker", i)),
			)
			defer l.Destroy()

			ctx := mempool.NewContext(ctx, l)
			rng := rand.New(rand.NewPCG(*Seed, uint64(i)))
			for r := range *Requests {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := serve(ctx, rng); err != nil {
					return errors.Wrapf(err, "worker %d request %d", i, r)
				}
				if r < *Requests-1 {
					l.Reset()
				}
			}
			if p := l.Pool(); p != nil {
				stats[i] = p.Stats()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	total := *Workers * *Requests * *AllocsPerReq
	slog.Info("done",
		"workers", *Workers,
		"allocations", total,
		"elapsed", elapsed,
		"ns_per_alloc", float64(elapsed.Nanoseconds())/float64(max(total, 1)),
	)
	for i, s := range stats {
		slog.Info("pool",
			"worker", i,
			"blocks", s.NumBlocks,
			"capacity", s.Capacity,
			"in_use", s.SizeInUse,
			"large", s.LargeAllocs,
			"large_slots", s.LargeSlots,
			"utilization", fmt.Sprintf("%.1f%%", s.Utilization*100),
		)
	}
	if *Dump {
		spew.Dump(stats)
	}
	return nil
}

// serve simulates one request: a burst of allocations from the pool carried
// by ctx, some of them large and freed before the request ends.
func serve(ctx context.Context, rng *rand.Rand) error {
	l, ok := mempool.FromContext(ctx)
	if !ok {
		return errors.New("no pool in context")
	}
	var large [][]byte
	for n := 1; n <= *AllocsPerReq; n++ {
		var (
			b   []byte
			err error
		)
		switch {
		case *AlignedEvery > 0 && n%*AlignedEvery == 0:
			b, err = l.AlignedAlloc(1+rng.IntN(*MaxAlloc), 4096)
			large = append(large, b)
		case *LargeEvery > 0 && n%*LargeEvery == 0:
			b, err = l.Alloc(mempool.DefaultPageSize + rng.IntN(*MaxAlloc))
			large = append(large, b)
		default:
			b, err = l.Alloc(1 + rng.IntN(*MaxAlloc))
		}
		if err != nil {
			return err
		}
		for j := range b {
			b[j] = byte(n)
		}
	}
	for i, b := range large {
		if i%2 == 0 {
			l.Free(b)
		}
	}
	return nil
}

func newProvider(name string, budget int) (mempool.Provider, error) {
	switch name {
	case "heap":
		return mempool.NewHeapProvider(budget), nil
	case "mmap":
		if budget != 0 {
			slog.Warn("budget is ignored by the mmap provider")
		}
		return mempool.NewMmapProvider(), nil
	default:
		return nil, errors.Newf("unknown provider %q", name)
	}
}
