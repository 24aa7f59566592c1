// Command allocheapctl drives, inspects, and benchmarks heapalloc
// heaps from the command line. It handles subcommand routing and
// delegates the actual work to the allocator, heapprovider, and
// debugwatch packages.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/heapalloc/internal/allocator"
	"github.com/orizon-lang/heapalloc/internal/debugwatch"
	"github.com/orizon-lang/heapalloc/internal/heapprovider"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	var err error

	switch sub {
	case "help", "-h", "--help":
		usage()

		return
	case "bench":
		err = runBench(args)
	case "check":
		err = runCheck(args)
	case "watch":
		err = runWatch(args)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "allocheapctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: allocheapctl <command> [flags]

commands:
  bench -n N -ops M [-json]   run N independent heaps, M ops each, concurrently
  check -dump <file>          load a debug snapshot and replay the consistency checker
  watch -config <file>        hot-reload a heap's debug flag from a JSON toggle file`)
}

type benchResult struct {
	Index int             `json:"index"`
	Stats allocator.Stats `json:"stats"`
}

func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	n := fs.Int("n", 4, "number of independent heaps to drive concurrently")
	ops := fs.Int("ops", 10000, "randomized malloc/free operations per heap")
	asJSON := fs.Bool("json", false, "print results as JSON instead of plain text")
	compat := fs.String("compat", "", "semver constraint each heap's format version must satisfy (e.g. \"^1.0.0\")")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	results := make([]benchResult, *n)

	for i := 0; i < *n; i++ {
		i := i

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			stats, err := driveOneHeap(i, *ops, *compat)
			if err != nil {
				return fmt.Errorf("heap %d: %w", i, err)
			}

			results[i] = benchResult{Index: i, Stats: stats}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(results)
	}

	var total allocator.Stats

	for _, r := range results {
		fmt.Printf("heap %d: allocs=%d frees=%d extends=%d in_use=%d heap_bytes=%d\n",
			r.Index, r.Stats.AllocationCount, r.Stats.FreeCount, r.Stats.ExtendCount,
			r.Stats.BytesInUse, r.Stats.HeapBytes)

		total.AllocationCount += r.Stats.AllocationCount
		total.FreeCount += r.Stats.FreeCount
		total.ExtendCount += r.Stats.ExtendCount
		total.TotalAllocated += r.Stats.TotalAllocated
		total.TotalFreed += r.Stats.TotalFreed
	}

	fmt.Printf("total: allocs=%d frees=%d extends=%d bytes_allocated=%d bytes_freed=%d\n",
		total.AllocationCount, total.FreeCount, total.ExtendCount, total.TotalAllocated, total.TotalFreed)

	return nil
}

// driveOneHeap runs a deterministic-per-index randomized malloc/free
// workload against a single, independently owned heap and returns its
// final activity counters. compat, if non-empty, is checked against
// allocator.FormatVersion before any operation runs.
func driveOneHeap(seedIndex, ops int, compat string) (allocator.Stats, error) {
	opts := []allocator.Option{}
	if compat != "" {
		opts = append(opts, allocator.WithCompat(compat))
	}

	h, err := allocator.New(heapprovider.NewMemProvider(0), opts...)
	if err != nil {
		return allocator.Stats{}, err
	}

	rng := rand.New(rand.NewSource(int64(seedIndex) + 1))

	var live []allocator.Ptr

	for i := 0; i < ops; i++ {
		switch {
		case len(live) == 0 || rng.Intn(4) != 0:
			p, err := h.Malloc(uintptr(rng.Intn(1024)))
			if err != nil {
				return allocator.Stats{}, err
			}

			live = append(live, p)

		default:
			idx := rng.Intn(len(live))
			h.Free(live[idx])
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}

	return h.Stats(), nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	dumpPath := fs.String("dump", "", "path to a snapshot written by Heap.DumpState")
	compat := fs.String("compat", "", "semver constraint this build's heap format version must satisfy before the snapshot is loaded")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dumpPath == "" {
		return fmt.Errorf("check requires -dump <file>")
	}

	if *compat != "" {
		if err := checkFormatCompat(*compat); err != nil {
			return err
		}
	}

	f, err := os.Open(*dumpPath)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := allocator.LoadState(f)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	if err := h.Check(); err != nil {
		return fmt.Errorf("consistency check failed: %w", err)
	}

	stats := h.Stats()
	fmt.Printf("ok: heap_bytes=%d bytes_in_use=%d\n", stats.HeapBytes, stats.BytesInUse)

	return nil
}

// checkFormatCompat verifies allocator.FormatVersion against a
// caller-supplied semver constraint before a snapshot is loaded, so
// an operator gets a clear error instead of LoadState succeeding
// against a format the caller didn't actually intend to accept.
func checkFormatCompat(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid -compat constraint %q: %w", constraint, err)
	}

	v, err := semver.NewVersion(allocator.FormatVersion)
	if err != nil {
		return fmt.Errorf("internal: FormatVersion %q is not valid semver: %w", allocator.FormatVersion, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("heap format %s does not satisfy constraint %q", allocator.FormatVersion, constraint)
	}

	return nil
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a {\"debug\": bool} JSON toggle file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *configPath == "" {
		return fmt.Errorf("watch requires -config <file>")
	}

	h, err := allocator.New(heapprovider.NewMemProvider(0))
	if err != nil {
		return err
	}

	w, err := debugwatch.NewWatcher(*configPath, func(debug bool) {
		h.SetDebug(debug)
		fmt.Printf("debug mode now %v\n", debug)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for {
		select {
		case err := <-w.Errors():
			fmt.Fprintln(os.Stderr, "watch error:", err)
		case <-ctx.Done():
			return nil
		}
	}
}
