// Package main provides dfrstress, a randomized workload driver for package dfr.
//
// It defers values of every kind into a single Registry, releases and clones
// handles at random, and sweeps periodically, checking after every sweep that
// the Registry kept exactly the slots that were not yet ready.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/zeebo/dfr"
	"github.com/zeebo/pcg"
)

var errInvariant = errors.New("invariant violated")

// Config holds the workload parameters.
type Config struct {
	Seed         uint64
	Ops          int
	CollectEvery int
	FlushEvery   int
	MaxSlots     int
	Verbose      bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	cfg, err := parseFlags(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	start := time.Now()
	st, err := stress(cfg, out)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	fmt.Fprintf(out, "ok in %v: %v\n", time.Since(start).Round(time.Millisecond), st)
	return 0
}

func parseFlags(args []string, errOut io.Writer) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("dfrstress", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "Random seed")
	fs.IntVarP(&cfg.Ops, "ops", "n", 1_000_000, "Number of operations to run")
	fs.IntVar(&cfg.CollectEvery, "collect-every", 64, "Collect after this many operations")
	fs.IntVar(&cfg.FlushEvery, "flush-every", 4096, "Flush after this many operations, 0 disables")
	fs.IntVar(&cfg.MaxSlots, "max-slots", 0, "Registry capacity, 0 is unbounded")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Print stats after every flush")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.Ops < 0 || cfg.CollectEvery <= 0 || cfg.FlushEvery < 0 || cfg.MaxSlots < 0 {
		return cfg, fmt.Errorf("invalid flags: ops=%d collect-every=%d flush-every=%d max-slots=%d",
			cfg.Ops, cfg.CollectEvery, cfg.FlushEvery, cfg.MaxSlots)
	}
	return cfg, nil
}

// tracked is a handle the workload still holds, along with the value it was
// deferred with.
type tracked struct {
	h   dfr.Handle[uint64]
	val uint64
}

func stress(cfg Config, out io.Writer) (dfr.Stats, error) {
	r := dfr.NewRegistry(dfr.Options{MaxSlots: cfg.MaxSlots})
	rng := pcg.New(cfg.Seed)
	var held []tracked
	var full int

	for op := 1; op <= cfg.Ops; op++ {
		switch n := rng.Uint32n(10); {
		case n < 5:
			h, err := deferRandom(r, &rng, rng.Uint64())
			if errors.Is(err, dfr.ErrRegistryFull) {
				full++
				break
			} else if err != nil {
				return r.Stats(), err
			}
			held = append(held, tracked{h: h, val: *h.Deref()})

		case n < 9 && len(held) > 0:
			i := int(rng.Uint32n(uint32(len(held))))
			t := held[i]
			held[i] = held[len(held)-1]
			held = held[:len(held)-1]

			if got := *t.h.Deref(); got != t.val {
				return r.Stats(), fmt.Errorf("%w: op %d: deref %d, want %d", errInvariant, op, got, t.val)
			}
			if c, ok := t.h.(*dfr.Counted[uint64]); ok && rng.Uint32n(2) == 0 {
				held = append(held, tracked{h: c.Clone(), val: t.val})
			}
			t.h.Reset()
		}

		if op%cfg.CollectEvery == 0 {
			if err := checkCollect(r, op); err != nil {
				return r.Stats(), err
			}
		}

		if cfg.FlushEvery > 0 && op%cfg.FlushEvery == 0 {
			r.Flush()
			for _, t := range held {
				if t.h.Owns() {
					return r.Stats(), fmt.Errorf("%w: op %d: handle owns a flushed slot", errInvariant, op)
				}
			}
			held = held[:0]
			if cfg.Verbose {
				fmt.Fprintf(out, "op %d: %v\n", op, r.Stats())
			}
		}
	}

	if full > 0 {
		fmt.Fprintf(out, "%d defers refused by a full registry\n", full)
	}
	return r.Stats(), nil
}

func deferRandom(r *dfr.Registry, rng *pcg.T, v uint64) (dfr.Handle[uint64], error) {
	switch rng.Uint32n(4) {
	case 0:
		h, err := dfr.DeferUnique(r, v)
		if err != nil {
			return nil, err
		}
		return h, nil
	case 1:
		h, err := dfr.DeferFleeting(r, v)
		if err != nil {
			return nil, err
		}
		return h, nil
	case 2:
		h, err := dfr.DeferPersistent(r, v)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		h, err := dfr.DeferCounted(r, v)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

// checkCollect runs Collect and verifies that it removed exactly the slots that
// were ready, and that a second pass removes nothing.
func checkCollect(r *dfr.Registry, op int) error {
	before := r.Stats()
	n := r.Collect()
	after := r.Stats()

	switch {
	case n != before.Ready:
		return fmt.Errorf("%w: op %d: collected %d, %d were ready", errInvariant, op, n, before.Ready)
	case after.Live != before.Live-n:
		return fmt.Errorf("%w: op %d: live %d after collecting %d of %d", errInvariant, op, after.Live, n, before.Live)
	case after.Ready != 0:
		return fmt.Errorf("%w: op %d: %d ready slots survived", errInvariant, op, after.Ready)
	case after.Kind(dfr.KindPersistent) != before.Kind(dfr.KindPersistent):
		return fmt.Errorf("%w: op %d: collect removed persistent slots", errInvariant, op)
	case r.Collect() != 0:
		return fmt.Errorf("%w: op %d: second collect removed slots", errInvariant, op)
	}
	return nil
}
