// Command simulate plays many risk wheel sessions with a fixed strategy and
// prints outcome statistics for the configured content.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xtding233/riskwheel/internal/config"
	"github.com/xtding233/riskwheel/internal/logging"
	"github.com/xtding233/riskwheel/internal/sim"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		content  = fs.String("content", "content", "content directory holding default.yaml and profiles/")
		profile  = fs.String("profile", "", "content profile to layer over default.yaml")
		mode     = fs.String("mode", "", "override spin mode (uniform, weighted)")
		trials   = fs.Int("trials", 10000, "number of sessions to play")
		target   = fs.Int("target", 5, "leave at the first leavable zone >= target")
		revives  = fs.Int("revives", 0, "ad revives to take before giving up")
		maxSpins = fs.Int("max-spins", 0, "abandon a session after this many spins (0 = 1000)")
		seed     = fs.Uint64("seed", 0, "random seed for reproducibility (0 = random)")
		asJSON   = fs.Bool("json", false, "print the report as JSON")
		logLevel = fs.String("log-level", "warn", "log level")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := logging.NewWriter(stderr, *logLevel)
	if f, ok := stderr.(*os.File); ok && logging.IsTerminal(f) {
		log = logging.New(*logLevel, true)
	}

	var o config.Overrides
	if *mode != "" {
		o.Mode = mode
	}
	_, settings, err := config.NewLoader(*content).Resolve(*profile, o)
	if err != nil {
		fmt.Fprintf(stderr, "load content: %v\n", err)
		return 1
	}

	rep, err := sim.Run(ctx, sim.Params{
		Wheels:     settings.Wheels,
		Mode:       settings.Spin.Mode,
		Revive:     settings.Revive,
		Trials:     *trials,
		Seed:       *seed,
		TargetZone: *target,
		MaxRevives: *revives,
		MaxSpins:   *maxSpins,
	}, log)
	if err != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(stderr, "encode report: %v\n", err)
			return 1
		}
		return 0
	}
	printReport(stdout, settings.Version, rep)
	return 0
}

func printReport(w io.Writer, version string, rep sim.Report) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "content version %s\n", version)
	p.Fprintf(w, "trials     %d\n", rep.Trials)
	p.Fprintf(w, "collected  %d (%.2f%%)\n", rep.Collected, rep.CollectRate*100)
	p.Fprintf(w, "forfeited  %d\n", rep.Forfeited)
	p.Fprintf(w, "abandoned  %d\n", rep.Abandoned)
	p.Fprintf(w, "revives    %d\n\n", rep.Revives)

	p.Fprintf(w, "%-12s %10s %10s %8s %8s %8s\n", "metric", "mean", "stddev", "p50", "p90", "p99")
	for _, row := range []struct {
		name string
		s    sim.Stats
	}{
		{"final zone", rep.FinalZone},
		{"spins", rep.Spins},
		{"rewards", rep.Rewards},
		{"cash", rep.Cash},
	} {
		p.Fprintf(w, "%-12s %10.2f %10.2f %8.1f %8.1f %8.1f\n", row.name, row.s.Mean, row.s.StdDev, row.s.P50, row.s.P90, row.s.P99)
	}

	if len(rep.BombsByTier) > 0 {
		p.Fprintf(w, "\nbombs by tier\n")
		for _, tier := range sortedKeys(rep.BombsByTier) {
			p.Fprintf(w, "  %-10s %d\n", tier, rep.BombsByTier[tier])
		}
	}
	if len(rep.Inventory) > 0 {
		p.Fprintf(w, "\ncollected inventory\n")
		for _, key := range sortedKeys(rep.Inventory) {
			p.Fprintf(w, "  %-16s %d\n", key, rep.Inventory[key])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
