// Command flow-demo runs a small multi-stream synchronization scenario: a
// handful of producer goroutines inject timestamped samples into a Group,
// and the demo prints every captured tuple as it's produced.
//
// Usage: flow-demo [--duration <dur>] [--format human|json] [--period <dur>]
//
// Exit codes:
//
//	0 = ran to completion
//	2 = usage error (invalid flags)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fetchrobotics/flow"
	"github.com/fetchrobotics/flow/captor"
	"github.com/fetchrobotics/flow/lockpolicy"
	"github.com/fetchrobotics/flow/policy"
	"github.com/fetchrobotics/flow/sink"
	"github.com/fetchrobotics/flow/stamp"
	"github.com/fetchrobotics/flow/zlog"
)

const usageText = `flow-demo — multi-stream capture demo

Usage:
  flow-demo [--duration <dur>] [--format human|json] [--period <dur>]

Flags:
  --duration <dur>   How long to run the demo (default: 3s)
  --format <fmt>     Output format: human or json (default: human)
  --period <dur>     Follower acceptance window before each driver stamp (default: 50ms)
  --help             Show this help
`

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the demo's entry point, separated from main for testability.
func run(args []string) int {
	cfg, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}
	if cfg.help {
		fmt.Print(usageText)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, cfg.duration)
	defer cancel()

	log := zlog.New(os.Stderr)

	ops := stamp.TimeOps()
	lock := lockpolicy.NewMutexed()

	cameraOut := sink.NewSlice[time.Time, string]()
	driver := captor.NewDriver[time.Time, time.Duration, string](
		ops, 64, lock, policy.Next[time.Time, time.Duration, string](), cameraOut)

	lidarOut := sink.NewSlice[time.Time, string]()
	follower := captor.NewFollower[time.Time, time.Duration, string](
		ops, 64, lock, policy.ClosestBefore[time.Time, time.Duration, string](ops, 0, cfg.period), lidarOut)

	group := flow.New[time.Time]("camera+lidar", lock, driver, []captor.Follower[time.Time]{follower}, flow.WithLogger[time.Time](log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return produce(gctx, driver, "frame", 30*time.Millisecond) })
	g.Go(func() error { return produce(gctx, follower, "scan", 22*time.Millisecond) })

	printer := newPrinter(cfg.format)

	for {
		r, st := group.Capture(ctx)
		switch st {
		case policy.Primed:
			printer.tuple(r, cameraOut, lidarOut)
		case policy.Abort:
			printer.abort(r)
		case policy.Timeout:
			_ = g.Wait()
			return 0
		}
	}
}

type config struct {
	duration time.Duration
	period   time.Duration
	format   string
	help     bool
}

func parseArgs(args []string) (config, error) {
	cfg := config{duration: 3 * time.Second, period: 50 * time.Millisecond, format: "human"}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			cfg.help = true
		case "--duration":
			if i+1 >= len(args) {
				return cfg, fmt.Errorf("--duration requires a value")
			}
			i++
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return cfg, fmt.Errorf("--duration: %w", err)
			}
			cfg.duration = d
		case "--period":
			if i+1 >= len(args) {
				return cfg, fmt.Errorf("--period requires a value")
			}
			i++
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return cfg, fmt.Errorf("--period: %w", err)
			}
			cfg.period = d
		case "--format":
			if i+1 >= len(args) {
				return cfg, fmt.Errorf("--format requires a value")
			}
			i++
			if args[i] != "human" && args[i] != "json" {
				return cfg, fmt.Errorf("--format must be human or json, got %q", args[i])
			}
			cfg.format = args[i]
		default:
			return cfg, fmt.Errorf("unknown flag %q", args[i])
		}
	}
	return cfg, nil
}

// injector is the subset of *captor.Captor the producer goroutines need.
type injector interface {
	Inject(s time.Time, v string)
}

func produce(ctx context.Context, into injector, label string, avgInterval time.Duration) error {
	n := 0
	for {
		jitter := time.Duration(rand.Int63n(int64(avgInterval)))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(avgInterval/2 + jitter):
		}
		n++
		into.Inject(time.Now(), fmt.Sprintf("%s-%d", label, n))
	}
}

type printer struct {
	format string
}

func newPrinter(format string) printer { return printer{format: format} }

func (p printer) tuple(r policy.Range[time.Time], camera, lidar *sink.Slice[time.Time, string]) {
	camValue := lastValue(camera)
	lidarValue := lastValue(lidar)

	if p.format == "json" {
		enc, _ := json.Marshal(map[string]any{
			"lower":  r.Lower.Format(time.RFC3339Nano),
			"upper":  r.Upper.Format(time.RFC3339Nano),
			"camera": camValue,
			"lidar":  lidarValue,
		})
		fmt.Println(string(enc))
		return
	}
	fmt.Printf("PRIMED [%s .. %s] camera=%s lidar=%s\n",
		r.Lower.Format(time.RFC3339Nano), r.Upper.Format(time.RFC3339Nano), camValue, lidarValue)
}

func (p printer) abort(r policy.Range[time.Time]) {
	fmt.Printf("ABORT upper=%s\n", r.Upper.Format(time.RFC3339Nano))
}

func lastValue(s *sink.Slice[time.Time, string]) string {
	if len(s.Values) == 0 {
		return ""
	}
	return s.Values[len(s.Values)-1].Data()
}
