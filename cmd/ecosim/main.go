package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/sim"
	"github.com/msageha/ecosim/internal/snapshot"
	"github.com/msageha/ecosim/internal/store/sqlite"
	"github.com/msageha/ecosim/internal/uds"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runDaemon(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "snapshot":
		runSnapshot(os.Args[2:])
	case "status":
		runControl("status", nil, os.Args[2:])
	case "pause":
		runControl("pause", nil, os.Args[2:])
	case "resume":
		runControl("resume", nil, os.Args[2:])
	case "toggle":
		runControl("toggle", nil, os.Args[2:])
	case "speed":
		runSpeed(os.Args[2:])
	case "shutdown":
		runControl("shutdown", nil, os.Args[2:])
	case "version":
		fmt.Printf("ecosim %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// configArg extracts an optional "--config <path>" pair from args.
func configArg(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func runDaemon(args []string) {
	cfgPath := configArg(args)
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := sim.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	daemon, err := sim.NewDaemon(cfgPath, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start daemon: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := daemon.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "daemon: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	cfg, err := model.LoadConfig(configArg(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := store.LatestRunSummary(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("run:      %s\n", summary.RunID)
	fmt.Printf("started:  %s\n", summary.StartedAt.Format(time.RFC3339))
	if summary.FinishedAt != nil {
		fmt.Printf("finished: %s\n", summary.FinishedAt.Format(time.RFC3339))
	} else {
		fmt.Println("finished: (still running)")
	}
	fmt.Printf("tick:     %d\n", summary.LastTick)
	fmt.Printf("entities: %d\n\n", summary.Entities)

	fmt.Printf("%-8s %10s %10s %10s %10s %10s %10s %8s\n",
		"sched", "enqueued", "deduped", "processed", "completed", "failed", "orphaned", "active")
	for _, s := range summary.Schedulers {
		fmt.Printf("%-8s %10d %10d %10d %10d %10d %10d %8d\n",
			s.Name, s.Stats.Enqueued, s.Stats.Deduped, s.Stats.Processed,
			s.Stats.Completed, s.Stats.Failed, s.Stats.Orphaned, s.Active)
	}
}

func runSnapshot(args []string) {
	cfg, err := model.LoadConfig(configArg(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	snap, err := snapshot.Read(cfg.Store.SnapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("run %s at tick %d (%d entities, written %s)\n",
		snap.RunID, snap.Tick, snap.Entities, snap.WrittenAt.Format(time.RFC3339))
	for _, s := range snap.Schedulers {
		fmt.Printf("  %-8s depth u/n/l=%d/%d/%d active=%d completed=%d failed=%d orphaned=%d\n",
			s.Name, s.Depth.Urgent, s.Depth.Normal, s.Depth.Lazy, s.Active,
			s.Stats.Completed, s.Stats.Failed, s.Stats.Orphaned)
	}
}

func runControl(command string, params any, args []string) {
	cfg, err := model.LoadConfig(configArg(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	client := uds.NewClient(cfg.Control.SocketPath)
	resp, err := client.SendCommand(command, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Error.Code, resp.Error.Message)
		os.Exit(1)
	}
	if len(resp.Data) > 0 {
		fmt.Println(string(resp.Data))
	}
}

func runSpeed(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ecosim speed <multiplier> [--config <path>]")
		os.Exit(1)
	}
	mult, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid multiplier %q\n", args[0])
		os.Exit(1)
	}
	runControl("speed", sim.SpeedParams{Multiplier: mult}, args[1:])
}

func printUsage() {
	fmt.Println(`ecosim - tick-based ecosystem scheduling daemon

Usage:
  ecosim run [--config <path>]       start the simulation daemon
  ecosim stats [--config <path>]     show the latest recorded run
  ecosim snapshot [--config <path>]  show the live metrics snapshot
  ecosim status [--config <path>]    query the running daemon
  ecosim pause [--config <path>]     pause tick advancement
  ecosim resume [--config <path>]    resume tick advancement
  ecosim toggle [--config <path>]    toggle pause
  ecosim speed <mult> [--config ...] set the speed multiplier (0.1-10)
  ecosim shutdown [--config <path>]  stop the running daemon
  ecosim version                     print version
  ecosim help                        show this help`)
}
