package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"DiskMR/internal/config"
	"DiskMR/internal/logger"
	"DiskMR/internal/mapreduce"
	"DiskMR/internal/types"
	"DiskMR/internal/wordcount"
)

func main() {
	// glog writes to files unless told otherwise
	flag.Set("logtostderr", "true")
	defer logger.Flush()

	// Worker processes are copies of this binary; they run their task and exit.
	if handled, err := mapreduce.ServeWorker[int, int](wordcount.New()); handled {
		logger.Flush()
		if err != nil {
			fmt.Fprintf(os.Stderr, "worker failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg := config.Default()
	cfg.BindFlags(flag.CommandLine)
	modeFlag := flag.String("mode", "mapreduce", "Phases to run: 'map', 'reduce' or 'mapreduce'")
	final := flag.Bool("final", false, "This is the job's last reduction: join the reducer outputs")
	tid := flag.Int("tid", 0, "Reducer partition to run when -reducers=1")
	top := flag.Int("top", 50, "Number of joined results to print")
	flag.Parse()

	mode, err := types.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, mode, *final, *tid, *top); err != nil {
		logger.Flush()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, mode types.Mode, final bool, tid, top int) error {
	lg := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine, err := mapreduce.New[int, int](cfg, wordcount.New())
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if err := engine.Execute(ctx, mode, tid); err != nil {
		return err
	}

	if !final {
		fmt.Println("Non-final Map/Reduce Completed")
		return nil
	}

	result, err := engine.Join(true, mapreduce.DefaultJoinOptions())
	if err != nil {
		return fmt.Errorf("failed to join outputs: %w", err)
	}
	if result.Status == mapreduce.AlreadyJoined {
		lg.Warn("Nothing to join: outputs were already consumed")
	}

	fmt.Printf("-- Results of wordcount with parameters: %s %s %d %d\n", cfg.InputDir, cfg.OutputDir, cfg.Mappers, cfg.Reducers)
	fmt.Printf("-- Showing %d words:\n", top)
	wordcount.PrintResults(os.Stdout, result.Pairs, top)
	return nil
}
