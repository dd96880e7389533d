package main

import (
	"WrplSpectra/internal/app"
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/engine/manager"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const usageExamples = `
Examples:
  wrpl-extract replay.wrpl
  wrpl-extract -wt_ext_cli ./wt_ext_cli -format txt replays/
  wrpl-extract -v replays/

The wt_ext_cli tool is required and can be downloaded from:
https://github.com/Warthunder-Open-Source-Foundation/wt_ext_cli
`

func main() {
	// --- Command-Line Flag Parsing ---
	configPath := flag.String("config", "", "Path to a YAML config file (optional).")
	cliPath := flag.String("wt_ext_cli", "./wt_ext_cli", "Path to the wt_ext_cli binary.")
	format := flag.String("format", "json", "Output format: 'json' or 'txt'.")
	outputDir := flag.String("out", "", "Directory for exported files (default: next to each replay).")
	workers := flag.Int("workers", 4, "Number of replays processed in parallel.")
	verbose := flag.Bool("v", false, "Enable verbose output with debug information.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.wrpl|directory>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, usageExamples)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	// --- Configuration ---
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "wt_ext_cli":
			cfg.Extractor.WtExtCliPath = *cliPath
		case "format":
			cfg.Extractor.Formats = []string{*format}
		case "out":
			cfg.Extractor.OutputDir = *outputDir
		case "workers":
			cfg.Extractor.NumWorkers = *workers
		case "v":
			cfg.Extractor.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Inputs and decoding service ---
	paths, err := manager.FindReplays(inputPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if len(paths) == 0 {
		log.Printf("No %s files found in %s", manager.ReplayExt, inputPath)
		return
	}

	processor, err := app.NewProcessor(cfg)
	if err != nil {
		log.Printf("Error: %v", err)
		log.Println("Download from: https://github.com/Warthunder-Open-Source-Foundation/wt_ext_cli")
		os.Exit(1)
	}

	writers, err := app.NewWriters(cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	// --- Batch ---
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	log.Printf("Found %d replay files in %s", len(paths), inputPath)
	report := manager.NewManager(processor, writers, cfg.Extractor.NumWorkers).Run(ctx, paths)
	code := exitCode(ctx, report, len(paths) == 1 && paths[0] == inputPath)

	stop()
	app.CloseWriters(writers)
	os.Exit(code)
}

// exitCode mirrors the batch outcome: 130 on interrupt, 1 on a fatal error
// or when a single requested file failed.
func exitCode(ctx context.Context, report manager.Report, singleFile bool) int {
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Println("Processing interrupted by user")
		return 130
	}
	if report.Fatal != nil {
		log.Printf("Fatal error: %v", report.Fatal)
		return 1
	}
	if singleFile && report.Succeeded != report.Total {
		return 1
	}
	return 0
}
