// Package main implements the nessharp NES emulator executable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/AndrewNeo/nessharp/internal/app"
	"github.com/AndrewNeo/nessharp/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file")
		configFile = flag.String("config", "", "Path to configuration file (default "+app.GetDefaultConfigPath()+")")
		backend    = flag.String("backend", "", "Presentation backend: ebitengine, headless or terminal")
		strict     = flag.Bool("strict", false, "Halt on unsupported opcodes instead of skipping them")
		entry      = flag.String("entry", "", "Start execution at this hex address instead of the reset vector")
		frames     = flag.Uint64("frames", 0, "Stop after this many frames (0 runs until closed)")
		trace      = flag.String("trace", "", "Write a CPU trace to this file")
		testROM    = flag.Bool("test-rom", false, "Stop when a test ROM reports its result and exit with its status")
		logLevel   = flag.String("log-level", "", "Log level: DEBUG, INFO, WARN or ERROR")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}
	if *romFile == "" {
		if flag.NArg() != 1 {
			printUsage()
			os.Exit(2)
		}
		*romFile = flag.Arg(0)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			config.Video.Backend = *backend
		case "strict":
			config.Emulation.StrictOpcodes = *strict
		case "entry":
			config.Emulation.EntryPoint = *entry
		case "frames":
			config.Emulation.MaxFrames = *frames
		case "trace":
			config.Debug.CPUTrace = *trace != ""
			config.Debug.TraceFile = *trace
		case "test-rom":
			config.Debug.TestROM = *testROM
		case "log-level":
			config.Debug.LogLevel = *logLevel
		}
	})

	logger := app.NewLogger(config.Debug.LogLevel, os.Stderr)
	slog.SetDefault(logger)
	logger.Info("nessharp starting", "version", version.GetVersion(), "config", configPath)

	application, err := app.NewApplication(config, app.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	if err := run(application, *romFile); err != nil {
		logger.Error("emulation failed", "err", err)
		if cerr := application.Cleanup(); cerr != nil {
			logger.Error("cleanup failed", "err", cerr)
		}
		os.Exit(1)
	}
	if err := application.Cleanup(); err != nil {
		logger.Error("cleanup failed", "err", err)
		os.Exit(1)
	}
}

func run(application *app.Application, romFile string) error {
	if err := application.LoadROM(romFile); err != nil {
		return err
	}
	return application.Run(context.Background())
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "nessharp - NES emulator")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "USAGE:")
	fmt.Fprintln(out, "  nessharp [options] -rom <file>")
	fmt.Fprintln(out, "  nessharp [options] <file>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "OPTIONS:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "EXAMPLES:")
	fmt.Fprintln(out, "  nessharp game.nes                                  # Window with keyboard input")
	fmt.Fprintln(out, "  nessharp -backend terminal game.nes                # Render in the terminal")
	fmt.Fprintln(out, "  nessharp -backend headless -entry C000 -frames 60 -trace nestest.log nestest.nes")
	fmt.Fprintln(out, "  nessharp -backend headless -test-rom -strict cpu_test.nes")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "CONTROLS (Default):")
	fmt.Fprintln(out, "  Player 1:")
	fmt.Fprintln(out, "    Arrow Keys / WASD - D-Pad")
	fmt.Fprintln(out, "    J                 - A Button")
	fmt.Fprintln(out, "    K                 - B Button")
	fmt.Fprintln(out, "    Enter             - Start")
	fmt.Fprintln(out, "    Space             - Select")
	fmt.Fprintln(out, "  Player 2:")
	fmt.Fprintln(out, "    1-4               - Up, Down, Left, Right")
	fmt.Fprintln(out, "    5-8               - A, B, Start, Select")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Special Keys:")
	fmt.Fprintln(out, "    Escape            - Quit")
	fmt.Fprintln(out, "    F1 / F2           - Soft / hard reset")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "CONFIGURATION:")
	fmt.Fprintf(out, "  Config file: %s (created with defaults when missing)\n", app.GetDefaultConfigPath())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "SUPPORTED FORMATS:")
	fmt.Fprintln(out, "  - iNES (.nes): NROM (0), MMC1 (1), MMC3 (4)")
}
