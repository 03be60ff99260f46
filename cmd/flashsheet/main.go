package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kpauljoseph/flashsheet/internal/config"
	"github.com/kpauljoseph/flashsheet/internal/pipeline"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/updater"
	"github.com/kpauljoseph/flashsheet/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	input := flag.String("in", "", "card source file or directory of sources")
	outputDir := flag.String("output-dir", "", "directory to save sheets and decks (default: flashcards/ next to the input)")
	assetDir := flag.String("asset-dir", "", "directory holding card images (defaults to attachments/ beside each source)")
	rootDeckName := flag.String("root-deck", "", "root deck name for organizing flashcards (overrides config)")
	ankiMode := flag.String("anki", "", "deck output: none, apkg or connect (overrides config)")
	format := flag.String("format", "", "sheet output: pdf or png (overrides config)")
	plain := flag.Bool("plain", false, "treat card text as plain text instead of markdown")
	verify := flag.Bool("verify", false, "read generated PDFs back and check their layout")
	previewDir := flag.String("preview-dir", "", "render page previews and card crops into this directory")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := flag.Bool("version", false, "print version information and exit")
	checkUpdates := flag.Bool("check-updates", false, "check for a newer release before running")
	initConfig := flag.String("init-config", "", "write the default configuration to this path and exit")
	flag.Parse()

	if *showVersion {
		fmt.Print(version.GetDetailedVersionInfo())
		return
	}

	log := logger.New(logger.WithPrefix("[flashsheet] "))
	defer log.Sync()
	log.SetVerbose(*verbose)

	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	if *verbose {
		log.Debug("Verbose logging enabled")
	}

	if *initConfig != "" {
		if err := config.WriteDefault(*initConfig); err != nil {
			log.Fatal("Error writing config: %v", err)
		}
		log.Info("Wrote default configuration to %s", *initConfig)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received interrupt signal, stopping...")
		cancel()
	}()

	if *checkUpdates {
		reportUpdates(ctx, log)
	}

	if *input == "" {
		log.Fatal("No input given, use -in with a card file or directory")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}

	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *assetDir != "" {
		cfg.AssetDir = *assetDir
	}
	if *rootDeckName != "" {
		cfg.Anki.DeckName = *rootDeckName
	}
	if *ankiMode != "" {
		cfg.Anki.Mode = *ankiMode
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *previewDir != "" {
		cfg.Output.PreviewDir = *previewDir
	}
	cfg.PlainText = cfg.PlainText || *plain
	cfg.Output.Verify = cfg.Output.Verify || *verify

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid options: %v", err)
	}

	runner, err := pipeline.New(cfg, log)
	if err != nil {
		log.Fatal("Error initializing: %v", err)
	}

	summary, err := runner.Run(ctx, *input)
	summary.Print(log)
	if err != nil {
		log.Fatal("Error: %v", err)
	}
}

func reportUpdates(ctx context.Context, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := updater.NewChecker(log).CheckForUpdates(ctx)
	if err != nil {
		log.Warn("Update check failed: %v", err)
		return
	}
	if info == nil || !info.IsAvailable {
		log.Info("FlashSheet %s is up to date", version.Version)
		return
	}
	log.Info("FlashSheet %s is available (you have %s): %s", info.LatestVersion, info.CurrentVersion, info.DownloadURL)
	if info.UpdateMessage != "" {
		log.Info("%s", info.UpdateMessage)
	}
}
