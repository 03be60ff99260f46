package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kpauljoseph/flashsheet/internal/config"
	"github.com/kpauljoseph/flashsheet/internal/pdf"
	"github.com/kpauljoseph/flashsheet/internal/sheet"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
)

func main() {
	pdfPath := flag.String("file", "", "Path to a generated sheet PDF")
	configPath := flag.String("config", "", "config the sheet was built with (optional)")
	cards := flag.Int("cards", 0, "number of cards the sheet should hold; enables layout verification")
	previewDir := flag.String("preview-dir", "", "write page previews and card crops into this directory")
	compare := flag.String("compare", "", "second PDF to compare page by page")
	dpi := flag.Float64("dpi", 72, "resolution of previews and page comparisons")
	debug := flag.Bool("debug", false, "enable trace logging")
	flag.Parse()

	if *pdfPath == "" {
		fmt.Println("Please provide a PDF file path using -file flag")
		os.Exit(1)
	}

	log := logger.New(logger.WithPrefix("[inspect] "))
	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}
	geom, err := cfg.Geometry()
	if err != nil {
		log.Fatal("Invalid page setup: %v", err)
	}

	ctx := context.Background()
	inspector := pdf.NewInspector(geom, log)

	fmt.Printf("Analyzing PDF: %s\n", *pdfPath)
	ins, err := inspector.Inspect(ctx, *pdfPath)
	if err != nil {
		fmt.Printf("Error inspecting PDF: %v\n", err)
		os.Exit(1)
	}

	for _, page := range ins.Pages {
		fmt.Printf("\nPage %d (%s, sheet %d):\n", page.Number, page.Kind, page.Batch+1)
		fmt.Printf("Dimensions (Width x Height): %.3f x %.3f points\n", page.Size.Width, page.Size.Height)
		fmt.Printf("Matches configured page: %v\n", pdf.MatchesDimensions(page.Size, geom.Page))
		if len(page.Captions) > 0 {
			fmt.Printf("Card captions: %v\n", page.Captions)
		}
	}

	if *cards > 0 {
		if err := inspector.Verify(ins, *cards); err != nil {
			fmt.Printf("\nVerification failed:\n%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nLayout verified for %d cards\n", *cards)
	}

	if *previewDir != "" {
		previews, err := inspector.Previews(ctx, *pdfPath, *previewDir, *dpi)
		if err != nil {
			log.Fatal("Error rendering previews: %v", err)
		}
		fmt.Printf("\nSaved %d page previews to %s\n", len(previews), *previewDir)

		if *cards > 0 {
			splitter, err := pdf.NewSplitter(*previewDir, geom, sheet.Convention(cfg.Duplex.Convention), log)
			if err != nil {
				log.Fatal("Error initializing splitter: %v", err)
			}
			images, err := splitter.SplitAll(previews, *cards)
			if err != nil {
				log.Fatal("Error splitting previews: %v", err)
			}
			fmt.Printf("Saved %d card images\n", len(images))
		}
	}

	if *compare != "" {
		comparePages(ctx, inspector, *pdfPath, *compare, *dpi)
	}
}

func comparePages(ctx context.Context, inspector *pdf.Inspector, first, second string, dpi float64) {
	hashes1, err := inspector.PageHashes(ctx, first, dpi)
	if err != nil {
		fmt.Printf("Error rendering %s: %v\n", first, err)
		os.Exit(1)
	}
	hashes2, err := inspector.PageHashes(ctx, second, dpi)
	if err != nil {
		fmt.Printf("Error rendering %s: %v\n", second, err)
		os.Exit(1)
	}

	fmt.Printf("\nComparing with %s:\n", second)
	fmt.Printf("PDF 1 pages: %d\n", len(hashes1))
	fmt.Printf("PDF 2 pages: %d\n", len(hashes2))

	identical := len(hashes1) == len(hashes2)
	for i := 0; i < min(len(hashes1), len(hashes2)); i++ {
		match := hashes1[i] == hashes2[i]
		identical = identical && match
		fmt.Printf("Page %d hashes match: %v\n", i+1, match)
	}
	if !identical {
		os.Exit(2)
	}
}
