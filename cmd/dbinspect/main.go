package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/store"
	"github.com/listenupapp/skipper/internal/store/sqlite"
)

// dbinspect summarises the stored segments of a data directory.
func main() {
	dataPath := flag.String("data-path", os.ExpandEnv("$HOME/.skipper"), "Data directory")
	backend := flag.String("store-backend", "badger", "Segment store backend (badger, sqlite)")
	limit := flag.Int("limit", 5, "Segments to print per mode")
	flag.Parse()

	logger := slog.New(slog.DiscardHandler)
	var (
		segments store.SegmentStore
		err      error
	)
	if *backend == "sqlite" {
		segments, err = sqlite.Open(filepath.Join(*dataPath, "segments.db"), logger, nil)
	} else {
		segments, err = store.New(filepath.Join(*dataPath, "db"), logger, nil)
	}
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer segments.Close()

	fmt.Println("=== Segment Inspection ===")
	fmt.Println()

	ctx := context.Background()
	for _, mode := range domain.Modes {
		records, err := segments.List(ctx, mode)
		if err != nil {
			log.Fatalf("Failed to list %s segments: %v", mode, err)
		}

		var (
			total   float64
			invalid int
		)
		for i, rec := range records {
			seg := rec.Segment()
			if !seg.Valid() {
				invalid++
				continue
			}
			total += seg.Range.Duration()
			if i < *limit {
				fmt.Printf("%s %s: %.1f - %.1f sec (updated %s)\n",
					mode, rec.EpisodeID, rec.Start, rec.End, rec.UpdatedAt.Format("2006-01-02 15:04"))
			}
		}

		fmt.Printf("=== %s ===\n", mode)
		fmt.Printf("Stored: %d\n", len(records))
		fmt.Printf("Invalid: %d\n", invalid)
		if valid := len(records) - invalid; valid > 0 {
			fmt.Printf("Average length: %.1f sec\n", total/float64(valid))
		}
		fmt.Println()
	}
}
