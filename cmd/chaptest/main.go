package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/listenupapp/skipper/internal/analyzer"
	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/media"
	"github.com/listenupapp/skipper/internal/validation"
)

// chaptest prints a file's chapters and which of them the chapter analyzer
// would pick with the current settings.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: chaptest <video_file> [settings.toml]")
	}
	path := os.Args[1]

	settings := config.DefaultSettings()
	if len(os.Args) > 2 {
		s, err := config.LoadSettings(os.Args[2], validation.New())
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		settings = s
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	probe := media.NewFFprobe("", logger)
	res, err := probe.Probe(ctx, path)
	if err != nil {
		log.Fatalf("Failed to probe file: %v", err)
	}

	fmt.Printf("Testing: %s\n", path)
	fmt.Printf("Duration: %.1f sec\n\n", res.Duration)
	fmt.Printf("Chapters: %d\n", len(res.Chapters))
	for i, ch := range res.Chapters {
		fmt.Printf("  [%d] %-30q %.1f sec\n", i, ch.Name, ch.Start)
	}
	fmt.Println()

	ep := &domain.QueuedEpisode{EpisodeID: "chaptest", Path: path, Duration: res.Duration}
	chapters := analyzer.NewChapterAnalyzer(probe, settings, logger)
	for _, mode := range domain.Modes {
		pattern, err := analyzer.CompilePattern(settings.Pattern(mode))
		if err != nil {
			log.Fatalf("Invalid %s pattern: %v", mode, err)
		}
		if pattern == nil {
			fmt.Printf("%-12s pattern disabled\n", mode)
			continue
		}
		seg, ok := chapters.FindMatchingChapter(ep, res.Chapters, pattern, mode)
		if !ok {
			fmt.Printf("%-12s no match\n", mode)
			continue
		}
		fmt.Printf("%-12s %.1f - %.1f sec (%.1f sec)\n", mode, seg.Start(), seg.End(), seg.Range.Duration())
	}
}
