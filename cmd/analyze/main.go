// Command analyze runs one intro and credits detection batch over a queue
// of episodes described in a JSON file, storing the results in the same
// segment store the daemon reads.
//
//	analyze -queue queue.json -modes introduction,credits -data-path ~/.skipper
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/listenupapp/skipper/internal/analyzer"
	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/domain"
	domainerrors "github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/logger"
	"github.com/listenupapp/skipper/internal/media"
	"github.com/listenupapp/skipper/internal/store"
	"github.com/listenupapp/skipper/internal/store/sqlite"
	"github.com/listenupapp/skipper/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		if errors.Is(err, domainerrors.ErrCanceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	queuePath := fs.String("queue", "", "JSON file holding the episode queue (required)")
	modesFlag := fs.String("modes", "introduction,credits", "Comma separated analysis modes")

	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		return err
	}
	if *queuePath == "" {
		fs.Usage()
		return errors.New("-queue is required")
	}
	modes, err := parseModes(*modesFlag)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
		Writer:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	settings, err := config.NewLiveSettings(cfg.Settings.File, validation.New(), log.Component("settings"))
	if err != nil {
		return err
	}

	segments, err := openStore(cfg, log.Component("store"))
	if err != nil {
		return err
	}
	defer segments.Close()

	probe := media.NewFFprobe(cfg.Media.FFprobePath, log.Component("ffprobe"))
	queue, err := loadQueue(ctx, *queuePath, probe, log.Logger)
	if err != nil {
		return err
	}

	runner := analyzer.NewRunner(analyzer.RunnerDeps{
		Store:    segments,
		Settings: settings,
		Chapters: probe,
		Sampler:  media.NewFFmpeg(cfg.Media.FFmpegPath, log.Component("ffmpeg")),
		LockPath: cfg.LockPath(),
		Logger:   log.Component("analyzer"),
	})

	report, runErr := runner.Run(ctx, queue, modes)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return runErr
}

func parseModes(raw string) ([]domain.Mode, error) {
	var modes []domain.Mode
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := domain.ParseMode(part)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	if len(modes) == 0 {
		return nil, errors.New("no analysis modes given")
	}
	return modes, nil
}

// loadQueue reads the queue file and asks ffprobe for any duration the file
// leaves out. Episodes that cannot be probed are dropped with a warning.
func loadQueue(ctx context.Context, path string, probe *media.FFprobe, log *slog.Logger) ([]*domain.QueuedEpisode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	var raw []*domain.QueuedEpisode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse queue %s: %w", filepath.Base(path), err)
	}

	queue := raw[:0]
	for _, ep := range raw {
		if ep == nil || ep.EpisodeID == "" || ep.Path == "" {
			log.Warn("skipping queue entry without episode_id or path")
			continue
		}
		if ep.Duration <= 0 {
			res, err := probe.Probe(ctx, ep.Path)
			if err != nil {
				log.Warn("skipping episode, duration unknown",
					"episode_id", ep.EpisodeID, "error", err)
				continue
			}
			ep.Duration = res.Duration
		}
		queue = append(queue, ep)
	}
	if len(queue) == 0 {
		return nil, errors.New("queue is empty")
	}
	return queue, nil
}

func openStore(cfg *config.Config, log *slog.Logger) (store.SegmentStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return sqlite.Open(filepath.Join(cfg.Storage.DataPath, "segments.db"), log, nil)
	default:
		return store.New(filepath.Join(cfg.Storage.DataPath, "db"), log, nil)
	}
}
