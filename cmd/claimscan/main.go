package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"claimscan/internal/appdata"
	"claimscan/internal/claims"
	"claimscan/internal/config"
	"claimscan/internal/events"
	"claimscan/internal/fetch"
	"claimscan/internal/obslog"
	"claimscan/internal/scan"
	"claimscan/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	cfgPath := os.Getenv("CLAIMSCAN_CONFIG")
	if cfgPath == "" {
		cfgPath = "claimscan.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	dataDir, err := appdata.Dir()
	if err != nil {
		log.Fatalf("appdata error: %v", err)
	}
	cfg.FillDownloadTargets(dataDir)

	sessionID := uuid.NewString()
	obslog.L().Info("session_start",
		zap.String("session_id", sessionID),
		zap.Int("sources", len(cfg.Sources)),
		zap.Bool("live_pgn", cfg.LivePGN),
		zap.Bool("legacy_combined", cfg.LegacyCombined))

	gameTracker := tracker.New()
	checker := claims.NewChecker(cfg.DontCheck)
	notifier := events.NewNotifier()
	registerLogging(notifier)

	ctx, cancel := context.WithCancel(context.Background())
	stopper := scan.NewStopper(cancel, notifier)
	livePGN := func() bool { return cfg.LivePGN }

	// Remote sources are fetched into local files first.
	if downloads := cfg.Downloads(); len(downloads) > 0 {
		client := fetch.NewClient(fetch.WithTimeout(8 * time.Second))
		for url := range downloads {
			if !client.Check(ctx, url) {
				obslog.L().Warn("source_unreachable", zap.String("url", url))
			}
		}
		dw := fetch.NewWorker(client, notifier, downloads, cfg.DownloadInterval.Std())
		dw.Start(ctx)
		stopper.Register(dw)
	}

	if cfg.LegacyCombined {
		combined := filepath.Join(dataDir, "games.pgn")
		lockPath := combined + ".lock"

		var paths []string
		for _, s := range cfg.Sources {
			paths = append(paths, s.File)
		}
		// Each worker gets its own flock handle: exclusion is between file
		// descriptions, and a shared handle would never block itself.
		mw := scan.NewMergeWorker(paths, combined, cfg.MergeInterval.Std(), flock.New(lockPath))
		mw.Start(ctx)
		stopper.Register(mw)

		sw := scan.NewCombinedWorker(combined, cfg.ScanInterval.Std(), gameTracker, checker, notifier, livePGN, flock.New(lockPath))
		sw.Start(ctx)
		stopper.Register(sw)
	} else {
		for _, s := range cfg.Sources {
			sw := scan.NewWorker(s.Name, s.File, cfg.ScanInterval.Std(), gameTracker, checker, notifier, livePGN)
			sw.Start(ctx)
			stopper.Register(sw)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("session_stop", zap.String("session_id", sessionID))
	stopper.Stop()
	obslog.L().Info("session_done", zap.String("session_id", sessionID))
}

// registerLogging subscribes structured logging to every event stream so
// the pipeline is observable without a UI attached.
func registerLogging(n *events.Notifier) {
	n.OnStatus(func(source string, s events.Status) {
		if s != events.StatusWaiting {
			obslog.L().Debug("worker_status", zap.String("source", source), zap.String("status", string(s)))
		}
	})
	n.OnClaim(func(f claims.Finding) {
		obslog.L().Info("claim",
			zap.String("id", f.ID),
			zap.String("kind", string(f.Kind)),
			zap.String("players", f.Players),
			zap.String("board", f.Board),
			zap.String("move", f.Move))
	})
	n.OnPassComplete(func(source string, games int) {
		obslog.L().Debug("pass_complete", zap.String("source", source), zap.Int("games", games))
	})
	n.OnInputEnabled(func(enabled bool) {
		obslog.L().Info("input_enabled", zap.Bool("enabled", enabled))
	})
}
