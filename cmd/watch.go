package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spigell/scholara/internal/config"
	"github.com/spigell/scholara/internal/discovery"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the configured discovery queries on a schedule and dump proposals to files",
	Run: func(cmd *cobra.Command, _ []string) {
		runWatch(cmd)
	},
}

func init() {
	discoverCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("now", false, "run every query once immediately before waiting for the schedule")
}

func runWatch(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, cfg := setup()

	if len(cfg.Discovery.Queries) == 0 {
		logger.Fatal("no queries configured", zap.String("hint", "add entries under discovery.queries"))
	}

	if cfg.Discovery.DumpDir != "" {
		if err := os.MkdirAll(cfg.Discovery.DumpDir, 0o755); err != nil {
			logger.Fatal("creating dump directory", zap.Error(err))
		}
	}

	completer, cleanup, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building completer", zap.Error(err))
	}
	defer cleanup()

	orchestrator, err := newOrchestrator(completer, cfg, logger)
	if err != nil {
		logger.Fatal("building discovery", zap.Error(err))
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger.Sugar()})))
	if _, err := scheduler.AddFunc(cfg.Discovery.Schedule, func() {
		runQueries(ctx, orchestrator, cfg.Discovery, logger)
	}); err != nil {
		logger.Fatal("scheduling discovery", zap.Error(err), zap.String("schedule", cfg.Discovery.Schedule))
	}

	if now, _ := cmd.Flags().GetBool("now"); now {
		runQueries(ctx, orchestrator, cfg.Discovery, logger)
	}

	scheduler.Start()
	logger.Info("watching",
		zap.String("schedule", cfg.Discovery.Schedule),
		zap.Int("queries", len(cfg.Discovery.Queries)),
	)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	logger.Info("exiting", zap.String("reason", "signal received"))
}

func runQueries(ctx context.Context, orchestrator *discovery.Orchestrator, cfg config.DiscoveryConfig, logger *zap.Logger) {
	for _, q := range cfg.Queries {
		if ctx.Err() != nil {
			return
		}

		resp, err := orchestrator.Discover(ctx, q.Request())
		if err != nil {
			logger.Error("discovery failed", zap.String("query", q.Query), zap.Error(err))
			continue
		}

		proposals := resp.Proposals()
		if proposals.Len() == 0 {
			logger.Info("nothing proposed", zap.String("query", resp.Query), zap.Strings("errors", resp.Errors))
			continue
		}

		filename, err := proposals.DumpToTmpFile(cfg.DumpDir)
		if err != nil {
			logger.Error("dumping proposals", zap.String("query", resp.Query), zap.Error(err))
			continue
		}

		logger.Info("dumping proposals to file",
			zap.String("query", resp.Query),
			zap.String("filename", filename),
			zap.Int("proposals count", proposals.Len()),
		)
	}
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	*zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Errorw(msg, append(keysAndValues, "error", err)...)
}
