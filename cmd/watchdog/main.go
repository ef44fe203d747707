package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/urlwatchdog/internal/app"
	"github.com/hamed0406/urlwatchdog/internal/config"
	"github.com/hamed0406/urlwatchdog/internal/logging"
	"github.com/hamed0406/urlwatchdog/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	errLog, err := logging.NewErrorLog(cfg.LogDir)
	if err != nil {
		logger.Error("error_log_open", zap.Error(err))
		return 1
	}
	defer errLog.Sync()

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go watchSignals(sigc, logger, cancel, os.Exit)

	a, err := app.New(ctx, cfg, logger, errLog)
	if err != nil {
		logger.Error("startup_failed", zap.Error(err))
		errLog.Error("startup_failed", zap.Error(err))
		return 1
	}
	return a.Run(ctx)
}

// watchSignals starts the termination sequence on the first signal and
// exits at once on a second one.
func watchSignals(sigc <-chan os.Signal, logger *zap.Logger, cancel context.CancelCauseFunc, exit func(int)) {
	s, ok := <-sigc
	if !ok {
		return
	}
	logger.Info("signal_received", zap.Stringer("signal", s))
	cancel(scheduler.SignalError{Signal: s})

	if s, ok = <-sigc; ok {
		logger.Warn("signal_forced_exit", zap.Stringer("signal", s))
		_ = logger.Sync()
		exit(1)
	}
}
