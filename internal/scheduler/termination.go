package scheduler

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const TerminatedMessage = "SCRIPT TERMINATED. PLEASE SEE ERROR LOG."

// SignalError is the cancellation cause installed by the signal handler.
type SignalError struct {
	Signal os.Signal
}

func (e SignalError) Error() string { return "received signal " + e.Signal.String() }

// Reason renders the termination cause for the error log.
func Reason(cause error) string {
	var se SignalError
	if errors.As(cause, &se) {
		switch se.Signal {
		case os.Interrupt:
			return "Interrupted by user"
		case syscall.SIGTERM:
			return "Terminated by signal"
		}
		return "Stopped by " + se.Signal.String()
	}
	if cause == nil {
		return "Stopped"
	}
	return "Stopped: " + cause.Error()
}

// Terminate writes one error-log record and sends one best-effort alert.
// Later calls do nothing.
func (w *Watchdog) Terminate(ctx context.Context, cause error) {
	w.stopOnce.Do(func() {
		w.setState(StateTerminating)

		fields := []zap.Field{
			zap.Time("terminated_at", time.Now()),
			zap.String("reason", Reason(cause)),
		}
		if err := w.LastError(); err != nil {
			fields = append(fields, zap.Error(err))
		}
		w.ErrorLog.Error("watchdog_terminated", fields...)
		_ = w.ErrorLog.Sync()

		w.notifier.Notify(ctx, TerminatedMessage)

		w.setState(StateStopped)
		w.Logger.Info("watchdog_stopped", zap.String("reason", Reason(cause)))
	})
}
