// Package app wires configuration into a running watchdog.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/urlwatchdog/internal/config"
	"github.com/hamed0406/urlwatchdog/internal/httpapi"
	"github.com/hamed0406/urlwatchdog/internal/notify"
	"github.com/hamed0406/urlwatchdog/internal/probe"
	"github.com/hamed0406/urlwatchdog/internal/repo"
	"github.com/hamed0406/urlwatchdog/internal/repo/file"
	"github.com/hamed0406/urlwatchdog/internal/repo/memory"
	"github.com/hamed0406/urlwatchdog/internal/repo/postgres"
	"github.com/hamed0406/urlwatchdog/internal/scheduler"
)

var _ scheduler.Alerter = (*notify.Gateway)(nil)

// allowance on top of the transport timeouts for the DNS diagnosis lookup
const dnsAllowance = 3 * time.Second

type App struct {
	Config   config.Config
	Logger   *zap.Logger
	ErrorLog *zap.Logger
	Watchdog *scheduler.Watchdog
	API      *httpapi.Server

	closers []func()
}

// New builds every component. It performs no probing.
func New(ctx context.Context, cfg config.Config, logger, errLog *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, ErrorLog: errLog}

	targets, err := a.registry(ctx)
	if err != nil {
		return nil, err
	}
	results := memory.New()

	schedule, err := scheduler.NewSchedule(cfg.CheckInterval, cfg.CheckSchedule)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("schedule: %w", err)
	}

	gw := notify.NewGateway(logger, Notifier(cfg), cfg.NotifyTimeout)
	wd := scheduler.NewWatchdog(logger, targets, results, Checker(cfg), nil, gw, schedule, cfg.MaxConcurrent)
	wd.ErrorLog = errLog
	wd.ProbeTimeout = ProbeBudget(cfg)
	a.Watchdog = wd

	if cfg.APIAddr != "" {
		a.API = httpapi.NewServer(logger, results, func() string { return wd.State().String() })
	}
	return a, nil
}

func (a *App) registry(ctx context.Context) (repo.TargetSource, error) {
	if a.Config.DatabaseURL == "" {
		a.Logger.Info("registry_selected", zap.String("source", "file"), zap.String("path", a.Config.TargetsFile))
		return file.New(a.Config.TargetsFile), nil
	}
	pg, err := postgres.New(ctx, a.Config.DatabaseURL, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	a.closers = append(a.closers, pg.Close)
	a.Logger.Info("registry_selected", zap.String("source", "postgres"))
	return pg, nil
}

// Run initializes the watchdog and polls until ctx is canceled. The returned
// exit code is 1 both after termination and on a failed startup.
func (a *App) Run(ctx context.Context) int {
	defer a.Close()

	if err := a.Watchdog.Init(ctx); err != nil {
		a.Logger.Error("startup_failed", zap.Error(err))
		a.ErrorLog.Error("startup_failed", zap.Time("at", time.Now()), zap.Error(err))
		_ = a.ErrorLog.Sync()
		return 1
	}

	apiDone := make(chan struct{})
	if a.API != nil {
		go func() {
			defer close(apiDone)
			if err := a.API.ListenAndServe(ctx, a.Config.APIAddr, a.Config.APIKeys); err != nil {
				a.Logger.Error("api_error", zap.Error(err))
			}
		}()
	} else {
		close(apiDone)
	}

	cause := a.Watchdog.Run(ctx)
	a.Watchdog.Terminate(ctx, cause)
	<-apiDone
	return 1
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Checker builds the variant dispatcher, wrapped in retries when configured.
func Checker(cfg config.Config) probe.Checker {
	p := &probe.Prober{
		Ping:     probe.NewPingChecker(cfg.PingTimeout),
		HTTP:     probe.NewHTTPChecker(cfg.HTTPTimeout, cfg.HTTPInsecureTLS),
		TCP:      probe.NewTCPChecker(cfg.TCPTimeout),
		Diagnose: cfg.DNSDiagnose,
	}
	if cfg.RetryAttempts > 1 {
		return &probe.RetryChecker{Inner: p, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}
	return p
}

// Notifier fans out to every configured channel, or drops messages when none is.
func Notifier(cfg config.Config) notify.Notifier {
	var out notify.Multi
	if cfg.WhatsAppEnabled() {
		if wa := notify.NewWhatsApp(cfg.WhatsAppAPIURL, cfg.WhatsAppInstanceID, cfg.WhatsAppToken, cfg.WhatsAppChatID, cfg.NotifyTimeout); wa != nil {
			out = append(out, wa)
		}
	}
	if s := notify.NewSlack(cfg.SlackWebhook, cfg.NotifyTimeout); s != nil {
		out = append(out, s)
	}
	switch len(out) {
	case 0:
		return notify.Nop{}
	case 1:
		return out[0]
	}
	return out
}

// ProbeBudget bounds one probe including retries and DNS diagnosis.
func ProbeBudget(cfg config.Config) time.Duration {
	longest := max(cfg.PingTimeout, cfg.HTTPTimeout, cfg.TCPTimeout)
	attempts := max(cfg.RetryAttempts, 1)
	budget := time.Duration(attempts)*longest + time.Duration(attempts-1)*cfg.RetryBackoff
	if cfg.DNSDiagnose {
		budget += dnsAllowance
	}
	// ping's own deadline is rounded up to whole seconds
	return budget + time.Second
}
