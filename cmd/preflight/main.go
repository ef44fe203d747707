// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hamed0406/urlwatchdog/internal/config"
	"github.com/hamed0406/urlwatchdog/internal/domain"
	"github.com/hamed0406/urlwatchdog/internal/repo/file"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fail(err.Error())
	}
	ok("configuration valid")

	if cfg.WhatsAppEnabled() {
		ok("WhatsApp notifications enabled (chat " + cfg.WhatsAppChatID + ")")
	} else {
		warn("WHATSAPP_* not set; WhatsApp notifications disabled.")
	}
	if cfg.SlackWebhook != "" {
		ok("Slack notifications enabled")
	}
	if !cfg.WhatsAppEnabled() && cfg.SlackWebhook == "" {
		warn("no notification channel configured; transitions will only be logged.")
	}

	if cfg.APIAddr == "" {
		warn("API_ADDR empty; status API disabled.")
	} else {
		ok("API_ADDR=" + cfg.APIAddr)
		if len(cfg.APIKeys) == 0 {
			warn("API_KEYS empty; /api/* is open to anyone who can reach it.")
		}
	}

	if cfg.DatabaseURL != "" {
		ok("DATABASE_URL present; targets come from postgres")
		ok("preflight passed")
		return
	}

	descs, err := file.New(cfg.TargetsFile).Load(context.Background())
	if err != nil {
		fail(err.Error())
	}
	if len(descs) == 0 {
		warn(cfg.TargetsFile + " lists no targets.")
	}
	bad := 0
	for _, d := range descs {
		t, err := domain.Resolve(d)
		if err != nil {
			bad++
			warn(err.Error())
			continue
		}
		ok(fmt.Sprintf("%s → %s %s", strings.TrimSpace(d.Name), t.Kind(), t.Address()))
	}
	if bad > 0 {
		warn(fmt.Sprintf("%d target(s) will be skipped every cycle.", bad))
	}

	ok("preflight passed")
}
