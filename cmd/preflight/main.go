// cmd/preflight/main.go
package main

import (
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/ankouyang/apiprobe/internal/config"
	"github.com/ankouyang/apiprobe/internal/report"
)

// preflight checks the configuration without touching the network.
func main() {
	out := report.New(os.Stdout, false)
	failed := false
	fail := func(msg string) {
		out.Fail(msg)
		failed = true
	}

	cfg, err := config.Load()
	if err != nil {
		out.Fail(err.Error())
		os.Exit(1)
	}

	if cfg.APIKey == "" {
		fail("GEMINI_API_KEY is empty (apiprobe and proxyprobe will exit 1).")
	} else {
		out.OK("GEMINI_API_KEY=" + config.MaskSecret(cfg.APIKey))
	}

	for _, e := range multierr.Errors(config.Validate(cfg)) {
		fail(e.Error())
	}

	out.OK("endpoint " + cfg.BaseURL + " model " + cfg.Model + " auth=" + cfg.Auth)

	if cfg.ProxyURL == "" {
		out.Warn("no proxy configured; probes connect directly.")
	} else {
		out.OK("proxy=" + config.RedactURL(cfg.ProxyURL))
	}
	if cfg.Insecure {
		out.Warn("PROBE_INSECURE=true; TLS certificates are not verified.")
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		fail("LOG_DIR " + cfg.LogDir + " is not writable: " + err.Error())
	} else {
		out.OK("LOG_DIR=" + cfg.LogDir)
	}

	// Server settings only matter for probed.
	if len(cfg.AdminAPIKeys) == 0 {
		out.Warn("ADMIN_API_KEYS is empty; anyone reaching probed can trigger probes.")
	}
	if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
		out.Warn("no API keys set; /metrics is open.")
	}
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS"} {
		if strings.Contains(os.Getenv(name), " ") {
			out.Warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		out.Warn("ALLOWED_ORIGINS empty; probed accepts cross-origin requests from any origin.")
	}
	if cfg.SlackWebhook != "" {
		out.OK("Slack notifications enabled")
	}

	if failed {
		os.Exit(1)
	}
	out.OK("preflight passed")
}
