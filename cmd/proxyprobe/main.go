// Command proxyprobe walks the path to the Gemini API step by step: a plain
// GET through the configured proxy, a TCP tunnel through the proxy to the
// API host, the model listing and finally one generateContent request.
//
// Exit status follows apiprobe.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/ankouyang/apiprobe/internal/config"
	"github.com/ankouyang/apiprobe/internal/diag"
	"github.com/ankouyang/apiprobe/internal/logging"
	"github.com/ankouyang/apiprobe/internal/notify"
	"github.com/ankouyang/apiprobe/internal/probe"
	"github.com/ankouyang/apiprobe/internal/report"
)

var successText = map[string]string{
	diag.CheckReachability: "Proxy connection established!",
	diag.CheckTunnel:       "Tunnel to the API host established!",
	diag.CheckModels:       "Model listing works!",
	diag.CheckCredential:   "API Key is VALID and working!",
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}
	out := report.New(os.Stdout, cfg.Output == "json")
	out.Timeout = cfg.Timeout

	if cfg.APIKey == "" {
		out.MissingKey("GEMINI_API_KEY")
		return 1
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}

	logger, closeLog := logging.OpenOrNop(cfg.LogDir)
	defer closeLog()

	runner := probe.NewRunner(probe.WithLogger(logger), probe.WithDNSDiagnosis(net.DefaultResolver))
	seq, err := diag.ProxyPlan(runner, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out.Linef("Testing proxy connection...")
	if cfg.ProxyURL != "" {
		out.Linef("Proxy: %s", config.RedactURL(cfg.ProxyURL))
	} else {
		out.Linef("Proxy: none (direct connection)")
	}
	if cfg.NoProxy != "" {
		out.Linef("No proxy for: %s", cfg.NoProxy)
	}
	out.Key(config.MaskSecret(cfg.APIKey))

	n := notify.New(cfg.SlackWebhook, logger)
	results := seq.Run(ctx)
	for i, res := range results {
		step := seq.Steps[i].Config
		out.Linef("\n[%d/%d] %s: %s", i+1, len(seq.Steps), step.Name, step.Endpoint)
		out.Result(res, successText[step.Name])

		if step.Name == diag.CheckModels && res.OK() {
			if flash, err := diag.FlashModels(res); err == nil {
				out.Linef("Found %d Flash models", len(flash))
				if len(flash) > 0 {
					out.Linef("First Flash model: %s", flash[0].Name)
				}
			}
		}
		if err := notify.Failure(ctx, n, res); err != nil {
			logger.Warn("notify_failed", zap.String("probe_id", res.ID), zap.Error(err))
		}
	}
	if len(results) < len(seq.Steps) {
		out.Linef("\nStopped after %s; remaining steps skipped.", results[len(results)-1].Name)
	}
	return 0
}
