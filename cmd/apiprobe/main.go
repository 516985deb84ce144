// Command apiprobe checks that GEMINI_API_KEY is accepted by the Gemini API
// with a single generateContent request.
//
// Exit status is 1 when no key is configured, 2 on invalid configuration and
// 0 otherwise, whatever the outcome of the request.
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

	pc, err := diag.CredentialProbe(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out.Key(config.MaskSecret(cfg.APIKey))
	out.Linef("\nTesting API connection...")
	out.Linef("Sending request to: %s", pc.Endpoint)

	runner := probe.NewRunner(probe.WithLogger(logger), probe.WithDNSDiagnosis(net.DefaultResolver))
	res := runner.Run(ctx, pc)
	out.Result(res, "API Key is VALID and working!")

	if err := notify.Failure(ctx, notify.New(cfg.SlackWebhook, logger), res); err != nil {
		logger.Warn("notify_failed", zap.String("probe_id", res.ID), zap.Error(err))
	}
	return 0
}
