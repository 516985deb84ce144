package config

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/multierr"

	"github.com/ankouyang/apiprobe/internal/probe"
)

// Validate reports every problem in cfg at once. It does not mutate cfg and
// does not require an API key; a missing key is reported by the probe itself.
func Validate(cfg Config) error {
	var err error

	err = multierr.Append(err, checkHTTPURL("base url", cfg.BaseURL))
	err = multierr.Append(err, checkHTTPURL("reachability url", cfg.ReachabilityURL))
	if strings.TrimSpace(cfg.Model) == "" {
		err = multierr.Append(err, fmt.Errorf("model is empty"))
	}
	if cfg.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		err = multierr.Append(err, fmt.Errorf("temperature %.2f out of range [0,2]", cfg.Temperature))
	}
	if cfg.MaxOutputTokens < 0 {
		err = multierr.Append(err, fmt.Errorf("max output tokens must not be negative"))
	}
	if _, perr := probe.ParseProxy(cfg.ProxyURL); perr != nil {
		err = multierr.Append(err, perr)
	}
	switch cfg.Auth {
	case "query", "header":
	default:
		err = multierr.Append(err, fmt.Errorf("auth must be query or header, got %q", cfg.Auth))
	}
	switch cfg.Output {
	case "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("output must be text or json, got %q", cfg.Output))
	}
	if cfg.SlackWebhook != "" {
		err = multierr.Append(err, checkHTTPURL("slack webhook", cfg.SlackWebhook))
	}
	return err
}

// Normalize trims and lower-cases enumerations. Call it before Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimPrefix(strings.TrimSpace(cfg.Model), "models/")
	cfg.ProxyURL = strings.TrimSpace(cfg.ProxyURL)
	cfg.Auth = strings.ToLower(strings.TrimSpace(cfg.Auth))
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
}

func checkHTTPURL(what, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute http(s) url", what, raw)
	}
	return nil
}

// MaskSecret keeps the first 10 and last 4 characters of a key, enough to
// recognize it in output without revealing it.
func MaskSecret(s string) string {
	if len(s) <= 14 {
		return strings.Repeat("*", len(s))
	}
	return s[:10] + "..." + s[len(s)-4:]
}

// RedactURL hides any password in a URL such as a proxy with credentials.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
