package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIKey          string        // GEMINI_API_KEY; never read from files
	BaseURL         string        // API base, e.g. https://generativelanguage.googleapis.com/v1beta
	Model           string        // model used for generateContent
	Prompt          string        // prompt sent by the credential probe
	Temperature     float64       // generationConfig.temperature
	MaxOutputTokens int           // generationConfig.maxOutputTokens
	Auth            string        // "query" or "header"
	Timeout         time.Duration // per request
	ProxyURL        string        // http, https, socks5 or socks5h URL; empty = direct
	NoProxy         string        // comma-separated hosts that bypass ProxyURL
	Insecure        bool          // skip TLS verification (diagnostics only)
	ReachabilityURL string        // plain GET used to test the proxy path
	Output          string        // "text" or "json"
	SlackWebhook    string        // optional failure notification
	LogDir          string        // logs directory
	Addr            string        // diagnostics server bind address
	AdminAPIKeys    []string      // keys allowed to trigger probes on the server
	PublicAPIKeys   []string      // keys allowed to read /metrics
	AllowedOrigins  []string      // CORS origins for the diagnostics server; empty = any
	RateRPM         int           // server requests per minute per client
	RateBurst       int
}

const (
	defaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel        = "gemini-1.5-flash"
	defaultPrompt       = "Hello, respond with just 'OK' if you receive this."
	defaultReachability = "https://www.google.com"
)

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		BaseURL:         defaultBaseURL,
		Model:           defaultModel,
		Prompt:          defaultPrompt,
		Temperature:     0.1,
		MaxOutputTokens: 10,
		Auth:            "query",
		Timeout:         30 * time.Second,
		ReachabilityURL: defaultReachability,
		Output:          "text",
		LogDir:          "logs",
		Addr:            "127.0.0.1:8080",
		RateRPM:         30,
		RateBurst:       5,
	}
}

// FromEnv returns Defaults overridden by the process environment.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	setString(&cfg.APIKey, "GEMINI_API_KEY")
	setString(&cfg.BaseURL, "GEMINI_BASE_URL")
	setString(&cfg.Model, "GEMINI_MODEL")
	setString(&cfg.Prompt, "PROBE_PROMPT")
	setString(&cfg.Auth, "PROBE_AUTH")
	setString(&cfg.ReachabilityURL, "PROBE_REACHABILITY_URL")
	setString(&cfg.Output, "PROBE_OUTPUT")
	setString(&cfg.SlackWebhook, "PROBE_SLACK_WEBHOOK")
	setString(&cfg.LogDir, "LOG_DIR")
	setString(&cfg.Addr, "API_ADDR")

	if v := os.Getenv("PROBE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = f
		}
	}
	if v := os.Getenv("PROBE_MAX_OUTPUT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxOutputTokens = n
		}
	}
	if v := os.Getenv("PROBE_TIMEOUT_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Timeout = time.Duration(f * float64(time.Second))
		}
	}
	if v := os.Getenv("PROBE_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Insecure = b
		}
	}

	// An explicit PROBE_PROXY wins; otherwise the usual proxy variables are
	// read once here and passed down explicitly.
	if p := firstEnv("PROBE_PROXY", "HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy"); p != "" {
		cfg.ProxyURL = p
	}
	if np := firstEnv("NO_PROXY", "no_proxy"); np != "" {
		cfg.NoProxy = np
	}

	if v := os.Getenv("ADMIN_API_KEYS"); v != "" {
		cfg.AdminAPIKeys = splitCSV(v)
	}
	if v := os.Getenv("PUBLIC_API_KEYS"); v != "" {
		cfg.PublicAPIKeys = splitCSV(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("PROBE_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RateRPM = n
		}
	}
	if v := os.Getenv("PROBE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateBurst = n
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
