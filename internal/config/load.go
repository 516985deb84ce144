package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File is the optional YAML overlay. Absent keys leave values untouched.
// The API key is only ever read from the environment.
type File struct {
	Gemini struct {
		BaseURL         *string  `yaml:"base_url"`
		Model           *string  `yaml:"model"`
		Prompt          *string  `yaml:"prompt"`
		Temperature     *float64 `yaml:"temperature"`
		MaxOutputTokens *int     `yaml:"max_output_tokens"`
		Auth            *string  `yaml:"auth"`
	} `yaml:"gemini"`
	Probe struct {
		TimeoutSeconds  *float64 `yaml:"timeout_seconds"`
		Proxy           *string  `yaml:"proxy"`
		NoProxy         *string  `yaml:"no_proxy"`
		Insecure        *bool    `yaml:"insecure"`
		ReachabilityURL *string  `yaml:"reachability_url"`
		Output          *string  `yaml:"output"`
		SlackWebhook    *string  `yaml:"slack_webhook"`
	} `yaml:"probe"`
	Server struct {
		Addr  *string `yaml:"addr"`
		RPM   *int    `yaml:"rpm"`
		Burst *int    `yaml:"burst"`
	} `yaml:"server"`
	LogDir *string `yaml:"log_dir"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load resolves configuration in order: defaults, .env file, YAML file
// named by PROBE_CONFIG, process environment. The result is normalized but
// not validated.
func Load() (Config, error) {
	if err := LoadDotEnv(os.Getenv("PROBE_ENV_FILE")); err != nil {
		return Config{}, err
	}
	cfg := Defaults()
	if path := os.Getenv("PROBE_CONFIG"); path != "" {
		f, err := ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		f.Apply(&cfg)
	}
	applyEnv(&cfg)
	Normalize(&cfg)
	return cfg, nil
}

func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// Apply copies every key present in f onto cfg.
func (f *File) Apply(cfg *Config) {
	if f == nil || cfg == nil {
		return
	}
	g, p, s := f.Gemini, f.Probe, f.Server

	setFrom(&cfg.BaseURL, g.BaseURL)
	setFrom(&cfg.Model, g.Model)
	setFrom(&cfg.Prompt, g.Prompt)
	setFrom(&cfg.Temperature, g.Temperature)
	setFrom(&cfg.MaxOutputTokens, g.MaxOutputTokens)
	setFrom(&cfg.Auth, g.Auth)

	if p.TimeoutSeconds != nil {
		cfg.Timeout = time.Duration(*p.TimeoutSeconds * float64(time.Second))
	}
	setFrom(&cfg.ProxyURL, p.Proxy)
	setFrom(&cfg.NoProxy, p.NoProxy)
	setFrom(&cfg.Insecure, p.Insecure)
	setFrom(&cfg.ReachabilityURL, p.ReachabilityURL)
	setFrom(&cfg.Output, p.Output)
	setFrom(&cfg.SlackWebhook, p.SlackWebhook)

	setFrom(&cfg.Addr, s.Addr)
	setFrom(&cfg.RateRPM, s.RPM)
	setFrom(&cfg.RateBurst, s.Burst)
	setFrom(&cfg.LogDir, f.LogDir)
}

func setFrom[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
