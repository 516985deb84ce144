// Package diag turns the process configuration into concrete probes.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ankouyang/apiprobe/internal/config"
	"github.com/ankouyang/apiprobe/internal/gemini"
	"github.com/ankouyang/apiprobe/internal/probe"
)

// Check names accepted by ForCheck.
const (
	CheckCredential   = "credential"
	CheckModels       = "models"
	CheckReachability = "reachability"
	CheckTunnel       = "tunnel"
)

var ErrUnknownCheck = errors.New("unknown check")

// Placement maps the configured auth string to a probe placement.
func Placement(auth string) probe.AuthPlacement {
	if strings.EqualFold(strings.TrimSpace(auth), "header") {
		return probe.AuthHeader
	}
	return probe.AuthQuery
}

func base(cfg config.Config, name string) probe.Config {
	return probe.Config{
		Name:       name,
		Credential: cfg.APIKey,
		Auth:       Placement(cfg.Auth),
		Proxy:      cfg.ProxyURL,
		NoProxy:    cfg.NoProxy,
		Timeout:    cfg.Timeout,
		Insecure:   cfg.Insecure,
	}
}

// CredentialProbe sends a single generateContent request with the
// configured prompt.
func CredentialProbe(cfg config.Config) (probe.Config, error) {
	temp := cfg.Temperature
	req := gemini.NewTextRequest(cfg.Prompt, &gemini.GenerationConfig{
		Temperature:     &temp,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
	body, err := req.Encode()
	if err != nil {
		return probe.Config{}, err
	}
	pc := base(cfg, CheckCredential)
	pc.Method = "POST"
	pc.Endpoint = gemini.GenerateURL(cfg.BaseURL, cfg.Model)
	pc.Body = body
	return pc, nil
}

// ModelsProbe lists the models visible to the credential.
func ModelsProbe(cfg config.Config) probe.Config {
	pc := base(cfg, CheckModels)
	pc.Method = "GET"
	pc.Endpoint = gemini.ModelsURL(cfg.BaseURL)
	return pc
}

// ReachabilityProbe is a plain unauthenticated GET through the configured
// path. Any 200 counts; the page is usually HTML.
func ReachabilityProbe(cfg config.Config) probe.Config {
	pc := base(cfg, CheckReachability)
	pc.Auth = probe.AuthNone
	pc.Credential = ""
	pc.Method = "GET"
	pc.Endpoint = cfg.ReachabilityURL
	pc.SkipDecode = true
	return pc
}

// TunnelProbe checks that the proxy (or the direct path) can open a TCP
// connection to the API host.
func TunnelProbe(cfg config.Config) probe.Config {
	pc := base(cfg, CheckTunnel)
	pc.Auth = probe.AuthNone
	pc.Credential = ""
	pc.Endpoint = cfg.BaseURL
	return pc
}

// ForCheck returns the step for a named check.
func ForCheck(check string, cfg config.Config) (probe.Step, error) {
	switch check {
	case CheckCredential:
		pc, err := CredentialProbe(cfg)
		if err != nil {
			return probe.Step{}, err
		}
		return probe.Step{Mode: probe.StepRequest, Config: pc}, nil
	case CheckModels:
		return probe.Step{Mode: probe.StepRequest, Config: ModelsProbe(cfg)}, nil
	case CheckReachability:
		return probe.Step{Mode: probe.StepRequest, Config: ReachabilityProbe(cfg)}, nil
	case CheckTunnel:
		return probe.Step{Mode: probe.StepTunnel, Config: TunnelProbe(cfg)}, nil
	}
	return probe.Step{}, fmt.Errorf("%w: %q", ErrUnknownCheck, check)
}

// ProxyPlan runs reachability, then the tunnel check when a proxy is
// configured, then the model listing and finally generateContent.
func ProxyPlan(r *probe.Runner, cfg config.Config) (*probe.Sequence, error) {
	gen, err := CredentialProbe(cfg)
	if err != nil {
		return nil, err
	}
	steps := []probe.Step{{Mode: probe.StepRequest, Config: ReachabilityProbe(cfg)}}
	if cfg.ProxyURL != "" {
		steps = append(steps, probe.Step{Mode: probe.StepTunnel, Config: TunnelProbe(cfg)})
	}
	steps = append(steps,
		probe.Step{Mode: probe.StepRequest, Config: ModelsProbe(cfg)},
		probe.Step{Mode: probe.StepRequest, Config: gen},
	)
	return probe.NewSequence(r, steps...), nil
}

// FlashModels returns the Flash models listed in a successful models result.
func FlashModels(res probe.Result) ([]gemini.Model, error) {
	if !res.OK() {
		return nil, fmt.Errorf("models probe did not succeed: %s", res.Kind)
	}
	models, err := gemini.ParseModels(res.Body)
	if err != nil {
		return nil, err
	}
	return gemini.FilterModels(models, "flash"), nil
}
