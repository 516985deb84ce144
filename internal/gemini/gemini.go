// Package gemini holds the request and response shapes of the Gemini
// generateContent and models endpoints, as far as a probe needs them.
package gemini

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ankouyang/apiprobe/internal/jsonutil"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
)

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// NewTextRequest builds a single-turn prompt request.
func NewTextRequest(prompt string, gc *GenerationConfig) GenerateRequest {
	return GenerateRequest{
		Contents:         []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: gc,
	}
}

// Encode returns the JSON body for r.
func (r GenerateRequest) Encode() ([]byte, error) {
	b, err := jsonutil.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	return b, nil
}

// GenerateURL returns base/models/<model>:generateContent. A model given
// as "models/<name>" is accepted too.
func GenerateURL(base, model string) string {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	return strings.TrimRight(base, "/") + "/models/" + url.PathEscape(model) + ":generateContent"
}

func ModelsURL(base string) string {
	return strings.TrimRight(base, "/") + "/models"
}
