package gemini

import (
	"fmt"
	"strings"

	"github.com/ankouyang/apiprobe/internal/jsonutil"
)

type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

type ModelList struct {
	Models        []Model `json:"models"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func ParseModels(body []byte) ([]Model, error) {
	var list ModelList
	if err := jsonutil.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}
	return list.Models, nil
}

// FilterModels keeps models whose name contains substr, ignoring case.
func FilterModels(models []Model, substr string) []Model {
	substr = strings.ToLower(substr)
	var out []Model
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.Name), substr) {
			out = append(out, m)
		}
	}
	return out
}

// CandidateText returns the concatenated text parts of the first candidate.
func CandidateText(body []byte) (string, error) {
	var resp GenerateResponse
	if err := jsonutil.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// ErrorMessage extracts error.message from an API error body and falls back
// to the trimmed raw text when the body has another shape.
func ErrorMessage(body []byte) string {
	var e apiError
	if err := jsonutil.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		if e.Error.Status != "" {
			return e.Error.Status + ": " + e.Error.Message
		}
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}
