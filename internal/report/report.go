// Package report renders probe results for people (colored text) and for
// machines (one JSON object per line).
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ankouyang/apiprobe/internal/gemini"
	"github.com/ankouyang/apiprobe/internal/jsonutil"
	"github.com/ankouyang/apiprobe/internal/probe"
)

type Printer struct {
	Out  io.Writer
	JSON bool

	// Timeout is quoted in the timeout message.
	Timeout time.Duration

	good, bad, warn, dim *color.Color
}

// New returns a Printer writing to w. Colors follow color.NoColor, which is
// set automatically when w is not a terminal.
func New(w io.Writer, jsonOut bool) *Printer {
	return &Printer{
		Out:  w,
		JSON: jsonOut,
		good: color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		dim:  color.New(color.Faint),
	}
}

func (p *Printer) DisableColor() {
	for _, c := range []*color.Color{p.good, p.bad, p.warn, p.dim} {
		c.DisableColor()
	}
}

// Linef prints a plain progress line. Suppressed in JSON mode.
func (p *Printer) Linef(format string, args ...any) {
	if p.JSON {
		return
	}
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Key announces the (already masked) credential.
func (p *Printer) Key(masked string) {
	p.Linef("API Key found: %s", masked)
}

// MissingKey reports that the named variable holds no credential.
func (p *Printer) MissingKey(envVar string) {
	if p.JSON {
		_ = jsonutil.Encode(p.Out, map[string]string{
			"kind":    probe.KindMissingCredential.String(),
			"message": envVar + " not found in environment",
		})
		return
	}
	p.bad.Fprintf(p.Out, "Error: %s not found in environment\n", envVar)
}

// View is the JSON form of a result; Body carries the raw response text.
type View struct {
	probe.Result
	Body string `json:"body,omitempty"`
}

// ProbeResult converts v back into a probe result.
func (v View) ProbeResult() probe.Result {
	res := v.Result
	if v.Body != "" {
		res.Body = []byte(v.Body)
	}
	return res
}

// Result renders res. success is the line printed after "SUCCESS: " when
// the probe passed.
func (p *Printer) Result(res probe.Result, success string) {
	if p.JSON {
		_ = jsonutil.Encode(p.Out, View{Result: res, Body: string(res.Body)})
		return
	}

	if res.StatusCode != 0 {
		fmt.Fprintf(p.Out, "\nResponse Status: %d\n", res.StatusCode)
	}

	switch res.Kind {
	case probe.KindSuccess:
		p.good.Fprintf(p.Out, "SUCCESS: %s\n", success)
		if text := responseText(res); text != "" {
			fmt.Fprintf(p.Out, "Response: %s\n", text)
		}
	case probe.KindHTTPError:
		p.bad.Fprintf(p.Out, "API Error: %d\n", res.StatusCode)
		raw := strings.TrimSpace(string(res.Body))
		if msg := gemini.ErrorMessage(res.Body); msg != raw {
			fmt.Fprintf(p.Out, "Message: %s\n", msg)
		}
		fmt.Fprintf(p.Out, "Response: %s\n", raw)
	case probe.KindTimeout:
		p.warn.Fprintf(p.Out, "Request timed out after %s seconds\n", seconds(p.Timeout))
		p.dim.Fprintln(p.Out, "This suggests network connectivity issues or API overload")
	case probe.KindConnectionError:
		p.bad.Fprintf(p.Out, "Connection Error: %s\n", res.Message)
		p.dim.Fprintln(p.Out, "Cannot reach the API servers. Check your internet connection or proxy.")
	case probe.KindMissingCredential:
		p.bad.Fprintf(p.Out, "Error: %s\n", res.Message)
	default:
		p.bad.Fprintf(p.Out, "Error: %s\n", res.Message)
	}
}

// Preflight lines.

func (p *Printer) OK(msg string)   { p.good.Fprintln(p.Out, "✔", msg) }
func (p *Printer) Warn(msg string) { p.warn.Fprintln(p.Out, "⚠", msg) }
func (p *Printer) Fail(msg string) { p.bad.Fprintln(p.Out, "✖", msg) }

func seconds(d time.Duration) string {
	if d <= 0 {
		d = probe.DefaultTimeout
	}
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// responseText prefers the model's reply and falls back to the compacted
// JSON body. The body is rebuilt from Payload when only that survived.
func responseText(res probe.Result) string {
	body := res.Body
	if len(body) == 0 && res.Payload != nil {
		b, err := jsonutil.Marshal(res.Payload)
		if err != nil {
			return ""
		}
		body = b
	}
	if text, err := gemini.CandidateText(body); err == nil && text != "" {
		return text
	}
	if res.Payload == nil {
		return ""
	}
	return compact(body)
}

func compact(b []byte) string {
	var v any
	if err := jsonutil.Unmarshal(b, &v); err != nil {
		return string(b)
	}
	out, err := jsonutil.Marshal(v)
	if err != nil {
		return string(b)
	}
	return string(out)
}
