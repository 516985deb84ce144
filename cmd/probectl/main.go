// Command probectl asks a running probed to execute one check and prints
// the result.
//
//	probectl [credential|models|reachability|tunnel] [prompt]
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ankouyang/apiprobe/internal/jsonutil"
	"github.com/ankouyang/apiprobe/internal/probe"
	"github.com/ankouyang/apiprobe/internal/report"
)

func main() {
	api := strings.TrimRight(os.Getenv("API_BASE"), "/")
	if api == "" {
		api = "http://localhost:8080"
	}

	payload := map[string]string{"check": "credential"}
	if len(os.Args) > 1 {
		payload["check"] = os.Args[1]
	}
	if len(os.Args) > 2 {
		payload["prompt"] = strings.Join(os.Args[2:], " ")
	}
	body, err := jsonutil.Marshal(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api+"/api/probes", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid API_BASE:", err)
		os.Exit(2)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("PROBE_API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, probe.DefaultMaxBodySize))

	if resp.StatusCode != http.StatusOK {
		fmt.Println("API returned status:", resp.Status)
		fmt.Println(strings.TrimSpace(string(raw)))
		os.Exit(1)
	}

	var view report.View
	if err := jsonutil.Unmarshal(raw, &view); err != nil {
		fmt.Println("Unexpected response:", err)
		os.Exit(1)
	}
	res := view.ProbeResult()
	report.New(os.Stdout, false).Result(res, res.Name+" check passed")
}
