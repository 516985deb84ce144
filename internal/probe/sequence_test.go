package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSequence_StopsOnTransportFailure(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer s.Close()

	seq := NewSequence(NewRunner(),
		Step{Config: Config{Name: "reachability", Endpoint: s.URL}},
		Step{Config: Config{Name: "models", Endpoint: "http://" + closedAddr(t), Timeout: time.Second}},
		Step{Config: Config{Name: "generate", Endpoint: s.URL}},
	)
	out := seq.Run(context.Background())
	if len(out) != 2 {
		t.Fatalf("want 2 results (stop after failure), got %d", len(out))
	}
	if out[0].Name != "reachability" || out[0].Kind != KindSuccess {
		t.Fatalf("unexpected first result: %+v", out[0])
	}
	if out[1].Kind != KindConnectionError {
		t.Fatalf("want connection_error, got %+v", out[1])
	}
}

func TestSequence_ContinuesAfterHTTPError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		io.WriteString(w, `{}`)
	}))
	defer s.Close()

	seq := NewSequence(NewRunner(),
		Step{Config: Config{Name: "models", Endpoint: s.URL + "/models"}},
		Step{Mode: StepTunnel, Config: Config{Name: "tunnel", Endpoint: s.URL}},
		Step{Config: Config{Name: "generate", Endpoint: s.URL + "/generate"}},
	)
	out := seq.Run(context.Background())
	if len(out) != 3 {
		t.Fatalf("want all 3 steps, got %d", len(out))
	}
	want := []Kind{KindHTTPError, KindSuccess, KindSuccess}
	for i, k := range want {
		if out[i].Kind != k {
			t.Fatalf("step %d: want %s got %s", i, k, out[i].Kind)
		}
	}
}

func TestSequence_CustomStopSet(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer s.Close()

	seq := NewSequence(NewRunner(),
		Step{Config: Config{Endpoint: s.URL}},
		Step{Config: Config{Endpoint: s.URL}},
	)
	seq.StopOn = []Kind{KindHTTPError}
	if out := seq.Run(context.Background()); len(out) != 1 {
		t.Fatalf("want stop on first http_error, got %d results", len(out))
	}
}
