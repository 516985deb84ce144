package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ankouyang/apiprobe/internal/probe"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a message out to every notifier and reports all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Log writes notifications to a zap logger. Useful as a fallback when no
// webhook is configured.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(_ context.Context, title, text string) error {
	l.Logger.Warn("probe_alert", zap.String("title", title), zap.String("text", text))
	return nil
}

// New returns the notifiers for a process: the log always, Slack when a
// webhook is configured.
func New(webhook string, l *zap.Logger) Notifier {
	m := Multi{Log{Logger: l}}
	if s := NewSlack(webhook); s != nil {
		m = append(m, s)
	}
	return m
}

// Failure sends an alert for a result that did not succeed. Successful
// results are ignored.
func Failure(ctx context.Context, n Notifier, res probe.Result) error {
	if n == nil || res.OK() {
		return nil
	}
	title := fmt.Sprintf("probe %s: %s", res.Name, res.Kind)
	var b strings.Builder
	if res.StatusCode != 0 {
		fmt.Fprintf(&b, "status: %d\n", res.StatusCode)
	}
	if res.Message != "" {
		fmt.Fprintf(&b, "message: %s\n", res.Message)
	}
	fmt.Fprintf(&b, "id: %s", res.ID)
	return n.Send(ctx, title, b.String())
}
