// Package notify announces finished runs on NATS so downstream deploy hooks can
// react to a publishable (or aborted) release.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/report"
)

// RunEvent is the payload published when a run reaches a terminal state.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Terminal  string    `json:"terminal"`
	Pages     int       `json:"pages"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	Score     *float64  `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventFromReport projects a finished report onto a RunEvent.
func EventFromReport(rep *report.BuildReport) RunEvent {
	ev := RunEvent{
		RunID:     rep.RunID,
		Status:    string(rep.Status),
		Terminal:  rep.Terminal,
		Pages:     rep.PagesGenerated,
		Errors:    len(rep.Errors),
		Warnings:  len(rep.Warnings),
		Timestamp: rep.End,
	}
	if rep.QA != nil {
		score := rep.QA.Score
		ev.Score = &score
	}
	return ev
}

// Publisher delivers raw messages.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Notifier publishes run events on one subject.
type Notifier struct {
	pub     Publisher
	subject string
}

// New wraps pub.
func New(pub Publisher, subject string) *Notifier {
	return &Notifier{pub: pub, subject: subject}
}

// Connect dials NATS for cfg. It returns nil, nil when no URL is configured.
func Connect(cfg config.NotifyConfig) (*Notifier, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	pub, err := DialNATS(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	return New(pub, cfg.Subject), nil
}

// RunCompleted publishes the event for rep. A nil Notifier does nothing.
func (n *Notifier) RunCompleted(ctx context.Context, rep *report.BuildReport) error {
	if n == nil {
		return nil
	}
	data, err := json.Marshal(EventFromReport(rep))
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	if err := n.pub.Publish(ctx, n.subject, data); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	slog.Debug("Published run event", slog.String("subject", n.subject), slog.String("run_id", rep.RunID))
	return nil
}

// Close releases the underlying connection.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	return n.pub.Close()
}

// NATSPublisher publishes with core NATS and flushes so delivery failures surface
// before the process exits.
type NATSPublisher struct {
	conn *nats.Conn
}

// DialNATS connects to url.
func DialNATS(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("prerender"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.conn.FlushWithContext(ctx)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
