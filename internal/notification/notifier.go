// Package notification delivers fired trade signals to the operator:
// console output, a non-overlapping audio cue, and optionally Telegram.
package notification

import (
	"context"
	"log"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/metrics"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

// Notifier is the interface for all alert channels.
type Notifier interface {
	// Name identifies the channel in logs and metrics.
	Name() string
	// Send delivers a fired signal. Must not block the scan loop.
	Send(ctx context.Context, sig model.Signal) error
}

// ConsoleNotifier prints fired signals to the operator console.
type ConsoleNotifier struct{}

// NewConsoleNotifier creates the console channel.
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (n *ConsoleNotifier) Name() string { return "console" }

func (n *ConsoleNotifier) Send(ctx context.Context, sig model.Signal) error {
	log.Printf("[alert] 🔥🔥 [%s] %s 🔥🔥", sig.Symbol, sig.Reason)
	log.Printf("[alert]   bar end: %s", sig.BarEnd.Format("15:04"))
	log.Printf("[alert]   close: %.2f (%+.2f%%)", sig.Close, sig.ChangePct)
	return nil
}

// Multi fans a signal out to several channels. A failing channel is logged
// and counted per channel name, and does not stop the others.
type Multi struct {
	channels []Notifier
	metrics  *metrics.Metrics // optional
}

// NewMulti creates a fan-out notifier. m may be nil.
func NewMulti(m *metrics.Metrics, channels ...Notifier) *Multi {
	return &Multi{channels: channels, metrics: m}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Send(ctx context.Context, sig model.Signal) error {
	for _, ch := range m.channels {
		if err := ch.Send(ctx, sig); err != nil {
			log.Printf("[notify] %s delivery failed: %v", ch.Name(), err)
			if m.metrics != nil {
				m.metrics.AlertSendErrors.WithLabelValues(ch.Name()).Inc()
			}
		}
	}
	return nil
}
