package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
)

// Channel is a named delivery target.
type Channel struct {
	Name     string
	Notifier Notifier
}

// Fanout delivers every notification to all channels. One failing channel does
// not stop the others; the failures are joined into the returned error.
type Fanout struct {
	channels []Channel
	metrics  metrics.Metrics
}

var _ Notifier = (*Fanout)(nil)

// NewFanout creates a Fanout. Channels with a nil Notifier are skipped.
func NewFanout(m metrics.Metrics, channels ...Channel) *Fanout {
	f := &Fanout{metrics: m}
	for _, c := range channels {
		if c.Notifier == nil {
			log.Info("Notification channel disabled", "channel", c.Name)
			continue
		}
		f.channels = append(f.channels, c)
	}
	return f
}

// Channels returns the names of the enabled channels.
func (f *Fanout) Channels() []string {
	names := make([]string, len(f.channels))
	for i, c := range f.channels {
		names[i] = c.Name
	}
	return names
}

func (f *Fanout) SendReminder(ctx context.Context, t *tournament.Tournament, startsIn time.Duration, dryRun bool) error {
	return f.each(func(n Notifier) error {
		return n.SendReminder(ctx, t, startsIn, dryRun)
	})
}

func (f *Fanout) SendPrizeAwarded(ctx context.Context, t *tournament.Tournament, line prize.PayoutLine, dryRun bool) error {
	return f.each(func(n Notifier) error {
		return n.SendPrizeAwarded(ctx, t, line, dryRun)
	})
}

func (f *Fanout) each(send func(Notifier) error) error {
	var errs []error
	for _, c := range f.channels {
		if err := send(c.Notifier); err != nil {
			f.metrics.IncNotifFailed(c.Name)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		f.metrics.IncNotifSent(c.Name)
	}
	return errors.Join(errs...)
}
