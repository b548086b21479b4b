// Package notify renders alert messages and delivers them through Shoutrrr.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDeliveryFailed is wrapped by every error a Notifier returns.
var ErrDeliveryFailed = errors.New("delivery failed")

type Kind string

const (
	KindAlert    Kind = "alert"
	KindRecovery Kind = "recovery"
	KindTest     Kind = "test"
)

// Message describes one notification about one target.
type Message struct {
	Kind   Kind
	Target string
	MapID  int
	MapURL string
	Level  string
	Detail string
	Time   time.Time
}

// Notifier delivers a message. It returns the names of the services that
// accepted it.
type Notifier interface {
	Notify(ctx context.Context, msg Message) ([]string, error)
}

// Dispatcher sends every message to all of its services.
type Dispatcher struct {
	services []Service
	body     string
	dryRun   bool
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. With dryRun set, deliveries are
// rendered and validated but never sent.
func NewDispatcher(services []Service, bodyTemplate string, dryRun bool, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		services: services,
		body:     bodyTemplate,
		dryRun:   dryRun,
		logger:   logger,
	}
}

// Notify renders msg and hands it to each service. A failing service does not
// stop delivery to the others; all failures are joined.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) ([]string, error) {
	log := d.logger.With("target", msg.Target, "kind", msg.Kind)

	deliveries, err := ResolveDeliveries(d.services, d.body, BuildTemplateData(msg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	var notified []string
	var errs []error
	for _, dl := range deliveries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if d.dryRun {
			if err := Validate(dl); err != nil {
				log.Error("notify validation failed (dry-run)", "service", dl.ServiceName, "error", err)
				errs = append(errs, err)
				continue
			}
			log.Debug("would notify (dry-run)", "service", dl.ServiceName, "message", dl.Message)
			notified = append(notified, dl.ServiceName)
			continue
		}

		log.Info("sending notification", "service", dl.ServiceName)
		if err := Send(dl); err != nil {
			log.Error("notify failed", "service", dl.ServiceName, "error", err)
			errs = append(errs, err)
			continue
		}
		notified = append(notified, dl.ServiceName)
		log.Debug("notification sent", "service", dl.ServiceName)
	}

	if len(errs) > 0 {
		return notified, fmt.Errorf("%w: %w", ErrDeliveryFailed, errors.Join(errs...))
	}
	return notified, nil
}

// Nop is the Notifier used when no service is configured. It only logs.
type Nop struct {
	Logger *slog.Logger
}

func (n Nop) Notify(_ context.Context, msg Message) ([]string, error) {
	n.Logger.Warn("no notification service configured, skipping",
		"target", msg.Target, "kind", msg.Kind, "level", msg.Level, "detail", msg.Detail)
	return nil, nil
}
