package runner

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/sznuper/prtgwatch/internal/config"
	"github.com/sznuper/prtgwatch/internal/notify"
)

// EmailService is the service name given to the smtp block.
const EmailService = "email"

// BuildServices turns the smtp block and the extra services into Shoutrrr
// services. The email service comes first, the rest follow sorted by name.
func BuildServices(cfg *config.Config) []notify.Service {
	var services []notify.Service

	if cfg.SMTP.Host != "" {
		startTLS := cfg.SMTP.StartTLS == nil || *cfg.SMTP.StartTLS
		smtp := notify.SMTP{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
			StartTLS: startTLS,
			HTML:     cfg.SMTP.HTML,
		}
		services = append(services, notify.Service{
			Name:   EmailService,
			URL:    smtp.URL(),
			Params: map[string]string{"subject": cfg.Notify.Subject},
		})
	}

	for _, name := range slices.Sorted(maps.Keys(cfg.Services)) {
		svc := cfg.Services[name]
		services = append(services, notify.Service{
			Name:   name,
			URL:    svc.URL,
			Params: svc.Params,
		})
	}

	return services
}

// BuildNotifier returns a Dispatcher over the configured services, or a Nop
// notifier when there are none.
func BuildNotifier(cfg *config.Config, dryRun bool, logger *slog.Logger) notify.Notifier {
	services := BuildServices(cfg)
	if len(services) == 0 {
		return notify.Nop{Logger: logger}
	}
	return notify.NewDispatcher(services, cfg.Notify.Body, dryRun, logger)
}
