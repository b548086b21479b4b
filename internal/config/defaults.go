package config

import (
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultPollIntervalSeconds = 60
	DefaultTimeout             = "30s"
	DefaultRetries             = 2
	DefaultRetryBackoff        = "2s"
	DefaultRetryMaxBackoff     = "30s"
	DefaultSMTPPort            = 587
	DefaultLogLevel            = "info"

	DefaultSubject = `{{event.emoji}} PRTG {{event.kind}}: {{target.name}} is {{status.level}}`
	DefaultBody    = `{{if eq event.kind "recovery"}}PRTG map recovered.{{else if eq event.kind "test"}}PRTG alert delivery test, no sensor is affected.{{else}}PRTG map reports sensors in error.{{end}}

Server:   {{target.name}}
Map:      {{target.map_url}}
Detected: {{event.time}}
Status:   {{status.level}} ({{status.detail}})
{{if eq event.kind "alert"}}
Please check the server in PRTG.{{end}}
`
)

// ApplyDefaults fills in every unset field that has a default.
func (c *Config) ApplyDefaults() {
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.Retry.Retries == nil {
		n := DefaultRetries
		c.Retry.Retries = &n
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = DefaultRetryBackoff
	}
	if c.Retry.MaxBackoff == "" {
		c.Retry.MaxBackoff = DefaultRetryMaxBackoff
	}
	if c.SMTP.Host != "" && c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.SMTP.StartTLS == nil {
		on := true
		c.SMTP.StartTLS = &on
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultSubject
	}
	if c.Notify.Body == "" {
		c.Notify.Body = DefaultBody
	}
	if c.Options.LogLevel == "" {
		c.Options.LogLevel = DefaultLogLevel
	}
}

// PollSchedule returns the cycle schedule: the cron expression when one is
// configured, otherwise a constant delay of PollIntervalSeconds.
func (c *Config) PollSchedule() (cron.Schedule, error) {
	if c.Schedule != "" {
		return cron.ParseStandard(c.Schedule)
	}
	return cron.Every(time.Duration(c.PollIntervalSeconds) * time.Second), nil
}

// Durations parses the duration strings. Call after Validate.
func (c *Config) Durations() (timeout, backoff, maxBackoff time.Duration) {
	timeout, _ = time.ParseDuration(c.Timeout)
	backoff, _ = time.ParseDuration(c.Retry.Backoff)
	maxBackoff, _ = time.ParseDuration(c.Retry.MaxBackoff)
	return timeout, backoff, maxBackoff
}
