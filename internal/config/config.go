package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/goccy/go-yaml"
)

type Config struct {
	PRTG                PRTG               `yaml:"prtg"`
	Servers             []Server           `yaml:"servers" validate:"required,min=1,unique=Name,unique=MapID,dive"`
	PollIntervalSeconds int                `yaml:"poll_interval_seconds" validate:"gte=0"`
	Schedule            string             `yaml:"schedule" validate:"omitempty,schedule"`
	Timeout             string             `yaml:"timeout" validate:"omitempty,duration"`
	Concurrency         int                `yaml:"concurrency" validate:"gte=0,lte=64"`
	Retry               Retry              `yaml:"retry"`
	SMTP                SMTP               `yaml:"smtp"`
	Services            map[string]Service `yaml:"services" validate:"dive"`
	Notify              Notify             `yaml:"notify"`
	Options             Options            `yaml:"options"`
}

// PRTG describes the PRTG web server whose maps are inspected.
type PRTG struct {
	BaseURL            string `yaml:"base_url" validate:"required,url"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	Passhash           string `yaml:"passhash" validate:"excluded_with=Password"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Server is one monitored PRTG map.
type Server struct {
	Name  string `yaml:"name" validate:"required"`
	MapID int    `yaml:"map_id" validate:"gt=0"`
}

type Retry struct {
	Retries    *int   `yaml:"retries" validate:"omitempty,gte=0,lte=10"`
	Backoff    string `yaml:"backoff" validate:"omitempty,duration"`
	MaxBackoff string `yaml:"max_backoff" validate:"omitempty,duration"`
}

// SMTP is the mail relay alerts are delivered through. An empty Host
// disables mail delivery.
type SMTP struct {
	Host     string     `yaml:"host"`
	Port     int        `yaml:"port" validate:"gte=0,lte=65535"`
	Username string     `yaml:"username"`
	Password string     `yaml:"password"`
	From     string     `yaml:"from" validate:"required_with=Host,omitempty,email"`
	To       Recipients `yaml:"to" validate:"required_with=Host,dive,email"`
	StartTLS *bool      `yaml:"starttls"`
	// HTML sends a multipart mail with an HTML part next to the plain text.
	HTML     bool       `yaml:"html"`
}

type Service struct {
	URL    string            `yaml:"url" validate:"required"`
	Params map[string]string `yaml:"params"`
}

type Notify struct {
	Recovery       bool   `yaml:"recovery"`
	RearmOnFailure bool   `yaml:"rearm_on_failure"`
	Subject        string `yaml:"subject"`
	Body           string `yaml:"body"`
}

// Options holds settings that can also be overridden from the command line.
// Every field must be a string.
type Options struct {
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=text json"`
}

// Recipients handles both a list of addresses and a single comma separated
// string.
type Recipients []string

func (r *Recipients) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		*r = nil
		for _, addr := range strings.Split(str, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				*r = append(*r, addr)
			}
		}
		return nil
	}

	var list []string
	if err := unmarshal(&list); err != nil {
		return fmt.Errorf("to: must be an address string or a list of addresses")
	}
	*r = list
	return nil
}

// Target is a Server with its page URLs derived from the PRTG base URL.
type Target struct {
	Name  string
	MapID int
	// URL is the bare map page that is inspected.
	URL string
	// MapURL is the full map view, linked from notifications.
	MapURL string
}

// Targets returns the configured servers in configuration order.
func (c *Config) Targets() []Target {
	base := strings.TrimRight(c.PRTG.BaseURL, "/")
	targets := make([]Target, len(c.Servers))
	for i, s := range c.Servers {
		id := url.QueryEscape(strconv.Itoa(s.MapID))
		targets[i] = Target{
			Name:   s.Name,
			MapID:  s.MapID,
			URL:    base + "/controls/maponly.htm?id=" + id,
			MapURL: base + "/mapshow.htm?id=" + id,
		}
	}
	return targets
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}
