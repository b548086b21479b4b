package notify

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// Service is a Shoutrrr destination. Param values may contain templates.
type Service struct {
	Name   string
	URL    string
	Params map[string]string
}

// Delivery is a fully rendered notification for one service.
type Delivery struct {
	ServiceName string
	URL         string
	Message     string
	Params      map[string]string
}

// ResolveDeliveries renders the body template and each service's param
// templates against data.
func ResolveDeliveries(services []Service, bodyTemplate string, data TemplateData) ([]Delivery, error) {
	msg, err := Render(bodyTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}

	deliveries := make([]Delivery, 0, len(services))
	for _, svc := range services {
		params := make(map[string]string, len(svc.Params))
		for k, v := range svc.Params {
			rendered, err := Render(v, data)
			if err != nil {
				return nil, fmt.Errorf("rendering param %q for %s: %w", k, svc.Name, err)
			}
			params[k] = rendered
		}

		deliveries = append(deliveries, Delivery{
			ServiceName: svc.Name,
			URL:         svc.URL,
			Message:     msg,
			Params:      params,
		})
	}

	return deliveries, nil
}

// Send delivers a notification to a single service via Shoutrrr.
func Send(d Delivery) error {
	sender, err := shoutrrr.CreateSender(d.URL)
	if err != nil {
		return fmt.Errorf("creating sender for %s: %w", d.ServiceName, err)
	}

	params := types.Params(d.Params)
	errs := sender.Send(d.Message, &params)
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("sending to %s: %w", d.ServiceName, e)
		}
	}

	return nil
}

// Validate checks that the delivery URL and params are usable without
// sending anything.
func Validate(d Delivery) error {
	u, err := applyParams(d.URL, d.Params)
	if err != nil {
		return fmt.Errorf("validating %s: %w", d.ServiceName, err)
	}
	if _, err := shoutrrr.CreateSender(u); err != nil {
		return fmt.Errorf("validating %s: %w", d.ServiceName, err)
	}
	return nil
}

// applyParams merges params into the URL query. Existing keys are kept unless
// params overrides them; keys are sorted.
func applyParams(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SMTP is the mail relay settings used to build an smtp:// service URL.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	StartTLS bool
	HTML     bool
}

// URL returns the Shoutrrr smtp:// URL for the relay.
func (s SMTP) URL() string {
	u := url.URL{
		Scheme: "smtp",
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:   "/",
	}
	if s.Username != "" {
		u.User = url.UserPassword(s.Username, s.Password)
	}

	q := url.Values{}
	q.Set("fromaddress", s.From)
	q.Set("toaddresses", strings.Join(s.To, ","))
	if s.StartTLS {
		q.Set("usestarttls", "yes")
	} else {
		q.Set("usestarttls", "no")
	}
	if s.Username == "" {
		q.Set("auth", "None")
	}
	if s.HTML {
		q.Set("usehtml", "yes")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
