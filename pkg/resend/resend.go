package resend

import (
	"context"
	"errors"
	"fmt"

	"influencer-connect/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
)

// ErrNotConfigured is returned when no API key is set. Email delivery is
// optional in local environments.
var ErrNotConfigured = errors.New("resend: api key not configured")

var Module = fx.Module("resend", fx.Provide(New))

type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type Client interface {
	Enabled() bool
	// Send delivers a single email and returns the provider message id.
	Send(ctx context.Context, email Email) (string, error)
}

type restClient struct {
	http    *resty.Client
	from    string
	enabled bool
}

func New(cfg *config.Config) Client {
	c := resty.New().
		SetBaseURL("https://api.resend.com").
		SetAuthToken(cfg.Resend.APIKey)

	return &restClient{
		http:    c,
		from:    cfg.Resend.From,
		enabled: cfg.Resend.APIKey != "",
	}
}

func (c *restClient) Enabled() bool { return c.enabled }

func (c *restClient) Send(ctx context.Context, email Email) (string, error) {
	if !c.enabled {
		return "", ErrNotConfigured
	}
	if email.From == "" {
		email.From = c.from
	}

	var out struct {
		ID string `json:"id"`
	}
	var apiErr struct {
		Message string `json:"message"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(email).
		SetResult(&out).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("resend: send: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("resend: send: %s", apiErr.Message)
	}
	return out.ID, nil
}
