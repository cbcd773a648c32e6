package stripe

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"influencer-connect/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no secret key is present. Callers fall
// back to manual processing instead of failing the whole request.
var ErrNotConfigured = errors.New("stripe: secret key not configured")

var Module = fx.Module("stripe", fx.Provide(New))

type Account struct {
	ID             string            `json:"id"`
	Email          string            `json:"email"`
	PayoutsEnabled bool              `json:"payouts_enabled"`
	Metadata       map[string]string `json:"metadata"`
}

type AccountLink struct {
	URL string `json:"url"`
}

type Transfer struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
}

type CreateAccountParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type TransferParams struct {
	// AmountCents is the transfer amount in the smallest currency unit.
	AmountCents int64
	Currency    string
	Destination string
	Description string
	Metadata    map[string]string
}

// Client shapes requests against the Stripe REST API. Only the connected
// account and transfer surface is used; checkout happens on hosted pages.
type Client interface {
	Enabled() bool
	CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error)
	RetrieveAccount(ctx context.Context, accountID string) (*Account, error)
	ListAccounts(ctx context.Context, limit int) ([]Account, error)
	CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error)
}

type restClient struct {
	http    *resty.Client
	enabled bool
}

func New(cfg *config.Config) Client {
	c := resty.New().
		SetBaseURL(cfg.Stripe.APIBase).
		SetAuthToken(cfg.Stripe.SecretKey).
		SetHeader("Stripe-Version", "2025-08-27.basil")

	return &restClient{
		http:    c,
		enabled: cfg.Stripe.SecretKey != "",
	}
}

func (c *restClient) Enabled() bool { return c.enabled }

type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *restClient) post(ctx context.Context, path string, form map[string]string, out any) error {
	if !c.enabled {
		return ErrNotConfigured
	}

	var apiErr apiErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("stripe: %s: %w", path, err)
	}
	if resp.IsError() {
		zap.L().Warn("stripe api error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("type", apiErr.Error.Type),
		)
		return fmt.Errorf("stripe: %s: %s", path, apiErr.Error.Message)
	}
	return nil
}

func (c *restClient) get(ctx context.Context, path string, query map[string]string, out any) error {
	if !c.enabled {
		return ErrNotConfigured
	}

	var apiErr apiErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("stripe: %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("stripe: %s: %s", path, apiErr.Error.Message)
	}
	return nil
}

func (c *restClient) CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error) {
	form := map[string]string{
		"type":  "express",
		"email": params.Email,
		"business_profile[name]":                params.Name,
		"business_profile[product_description]": "Creator payouts for influencer marketing campaigns",
		"capabilities[card_payments][requested]": "true",
		"capabilities[transfers][requested]":     "true",
	}
	for k, v := range params.Metadata {
		form[fmt.Sprintf("metadata[%s]", k)] = v
	}

	var account Account
	if err := c.post(ctx, "/v1/accounts", form, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *restClient) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error) {
	var link AccountLink
	err := c.post(ctx, "/v1/account_links", map[string]string{
		"account":     accountID,
		"refresh_url": refreshURL,
		"return_url":  returnURL,
		"type":        "account_onboarding",
	}, &link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *restClient) RetrieveAccount(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	if err := c.get(ctx, "/v1/accounts/"+accountID, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *restClient) ListAccounts(ctx context.Context, limit int) ([]Account, error) {
	var list struct {
		Data []Account `json:"data"`
	}
	err := c.get(ctx, "/v1/accounts", map[string]string{
		"limit": strconv.Itoa(limit),
	}, &list)
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *restClient) CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	form := map[string]string{
		"amount":      strconv.FormatInt(params.AmountCents, 10),
		"currency":    currency,
		"destination": params.Destination,
	}
	if params.Description != "" {
		form["description"] = params.Description
	}
	for k, v := range params.Metadata {
		form[fmt.Sprintf("metadata[%s]", k)] = v
	}

	var transfer Transfer
	if err := c.post(ctx, "/v1/transfers", form, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}
