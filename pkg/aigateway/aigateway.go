package aigateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"influencer-connect/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Gateway quota errors. Handlers map these onto their own status codes so
// clients can distinguish a throttle from an exhausted balance.
var (
	ErrRateLimited      = errors.New("aigateway: rate limited")
	ErrCreditsExhausted = errors.New("aigateway: credits exhausted")
)

var Module = fx.Module("aigateway", fx.Provide(New))

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Content returns the first completion, or "" when the gateway answered
// with an empty choice list.
func (r *ChatResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

type Client interface {
	Model() string
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type restClient struct {
	http  *resty.Client
	model string
}

func New(cfg *config.Config) Client {
	c := resty.New().
		SetBaseURL(cfg.AIGateway.Addr).
		SetAuthToken(cfg.AIGateway.APIKey).
		SetHeader("Content-Type", "application/json")

	return &restClient{
		http:  c,
		model: cfg.AIGateway.Model,
	}
}

func (c *restClient) Model() string { return c.model }

func (c *restClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	var out ChatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("aigateway: chat completion: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusPaymentRequired:
		return nil, ErrCreditsExhausted
	}
	if resp.IsError() {
		zap.L().Warn("ai gateway error",
			zap.Int("status", resp.StatusCode()),
			zap.String("model", req.Model),
		)
		return nil, fmt.Errorf("aigateway: unexpected status %d", resp.StatusCode())
	}

	return &out, nil
}
