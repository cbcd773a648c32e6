package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"influencer-connect/pkg/aigateway"
	"influencer-connect/pkg/errutil"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	minMatchScore = 60
	maxMatches    = 5
)

// Service matches free-text campaign briefs against the creator dataset
// using a chat completion model.
type Service struct {
	gateway aigateway.Client
	logger  *zap.Logger
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	Gateway aigateway.Client
	Logger  *zap.Logger
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: p.Gateway, logger: logger}
}

// MatchedCreator is one search hit with the model's score and reasoning.
type MatchedCreator struct {
	SampleCreator
	MatchScore int    `json:"matchScore"`
	Reasoning  string `json:"reasoning"`
}

// SearchResult is the response payload for a creator search.
type SearchResult struct {
	Creators       []MatchedCreator `json:"creators"`
	SearchInsights string           `json:"searchInsights"`
	Query          string           `json:"query"`
}

// modelResponse is the JSON shape the prompt asks the model to emit.
type modelResponse struct {
	Matches []struct {
		ID        int    `json:"id"`
		Score     int    `json:"score"`
		Reasoning string `json:"reasoning"`
	} `json:"matches"`
	SearchInsights string `json:"searchInsights"`
}

// Search scores the dataset against the query. Matches below 60 are dropped
// and at most five creators come back.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errutil.ValidationFailed("query is required")
	}

	dataset, err := json.Marshal(sampleCreators)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.ChatCompletion(ctx, aigateway.ChatRequest{
		Messages: []aigateway.Message{
			{Role: "system", Content: systemPrompt(string(dataset))},
			{Role: "user", Content: query},
		},
		Temperature: 0.2,
	})
	switch {
	case errors.Is(err, aigateway.ErrRateLimited):
		return nil, errutil.TooManyRequest("search is rate limited, try again shortly")
	case errors.Is(err, aigateway.ErrCreditsExhausted):
		return nil, errutil.PaymentRequired("ai credits exhausted")
	case err != nil:
		return nil, errutil.BadGateway("creator search unavailable", errutil.WithErr(err))
	}

	parsed, err := parseModelResponse(resp.Content())
	if err != nil {
		s.logger.Warn("unparseable search response", zap.Error(err))
		return nil, errutil.BadGateway("creator search returned malformed results")
	}

	byID := make(map[int]SampleCreator, len(sampleCreators))
	for _, c := range sampleCreators {
		byID[c.ID] = c
	}

	matches := make([]MatchedCreator, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		c, ok := byID[m.ID]
		if !ok || m.Score < minMatchScore {
			continue
		}
		matches = append(matches, MatchedCreator{
			SampleCreator: c,
			MatchScore:    m.Score,
			Reasoning:     m.Reasoning,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	return &SearchResult{
		Creators:       matches,
		SearchInsights: parsed.SearchInsights,
		Query:          query,
	}, nil
}

func systemPrompt(dataset string) string {
	return fmt.Sprintf(`You are a creator matching engine for influencer marketing campaigns.
Score each creator in the dataset below against the user's campaign brief.
Consider niche fit, aesthetic fit, audience size, engagement and past brand work.

Dataset:
%s

Respond with JSON only, no prose, in exactly this shape:
{"matches":[{"id":1,"score":85,"reasoning":"one sentence"}],"searchInsights":"two sentences about the overall fit"}

Score from 0 to 100. Include every creator you scored.`, dataset)
}

// parseModelResponse tolerates markdown fences and surrounding prose around
// the JSON object.
func parseModelResponse(content string) (*modelResponse, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed modelResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &parsed, nil
}
