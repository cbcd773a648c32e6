package discovery

import (
	"context"
	"testing"

	"influencer-connect/pkg/aigateway"
	"influencer-connect/pkg/errutil"

	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	content string
	err     error
}

func (s *stubGateway) Model() string { return "stub" }

func (s *stubGateway) ChatCompletion(context.Context, aigateway.ChatRequest) (*aigateway.ChatResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	resp := &aigateway.ChatResponse{}
	resp.Choices = append(resp.Choices, struct {
		Message aigateway.Message `json:"message"`
	}{Message: aigateway.Message{Role: "assistant", Content: s.content}})
	return resp, nil
}

func newTestService(g aigateway.Client) *Service {
	return NewService(ServiceParams{Gateway: g})
}

func TestSearchFiltersAndRanks(t *testing.T) {
	svc := newTestService(&stubGateway{content: "```json\n" + `{
		"matches":[
			{"id":1,"score":92,"reasoning":"clean girl aesthetic fits"},
			{"id":5,"score":88,"reasoning":"beauty niche overlap"},
			{"id":2,"score":40,"reasoning":"wrong niche"},
			{"id":3,"score":61,"reasoning":"partial overlap"},
			{"id":4,"score":75,"reasoning":"big reach"},
			{"id":6,"score":70,"reasoning":"aesthetic adjacent"},
			{"id":7,"score":66,"reasoning":"thrift angle"},
			{"id":99,"score":95,"reasoning":"not in dataset"}
		],
		"searchInsights":"Beauty and lifestyle creators dominate this brief."
	}` + "\n```"})

	result, err := svc.Search(context.Background(), "clean girl skincare launch")
	require.NoError(t, err)
	require.Equal(t, "clean girl skincare launch", result.Query)
	require.NotEmpty(t, result.SearchInsights)

	// capped at five, below-60 and unknown ids dropped, ranked by score
	require.Len(t, result.Creators, 5)
	require.Equal(t, 92, result.Creators[0].MatchScore)
	require.Equal(t, "@emmalifestyle", result.Creators[0].Handle)
	for i := 1; i < len(result.Creators); i++ {
		require.LessOrEqual(t, result.Creators[i].MatchScore, result.Creators[i-1].MatchScore)
		require.GreaterOrEqual(t, result.Creators[i].MatchScore, 60)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(&stubGateway{})

	_, err := svc.Search(context.Background(), "   ")
	require.Error(t, err)
}

func TestSearchRateLimitedPassthrough(t *testing.T) {
	svc := newTestService(&stubGateway{err: aigateway.ErrRateLimited})

	_, err := svc.Search(context.Background(), "fitness brand")
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusTooManyRequests, base.Code)
}

func TestSearchCreditsExhaustedPassthrough(t *testing.T) {
	svc := newTestService(&stubGateway{err: aigateway.ErrCreditsExhausted})

	_, err := svc.Search(context.Background(), "fitness brand")
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusPaymentRequired, base.Code)
}

func TestSearchMalformedResponse(t *testing.T) {
	svc := newTestService(&stubGateway{content: "sorry, I cannot help with that"})

	_, err := svc.Search(context.Background(), "fitness brand")
	require.Error(t, err)
}
