package performance

import (
	"context"
	"math/rand"
)

// ViewSource fetches the current total view count for a piece of content.
type ViewSource interface {
	FetchViewCount(ctx context.Context, platform, contentURL string, current int64) (int64, error)
}

// simulatedSource stands in for the platform APIs. Each sync grows views by
// 2-17 percent, with a small chance of a viral spike that multiplies the
// total 2-3x.
type simulatedSource struct{}

// NewSimulatedSource returns the default stand-in view source.
func NewSimulatedSource() ViewSource {
	return simulatedSource{}
}

func (simulatedSource) FetchViewCount(_ context.Context, _ string, _ string, current int64) (int64, error) {
	if current <= 0 {
		current = 1000 + rand.Int63n(9000)
	}

	growth := 0.02 + rand.Float64()*0.15
	next := current + int64(float64(current)*growth)

	if rand.Float64() < 0.05 {
		next = current * (2 + rand.Int63n(2))
	}
	return next, nil
}
