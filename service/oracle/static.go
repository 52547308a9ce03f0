package oracle

import (
	"context"
	"errors"
	"sync"

	"linkport/core"

	"github.com/shopspring/decimal"
)

// ErrFeedNotFound unknown feed
var ErrFeedNotFound = errors.New("oracle: feed not found")

// Static in-memory feeds
type Static struct {
	mu     sync.RWMutex
	prices map[string]Answer
}

var _ core.IPriceOracle = (*Static)(nil)

func NewStatic() *Static {
	return &Static{prices: map[string]Answer{}}
}

// Set feed answer
func (s *Static) Set(feed string, answer decimal.Decimal, decimals int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[feed] = Answer{Feed: feed, Answer: answer, Decimals: decimals}
}

func (s *Static) Delete(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prices, feed)
}

func (s *Static) Price(ctx context.Context, feed string) (decimal.Decimal, int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answer, ok := s.prices[feed]
	if !ok {
		return decimal.Zero, 0, ErrFeedNotFound
	}

	return answer.Answer, answer.Decimals, nil
}
