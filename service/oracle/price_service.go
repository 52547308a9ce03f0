package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkport/core"
	"linkport/pkg/resthttp"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidAnswer non positive feed answer
var ErrInvalidAnswer = errors.New("oracle: invalid answer")

// Answer latest round of a feed
type Answer struct {
	Feed      string          `json:"feed"`
	Answer    decimal.Decimal `json:"answer"`
	Decimals  int32           `json:"decimals"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type feedService struct {
	endpoint string
	cache    gcache.Cache
	sf       *singleflight.Group
}

// New price oracle reading feeds from endpoint, answers are cached for exp
func New(endpoint string, exp time.Duration) core.IPriceOracle {
	return &feedService{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		cache:    gcache.New(512).LRU().Expiration(exp).Build(),
		sf:       &singleflight.Group{},
	}
}

func (s *feedService) Price(ctx context.Context, feed string) (decimal.Decimal, int32, error) {
	if v, err := s.cache.Get(feed); err == nil {
		if answer, ok := v.(*Answer); ok {
			return answer.Answer, answer.Decimals, nil
		}
	}

	v, err, _ := s.sf.Do(feed, func() (interface{}, error) {
		answer, err := s.pull(ctx, feed)
		if err != nil {
			return nil, err
		}

		_ = s.cache.Set(feed, answer)
		return answer, nil
	})

	if err != nil {
		return decimal.Zero, 0, err
	}

	answer := v.(*Answer)
	return answer.Answer, answer.Decimals, nil
}

func (s *feedService) pull(ctx context.Context, feed string) (*Answer, error) {
	log := logger.FromContext(ctx).WithField("feed", feed)

	url := fmt.Sprintf("%s/feeds/%s/latest", s.endpoint, feed)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		log.WithError(err).Errorln("pull price")
		return nil, err
	}

	var answer Answer
	if err := resthttp.ParseResponse(resp, &answer); err != nil {
		log.WithError(err).Errorln("parse price")
		return nil, err
	}

	if !answer.Answer.IsPositive() {
		return nil, ErrInvalidAnswer
	}

	return &answer, nil
}
