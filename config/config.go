package config

import (
	"time"

	"linkport/core"
	"linkport/pkg/number"
)

type (
	Config struct {
		Admins []string `json:"admins"`
		// Scopes extra members per access scope, admins hold every scope
		Scopes    map[core.Scope][]string `json:"scopes"`
		HTTP      HTTP                    `json:"http"`
		Relayer   Relayer                 `json:"relayer"`
		Expiry    Expiry                  `json:"expiry"`
		Transport Transport               `json:"transport"`
		Chains    []Chain                 `json:"chains"`
	}

	HTTP struct {
		Port int `json:"port"`
	}

	Relayer struct {
		// Interval seconds between relay rounds
		Interval int64 `json:"interval"`
	}

	Expiry struct {
		Spec     string `json:"spec"`
		Location string `json:"location"`
	}

	Transport struct {
		BaseFee string `json:"base_fee"`
		ByteFee string `json:"byte_fee"`
	}

	Chain struct {
		Selector uint64 `json:"selector"`
		Name     string `json:"name"`
		// DataDir leveldb directory, in memory when empty
		DataDir              string          `json:"data_dir"`
		Port                 string          `json:"port"`
		Factory              string          `json:"factory"`
		Router               string          `json:"router"`
		FeeAsset             string          `json:"fee_asset"`
		FeeCollector         string          `json:"fee_collector"`
		MaxLTV               string          `json:"max_ltv"`
		LiquidationThreshold string          `json:"liquidation_threshold"`
		// LockTimeout seconds before a loan without receipt can be cancelled
		LockTimeout       int64  `json:"lock_timeout"`
		MinInitialDeposit string `json:"min_initial_deposit"`
		PriceEndpoint     string `json:"price_endpoint"`
		// PriceCache seconds a feed answer is cached
		PriceCache int64 `json:"price_cache"`

		Assets    []Asset `json:"assets"`
		Pools     []Pool  `json:"pools"`
		Routes    []Route    `json:"routes"`
		Tokens    []Token    `json:"tokens"`
		SwapPairs []SwapPair `json:"swap_pairs"`
		Faucet    []Faucet   `json:"faucet"`
	}

	Asset struct {
		ID       string `json:"id"`
		Symbol   string `json:"symbol"`
		Decimals int32  `json:"decimals"`
		Price    string `json:"price"`
		Feed     string `json:"feed"`
	}

	Pool struct {
		Asset   string `json:"asset"`
		FeeRate int64  `json:"fee_rate"`
	}

	// Route trusted port of another chain
	Route struct {
		Selector uint64 `json:"selector"`
		Port     string `json:"port"`
	}

	Token struct {
		Local    string `json:"local"`
		Selector uint64 `json:"selector"`
		Remote   string `json:"remote"`
	}

	SwapPair struct {
		Provider string `json:"provider"`
		TokenA   string `json:"token_a"`
		TokenB   string `json:"token_b"`
		AmountA  string `json:"amount_a"`
		AmountB  string `json:"amount_b"`
	}

	// Faucet mint at boot, Deposit puts the minted amount into the asset pool
	Faucet struct {
		Asset   string `json:"asset"`
		Account string `json:"account"`
		Amount  string `json:"amount"`
		Deposit bool   `json:"deposit"`
	}
)

func (c Chain) LockTimeoutDuration() time.Duration {
	return time.Duration(c.LockTimeout) * time.Second
}

func (c Chain) PriceCacheDuration() time.Duration {
	return time.Duration(c.PriceCache) * time.Second
}

func (r Relayer) IntervalDuration() time.Duration {
	return time.Duration(r.Interval) * time.Second
}

func (a Asset) Asset() *core.Asset {
	return &core.Asset{
		ID:       a.ID,
		Symbol:   a.Symbol,
		Decimals: a.Decimals,
		Price:    number.Decimal(a.Price),
		Feed:     a.Feed,
	}
}

func defaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 9000
	}

	if cfg.Relayer.Interval <= 0 {
		cfg.Relayer.Interval = 1
	}

	if cfg.Expiry.Spec == "" {
		cfg.Expiry.Spec = "@every 1m"
	}

	for idx := range cfg.Chains {
		c := &cfg.Chains[idx]
		if c.MaxLTV == "" {
			c.MaxLTV = "0.75"
		}

		if c.LiquidationThreshold == "" {
			c.LiquidationThreshold = "0.85"
		}

		if c.LockTimeout <= 0 {
			c.LockTimeout = 3600
		}

		if c.PriceCache <= 0 {
			c.PriceCache = 60
		}
	}
}
