package swap

import (
	"context"
	"testing"

	"linkport/core"
	"linkport/store/ledger"
	"linkport/store/pair"
	"linkport/store/state"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdt     = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	snx      = "0xC011a73ee8576Fb46F5E1c5751cA3B9Fe0af2a6F"
	weth     = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	provider = "0x5555555555555555555555555555555555555555"
	alice    = "0x1111111111111111111111111111111111111111"
	bob      = "0x2222222222222222222222222222222222222222"
)

type fixture struct {
	ctx    context.Context
	db     *state.DB
	ledger core.ILedger
	router *Router
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		ctx:    context.Background(),
		db:     state.OpenMemory(),
		ledger: ledger.New(),
	}
	t.Cleanup(func() { f.db.Close() })
	f.router = New("0x7777777777777777777777777777777777777777", pair.New(), f.ledger)

	require.Nil(t, f.db.Tx(func(tx *state.Tx) error {
		for _, asset := range []string{usdt, snx, weth} {
			if err := f.ledger.Mint(f.ctx, tx, asset, provider, decimal.NewFromInt(1000000)); err != nil {
				return err
			}
		}

		if err := f.ledger.Mint(f.ctx, tx, usdt, alice, decimal.NewFromInt(1000)); err != nil {
			return err
		}

		if _, err := f.router.AddLiquidity(f.ctx, tx, provider, usdt, snx, decimal.NewFromInt(10000), decimal.NewFromInt(1000)); err != nil {
			return err
		}

		if _, err := f.router.AddLiquidity(f.ctx, tx, provider, usdt, weth, decimal.NewFromInt(24000), decimal.NewFromInt(10)); err != nil {
			return err
		}

		_, err := f.router.AddLiquidity(f.ctx, tx, provider, weth, snx, decimal.NewFromInt(10), decimal.NewFromInt(2400))
		return err
	}))

	return f
}

func (f *fixture) balance(t *testing.T, asset, account string) decimal.Decimal {
	var b decimal.Decimal
	require.Nil(t, f.db.View(func(tx *state.Tx) (err error) {
		b, err = f.ledger.Balance(f.ctx, tx, asset, account)
		return
	}))
	return b
}

func TestSwapExactInput(t *testing.T) {
	f := newFixture(t)

	var out decimal.Decimal
	require.Nil(t, f.db.Tx(func(tx *state.Tx) (err error) {
		out, err = f.router.SwapExactInput(f.ctx, tx, &core.SwapRequest{
			Payer:     alice,
			Recipient: bob,
			Path:      []string{usdt, snx},
			AmountIn:  decimal.NewFromInt(100),
		})
		return
	}))

	assert.Equal(t, "9.87158034", out.String())
	assert.Equal(t, "900", f.balance(t, usdt, alice).String())
	assert.True(t, out.Equal(f.balance(t, snx, bob)))

	require.Nil(t, f.db.View(func(tx *state.Tx) error {
		p, err := pair.New().Find(f.ctx, tx, snx, usdt)
		require.Nil(t, err)

		reserveUSDT, reserveSNX := p.Reserve0, p.Reserve1
		if !core.SameAddress(p.Token0, usdt) {
			reserveUSDT, reserveSNX = reserveSNX, reserveUSDT
		}
		assert.Equal(t, "10100", reserveUSDT.String())
		assert.True(t, reserveSNX.Equal(decimal.NewFromInt(1000).Sub(out)))
		return nil
	}))
}

func TestSwapMultiHop(t *testing.T) {
	f := newFixture(t)

	var quotes []decimal.Decimal
	require.Nil(t, f.db.View(func(tx *state.Tx) (err error) {
		quotes, err = f.router.Quote(f.ctx, tx, []string{usdt, weth, snx}, decimal.NewFromInt(240))
		return
	}))
	require.Len(t, quotes, 2)

	var out decimal.Decimal
	require.Nil(t, f.db.Tx(func(tx *state.Tx) (err error) {
		out, err = f.router.SwapExactInput(f.ctx, tx, &core.SwapRequest{
			Payer:     alice,
			Recipient: alice,
			Path:      []string{usdt, weth, snx},
			AmountIn:  decimal.NewFromInt(240),
			MinOut:    []decimal.Decimal{decimal.Zero, decimal.NewFromInt(20)},
		})
		return
	}))

	assert.True(t, out.Equal(quotes[1]))
	assert.True(t, f.balance(t, weth, alice).IsZero(), "intermediate asset never lands on the payer")
}

func TestSwapFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  *core.SwapRequest
		err  error
	}{
		{
			name: "slippage",
			req:  &core.SwapRequest{Payer: alice, Recipient: bob, Path: []string{usdt, snx}, AmountIn: decimal.NewFromInt(100), MinOut: []decimal.Decimal{decimal.NewFromInt(10)}},
			err:  ErrSlippage,
		},
		{
			name: "no pair",
			req:  &core.SwapRequest{Payer: alice, Recipient: bob, Path: []string{snx, "0x4444444444444444444444444444444444444444"}, AmountIn: decimal.NewFromInt(1)},
			err:  ErrPairNotFound,
		},
		{
			name: "payer balance",
			req:  &core.SwapRequest{Payer: bob, Recipient: bob, Path: []string{usdt, snx}, AmountIn: decimal.NewFromInt(1)},
			err:  core.ErrInsufficientBalance,
		},
		{
			name: "min out per hop",
			req:  &core.SwapRequest{Payer: alice, Recipient: bob, Path: []string{usdt, snx}, AmountIn: decimal.NewFromInt(1), MinOut: []decimal.Decimal{decimal.Zero, decimal.Zero}},
			err:  core.ErrInvalidSwapPath,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := f.db.Tx(func(tx *state.Tx) error {
				_, err := f.router.SwapExactInput(f.ctx, tx, c.req)
				return err
			})
			assert.ErrorIs(t, err, c.err)
			assert.Equal(t, "1000", f.balance(t, usdt, alice).String())
			assert.True(t, f.balance(t, snx, bob).IsZero())
		})
	}
}
