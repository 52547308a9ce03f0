package swap

import (
	"context"
	"errors"
	"fmt"

	"linkport/core"
	"linkport/pkg/id"
	"linkport/store/pair"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

var (
	ErrPairNotFound          = errors.New("swap: pair not found")
	ErrInsufficientLiquidity = errors.New("swap: insufficient liquidity")
	ErrSlippage              = errors.New("swap: output under minimum")
)

// FeeRate taken from every hop's input
var FeeRate = decimal.RequireFromString("0.003")

// Router constant product router over chain state
type Router struct {
	address string
	pairs   core.IPairStore
	ledger  core.ILedger
}

var _ core.ISwapRouter = (*Router)(nil)

func New(address string, pairs core.IPairStore, ledger core.ILedger) *Router {
	return &Router{
		address: address,
		pairs:   pairs,
		ledger:  ledger,
	}
}

// AddLiquidity move amounts from provider into the pair, creating it if needed
func (r *Router) AddLiquidity(ctx context.Context, tx *state.Tx, provider, a, b string, amountA, amountB decimal.Decimal) (*core.Pair, error) {
	if !amountA.IsPositive() || !amountB.IsPositive() || core.SameAddress(a, b) {
		return nil, core.ErrInvalidAmount
	}

	p, err := r.pairs.Find(ctx, tx, a, b)
	if err != nil {
		return nil, err
	}

	if !p.Exists() {
		t0, t1 := pair.Sort(a, b)
		p = &core.Pair{
			Address: id.Address(r.address, "pair", t0, t1),
			Token0:  t0,
			Token1:  t1,
		}
	}

	if err := r.ledger.Transfer(ctx, tx, a, provider, p.Address, amountA); err != nil {
		return nil, err
	}

	if err := r.ledger.Transfer(ctx, tx, b, provider, p.Address, amountB); err != nil {
		return nil, err
	}

	if core.SameAddress(p.Token0, a) {
		p.Reserve0, p.Reserve1 = p.Reserve0.Add(amountA), p.Reserve1.Add(amountB)
	} else {
		p.Reserve0, p.Reserve1 = p.Reserve0.Add(amountB), p.Reserve1.Add(amountA)
	}

	return p, r.pairs.Save(ctx, tx, p)
}

type hop struct {
	pair      *core.Pair
	in, out   string
	amountIn  decimal.Decimal
	amountOut decimal.Decimal
}

// Quote outputs of every hop along path
func (r *Router) Quote(ctx context.Context, tx *state.Tx, path []string, amountIn decimal.Decimal) ([]decimal.Decimal, error) {
	hops, err := r.route(ctx, tx, path, amountIn)
	if err != nil {
		return nil, err
	}

	outs := make([]decimal.Decimal, len(hops))
	for i, h := range hops {
		outs[i] = h.amountOut
	}

	return outs, nil
}

func (r *Router) route(ctx context.Context, tx *state.Tx, path []string, amountIn decimal.Decimal) ([]*hop, error) {
	if len(path) < 2 {
		return nil, core.ErrInvalidSwapPath
	}

	if !amountIn.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	hops := make([]*hop, 0, len(path)-1)
	seen := map[string]bool{}
	for i := 0; i < len(path)-1; i++ {
		p, err := r.pairs.Find(ctx, tx, path[i], path[i+1])
		if err != nil {
			return nil, err
		}

		if !p.Exists() {
			return nil, fmt.Errorf("%s/%s: %w", path[i], path[i+1], ErrPairNotFound)
		}

		if seen[p.Address] {
			return nil, fmt.Errorf("pair %s used twice: %w", p.Address, core.ErrInvalidSwapPath)
		}
		seen[p.Address] = true

		reserveIn, reserveOut := p.Reserve0, p.Reserve1
		if !core.SameAddress(p.Token0, path[i]) {
			reserveIn, reserveOut = reserveOut, reserveIn
		}

		out := getAmountOut(amountIn, reserveIn, reserveOut)
		if !out.IsPositive() || out.GreaterThanOrEqual(reserveOut) {
			return nil, fmt.Errorf("%s/%s: %w", path[i], path[i+1], ErrInsufficientLiquidity)
		}

		hops = append(hops, &hop{pair: p, in: path[i], out: path[i+1], amountIn: amountIn, amountOut: out})
		amountIn = out
	}

	return hops, nil
}

func getAmountOut(amountIn, reserveIn, reserveOut decimal.Decimal) decimal.Decimal {
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return decimal.Zero
	}

	in := amountIn.Mul(decimal.NewFromInt(1).Sub(FeeRate))
	return in.Mul(reserveOut).Div(reserveIn.Add(in)).Truncate(core.SharePrecision)
}

// SwapExactInput quotes every hop before moving funds, a failed swap changes nothing
func (r *Router) SwapExactInput(ctx context.Context, tx *state.Tx, req *core.SwapRequest) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("router", r.address)

	if len(req.MinOut) > 0 && len(req.MinOut) != len(req.Path)-1 {
		return decimal.Zero, core.ErrInvalidSwapPath
	}

	hops, err := r.route(ctx, tx, req.Path, req.AmountIn)
	if err != nil {
		return decimal.Zero, err
	}

	for i, h := range hops {
		if len(req.MinOut) > 0 && h.amountOut.LessThan(req.MinOut[i]) {
			return decimal.Zero, fmt.Errorf("hop %d out %s < %s: %w", i, h.amountOut, req.MinOut[i], ErrSlippage)
		}
	}

	balance, err := r.ledger.Balance(ctx, tx, req.Path[0], req.Payer)
	if err != nil {
		return decimal.Zero, err
	}

	if balance.LessThan(req.AmountIn) {
		return decimal.Zero, core.ErrInsufficientBalance
	}

	if err := r.ledger.Transfer(ctx, tx, req.Path[0], req.Payer, hops[0].pair.Address, req.AmountIn); err != nil {
		return decimal.Zero, err
	}

	// every hop pays straight into the next pair
	for i, h := range hops {
		to := req.Recipient
		if i < len(hops)-1 {
			to = hops[i+1].pair.Address
		}

		if err := r.ledger.Transfer(ctx, tx, h.out, h.pair.Address, to, h.amountOut); err != nil {
			return decimal.Zero, err
		}

		if core.SameAddress(h.pair.Token0, h.in) {
			h.pair.Reserve0, h.pair.Reserve1 = h.pair.Reserve0.Add(h.amountIn), h.pair.Reserve1.Sub(h.amountOut)
		} else {
			h.pair.Reserve0, h.pair.Reserve1 = h.pair.Reserve0.Sub(h.amountOut), h.pair.Reserve1.Add(h.amountIn)
		}

		if err := r.pairs.Save(ctx, tx, h.pair); err != nil {
			return decimal.Zero, err
		}
	}

	out := hops[len(hops)-1].amountOut
	log.Debugf("swap %s %s -> %s %s", req.AmountIn, req.Path[0], out, req.Path[len(req.Path)-1])
	return out, nil
}
