package ledger

import (
	"context"
	"fmt"
	"strings"

	"linkport/core"
	"linkport/store/state"

	"github.com/shopspring/decimal"
)

type ledger struct{}

// New token balance ledger over chain state
func New() core.ILedger {
	return &ledger{}
}

func balanceKey(asset, account string) []byte {
	return state.Key("balance", strings.ToLower(asset), strings.ToLower(account))
}

func (s *ledger) Balance(ctx context.Context, tx *state.Tx, asset, account string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if _, err := tx.GetJSON(balanceKey(asset, account), &balance); err != nil {
		return decimal.Zero, err
	}

	return balance, nil
}

func (s *ledger) Transfer(ctx context.Context, tx *state.Tx, asset, from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	balance, err := s.Balance(ctx, tx, asset, from)
	if err != nil {
		return err
	}

	if balance.LessThan(amount) {
		return fmt.Errorf("%s has %s of %s, needs %s: %w", from, balance, asset, amount, core.ErrInsufficientBalance)
	}

	if core.SameAddress(from, to) {
		return nil
	}

	if err := tx.PutJSON(balanceKey(asset, from), balance.Sub(amount)); err != nil {
		return err
	}

	return s.credit(ctx, tx, asset, to, amount)
}

func (s *ledger) Mint(ctx context.Context, tx *state.Tx, asset, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	return s.credit(ctx, tx, asset, to, amount)
}

func (s *ledger) credit(ctx context.Context, tx *state.Tx, asset, to string, amount decimal.Decimal) error {
	balance, err := s.Balance(ctx, tx, asset, to)
	if err != nil {
		return err
	}

	return tx.PutJSON(balanceKey(asset, to), balance.Add(amount))
}
