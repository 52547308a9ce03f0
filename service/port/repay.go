package port

import (
	"context"
	"fmt"

	"linkport/core"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Repay pull repayment from caller into the local pools and confirm it to the origin
// chain of the debt. Amounts over the outstanding debt are capped.
func (s *service) Repay(ctx context.Context, caller string, req *core.RepayRequest) (*core.Debt, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"repayer": caller,
		"loan":    req.LoanID,
		"origin":  req.SourceChain,
	})
	ctx = logger.WithContext(ctx, log)

	repayer, ok := core.NormalizeAddress(caller)
	if !ok {
		return nil, fmt.Errorf("repayer: %w", core.ErrInvalidAddress)
	}

	legs, err := normalizeLegs(req.Legs)
	if err != nil {
		return nil, err
	}

	var debt *core.Debt
	err = s.run(ctx, func(tx *state.Tx, out *outbox) error {
		debt, err = s.loans.FindDebt(ctx, tx, req.SourceChain, req.LoanID)
		if err != nil {
			return err
		}

		if !debt.Exists() {
			return core.ErrLoanNotFound
		}

		if debt.Status != core.DebtStatusActive {
			return fmt.Errorf("debt is %s: %w", debt.Status, core.ErrInvalidLoanStatus)
		}

		var origin []core.Leg
		for _, leg := range legs {
			idx := findDebtLeg(debt.Legs, leg.Asset)
			if idx < 0 {
				return fmt.Errorf("%s is not borrowed: %w", leg.Asset, core.ErrInvalidLegs)
			}

			amount := decimal.Min(leg.Amount, debt.Legs[idx].Outstanding())
			if !amount.IsPositive() {
				continue
			}

			remote, err := s.ports.FindToken(ctx, tx, leg.Asset, req.SourceChain)
			if err != nil {
				return err
			}

			if remote == "" {
				return fmt.Errorf("%s on chain %d: %w", leg.Asset, req.SourceChain, core.ErrTokenNotMapped)
			}

			pool, err := s.pool(ctx, tx, leg.Asset)
			if err != nil {
				return err
			}

			if err := s.pools.Repay(ctx, tx, pool, s.cfg.Address, repayer, amount); err != nil {
				return err
			}

			debt.Legs[idx].Repaid = debt.Legs[idx].Repaid.Add(amount)
			origin = append(origin, core.Leg{Asset: remote, Amount: amount})

			if err := s.event(ctx, tx, &core.Event{
				Kind:    core.EventDebtRepaid,
				Ref:     debt.LoanID,
				Account: repayer,
				Asset:   leg.Asset,
				Amount:  amount,
			}); err != nil {
				return err
			}
		}

		if len(origin) == 0 {
			return fmt.Errorf("nothing outstanding: %w", core.ErrInvalidAmount)
		}

		if debtRepaid(debt) {
			debt.Status = core.DebtStatusRepaid
		}

		if _, err := s.emit(ctx, tx, out, req.SourceChain, core.RepayPayload{
			LoanID:  debt.LoanID,
			Repayer: repayer,
			Legs:    origin,
		}); err != nil {
			return err
		}

		if err := s.loans.SaveDebt(ctx, tx, debt); err != nil {
			log.WithError(err).Errorln("loans.SaveDebt")
			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.WithField("status", debt.Status.String()).Infoln("repaid")
	return debt, nil
}

func findDebtLeg(legs []core.DebtLeg, asset string) int {
	for idx, leg := range legs {
		if core.SameAddress(leg.Asset, asset) {
			return idx
		}
	}

	return -1
}

func debtRepaid(debt *core.Debt) bool {
	for _, leg := range debt.Legs {
		if leg.Outstanding().IsPositive() {
			return false
		}
	}

	return true
}
