package port

import (
	"context"
	"fmt"

	"linkport/core"
	"linkport/pkg/id"
	"linkport/pkg/number"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Loan lock collateral of caller and ask the port of req.DestChain to disburse the legs
func (s *service) Loan(ctx context.Context, caller string, req *core.LoanRequest) (*core.Loan, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"borrower": caller,
		"dest":     req.DestChain,
	})
	ctx = logger.WithContext(ctx, log)

	borrower, ok := core.NormalizeAddress(caller)
	if !ok {
		return nil, fmt.Errorf("borrower: %w", core.ErrInvalidAddress)
	}

	collateral, ok := core.NormalizeAddress(req.CollateralAsset)
	if !ok {
		return nil, fmt.Errorf("collateral: %w", core.ErrInvalidAddress)
	}

	legs, err := normalizeLegs(req.Legs)
	if err != nil {
		return nil, err
	}

	var loan *core.Loan
	err = s.run(ctx, func(tx *state.Tx, out *outbox) error {
		receiver, err := s.ports.FindRoute(ctx, tx, req.DestChain)
		if err != nil {
			return err
		}

		if receiver == "" {
			return fmt.Errorf("chain %d: %w", req.DestChain, core.ErrRouteNotFound)
		}

		if err := s.checkPrecision(ctx, tx, collateral, req.CollateralAmount); err != nil {
			return err
		}

		collateralPrice, err := s.price(ctx, tx, collateral)
		if err != nil {
			return err
		}

		loan = &core.Loan{
			Borrower:         borrower,
			DestChain:        req.DestChain,
			CollateralAsset:  collateral,
			CollateralAmount: req.CollateralAmount,
			CollateralPrice:  collateralPrice,
			Status:           core.LoanStatusSent,
		}

		remoteLegs := make([]core.Leg, 0, len(legs))
		for _, leg := range legs {
			remote, err := s.ports.FindToken(ctx, tx, leg.Asset, req.DestChain)
			if err != nil {
				return err
			}

			if remote == "" {
				return fmt.Errorf("%s on chain %d: %w", leg.Asset, req.DestChain, core.ErrTokenNotMapped)
			}

			if err := s.checkPrecision(ctx, tx, leg.Asset, leg.Amount); err != nil {
				return err
			}

			price, err := s.price(ctx, tx, leg.Asset)
			if err != nil {
				return err
			}

			loan.Legs = append(loan.Legs, core.LoanLeg{
				Asset:  leg.Asset,
				Remote: remote,
				Amount: leg.Amount,
				Price:  price,
			})
			remoteLegs = append(remoteLegs, core.Leg{Asset: remote, Amount: leg.Amount})
		}

		collateralValue := loan.CollateralAmount.Mul(collateralPrice)
		if limit := collateralValue.Mul(s.cfg.MaxLTV); loan.BorrowValue().GreaterThan(limit) {
			return fmt.Errorf("borrow value %s over limit %s: %w", loan.BorrowValue(), limit, core.ErrUndercollateralized)
		}

		pool, err := s.pool(ctx, tx, collateral)
		if err != nil {
			return err
		}

		if err := s.pools.Lock(ctx, tx, pool, s.cfg.Address, borrower, loan.CollateralAmount); err != nil {
			return err
		}

		n, err := s.ports.NextNonce(ctx, tx)
		if err != nil {
			return err
		}
		loan.ID = id.Derive("loan", s.cfg.Chain, s.cfg.Address, n)

		msg, err := s.emit(ctx, tx, out, req.DestChain, core.LoanPayload{
			LoanID:           loan.ID,
			Borrower:         borrower,
			CollateralAsset:  collateral,
			CollateralAmount: loan.CollateralAmount,
			Legs:             remoteLegs,
		})
		if err != nil {
			return err
		}

		loan.MessageID = msg.ID
		if err := s.loans.Save(ctx, tx, loan); err != nil {
			log.WithError(err).Errorln("loans.Save")
			return err
		}

		return s.event(ctx, tx, &core.Event{
			Kind:      core.EventLoanRequested,
			Ref:       loan.ID,
			Account:   borrower,
			Asset:     collateral,
			Amount:    loan.CollateralAmount,
			MessageID: msg.ID,
			DestChain: msg.DestChain,
			Receiver:  msg.Receiver,
			Payload:   msg.Payload,
		})
	})

	if err != nil {
		return nil, err
	}

	log.WithField("loan", loan.ID).Infoln("loan requested")
	return loan, nil
}

// release unlock collateral up to C * r / V, all of it once every leg is repaid
func (s *service) release(ctx context.Context, tx *state.Tx, loan *core.Loan) error {
	target := loan.CollateralAmount
	if !loan.FullyRepaid() {
		value := loan.BorrowValue()
		repaid := decimal.Min(loan.RepaidValue(), value)
		target = number.MulDiv(loan.CollateralAmount, repaid, value, core.SharePrecision)
	}

	delta := decimal.Min(target.Sub(loan.Unlocked), loan.Locked())
	if !delta.IsPositive() {
		return nil
	}

	return s.unlock(ctx, tx, loan, delta)
}

func (s *service) unlock(ctx context.Context, tx *state.Tx, loan *core.Loan, amount decimal.Decimal) error {
	pool, err := s.pool(ctx, tx, loan.CollateralAsset)
	if err != nil {
		return err
	}

	if err := s.pools.Unlock(ctx, tx, pool, s.cfg.Address, loan.Borrower, amount); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("pools.Unlock")
		return err
	}

	loan.Unlocked = loan.Unlocked.Add(amount)
	return s.event(ctx, tx, &core.Event{
		Kind:    core.EventCollateralUnlock,
		Ref:     loan.ID,
		Account: loan.Borrower,
		Asset:   loan.CollateralAsset,
		Amount:  amount,
	})
}

// CancelLoan ask the destination to drop a loan that got no receipt within the lock timeout
func (s *service) CancelLoan(ctx context.Context, caller, loanID string) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"loan":   loanID,
		"caller": caller,
	})

	return s.run(ctx, func(tx *state.Tx, out *outbox) error {
		loan, err := s.loans.Find(ctx, tx, loanID)
		if err != nil {
			return err
		}

		if !loan.Exists() {
			return core.ErrLoanNotFound
		}

		if !core.SameAddress(caller, loan.Borrower) &&
			!core.SameAddress(caller, s.cfg.Address) &&
			!s.access.Allowed(ctx, caller, core.ScopeAdmin) {
			return fmt.Errorf("cancel loan of %s: %w", loan.Borrower, core.ErrOperationForbidden)
		}

		if loan.Status != core.LoanStatusSent {
			return fmt.Errorf("loan is %s: %w", loan.Status, core.ErrInvalidLoanStatus)
		}

		if s.now().Sub(loan.CreatedAt) < s.cfg.LockTimeout {
			return core.ErrLockNotExpired
		}

		if _, err := s.emit(ctx, tx, out, loan.DestChain, core.CancelPayload{LoanID: loan.ID}); err != nil {
			return err
		}

		loan.Status = core.LoanStatusCancelling
		if err := s.loans.Save(ctx, tx, loan); err != nil {
			log.WithError(err).Errorln("loans.Save")
			return err
		}

		log.Infoln("loan cancelling")
		return s.event(ctx, tx, &core.Event{
			Kind:    core.EventLoanCancelling,
			Ref:     loan.ID,
			Account: loan.Borrower,
		})
	})
}

func (s *service) CancelExpired(ctx context.Context, limit int) (int, error) {
	var loans []*core.Loan
	if err := s.db.View(func(tx *state.Tx) (err error) {
		loans, err = s.loans.List(ctx, tx, "", core.LoanStatusSent, 0)
		return
	}); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("loans.List")
		return 0, err
	}

	var n int
	for idx := len(loans) - 1; idx >= 0; idx-- {
		if limit > 0 && n >= limit {
			break
		}

		loan := loans[idx]
		if s.now().Sub(loan.CreatedAt) < s.cfg.LockTimeout {
			continue
		}

		if err := s.CancelLoan(ctx, s.cfg.Address, loan.ID); err != nil {
			logger.FromContext(ctx).WithError(err).WithField("loan", loan.ID).Errorln("CancelLoan")
			continue
		}

		n++
	}

	return n, nil
}

// Health collateral value at the liquidation threshold over the outstanding value, at current prices
func (s *service) Health(ctx context.Context, loanID string) (decimal.Decimal, error) {
	var health decimal.Decimal
	err := s.db.View(func(tx *state.Tx) error {
		loan, err := s.loans.Find(ctx, tx, loanID)
		if err != nil {
			return err
		}

		if !loan.Exists() {
			return core.ErrLoanNotFound
		}

		health, err = s.health(ctx, tx, loan)
		return err
	})

	return health, err
}

func (s *service) health(ctx context.Context, tx *state.Tx, loan *core.Loan) (decimal.Decimal, error) {
	debt := decimal.Zero
	for _, leg := range loan.Legs {
		if !leg.Outstanding().IsPositive() {
			continue
		}

		price, err := s.price(ctx, tx, leg.Asset)
		if err != nil {
			return decimal.Zero, err
		}

		debt = debt.Add(leg.Outstanding().Mul(price))
	}

	if !debt.IsPositive() {
		return core.MaxHealth, nil
	}

	price, err := s.price(ctx, tx, loan.CollateralAsset)
	if err != nil {
		return decimal.Zero, err
	}

	value := loan.Locked().Mul(price).Mul(s.cfg.LiquidationThreshold)
	return value.Div(debt).Truncate(8), nil
}

// Liquidate seize the remaining collateral of an unhealthy delivered loan to the port
func (s *service) Liquidate(ctx context.Context, caller, loanID string) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"loan":   loanID,
		"caller": caller,
	})

	if err := s.access.Require(ctx, caller, core.ScopeLiquidation); err != nil {
		return err
	}

	return s.db.Tx(func(tx *state.Tx) error {
		loan, err := s.loans.Find(ctx, tx, loanID)
		if err != nil {
			return err
		}

		if !loan.Exists() {
			return core.ErrLoanNotFound
		}

		if loan.Status != core.LoanStatusDelivered {
			return fmt.Errorf("loan is %s: %w", loan.Status, core.ErrInvalidLoanStatus)
		}

		if loan.FullyRepaid() {
			return fmt.Errorf("nothing outstanding: %w", core.ErrLoanHealthy)
		}

		health, err := s.health(ctx, tx, loan)
		if err != nil {
			return err
		}

		if health.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("health %s: %w", health, core.ErrLoanHealthy)
		}

		pool, err := s.pool(ctx, tx, loan.CollateralAsset)
		if err != nil {
			return err
		}

		seized := loan.Locked()
		if seized.IsPositive() {
			if err := s.pools.Seize(ctx, tx, pool, s.cfg.Address, loan.Borrower, s.cfg.Address, seized); err != nil {
				log.WithError(err).Errorln("pools.Seize")
				return err
			}
		}

		loan.Seized = loan.Seized.Add(seized)
		loan.Status = core.LoanStatusLiquidated
		if err := s.loans.Save(ctx, tx, loan); err != nil {
			log.WithError(err).Errorln("loans.Save")
			return err
		}

		log.WithField("health", health).Infof("liquidated, seized %s", seized)
		return s.event(ctx, tx, &core.Event{
			Kind:    core.EventLoanLiquidated,
			Ref:     loan.ID,
			Account: loan.Borrower,
			Asset:   loan.CollateralAsset,
			Amount:  seized,
			Memo:    health.String(),
		})
	})
}
