package port

import (
	"context"
	"errors"
	"fmt"

	"linkport/core"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var errNoRouter = errors.New("port: no swap router")

// handleLoan disburse every leg to the borrower or none of them
func (s *service) handleLoan(ctx context.Context, tx *state.Tx, out *outbox, msg *core.Message, p core.LoanPayload) error {
	log := logger.FromContext(ctx).WithField("loan", p.LoanID)

	debt, err := s.loans.FindDebt(ctx, tx, msg.SourceChain, p.LoanID)
	if err != nil {
		log.WithError(err).Errorln("loans.FindDebt")
		return err
	}

	if debt.Exists() {
		log.Infof("loan already %s", debt.Status)
		return s.reply(ctx, tx, out, msg.SourceChain, core.MessageKindLoan, p.LoanID, debtReceipt(debt.Status))
	}

	debt = &core.Debt{
		LoanID:      p.LoanID,
		SourceChain: msg.SourceChain,
		Borrower:    p.Borrower,
		MessageID:   msg.ID,
		Status:      core.DebtStatusActive,
	}

	reason := s.checkDisbursement(ctx, tx, msg.SourceChain, p)
	for _, leg := range p.Legs {
		debt.Legs = append(debt.Legs, core.DebtLeg{Asset: leg.Asset, Amount: leg.Amount})
	}

	if reason != "" {
		log.Infof("loan rejected: %s", reason)
		debt.Status = core.DebtStatusRejected
		if err := s.loans.SaveDebt(ctx, tx, debt); err != nil {
			return err
		}

		if err := s.event(ctx, tx, &core.Event{
			Kind:    core.EventDebtRejected,
			Ref:     p.LoanID,
			Account: p.Borrower,
			Memo:    reason,
		}); err != nil {
			return err
		}

		return s.reply(ctx, tx, out, msg.SourceChain, core.MessageKindLoan, p.LoanID, core.ReceiptRejected)
	}

	for _, leg := range p.Legs {
		pool, err := s.pool(ctx, tx, leg.Asset)
		if err != nil {
			return err
		}

		if err := s.pools.Lend(ctx, tx, pool, s.cfg.Address, p.Borrower, leg.Amount); err != nil {
			log.WithError(err).Errorln("pools.Lend")
			return err
		}

		if err := s.event(ctx, tx, &core.Event{
			Kind:    core.EventDebtDisbursed,
			Ref:     p.LoanID,
			Account: p.Borrower,
			Asset:   leg.Asset,
			Amount:  leg.Amount,
		}); err != nil {
			return err
		}
	}

	if err := s.loans.SaveDebt(ctx, tx, debt); err != nil {
		log.WithError(err).Errorln("loans.SaveDebt")
		return err
	}

	log.Infoln("loan disbursed")
	return s.reply(ctx, tx, out, msg.SourceChain, core.MessageKindLoan, p.LoanID, core.ReceiptDelivered)
}

// checkDisbursement returns why the loan can't be disbursed, "" when it can
func (s *service) checkDisbursement(ctx context.Context, tx *state.Tx, source uint64, p core.LoanPayload) string {
	if _, ok := core.NormalizeAddress(p.Borrower); !ok {
		return "invalid borrower"
	}

	if len(p.Legs) == 0 {
		return "no legs"
	}

	need := map[string]decimal.Decimal{}
	var assets []string
	for _, leg := range p.Legs {
		if !leg.Amount.IsPositive() || !core.FitsPrecision(leg.Amount, core.SharePrecision) {
			return fmt.Sprintf("invalid amount %s", leg.Amount)
		}

		if origin, err := s.ports.FindToken(ctx, tx, leg.Asset, source); err != nil || origin == "" {
			return fmt.Sprintf("%s is not mapped to chain %d", leg.Asset, source)
		}

		if _, ok := need[leg.Asset]; !ok {
			assets = append(assets, leg.Asset)
		}
		need[leg.Asset] = need[leg.Asset].Add(leg.Amount)
	}

	for _, asset := range assets {
		pool, err := s.factory.GetPool(ctx, tx, asset)
		if err != nil || !pool.Exists() {
			return fmt.Sprintf("no pool for %s", asset)
		}

		if pool.Cash.LessThan(need[asset]) {
			return fmt.Sprintf("pool %s has %s free, %s needed", asset, pool.Cash, need[asset])
		}
	}

	return ""
}

func debtReceipt(status core.DebtStatus) core.ReceiptStatus {
	switch status {
	case core.DebtStatusRejected:
		return core.ReceiptRejected
	case core.DebtStatusCancelled:
		return core.ReceiptCancelled
	default:
		return core.ReceiptDelivered
	}
}

// handleRepay unlock collateral in proportion to the repaid value
func (s *service) handleRepay(ctx context.Context, tx *state.Tx, msg *core.Message, p core.RepayPayload) error {
	log := logger.FromContext(ctx).WithField("loan", p.LoanID)

	loan, err := s.loans.Find(ctx, tx, p.LoanID)
	if err != nil {
		log.WithError(err).Errorln("loans.Find")
		return err
	}

	if !loan.Exists() || loan.DestChain != msg.SourceChain {
		log.Infoln("repay of unknown loan, skip")
		return nil
	}

	switch loan.Status {
	case core.LoanStatusSent, core.LoanStatusCancelling:
		// the receipt is still on its way
		loan.Status = core.LoanStatusDelivered
	case core.LoanStatusDelivered:
	default:
		log.Infof("repay of %s loan, skip", loan.Status)
		return nil
	}

	var repaid decimal.Decimal
	for _, leg := range p.Legs {
		for idx := range loan.Legs {
			l := &loan.Legs[idx]
			if !core.SameAddress(l.Asset, leg.Asset) {
				continue
			}

			amount := decimal.Max(decimal.Min(leg.Amount, l.Outstanding()), decimal.Zero)
			l.Repaid = l.Repaid.Add(amount)
			repaid = repaid.Add(amount.Mul(l.Price))
			break
		}
	}

	if err := s.release(ctx, tx, loan); err != nil {
		return err
	}

	if loan.FullyRepaid() {
		loan.Status = core.LoanStatusRepaid
	}

	if err := s.loans.Save(ctx, tx, loan); err != nil {
		log.WithError(err).Errorln("loans.Save")
		return err
	}

	log.WithFields(logrus.Fields{
		"value":  repaid,
		"status": loan.Status.String(),
	}).Infoln("repay applied")

	if loan.Status != core.LoanStatusRepaid {
		return nil
	}

	return s.event(ctx, tx, &core.Event{
		Kind:    core.EventLoanRepaid,
		Ref:     loan.ID,
		Account: loan.Borrower,
		Asset:   loan.CollateralAsset,
		Amount:  loan.Unlocked,
	})
}

// handleBridge deliver the bridged asset, swapped when a path is given. A
// failed swap delivers the asset as is.
func (s *service) handleBridge(ctx context.Context, tx *state.Tx, out *outbox, msg *core.Message, p core.BridgePayload) error {
	log := logger.FromContext(ctx).WithField("transfer", p.TransferID)

	transfer, err := s.transfers.Find(ctx, tx, p.TransferID)
	if err != nil {
		return err
	}

	if transfer.Exists() {
		log.Infof("transfer already %s", transfer.Status)
		return nil
	}

	transfer = &core.Transfer{
		ID:          p.TransferID,
		SourceChain: msg.SourceChain,
		DestChain:   s.cfg.Chain,
		Sender:      p.Sender,
		Recipient:   p.Recipient,
		Asset:       p.Asset,
		Amount:      p.Amount,
		Path:        p.Path,
		MinOut:      p.MinOut,
		MessageID:   msg.ID,
	}

	pool, reason := s.checkBridge(ctx, tx, msg.SourceChain, p)
	if reason != "" {
		log.Infof("bridge rejected: %s", reason)
		transfer.Status = core.TransferStatusRefunded
		if err := s.transfers.Save(ctx, tx, transfer); err != nil {
			return err
		}

		return s.reply(ctx, tx, out, msg.SourceChain, core.MessageKindBridge, p.TransferID, core.ReceiptRejected)
	}

	if len(p.Path) == 0 {
		if err := s.pools.Payout(ctx, tx, pool, s.cfg.Address, p.Recipient, p.Amount); err != nil {
			return err
		}

		transfer.Status = core.TransferStatusDelivered
		transfer.AssetOut = p.Asset
		transfer.AmountOut = p.Amount
	} else {
		// the port holds the asset while swapping
		if err := s.pools.Payout(ctx, tx, pool, s.cfg.Address, s.cfg.Address, p.Amount); err != nil {
			return err
		}

		if err := s.swap(ctx, tx, transfer); err != nil {
			return err
		}
	}

	if err := s.transfers.Save(ctx, tx, transfer); err != nil {
		log.WithError(err).Errorln("transfers.Save")
		return err
	}

	if err := s.event(ctx, tx, &core.Event{
		Kind:    core.EventBridgeDelivered,
		Ref:     transfer.ID,
		Account: transfer.Recipient,
		Asset:   transfer.AssetOut,
		Amount:  transfer.AmountOut,
	}); err != nil {
		return err
	}

	return s.reply(ctx, tx, out, msg.SourceChain, core.MessageKindBridge, p.TransferID, core.ReceiptDelivered)
}

func (s *service) checkBridge(ctx context.Context, tx *state.Tx, source uint64, p core.BridgePayload) (*core.Pool, string) {
	if _, ok := core.NormalizeAddress(p.Recipient); !ok {
		return nil, "invalid recipient"
	}

	if !p.Amount.IsPositive() || !core.FitsPrecision(p.Amount, core.SharePrecision) {
		return nil, fmt.Sprintf("invalid amount %s", p.Amount)
	}

	if origin, err := s.ports.FindToken(ctx, tx, p.Asset, source); err != nil || origin == "" {
		return nil, fmt.Sprintf("%s is not mapped to chain %d", p.Asset, source)
	}

	pool, err := s.factory.GetPool(ctx, tx, p.Asset)
	if err != nil || !pool.Exists() {
		return nil, fmt.Sprintf("no pool for %s", p.Asset)
	}

	if pool.Cash.LessThan(p.Amount) {
		return nil, fmt.Sprintf("pool %s has %s free, %s needed", p.Asset, pool.Cash, p.Amount)
	}

	return pool, ""
}

// swap the bridged asset held by the port to the recipient, falling back to
// the unswapped asset when the router fails
func (s *service) swap(ctx context.Context, tx *state.Tx, transfer *core.Transfer) error {
	log := logger.FromContext(ctx).WithField("transfer", transfer.ID)

	err := errNoRouter
	if s.router != nil {
		var amount decimal.Decimal
		amount, err = s.router.SwapExactInput(ctx, tx, &core.SwapRequest{
			Payer:     s.cfg.Address,
			Recipient: transfer.Recipient,
			Path:      append([]string{transfer.Asset}, transfer.Path...),
			AmountIn:  transfer.Amount,
			MinOut:    transfer.MinOut,
		})

		if err == nil {
			transfer.Status = core.TransferStatusSwapped
			transfer.AssetOut = transfer.Path[len(transfer.Path)-1]
			transfer.AmountOut = amount
			return nil
		}
	}

	log.WithError(err).Infoln("swap failed, deliver unswapped")
	if err := s.ledger.Transfer(ctx, tx, transfer.Asset, s.cfg.Address, transfer.Recipient, transfer.Amount); err != nil {
		log.WithError(err).Errorln("ledger.Transfer")
		return err
	}

	transfer.Status = core.TransferStatusFallback
	transfer.AssetOut = transfer.Asset
	transfer.AmountOut = transfer.Amount
	swapFallbackTotal(s.cfg.Chain)

	return s.event(ctx, tx, &core.Event{
		Kind:    core.EventSwapFallback,
		Ref:     transfer.ID,
		Account: transfer.Recipient,
		Asset:   transfer.Asset,
		Amount:  transfer.Amount,
		Memo:    err.Error(),
	})
}

// handleReceipt settle a loan or a transfer with the destination outcome
func (s *service) handleReceipt(ctx context.Context, tx *state.Tx, msg *core.Message, p core.ReceiptPayload) error {
	switch p.Of {
	case core.MessageKindLoan:
		return s.loanReceipt(ctx, tx, msg, p)
	case core.MessageKindBridge:
		return s.bridgeReceipt(ctx, tx, msg, p)
	default:
		logger.FromContext(ctx).Infof("receipt of %s, skip", p.Of)
		return nil
	}
}

func (s *service) loanReceipt(ctx context.Context, tx *state.Tx, msg *core.Message, p core.ReceiptPayload) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"loan":    p.Ref,
		"receipt": p.Status.String(),
	})

	loan, err := s.loans.Find(ctx, tx, p.Ref)
	if err != nil {
		return err
	}

	if !loan.Exists() || loan.DestChain != msg.SourceChain {
		log.Infoln("receipt of unknown loan, skip")
		return nil
	}

	if !loan.Status.Pending() {
		log.Infof("loan already %s, skip", loan.Status)
		return nil
	}

	var kind core.EventKind
	switch p.Status {
	case core.ReceiptDelivered:
		loan.Status = core.LoanStatusDelivered
		kind = core.EventLoanDelivered
	case core.ReceiptRejected, core.ReceiptCancelled:
		if locked := loan.Locked(); locked.IsPositive() {
			if err := s.unlock(ctx, tx, loan, locked); err != nil {
				return err
			}
		}

		loan.Status, kind = core.LoanStatusFailed, core.EventLoanFailed
		if p.Status == core.ReceiptCancelled {
			loan.Status, kind = core.LoanStatusCancelled, core.EventLoanCancelled
		}
	default:
		log.Infoln("unknown receipt status, skip")
		return nil
	}

	if err := s.loans.Save(ctx, tx, loan); err != nil {
		log.WithError(err).Errorln("loans.Save")
		return err
	}

	log.Infof("loan %s", loan.Status)
	return s.event(ctx, tx, &core.Event{
		Kind:    kind,
		Ref:     loan.ID,
		Account: loan.Borrower,
	})
}

func (s *service) bridgeReceipt(ctx context.Context, tx *state.Tx, msg *core.Message, p core.ReceiptPayload) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"transfer": p.Ref,
		"receipt":  p.Status.String(),
	})

	transfer, err := s.transfers.Find(ctx, tx, p.Ref)
	if err != nil {
		return err
	}

	if !transfer.Exists() || transfer.DestChain != msg.SourceChain || transfer.Status != core.TransferStatusSent {
		log.Infoln("receipt of unknown or settled transfer, skip")
		return nil
	}

	event := &core.Event{
		Ref:     transfer.ID,
		Account: transfer.Sender,
		Asset:   transfer.Asset,
		Amount:  transfer.Amount,
	}

	switch p.Status {
	case core.ReceiptDelivered:
		transfer.Status = core.TransferStatusDelivered
		event.Kind = core.EventBridgeDelivered
	case core.ReceiptRejected:
		pool, err := s.pool(ctx, tx, transfer.Asset)
		if err != nil {
			return err
		}

		if err := s.pools.Payout(ctx, tx, pool, s.cfg.Address, transfer.Sender, transfer.Amount); err != nil {
			log.WithError(err).Errorln("pools.Payout")
			return err
		}

		transfer.Status = core.TransferStatusRefunded
		event.Kind = core.EventBridgeRefunded
	default:
		log.Infoln("unknown receipt status, skip")
		return nil
	}

	if err := s.transfers.Save(ctx, tx, transfer); err != nil {
		log.WithError(err).Errorln("transfers.Save")
		return err
	}

	log.Infof("transfer %s", transfer.Status)
	return s.event(ctx, tx, event)
}

// handleCancel tombstone a loan that was never delivered here, or tell the
// origin what became of it
func (s *service) handleCancel(ctx context.Context, tx *state.Tx, out *outbox, msg *core.Message, p core.CancelPayload) error {
	log := logger.FromContext(ctx).WithField("loan", p.LoanID)

	debt, err := s.loans.FindDebt(ctx, tx, msg.SourceChain, p.LoanID)
	if err != nil {
		return err
	}

	if !debt.Exists() {
		debt = &core.Debt{
			LoanID:      p.LoanID,
			SourceChain: msg.SourceChain,
			MessageID:   msg.ID,
			Status:      core.DebtStatusCancelled,
		}

		if err := s.loans.SaveDebt(ctx, tx, debt); err != nil {
			log.WithError(err).Errorln("loans.SaveDebt")
			return err
		}

		log.Infoln("loan cancelled before delivery")
	}

	return s.reply(ctx, tx, out, msg.SourceChain, core.MessageKindLoan, p.LoanID, debtReceipt(debt.Status))
}
