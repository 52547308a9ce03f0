package port

import (
	"testing"
	"time"

	"linkport/core"
	"linkport/store/state"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) repay(t *testing.T, loanID, amount string) (*core.Debt, error) {
	return h.b.port.Repay(h.ctx, alice, &core.RepayRequest{
		SourceChain: chainA,
		LoanID:      loanID,
		Legs:        []core.Leg{{Asset: usdtB, Amount: d(amount)}},
	})
}

func TestProportionalUnlock(t *testing.T) {
	h := newHarness(t)

	l := h.borrow(t, "1000")
	h.settle(t)
	assert.Equal(t, "10", h.locked(t, h.a, weth, alice), "nothing repaid, nothing unlocked")

	debt, err := h.repay(t, l.ID, "250")
	require.Nil(t, err)
	assert.Equal(t, core.DebtStatusActive, debt.Status)
	assert.Equal(t, "750", h.balance(t, h.b, usdtB, alice))
	assert.Equal(t, "750", h.pool(t, h.b, usdtB).Borrows.String())

	h.only(t, core.MessageKindRepay)
	h.settle(t)

	l = h.loan(t, l.ID)
	assert.Equal(t, core.LoanStatusDelivered, l.Status)
	assert.Equal(t, "2.5", l.Unlocked.String(), "10 * 250 / 1000")
	assert.Equal(t, "7.5", h.locked(t, h.a, weth, alice))

	// over the outstanding amount is capped
	h.mint(t, h.b, usdtB, alice, "500")
	debt, err = h.repay(t, l.ID, "1000")
	require.Nil(t, err)
	assert.Equal(t, core.DebtStatusRepaid, debt.Status)
	assert.Equal(t, "500", h.balance(t, h.b, usdtB, alice))
	assert.Equal(t, "0", h.pool(t, h.b, usdtB).Borrows.String())
	assert.Equal(t, "5000", h.pool(t, h.b, usdtB).Cash.String())
	h.settle(t)

	l = h.loan(t, l.ID)
	assert.Equal(t, core.LoanStatusRepaid, l.Status)
	assert.Equal(t, "10", l.Unlocked.String())
	assert.Equal(t, "0", h.locked(t, h.a, weth, alice))
	assert.Len(t, h.events(t, h.a, core.EventCollateralUnlock), 2)

	health, err := h.a.port.Health(h.ctx, l.ID)
	require.Nil(t, err)
	assert.True(t, health.Equal(core.MaxHealth))
	assert.ErrorIs(t, h.a.port.Liquidate(h.ctx, liquidator, l.ID), core.ErrInvalidLoanStatus)

	_, err = h.repay(t, l.ID, "1")
	assert.ErrorIs(t, err, core.ErrInvalidLoanStatus)

	require.Nil(t, h.a.db.Tx(func(tx *state.Tx) error {
		pool, err := h.a.factory.GetPool(h.ctx, tx, weth)
		if err != nil {
			return err
		}
		_, err = h.a.poolService.Withdraw(h.ctx, tx, pool, alice, d("10"))
		return err
	}))
	assert.Equal(t, "10", h.balance(t, h.a, weth, alice))
}

func TestProportionalUnlockMultiLeg(t *testing.T) {
	h := newHarness(t)

	require.Nil(t, h.a.port.SetToken(h.ctx, admin, link, chainB, snxB))
	require.Nil(t, h.b.port.SetToken(h.ctx, admin, snxB, chainA, link))
	require.Nil(t, h.a.port.SetTokenPrice(h.ctx, admin, link, d("20")))
	h.mint(t, h.b, snxB, lp, "100")
	h.deposit(t, h.b, snxB, lp, "100")

	// 1000 usdt + 50 * 20 = 2000 borrowed
	l, err := h.a.port.Loan(h.ctx, alice, &core.LoanRequest{
		DestChain:        chainB,
		CollateralAsset:  weth,
		CollateralAmount: d("10"),
		Legs: []core.Leg{
			{Asset: usdtA, Amount: d("1000")},
			{Asset: link, Amount: d("50")},
		},
	})
	require.Nil(t, err)
	h.settle(t)

	// repaid value 500 + 10 * 20 = 700
	_, err = h.b.port.Repay(h.ctx, alice, &core.RepayRequest{
		SourceChain: chainA,
		LoanID:      l.ID,
		Legs: []core.Leg{
			{Asset: usdtB, Amount: d("500")},
			{Asset: snxB, Amount: d("10")},
		},
	})
	require.Nil(t, err)
	h.settle(t)
	assert.Equal(t, "3.5", h.loan(t, l.ID).Unlocked.String())

	// a repay priced later still uses the loan time price
	require.Nil(t, h.a.port.SetTokenPrice(h.ctx, admin, link, d("40")))
	_, err = h.b.port.Repay(h.ctx, alice, &core.RepayRequest{
		SourceChain: chainA,
		LoanID:      l.ID,
		Legs:        []core.Leg{{Asset: snxB, Amount: d("40")}},
	})
	require.Nil(t, err)
	h.settle(t)
	assert.Equal(t, "7.5", h.loan(t, l.ID).Unlocked.String())

	_, err = h.b.port.Repay(h.ctx, alice, &core.RepayRequest{
		SourceChain: chainA,
		LoanID:      l.ID,
		Legs:        []core.Leg{{Asset: usdtB, Amount: d("500")}},
	})
	require.Nil(t, err)
	h.settle(t)

	l = h.loan(t, l.ID)
	assert.Equal(t, core.LoanStatusRepaid, l.Status)
	assert.Equal(t, "10", l.Unlocked.String())
}

func TestRepayReplay(t *testing.T) {
	h := newHarness(t)

	l := h.borrow(t, "1000")
	h.settle(t)

	_, err := h.repay(t, l.ID, "250")
	require.Nil(t, err)
	msg := h.only(t, core.MessageKindRepay)
	require.Nil(t, h.tr.Deliver(h.ctx, msg.ID))
	h.settle(t)

	unlocked := h.loan(t, l.ID).Unlocked.String()
	assert.Equal(t, "2.5", unlocked)

	for i := 0; i < 2; i++ {
		require.Nil(t, h.tr.Redeliver(h.ctx, msg.ID))
	}

	l = h.loan(t, l.ID)
	assert.Equal(t, unlocked, l.Unlocked.String())
	assert.Equal(t, "250", l.Legs[0].Repaid.String())
	assert.Equal(t, "7.5", h.locked(t, h.a, weth, alice))
	assert.Equal(t, "7.5", h.pool(t, h.a, weth).Locked.String())
	assert.Len(t, h.events(t, h.a, core.EventCollateralUnlock), 1)
	assert.Len(t, h.events(t, h.a, core.EventLoanRepaid), 1)
	assert.Empty(t, h.tr.Pending(), "a replay sends nothing")
}

func TestRepayBeforeReceipt(t *testing.T) {
	h := newHarness(t)

	l := h.borrow(t, "1000")
	require.Nil(t, h.tr.Deliver(h.ctx, h.only(t, core.MessageKindLoan).ID))
	receipt := h.only(t, core.MessageKindReceipt)

	_, err := h.repay(t, l.ID, "1000")
	require.Nil(t, err)

	var repay *core.Message
	for _, msg := range h.tr.Pending() {
		if msg.Kind == core.MessageKindRepay {
			repay = msg
		}
	}
	require.NotNil(t, repay)

	require.Nil(t, h.tr.Deliver(h.ctx, repay.ID))
	assert.Equal(t, core.LoanStatusRepaid, h.loan(t, l.ID).Status)

	require.Nil(t, h.tr.Deliver(h.ctx, receipt.ID))
	assert.Equal(t, core.LoanStatusRepaid, h.loan(t, l.ID).Status, "a late receipt changes nothing")
	assert.Equal(t, "0", h.locked(t, h.a, weth, alice))
}

func TestRepayValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.repay(t, "unknown", "1")
	assert.ErrorIs(t, err, core.ErrLoanNotFound)

	l := h.borrow(t, "1000")
	h.settle(t)

	_, err = h.b.port.Repay(h.ctx, alice, &core.RepayRequest{
		SourceChain: chainA,
		LoanID:      l.ID,
		Legs:        []core.Leg{{Asset: snxB, Amount: d("1")}},
	})
	assert.ErrorIs(t, err, core.ErrInvalidLegs)

	_, err = h.b.port.Repay(h.ctx, bob, &core.RepayRequest{
		SourceChain: chainA,
		LoanID:      l.ID,
		Legs:        []core.Leg{{Asset: usdtB, Amount: d("1")}},
	})
	assert.ErrorIs(t, err, core.ErrInsufficientBalance, "bob holds no usdt")
	assert.Empty(t, h.tr.Pending())
}

func TestCancelUndeliveredLoan(t *testing.T) {
	h := newHarness(t)

	l := h.borrow(t, "1000")
	lost := h.only(t, core.MessageKindLoan)
	require.True(t, h.tr.Drop(lost.ID))

	assert.ErrorIs(t, h.a.port.CancelLoan(h.ctx, alice, l.ID), core.ErrLockNotExpired)

	h.a.port.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, h.a.port.CancelLoan(h.ctx, mallory, l.ID), core.ErrOperationForbidden)
	require.Nil(t, h.a.port.CancelLoan(h.ctx, alice, l.ID))
	assert.Equal(t, core.LoanStatusCancelling, h.loan(t, l.ID).Status)
	assert.ErrorIs(t, h.a.port.CancelLoan(h.ctx, alice, l.ID), core.ErrInvalidLoanStatus)

	h.only(t, core.MessageKindCancel)
	h.settle(t)

	l = h.loan(t, l.ID)
	assert.Equal(t, core.LoanStatusCancelled, l.Status)
	assert.Equal(t, "0", h.locked(t, h.a, weth, alice))
	assert.Equal(t, core.DebtStatusCancelled, h.debt(t, l.ID).Status)

	// the lost loan shows up after all
	require.Nil(t, h.b.port.OnMessage(h.ctx, lost))
	assert.Equal(t, "0", h.balance(t, h.b, usdtB, alice))
	h.only(t, core.MessageKindReceipt)
	h.settle(t)
	assert.Equal(t, core.LoanStatusCancelled, h.loan(t, l.ID).Status)
}

func TestCancelLosesToDelivery(t *testing.T) {
	h := newHarness(t)

	l := h.borrow(t, "1000")
	require.Nil(t, h.tr.Deliver(h.ctx, h.only(t, core.MessageKindLoan).ID))
	receipt := h.only(t, core.MessageKindReceipt)
	require.True(t, h.tr.Drop(receipt.ID))

	h.a.port.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.Nil(t, h.a.port.CancelLoan(h.ctx, admin, l.ID))
	h.settle(t)

	assert.Equal(t, core.LoanStatusDelivered, h.loan(t, l.ID).Status)
	assert.Equal(t, "10", h.locked(t, h.a, weth, alice))
	assert.Equal(t, core.DebtStatusActive, h.debt(t, l.ID).Status)
}

func TestCancelExpired(t *testing.T) {
	h := newHarness(t)

	l := h.borrow(t, "1000")
	require.True(t, h.tr.Drop(h.only(t, core.MessageKindLoan).ID))

	n, err := h.a.port.CancelExpired(h.ctx, 10)
	require.Nil(t, err)
	assert.Equal(t, 0, n)

	h.a.port.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = h.a.port.CancelExpired(h.ctx, 10)
	require.Nil(t, err)
	assert.Equal(t, 1, n)
	h.settle(t)

	assert.Equal(t, core.LoanStatusCancelled, h.loan(t, l.ID).Status)
}

func TestLiquidate(t *testing.T) {
	h := newHarness(t)

	h.a.oracle.Set("ETH/USD", decimal.NewFromInt(240000000000), 8)
	require.Nil(t, h.a.port.SetPriceFeed(h.ctx, admin, weth, "ETH/USD"))

	l := h.borrow(t, "1000")
	assert.ErrorIs(t, h.a.port.Liquidate(h.ctx, liquidator, l.ID), core.ErrInvalidLoanStatus, "not delivered yet")
	h.settle(t)

	health, err := h.a.port.Health(h.ctx, l.ID)
	require.Nil(t, err)
	assert.Equal(t, "20.4", health.String())
	assert.ErrorIs(t, h.a.port.Liquidate(h.ctx, liquidator, l.ID), core.ErrLoanHealthy)

	h.a.oracle.Set("ETH/USD", decimal.NewFromInt(10000000000), 8)
	health, err = h.a.port.Health(h.ctx, l.ID)
	require.Nil(t, err)
	assert.Equal(t, "0.85", health.String())

	assert.ErrorIs(t, h.a.port.Liquidate(h.ctx, bob, l.ID), core.ErrOperationForbidden)
	require.Nil(t, h.a.port.Liquidate(h.ctx, liquidator, l.ID))

	l = h.loan(t, l.ID)
	assert.Equal(t, core.LoanStatusLiquidated, l.Status)
	assert.Equal(t, "10", l.Seized.String())
	assert.Equal(t, "0", h.locked(t, h.a, weth, alice))
	assert.Equal(t, "10", h.balance(t, h.a, weth, portA))
	assert.Equal(t, "0", h.pool(t, h.a, weth).TotalShares.String())

	// repaying a liquidated loan unlocks nothing
	_, err = h.repay(t, l.ID, "1000")
	require.Nil(t, err)
	h.settle(t)
	assert.Equal(t, core.LoanStatusLiquidated, h.loan(t, l.ID).Status)
	assert.Equal(t, "0", h.loan(t, l.ID).Unlocked.String())
}
