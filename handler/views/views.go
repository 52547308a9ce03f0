package views

import (
	"linkport/core"

	"github.com/shopspring/decimal"
)

// Pool pool view
type Pool struct {
	*core.Pool
	TotalAssets  decimal.Decimal `json:"total_assets"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

func PoolView(pool *core.Pool) *Pool {
	return &Pool{
		Pool:         pool,
		TotalAssets:  pool.TotalAssets(),
		ExchangeRate: pool.ExchangeRate(),
	}
}

// Account shares of one account in a pool
type Account struct {
	Asset        string          `json:"asset"`
	Account      string          `json:"account"`
	Shares       decimal.Decimal `json:"shares"`
	Value        decimal.Decimal `json:"value"`
	Locked       decimal.Decimal `json:"locked"`
	Withdrawable decimal.Decimal `json:"withdrawable"`
}

// Loan loan view, health is set for delivered loans
type Loan struct {
	*core.Loan
	StatusText  string           `json:"status_text"`
	Locked      decimal.Decimal  `json:"locked"`
	BorrowValue decimal.Decimal  `json:"borrow_value"`
	RepaidValue decimal.Decimal  `json:"repaid_value"`
	Health      *decimal.Decimal `json:"health,omitempty"`
}

func LoanView(loan *core.Loan) *Loan {
	return &Loan{
		Loan:        loan,
		StatusText:  loan.Status.String(),
		Locked:      loan.Locked(),
		BorrowValue: loan.BorrowValue(),
		RepaidValue: loan.RepaidValue(),
	}
}

// Chain a chain served by this node
type Chain struct {
	Selector uint64        `json:"selector"`
	Name     string        `json:"name"`
	Port     string        `json:"port"`
	Routes   []*core.Route `json:"routes"`
}
