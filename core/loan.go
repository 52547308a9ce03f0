package core

import (
	"context"
	"math"
	"time"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// LoanStatus origin side loan state
type LoanStatus int

const (
	_ LoanStatus = iota
	// LoanStatusSent collateral locked and LOAN message sent
	LoanStatusSent
	// LoanStatusDelivered destination disbursed
	LoanStatusDelivered
	// LoanStatusFailed destination rejected, collateral unlocked
	LoanStatusFailed
	LoanStatusCancelling
	LoanStatusCancelled
	LoanStatusRepaid
	LoanStatusLiquidated
)

func (s LoanStatus) String() string {
	switch s {
	case LoanStatusSent:
		return "Sent"
	case LoanStatusDelivered:
		return "Delivered"
	case LoanStatusFailed:
		return "Failed"
	case LoanStatusCancelling:
		return "Cancelling"
	case LoanStatusCancelled:
		return "Cancelled"
	case LoanStatusRepaid:
		return "Repaid"
	case LoanStatusLiquidated:
		return "Liquidated"
	default:
		return "Unknown"
	}
}

// Pending no receipt from the destination yet
func (s LoanStatus) Pending() bool {
	return s == LoanStatusSent || s == LoanStatusCancelling
}

// LoanLeg a borrowed asset, priced when the loan was opened
type LoanLeg struct {
	Asset  string          `json:"asset"`
	Remote string          `json:"remote"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Repaid decimal.Decimal `json:"repaid"`
}

func (l LoanLeg) Value() decimal.Decimal {
	return l.Amount.Mul(l.Price)
}

func (l LoanLeg) Outstanding() decimal.Decimal {
	return l.Amount.Sub(l.Repaid)
}

// Loan origin side record of a cross-chain borrow
type Loan struct {
	ID               string          `json:"id"`
	Borrower         string          `json:"borrower"`
	DestChain        uint64          `json:"dest_chain"`
	CollateralAsset  string          `json:"collateral_asset"`
	CollateralAmount decimal.Decimal `json:"collateral_amount"`
	CollateralPrice  decimal.Decimal `json:"collateral_price"`
	Unlocked         decimal.Decimal `json:"unlocked"`
	Seized           decimal.Decimal `json:"seized"`
	Legs             []LoanLeg       `json:"legs"`
	MessageID        string          `json:"message_id"`
	Status           LoanStatus      `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (l *Loan) Exists() bool {
	return l != nil && l.ID != ""
}

// Locked collateral still held against the loan
func (l *Loan) Locked() decimal.Decimal {
	return l.CollateralAmount.Sub(l.Unlocked).Sub(l.Seized)
}

// BorrowValue usd value of all legs at loan time
func (l *Loan) BorrowValue() decimal.Decimal {
	v := decimal.Zero
	for _, leg := range l.Legs {
		v = v.Add(leg.Value())
	}
	return v
}

// RepaidValue usd value repaid so far at loan time prices
func (l *Loan) RepaidValue() decimal.Decimal {
	v := decimal.Zero
	for _, leg := range l.Legs {
		v = v.Add(leg.Repaid.Mul(leg.Price))
	}
	return v
}

// MaxHealth health reported for a loan with nothing outstanding
var MaxHealth = decimal.NewFromInt(math.MaxInt32)

func (l *Loan) FullyRepaid() bool {
	for _, leg := range l.Legs {
		if leg.Outstanding().IsPositive() {
			return false
		}
	}
	return true
}

// DebtStatus destination side loan state
type DebtStatus int

const (
	_ DebtStatus = iota
	DebtStatusActive
	DebtStatusRejected
	// DebtStatusCancelled tombstone, a late LOAN for the id is refused
	DebtStatusCancelled
	DebtStatusRepaid
)

func (s DebtStatus) String() string {
	switch s {
	case DebtStatusActive:
		return "Active"
	case DebtStatusRejected:
		return "Rejected"
	case DebtStatusCancelled:
		return "Cancelled"
	case DebtStatusRepaid:
		return "Repaid"
	default:
		return "Unknown"
	}
}

// DebtLeg disbursed local asset
type DebtLeg struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
	Repaid decimal.Decimal `json:"repaid"`
}

func (l DebtLeg) Outstanding() decimal.Decimal {
	return l.Amount.Sub(l.Repaid)
}

// Debt destination side record of a loan disbursement
type Debt struct {
	LoanID      string     `json:"loan_id"`
	SourceChain uint64     `json:"source_chain"`
	Borrower    string     `json:"borrower"`
	Legs        []DebtLeg  `json:"legs"`
	MessageID   string     `json:"message_id"`
	Status      DebtStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (d *Debt) Exists() bool {
	return d != nil && d.LoanID != ""
}

type ILoanStore interface {
	Save(ctx context.Context, tx *state.Tx, loan *Loan) error
	// Find returns an empty loan when missing
	Find(ctx context.Context, tx *state.Tx, id string) (*Loan, error)
	// List newest first, zero status and empty borrower match all
	List(ctx context.Context, tx *state.Tx, borrower string, status LoanStatus, limit int) ([]*Loan, error)

	SaveDebt(ctx context.Context, tx *state.Tx, debt *Debt) error
	// FindDebt returns an empty debt when missing
	FindDebt(ctx context.Context, tx *state.Tx, source uint64, loanID string) (*Debt, error)
	ListDebts(ctx context.Context, tx *state.Tx, borrower string, limit int) ([]*Debt, error)
}
