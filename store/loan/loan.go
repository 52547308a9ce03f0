package loan

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"linkport/core"
	"linkport/store/state"
)

type loanStore struct{}

// New loan and debt store
func New() core.ILoanStore {
	return &loanStore{}
}

func loanKey(id string) []byte {
	return state.Key("loan", id)
}

func debtKey(source uint64, loanID string) []byte {
	return state.Key("debt", source, loanID)
}

func (s *loanStore) Save(ctx context.Context, tx *state.Tx, loan *core.Loan) error {
	loan.UpdatedAt = time.Now()
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = loan.UpdatedAt
	}

	return tx.PutJSON(loanKey(loan.ID), loan)
}

func (s *loanStore) Find(ctx context.Context, tx *state.Tx, id string) (*core.Loan, error) {
	var loan core.Loan
	if _, err := tx.GetJSON(loanKey(id), &loan); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (s *loanStore) List(ctx context.Context, tx *state.Tx, borrower string, status core.LoanStatus, limit int) ([]*core.Loan, error) {
	var loans []*core.Loan
	err := tx.Iterate(state.Prefix("loan"), func(_, value []byte) error {
		var loan core.Loan
		if err := json.Unmarshal(value, &loan); err != nil {
			return err
		}

		if borrower != "" && !core.SameAddress(borrower, loan.Borrower) {
			return nil
		}

		if status > 0 && loan.Status != status {
			return nil
		}

		loans = append(loans, &loan)
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})

	if limit > 0 && len(loans) > limit {
		loans = loans[:limit]
	}

	return loans, nil
}

func (s *loanStore) SaveDebt(ctx context.Context, tx *state.Tx, debt *core.Debt) error {
	debt.UpdatedAt = time.Now()
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = debt.UpdatedAt
	}

	return tx.PutJSON(debtKey(debt.SourceChain, debt.LoanID), debt)
}

func (s *loanStore) FindDebt(ctx context.Context, tx *state.Tx, source uint64, loanID string) (*core.Debt, error) {
	var debt core.Debt
	if _, err := tx.GetJSON(debtKey(source, loanID), &debt); err != nil {
		return nil, err
	}

	return &debt, nil
}

func (s *loanStore) ListDebts(ctx context.Context, tx *state.Tx, borrower string, limit int) ([]*core.Debt, error) {
	var debts []*core.Debt
	err := tx.Iterate(state.Prefix("debt"), func(_, value []byte) error {
		var debt core.Debt
		if err := json.Unmarshal(value, &debt); err != nil {
			return err
		}

		if borrower == "" || core.SameAddress(borrower, debt.Borrower) {
			debts = append(debts, &debt)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(debts, func(i, j int) bool {
		return debts[i].CreatedAt.After(debts[j].CreatedAt)
	})

	if limit > 0 && len(debts) > limit {
		debts = debts[:limit]
	}

	return debts, nil
}
