package transfer

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"linkport/core"
	"linkport/store/state"
)

type transferStore struct{}

// New bridge transfer store
func New() core.ITransferStore {
	return &transferStore{}
}

func transferKey(id string) []byte {
	return state.Key("transfer", id)
}

func (s *transferStore) Save(ctx context.Context, tx *state.Tx, transfer *core.Transfer) error {
	transfer.UpdatedAt = time.Now()
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = transfer.UpdatedAt
	}

	return tx.PutJSON(transferKey(transfer.ID), transfer)
}

func (s *transferStore) Find(ctx context.Context, tx *state.Tx, id string) (*core.Transfer, error) {
	var transfer core.Transfer
	if _, err := tx.GetJSON(transferKey(id), &transfer); err != nil {
		return nil, err
	}

	return &transfer, nil
}

func (s *transferStore) List(ctx context.Context, tx *state.Tx, account string, limit int) ([]*core.Transfer, error) {
	var transfers []*core.Transfer
	err := tx.Iterate(state.Prefix("transfer"), func(_, value []byte) error {
		var transfer core.Transfer
		if err := json.Unmarshal(value, &transfer); err != nil {
			return err
		}

		if account == "" || core.SameAddress(account, transfer.Sender) || core.SameAddress(account, transfer.Recipient) {
			transfers = append(transfers, &transfer)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].CreatedAt.After(transfers[j].CreatedAt)
	})

	if limit > 0 && len(transfers) > limit {
		transfers = transfers[:limit]
	}

	return transfers, nil
}
