package pair

import (
	"context"
	"encoding/json"
	"strings"

	"linkport/core"
	"linkport/store/state"
)

type pairStore struct{}

// New constant product pair store
func New() core.IPairStore {
	return &pairStore{}
}

// Sort order two tokens the way pairs are keyed
func Sort(a, b string) (string, string) {
	if strings.ToLower(a) > strings.ToLower(b) {
		return b, a
	}
	return a, b
}

func pairKey(a, b string) []byte {
	t0, t1 := Sort(a, b)
	return state.Key("pair", strings.ToLower(t0), strings.ToLower(t1))
}

// Save expects Token0 and Token1 in Sort order
func (s *pairStore) Save(ctx context.Context, tx *state.Tx, pair *core.Pair) error {
	return tx.PutJSON(pairKey(pair.Token0, pair.Token1), pair)
}

func (s *pairStore) Find(ctx context.Context, tx *state.Tx, a, b string) (*core.Pair, error) {
	var pair core.Pair
	if _, err := tx.GetJSON(pairKey(a, b), &pair); err != nil {
		return nil, err
	}

	return &pair, nil
}

func (s *pairStore) List(ctx context.Context, tx *state.Tx) ([]*core.Pair, error) {
	var pairs []*core.Pair
	err := tx.Iterate(state.Prefix("pair"), func(_, value []byte) error {
		var pair core.Pair
		if err := json.Unmarshal(value, &pair); err != nil {
			return err
		}
		pairs = append(pairs, &pair)
		return nil
	})

	return pairs, err
}
