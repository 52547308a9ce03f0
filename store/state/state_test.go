package state

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxCommitAndDiscard(t *testing.T) {
	db := OpenMemory()
	defer db.Close()

	require.Nil(t, db.Tx(func(tx *Tx) error {
		return tx.Put(Key("pool", "eth"), []byte("1"))
	}))

	boom := errors.New("boom")
	err := db.Tx(func(tx *Tx) error {
		if err := tx.Put(Key("pool", "eth"), []byte("2")); err != nil {
			return err
		}

		v, err := tx.Get(Key("pool", "eth"))
		require.Nil(t, err)
		assert.Equal(t, "2", string(v))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.Nil(t, db.View(func(tx *Tx) error {
		v, err := tx.Get(Key("pool", "eth"))
		require.Nil(t, err)
		assert.Equal(t, "1", string(v))

		missing, err := tx.Get(Key("pool", "usdt"))
		require.Nil(t, err)
		assert.Nil(t, missing)

		assert.ErrorIs(t, tx.Put(Key("x"), nil), ErrReadOnly)
		return nil
	}))
}

func TestIterateAndSequence(t *testing.T) {
	db := OpenMemory()
	defer db.Close()

	require.Nil(t, db.Tx(func(tx *Tx) error {
		for i := 0; i < 12; i++ {
			seq, err := tx.Sequence(Key("seq", "event"))
			require.Nil(t, err)
			require.Nil(t, tx.PutJSON(Key("event", seq), seq))
		}
		return tx.Put(Key("eventx"), []byte("other"))
	}))

	var got []uint64
	require.Nil(t, db.View(func(tx *Tx) error {
		return tx.Iterate(Prefix("event"), func(_, value []byte) error {
			if len(got) == 10 {
				return ErrStop
			}
			var seq uint64
			if err := json.Unmarshal(value, &seq); err != nil {
				return err
			}
			got = append(got, seq)
			return nil
		})
	}))

	assert.Len(t, got, 10)
	assert.Equal(t, uint64(10), got[9])
}
