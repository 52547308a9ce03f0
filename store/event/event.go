package event

import (
	"context"
	"encoding/json"
	"time"

	"linkport/core"
	"linkport/store/state"
)

type eventStore struct{}

// New append only event log
func New() core.IEventStore {
	return &eventStore{}
}

func (s *eventStore) Create(ctx context.Context, tx *state.Tx, event *core.Event) error {
	seq, err := tx.Sequence(state.Key("seq", "event"))
	if err != nil {
		return err
	}

	event.Seq = seq
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	return tx.PutJSON(state.Key("event", seq), event)
}

func (s *eventStore) List(ctx context.Context, tx *state.Tx, from uint64, limit int) ([]*core.Event, error) {
	var events []*core.Event
	err := tx.Iterate(state.Prefix("event"), func(_, value []byte) error {
		var event core.Event
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}

		if event.Seq <= from {
			return nil
		}

		events = append(events, &event)
		if limit > 0 && len(events) >= limit {
			return state.ErrStop
		}

		return nil
	})

	return events, err
}
