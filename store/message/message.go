package message

import (
	"context"
	"encoding/json"
	"time"

	"linkport/core"
	"linkport/store/state"
)

type messageStore struct{}

// New outbox and processed inbound messages
func New() core.IMessageStore {
	return &messageStore{}
}

func outboundKey(nonce uint64) []byte {
	return state.Key("msg", "out", nonce)
}

func outboundIndexKey(id string) []byte {
	return state.Key("msg", "out_id", id)
}

func inboundKey(id string) []byte {
	return state.Key("msg", "in", id)
}

func (s *messageStore) SaveOutbound(ctx context.Context, tx *state.Tx, msg *core.Message) error {
	msg.UpdatedAt = time.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = msg.UpdatedAt
	}

	if err := tx.PutJSON(outboundIndexKey(msg.ID), msg.Nonce); err != nil {
		return err
	}

	return tx.PutJSON(outboundKey(msg.Nonce), msg)
}

func (s *messageStore) FindOutbound(ctx context.Context, tx *state.Tx, id string) (*core.Message, error) {
	var (
		nonce uint64
		msg   core.Message
	)

	if ok, err := tx.GetJSON(outboundIndexKey(id), &nonce); err != nil || !ok {
		return &msg, err
	}

	if _, err := tx.GetJSON(outboundKey(nonce), &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}

func (s *messageStore) ListOutbound(ctx context.Context, tx *state.Tx, status core.MessageStatus, limit int) ([]*core.Message, error) {
	var messages []*core.Message
	err := tx.Iterate(state.Prefix("msg", "out"), func(_, value []byte) error {
		var msg core.Message
		if err := json.Unmarshal(value, &msg); err != nil {
			return err
		}

		if status > 0 && msg.Status != status {
			return nil
		}

		messages = append(messages, &msg)
		if limit > 0 && len(messages) >= limit {
			return state.ErrStop
		}

		return nil
	})

	return messages, err
}

func (s *messageStore) SaveInbound(ctx context.Context, tx *state.Tx, msg *core.Message) error {
	msg.UpdatedAt = time.Now()
	return tx.PutJSON(inboundKey(msg.ID), msg)
}

func (s *messageStore) FindInbound(ctx context.Context, tx *state.Tx, id string) (*core.Message, error) {
	var msg core.Message
	if _, err := tx.GetJSON(inboundKey(id), &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}
