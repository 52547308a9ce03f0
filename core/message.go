package core

import (
	"context"
	"time"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// MessageStatus outbound: Pending -> Sent, inbound: Processed or Invalid
type MessageStatus int

const (
	_ MessageStatus = iota
	MessageStatusPending
	MessageStatusSent
	MessageStatusProcessed
	MessageStatusInvalid
)

func (s MessageStatus) String() string {
	switch s {
	case MessageStatusPending:
		return "Pending"
	case MessageStatusSent:
		return "Sent"
	case MessageStatusProcessed:
		return "Processed"
	case MessageStatusInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Message cross-chain envelope
type Message struct {
	ID          string          `json:"id"`
	Nonce       uint64          `json:"nonce"`
	SourceChain uint64          `json:"source_chain"`
	Sender      string          `json:"sender"`
	DestChain   uint64          `json:"dest_chain"`
	Receiver    string          `json:"receiver"`
	Kind        MessageKind     `json:"kind"`
	Payload     []byte          `json:"payload"`
	FeeAsset    string          `json:"fee_asset"`
	Fee         decimal.Decimal `json:"fee"`
	Status      MessageStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (m *Message) Exists() bool {
	return m != nil && m.ID != ""
}

type (
	IMessageStore interface {
		SaveOutbound(ctx context.Context, tx *state.Tx, msg *Message) error
		// FindOutbound returns an empty message when missing
		FindOutbound(ctx context.Context, tx *state.Tx, id string) (*Message, error)
		// ListOutbound oldest first, zero status matches all
		ListOutbound(ctx context.Context, tx *state.Tx, status MessageStatus, limit int) ([]*Message, error)

		SaveInbound(ctx context.Context, tx *state.Tx, msg *Message) error
		// FindInbound returns an empty message when the id was never applied
		FindInbound(ctx context.Context, tx *state.Tx, id string) (*Message, error)
	}

	// IMessageTransport at-least-once, unordered delivery between ports
	IMessageTransport interface {
		Fee(ctx context.Context, dest uint64, payload []byte) (decimal.Decimal, error)
		// Send is idempotent per message id
		Send(ctx context.Context, msg *Message) error
	}

	// IMessageHandler inbound side of a port
	IMessageHandler interface {
		OnMessage(ctx context.Context, msg *Message) error
	}
)
