package core

import (
	"context"
	"time"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// TransferStatus bridge transfer state
type TransferStatus int

const (
	_ TransferStatus = iota
	TransferStatusSent
	TransferStatusDelivered
	// TransferStatusRefunded destination lacked liquidity, sender refunded
	TransferStatusRefunded
	// TransferStatusSwapped delivered in the swap target asset
	TransferStatusSwapped
	// TransferStatusFallback swap failed, delivered unswapped
	TransferStatusFallback
)

func (s TransferStatus) String() string {
	switch s {
	case TransferStatusSent:
		return "Sent"
	case TransferStatusDelivered:
		return "Delivered"
	case TransferStatusRefunded:
		return "Refunded"
	case TransferStatusSwapped:
		return "Swapped"
	case TransferStatusFallback:
		return "Fallback"
	default:
		return "Unknown"
	}
}

// Transfer bridge record, kept by both the origin and the destination
type Transfer struct {
	ID          string            `json:"id"`
	SourceChain uint64            `json:"source_chain"`
	DestChain   uint64            `json:"dest_chain"`
	Sender      string            `json:"sender"`
	Recipient   string            `json:"recipient"`
	Asset       string            `json:"asset"`
	Remote      string            `json:"remote"`
	Amount      decimal.Decimal   `json:"amount"`
	Path        []string          `json:"path,omitempty"`
	MinOut      []decimal.Decimal `json:"min_out,omitempty"`
	AmountOut   decimal.Decimal   `json:"amount_out"`
	AssetOut    string            `json:"asset_out,omitempty"`
	MessageID   string            `json:"message_id"`
	Status      TransferStatus    `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (t *Transfer) Exists() bool {
	return t != nil && t.ID != ""
}

type ITransferStore interface {
	Save(ctx context.Context, tx *state.Tx, transfer *Transfer) error
	// Find returns an empty transfer when missing
	Find(ctx context.Context, tx *state.Tx, id string) (*Transfer, error)
	List(ctx context.Context, tx *state.Tx, account string, limit int) ([]*Transfer, error)
}
