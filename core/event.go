package core

import (
	"context"
	"time"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// EventKind
type EventKind string

const (
	EventLoanRequested    EventKind = "loan.requested"
	EventLoanDelivered    EventKind = "loan.delivered"
	EventLoanFailed       EventKind = "loan.failed"
	EventLoanCancelling   EventKind = "loan.cancelling"
	EventLoanCancelled    EventKind = "loan.cancelled"
	EventLoanRepaid       EventKind = "loan.repaid"
	EventLoanLiquidated   EventKind = "loan.liquidated"
	EventCollateralUnlock EventKind = "collateral.unlocked"
	EventDebtDisbursed    EventKind = "debt.disbursed"
	EventDebtRejected     EventKind = "debt.rejected"
	EventDebtRepaid       EventKind = "debt.repaid"
	EventBridgeSent       EventKind = "bridge.sent"
	EventBridgeDelivered  EventKind = "bridge.delivered"
	EventBridgeRefunded   EventKind = "bridge.refunded"
	// EventSwapFallback degraded success, the bridged asset was delivered unswapped
	EventSwapFallback   EventKind = "bridge.swap_fallback"
	EventMessageSent    EventKind = "message.sent"
	EventMessageInvalid EventKind = "message.invalid"
)

// Event append only per chain log
type Event struct {
	Seq     uint64          `json:"seq"`
	Kind    EventKind       `json:"kind"`
	Ref     string          `json:"ref,omitempty"`
	Account string          `json:"account,omitempty"`
	Asset   string          `json:"asset,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Memo    string          `json:"memo,omitempty"`
	// set when the event carries an outbound message
	MessageID string    `json:"message_id,omitempty"`
	DestChain uint64    `json:"dest_chain,omitempty"`
	Receiver  string    `json:"receiver,omitempty"`
	Payload   []byte    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type IEventStore interface {
	// Create assigns Seq
	Create(ctx context.Context, tx *state.Tx, event *Event) error
	// List events with Seq > from, oldest first
	List(ctx context.Context, tx *state.Tx, from uint64, limit int) ([]*Event, error)
}
