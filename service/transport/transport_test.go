package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"linkport/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	portA = "0xA1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1"
	portB = "0xB2B2b2B2b2B2b2B2b2B2b2B2b2B2b2B2b2B2b2B2"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (r *recorder) OnMessage(ctx context.Context, msg *core.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.seen = append(r.seen, msg.ID)
	return nil
}

func newRouter() (*Router, *recorder) {
	r := New(Config{
		BaseFee: decimal.NewFromFloat(0.1),
		ByteFee: decimal.NewFromFloat(0.001),
	})
	b := &recorder{}
	r.Register(1, portA, &recorder{})
	r.Register(2, portB, b)
	return r, b
}

func message(id string) *core.Message {
	return &core.Message{
		ID:          id,
		SourceChain: 1,
		Sender:      portA,
		DestChain:   2,
		Receiver:    portB,
		Kind:        core.MessageKindBridge,
	}
}

func TestFee(t *testing.T) {
	r, _ := newRouter()
	ctx := context.Background()

	fee, err := r.Fee(ctx, 2, make([]byte, 100))
	require.Nil(t, err)
	assert.Equal(t, "0.2", fee.String())

	_, err = r.Fee(ctx, 3, nil)
	assert.ErrorIs(t, err, ErrUnknownChain)
}

func TestSend(t *testing.T) {
	r, _ := newRouter()
	ctx := context.Background()

	require.Nil(t, r.Send(ctx, message("1")))
	require.Nil(t, r.Send(ctx, message("1")))
	assert.Len(t, r.Pending(), 1, "send is idempotent per id")

	forged := message("2")
	forged.Sender = "0x6666666666666666666666666666666666666666"
	assert.ErrorIs(t, r.Send(ctx, forged), ErrUnknownSender)

	misrouted := message("3")
	misrouted.Receiver = portA
	assert.ErrorIs(t, r.Send(ctx, misrouted), ErrUnknownReceiver)

	lost := message("4")
	lost.DestChain = 3
	assert.ErrorIs(t, r.Send(ctx, lost), ErrUnknownChain)
}

func TestDeliver(t *testing.T) {
	r, b := newRouter()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.Nil(t, r.Send(ctx, message(fmt.Sprint(i))))
	}

	// any order
	require.Nil(t, r.Deliver(ctx, "3"))
	n, err := r.DeliverAll(ctx)
	require.Nil(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"3", "1", "2"}, b.seen)
	assert.Empty(t, r.Pending())

	assert.ErrorIs(t, r.Deliver(ctx, "3"), ErrUnknownMessage)
	require.Nil(t, r.Redeliver(ctx, "3"))
	assert.Equal(t, []string{"3", "1", "2", "3"}, b.seen)
}

func TestDeliverFailures(t *testing.T) {
	r, b := newRouter()
	ctx := context.Background()

	require.Nil(t, r.Send(ctx, message("1")))

	b.err = errors.New("out of gas")
	n, err := r.DeliverAll(ctx)
	assert.Equal(t, 0, n)
	assert.Error(t, err)
	assert.Len(t, r.Pending(), 1, "kept for a retry")

	b.err = fmt.Errorf("forged: %w", core.ErrUnauthorizedSource)
	assert.ErrorIs(t, r.Deliver(ctx, "1"), core.ErrUnauthorizedSource)
	assert.Empty(t, r.Pending())
	assert.Contains(t, r.Dropped(), "1")

	require.Nil(t, r.Send(ctx, message("2")))
	assert.True(t, r.Drop("2"))
	assert.False(t, r.Drop("2"))
	assert.Empty(t, r.Pending())
}
