package relayer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	chain   uint64
	flushed int32
	err     error
}

func (p *fakePort) Chain() uint64 { return p.chain }

func (p *fakePort) Flush(ctx context.Context) (int, error) {
	atomic.AddInt32(&p.flushed, 1)
	return 0, p.err
}

type fakeTransport struct {
	queue int32
}

func (f *fakeTransport) DeliverAll(ctx context.Context) (int, error) {
	return int(atomic.SwapInt32(&f.queue, 0)), nil
}

func TestRelayerRound(t *testing.T) {
	ctx := context.Background()
	a, b := &fakePort{chain: 1}, &fakePort{chain: 2}
	tr := &fakeTransport{queue: 3}

	w := New(time.Millisecond, tr, a, b)
	require.Nil(t, w.run(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&a.flushed))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.flushed))

	assert.EqualError(t, w.run(ctx), "relay: EOF", "idle round")

	b.err = errors.New("disk full")
	tr.queue = 1
	assert.Error(t, w.run(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&tr.queue), "nothing delivered when a flush fails")
}

func TestRelayerRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	port := &fakePort{chain: 1}
	w := New(time.Millisecond, &fakeTransport{}, port)
	assert.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)
	assert.Greater(t, atomic.LoadInt32(&port.flushed), int32(1))
}
