package expiry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	chain  uint64
	calls  int
	limits []int
	err    error
}

func (p *fakePort) Chain() uint64 { return p.chain }

func (p *fakePort) CancelExpired(ctx context.Context, limit int) (int, error) {
	p.calls++
	p.limits = append(p.limits, limit)
	return 1, p.err
}

func TestExpiry(t *testing.T) {
	a := &fakePort{chain: 1, err: errors.New("insufficient fee")}
	b := &fakePort{chain: 2}

	job, err := New("UTC", "@every 1h", a, b)
	require.Nil(t, err)

	require.Nil(t, job.onWork(context.Background()))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls, "a failing port does not stop the sweep")
	assert.Equal(t, []int{limit}, b.limits)

	_, err = New("UTC", "every now and then", a)
	assert.Error(t, err)
}
