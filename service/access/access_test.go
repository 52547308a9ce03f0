package access

import (
	"context"
	"testing"

	"linkport/core"

	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	const (
		admin      = "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa"
		liquidator = "0x3333333333333333333333333333333333333333"
		user       = "0x4444444444444444444444444444444444444444"
	)

	ctx := context.Background()
	p := New(Config{
		Admins: []string{admin},
		Scopes: map[core.Scope][]string{core.ScopeLiquidation: {liquidator}},
	})

	assert.True(t, p.Allowed(ctx, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", core.ScopeAdmin))
	assert.True(t, p.Allowed(ctx, admin, core.ScopeLiquidation))
	assert.True(t, p.Allowed(ctx, liquidator, core.ScopeLiquidation))
	assert.False(t, p.Allowed(ctx, liquidator, core.ScopeAdmin))
	assert.False(t, p.Allowed(ctx, "", core.ScopeAdmin))

	assert.Nil(t, p.Require(ctx, admin, core.ScopeAdmin))
	assert.ErrorIs(t, p.Require(ctx, user, core.ScopeAdmin), core.ErrOperationForbidden)
}
