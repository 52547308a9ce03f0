package core

import "context"

// Scope of a privileged operation
type Scope string

const (
	// ScopeAdmin port and factory setters
	ScopeAdmin Scope = "admin"
	// ScopeLiquidation seize collateral of unhealthy loans
	ScopeLiquidation Scope = "liquidation"
	// ScopeFaucet mint test tokens
	ScopeFaucet Scope = "faucet"
)

// IAccessPolicy consulted by every privileged entry point
type IAccessPolicy interface {
	Allowed(ctx context.Context, account string, scope Scope) bool
	// Require returns ErrOperationForbidden when not allowed
	Require(ctx context.Context, account string, scope Scope) error
}
