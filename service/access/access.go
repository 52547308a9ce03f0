package access

import (
	"context"
	"fmt"
	"strings"

	"linkport/core"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
)

type Config struct {
	Admins []string                `json:"admins"`
	Scopes map[core.Scope][]string `json:"scopes"`
}

type policy struct {
	admins []string
	scopes map[core.Scope][]string
}

// New access policy, admins hold every scope
func New(cfg Config) core.IAccessPolicy {
	p := &policy{
		admins: lower(cfg.Admins),
		scopes: map[core.Scope][]string{},
	}

	for scope, members := range cfg.Scopes {
		p.scopes[scope] = lower(members)
	}

	return p
}

func lower(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, strings.ToLower(s))
	}
	return out
}

func (p *policy) Allowed(ctx context.Context, account string, scope core.Scope) bool {
	account = strings.ToLower(account)
	if account == "" {
		return false
	}

	if govalidator.IsIn(account, p.admins...) {
		return true
	}

	return govalidator.IsIn(account, p.scopes[scope]...)
}

func (p *policy) Require(ctx context.Context, account string, scope core.Scope) error {
	if p.Allowed(ctx, account, scope) {
		return nil
	}

	logger.FromContext(ctx).WithField("account", account).Infof("scope %s denied", scope)
	return fmt.Errorf("%s lacks %s: %w", account, scope, core.ErrOperationForbidden)
}
