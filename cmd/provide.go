package cmd

import (
	"linkport/config"
	"linkport/core"
	"linkport/handler/rest"
	"linkport/pkg/id"
	"linkport/pkg/number"
	"linkport/service/access"
	"linkport/service/factory"
	"linkport/service/oracle"
	poolservice "linkport/service/pool"
	"linkport/service/port"
	"linkport/service/swap"
	"linkport/service/transport"
	"linkport/store/event"
	"linkport/store/ledger"
	"linkport/store/loan"
	"linkport/store/message"
	"linkport/store/pair"
	"linkport/store/pool"
	portstore "linkport/store/port"
	"linkport/store/state"
	"linkport/store/transfer"
)

// node everything one configured chain runs on
type node struct {
	cfg    config.Chain
	router *swap.Router
	*rest.Chain
}

func provideTransport() *transport.Router {
	return transport.New(transport.Config{
		BaseFee: number.Decimal(cfg.Transport.BaseFee),
		ByteFee: number.Decimal(cfg.Transport.ByteFee),
	})
}

func provideAccessPolicy() core.IAccessPolicy {
	return access.New(access.Config{
		Admins: cfg.Admins,
		Scopes: cfg.Scopes,
	})
}

func provideDatabase(c config.Chain) (*state.DB, error) {
	if c.DataDir == "" {
		return state.OpenMemory(), nil
	}

	return state.Open(c.DataDir)
}

func provideOracle(c config.Chain) core.IPriceOracle {
	if c.PriceEndpoint == "" {
		return oracle.NewStatic()
	}

	return oracle.New(c.PriceEndpoint, c.PriceCacheDuration())
}

func provideNode(c config.Chain, tr *transport.Router, policy core.IAccessPolicy) (*node, error) {
	db, err := provideDatabase(c)
	if err != nil {
		return nil, err
	}

	if c.Factory == "" {
		c.Factory = id.Address(c.Port, "factory")
	}

	if c.Router == "" {
		c.Router = id.Address(c.Port, "router")
	}

	n := &node{
		cfg: c,
		Chain: &rest.Chain{
			Name:      c.Name,
			DB:        db,
			Ports:     portstore.New(),
			Pools:     pool.New(),
			Loans:     loan.New(),
			Transfers: transfer.New(),
			Messages:  message.New(),
			Events:    event.New(),
			Ledger:    ledger.New(),
		},
	}

	n.router = swap.New(c.Router, pair.New(), n.Ledger)
	n.Factory = factory.New(c.Factory, n.Pools, policy)
	n.PoolService = poolservice.New(n.Pools, n.Ledger, poolservice.Config{
		MinInitialDeposit: number.Decimal(c.MinInitialDeposit),
	})

	n.Port = port.New(
		db,
		n.Ports,
		n.Loans,
		n.Transfers,
		n.Messages,
		n.Events,
		n.Ledger,
		n.Factory,
		n.PoolService,
		provideOracle(c),
		n.router,
		tr,
		policy,
		port.Config{
			Chain:                c.Selector,
			Address:              c.Port,
			FeeAsset:             c.FeeAsset,
			FeeCollector:         c.FeeCollector,
			MaxLTV:               number.Decimal(c.MaxLTV),
			LiquidationThreshold: number.Decimal(c.LiquidationThreshold),
			LockTimeout:          c.LockTimeoutDuration(),
		},
	)

	tr.Register(c.Selector, n.Port.Address(), n.Port)
	return n, nil
}

// provideNodes every configured chain registered on one transport
func provideNodes(tr *transport.Router) ([]*node, error) {
	policy := provideAccessPolicy()

	nodes := make([]*node, 0, len(cfg.Chains))
	for _, c := range cfg.Chains {
		n, err := provideNode(c, tr, policy)
		if err != nil {
			for _, n := range nodes {
				n.DB.Close()
			}
			return nil, err
		}

		nodes = append(nodes, n)
	}

	return nodes, nil
}
