package rest

import (
	"net/http"

	"linkport/core"
	"linkport/handler/render"
	"linkport/handler/views"
	"linkport/store/state"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

func chainsHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp []*views.Chain
		for _, id := range selectors(chains) {
			c := chains[id]

			var routes []*core.Route
			if err := c.DB.View(func(tx *state.Tx) (err error) {
				routes, err = c.Ports.ListRoutes(r.Context(), tx)
				return
			}); err != nil {
				render.Err(w, err)
				return
			}

			resp = append(resp, &views.Chain{
				Selector: id,
				Name:     c.Name,
				Port:     c.Port.Address(),
				Routes:   routes,
			})
		}

		render.JSON(w, resp)
	}
}

func balanceHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			balance, err := c.Ledger.Balance(r.Context(), tx, chi.URLParam(r, "asset"), chi.URLParam(r, "account"))
			return render.H{"balance": balance}, err
		})
	}
}

func priceHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := chainOf(chains, r)
		if !ok {
			render.NotFoundRequest(w, errChainNotFound)
			return
		}

		asset, ok := core.NormalizeAddress(chi.URLParam(r, "asset"))
		if !ok {
			render.BadRequest(w, core.ErrInvalidAddress)
			return
		}

		price, err := c.Port.GetTokenPrice(r.Context(), asset)
		if err != nil {
			render.Err(w, err)
			return
		}

		render.JSON(w, render.H{"asset": asset, "price": price})
	}
}

func poolsHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			pools, err := c.Factory.ListPools(r.Context(), tx)
			if err != nil {
				return nil, err
			}

			resp := make([]*views.Pool, 0, len(pools))
			for _, pool := range pools {
				resp = append(resp, views.PoolView(pool))
			}
			return resp, nil
		})
	}
}

func findPool(c *Chain, r *http.Request, tx *state.Tx) (*core.Pool, error) {
	pool, err := c.Factory.GetPool(r.Context(), tx, chi.URLParam(r, "asset"))
	if err != nil {
		return nil, err
	}

	if !pool.Exists() {
		return nil, errNotFound
	}

	return pool, nil
}

func poolHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			pool, err := findPool(c, r, tx)
			if err != nil {
				return nil, err
			}
			return views.PoolView(pool), nil
		})
	}
}

func accountHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			pool, err := findPool(c, r, tx)
			if err != nil {
				return nil, err
			}

			account := chi.URLParam(r, "account")
			acc, err := c.Pools.FindAccount(r.Context(), tx, pool.Asset, account)
			if err != nil {
				return nil, err
			}

			withdrawable, err := c.PoolService.Withdrawable(r.Context(), tx, pool, account)
			if err != nil {
				withdrawable = decimal.Zero
			}

			return &views.Account{
				Asset:        pool.Asset,
				Account:      account,
				Shares:       acc.Shares,
				Value:        pool.SharesValue(acc.Shares),
				Locked:       acc.Locked,
				Withdrawable: withdrawable,
			}, nil
		})
	}
}
