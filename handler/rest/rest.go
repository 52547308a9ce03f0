package rest

import (
	"errors"
	"net/http"
	"sort"

	"linkport/core"
	"linkport/handler/render"
	"linkport/store/state"

	"github.com/go-chi/chi"
	"github.com/spf13/cast"
)

// Chain state and services of one chain
type Chain struct {
	Name        string
	DB          *state.DB
	Port        core.IPortService
	Ports       core.IPortStore
	Pools       core.IPoolStore
	PoolService core.IPoolService
	Factory     core.IPoolFactory
	Loans       core.ILoanStore
	Transfers   core.ITransferStore
	Messages    core.IMessageStore
	Events      core.IEventStore
	Ledger      core.ILedger
}

var (
	errChainNotFound = errors.New("chain not found")
	errNotFound      = errors.New("not found")
)

// Handle handle rest api request
func Handle(chains map[uint64]*Chain) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errNotFound)
	})

	router.Get("/chains", chainsHandler(chains))
	router.Route("/chains/{chain}", func(r chi.Router) {
		r.Get("/pools", poolsHandler(chains))
		r.Get("/pools/{asset}", poolHandler(chains))
		r.Get("/pools/{asset}/accounts/{account}", accountHandler(chains))
		r.Get("/balances/{asset}/{account}", balanceHandler(chains))
		r.Get("/prices/{asset}", priceHandler(chains))
		r.Get("/loans", loansHandler(chains))
		r.Get("/loans/{id}", loanHandler(chains))
		r.Get("/debts", debtsHandler(chains))
		r.Get("/transfers", transfersHandler(chains))
		r.Get("/transfers/{id}", transferHandler(chains))
		r.Get("/events", eventsHandler(chains))
		r.Get("/messages", messagesHandler(chains))
		r.Get("/messages/{id}", messageHandler(chains))
	})

	return router
}

func chainOf(chains map[uint64]*Chain, r *http.Request) (*Chain, bool) {
	selector, err := cast.ToUint64E(chi.URLParam(r, "chain"))
	if err != nil {
		return nil, false
	}

	c, ok := chains[selector]
	return c, ok
}

// view run fn in a read view of the requested chain, errors are rendered
func view(chains map[uint64]*Chain, w http.ResponseWriter, r *http.Request, fn func(c *Chain, tx *state.Tx) (interface{}, error)) {
	c, ok := chainOf(chains, r)
	if !ok {
		render.NotFoundRequest(w, errChainNotFound)
		return
	}

	var resp interface{}
	if err := c.DB.View(func(tx *state.Tx) (err error) {
		resp, err = fn(c, tx)
		return
	}); err != nil {
		if errors.Is(err, errNotFound) {
			render.NotFoundRequest(w, err)
			return
		}

		render.Err(w, err)
		return
	}

	render.JSON(w, resp)
}

func limitOf(r *http.Request) int {
	limit := cast.ToInt(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	return limit
}

func selectors(chains map[uint64]*Chain) []uint64 {
	ids := make([]uint64, 0, len(chains))
	for id := range chains {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
