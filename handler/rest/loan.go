package rest

import (
	"net/http"

	"linkport/core"
	"linkport/handler/views"
	"linkport/store/state"

	"github.com/go-chi/chi"
	"github.com/spf13/cast"
)

func loansHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		status := core.LoanStatus(cast.ToInt(query.Get("status")))

		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			loans, err := c.Loans.List(r.Context(), tx, query.Get("borrower"), status, limitOf(r))
			if err != nil {
				return nil, err
			}

			resp := make([]*views.Loan, 0, len(loans))
			for _, loan := range loans {
				resp = append(resp, views.LoanView(loan))
			}
			return resp, nil
		})
	}
}

func loanHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			loan, err := c.Loans.Find(r.Context(), tx, chi.URLParam(r, "id"))
			if err != nil {
				return nil, err
			}

			if !loan.Exists() {
				return nil, errNotFound
			}

			return views.LoanView(loan), nil
		})
	}
}

func debtsHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			return c.Loans.ListDebts(r.Context(), tx, r.URL.Query().Get("borrower"), limitOf(r))
		})
	}
}

func transfersHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			return c.Transfers.List(r.Context(), tx, r.URL.Query().Get("account"), limitOf(r))
		})
	}
}

func transferHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			transfer, err := c.Transfers.Find(r.Context(), tx, chi.URLParam(r, "id"))
			if err != nil {
				return nil, err
			}

			if !transfer.Exists() {
				return nil, errNotFound
			}

			return transfer, nil
		})
	}
}

func eventsHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := cast.ToUint64(r.URL.Query().Get("from"))

		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			return c.Events.List(r.Context(), tx, from, limitOf(r))
		})
	}
}

func messagesHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := core.MessageStatus(cast.ToInt(r.URL.Query().Get("status")))

		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			return c.Messages.ListOutbound(r.Context(), tx, status, limitOf(r))
		})
	}
}

// messageHandler outbound message by id, falling back to the inbound record
func messageHandler(chains map[uint64]*Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		view(chains, w, r, func(c *Chain, tx *state.Tx) (interface{}, error) {
			msg, err := c.Messages.FindOutbound(r.Context(), tx, id)
			if err != nil || msg.Exists() {
				return msg, err
			}

			msg, err = c.Messages.FindInbound(r.Context(), tx, id)
			if err == nil && !msg.Exists() {
				err = errNotFound
			}
			return msg, err
		})
	}
}
