package handler

import (
	"net/http"

	"linkport/handler/rest"

	"github.com/go-chi/chi"
)

// Server server
type Server struct {
	chains map[uint64]*rest.Chain
}

// New new server function
func New(chains map[uint64]*rest.Chain) Server {
	return Server{
		chains: chains,
	}
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	r.Use(resetRoutePath)
	r.Mount("/", rest.Handle(s.chains))
	return r
}

func resetRoutePath(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if c := chi.RouteContext(ctx); c != nil {
			c.RoutePath = r.URL.Path
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
