package server

import (
	"net/http"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/resolve"
	"github.com/shelfscout/shelfscout/pkg/storage"
)

type Server struct {
	DB       *storage.DB
	Resolver *resolve.Resolver
	Username string
	Password string
}

func New(db *storage.DB, resolver *resolve.Resolver, user, pass string) *Server {
	return &Server{
		DB:       db,
		Resolver: resolver,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	utils.Log.Info("Starting server on ", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/resolve", s.basicAuth(s.handleResolve))
	mux.HandleFunc("GET /api/route", s.basicAuth(s.handleRoute))
	mux.HandleFunc("GET /api/items", s.basicAuth(s.handleListItems))
	mux.HandleFunc("POST /api/items", s.basicAuth(s.handleAddItem))
	mux.HandleFunc("DELETE /api/items", s.basicAuth(s.handleRemoveItem))

	return mux
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
