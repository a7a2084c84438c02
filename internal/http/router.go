package http

import (
	"context"
	"net/http"
	"time"
)

// RouterConfig bundles everything the HTTP surface needs.
type RouterConfig struct {
	JWTSecret string
	Books     *BookHandler
	Exchanges *ExchangeHandler
	Users     *UserHandler
	Ready     func(ctx context.Context) error
}

// NewRouter assembles the full route table. Listing reads take
// optional auth (anonymous browsing is allowed); everything that acts
// on behalf of a user requires a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if cfg.Ready != nil {
			if err := cfg.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	required := AuthMiddleware(cfg.JWTSecret)
	optional := OptionalAuthMiddleware(cfg.JWTSecret)

	mux.HandleFunc("POST /users/register", cfg.Users.Register)
	mux.HandleFunc("POST /users/login", cfg.Users.Login)
	mux.Handle("GET /me", required(http.HandlerFunc(cfg.Users.Me)))

	mux.Handle("GET /books", optional(http.HandlerFunc(cfg.Books.List)))
	mux.Handle("GET /books/owned", required(http.HandlerFunc(cfg.Books.Owned)))
	mux.Handle("GET /books/{id}", optional(http.HandlerFunc(cfg.Books.Get)))
	mux.Handle("POST /books", required(http.HandlerFunc(cfg.Books.Create)))

	mux.Handle("POST /exchanges", required(http.HandlerFunc(cfg.Exchanges.Request)))
	mux.Handle("POST /exchanges/{id}/accept", required(http.HandlerFunc(cfg.Exchanges.Accept)))
	mux.Handle("POST /exchanges/{id}/reject", required(http.HandlerFunc(cfg.Exchanges.Reject)))
	mux.Handle("POST /exchanges/{id}/finalize", required(http.HandlerFunc(cfg.Exchanges.Finalize)))
	mux.Handle("GET /exchanges", required(http.HandlerFunc(cfg.Exchanges.List)))

	return mux
}
