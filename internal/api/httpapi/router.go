package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter mounts the handler's routes. ws, when non-nil, is served at /ws.
func NewRouter(h *Handler, ws http.Handler, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/session", func(rr chi.Router) {
		rr.Get("/", h.State)
		rr.Post("/start", h.Start)
		rr.Post("/spin", h.Spin)
		rr.Post("/leave", h.Leave)
		rr.Route("/bomb", func(br chi.Router) {
			br.Post("/give-up", h.GiveUp)
			br.Post("/revive/money", h.MoneyRevive)
			br.Post("/revive/ads", h.AdsRevive)
		})
	})

	r.Get("/inventory", h.Inventory)
	r.Delete("/inventory", h.ClearInventory)
	r.Get("/wallet", h.Wallet)
	r.Get("/history", h.History)

	if ws != nil {
		r.Handle("/ws", ws)
	}
	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
