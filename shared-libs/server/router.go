package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lifequest/lifequest-services/shared-libs/dto"
)

// Version is reported by the health endpoint.
const Version = "v0.1.0"

const requestTimeout = 60 * time.Second

// NewRouter returns a chi router pre-configured with default middleware and a health endpoint.
// sessions, when set, reports the number of live sessions on /healthz.
func NewRouter(service string, sessions func() int, register func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(timeoutUnlessUpgrade(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := dto.HealthResponse{Status: "ok", Service: service, Version: Version}
		if sessions != nil {
			resp.Sessions = sessions()
		}
		writeJSON(w, http.StatusOK, resp)
	})

	if register != nil {
		register(r)
	}

	return r
}

// timeoutUnlessUpgrade applies middleware.Timeout to every request except websocket upgrades,
// which outlive any request deadline.
func timeoutUnlessUpgrade(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timed := middleware.Timeout(d)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			timed.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
