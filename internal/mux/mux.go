package mux

import (
	"context"
	"net/http"
	"strings"
	"time"

	"holdem-server/internal/config"
	"holdem-server/internal/jwt"
	"holdem-server/pkg/account"
	"holdem-server/pkg/room"

	gmux "github.com/gorilla/mux"
)

type ctxKey int

const (
	ctxUsernameKey ctxKey = iota
	ctxTableKey
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version   string
	recaptcha recaptcha
	lobby     *room.Lobby

	// store for testing purposes
	authRouter *gmux.Router
}

// NewMux returns a new HTTP mux
func NewMux(version string) *Mux {
	lobby := room.NewLobby(account.NewStore(), tableTimeouts())
	lobby.StartShift()

	this := &Mux{
		Router:    gmux.NewRouter(),
		version:   version,
		lobby:     lobby,
		recaptcha: newRecaptcha(),
	}

	this.authRouter = this.Router.NewRoute().Subrouter()
	this.authRouter.Use(this.authMiddleware)

	// unauthorized endpoints
	{
		r := this.Router
		r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
		r.Methods(http.MethodPost).Path("/account").Handler(this.postAccount())
		r.Methods(http.MethodPost).Path("/account/auth").Handler(this.postAccountAuth())
	}

	// requires bearer authorization
	{
		r := this.authRouter
		r.Methods(http.MethodGet).Path("/account").Handler(this.getAccount())

		tr := r.PathPrefix("/table/{id:[A-Za-z0-9_-]{1,64}}").Subrouter()
		tr.Use(this.tableMiddleware)

		tr.Methods(http.MethodGet).Path("/ws").Handler(this.getTableIDWS())
	}

	return this
}

// tableTimeouts builds the room timer durations from the configuration,
// falling back to the live-play defaults
func tableTimeouts() room.Timeouts {
	timeouts := room.DefaultTimeouts()
	cfg := config.Instance().Table

	if cfg.ShowdownSeconds > 0 {
		timeouts.Showdown = time.Second * time.Duration(cfg.ShowdownSeconds)
	}

	if cfg.ReviewSeconds > 0 {
		timeouts.Review = time.Second * time.Duration(cfg.ReviewSeconds)
	}

	if cfg.DisconnectSeconds > 0 {
		timeouts.Disconnect = time.Second * time.Duration(cfg.DisconnectSeconds)
	}

	if cfg.ReadySeconds > 0 {
		timeouts.ReadySeconds = cfg.ReadySeconds
	}

	return timeouts
}

func (m *Mux) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.FormValue("access_token")
		if token == "" {
			authHeader := strings.Split(r.Header.Get("Authorization"), " ")
			if len(authHeader) != 2 || strings.ToLower(authHeader[0]) != "bearer" {
				writeJSONError(w, http.StatusUnauthorized, nil)
				return
			}

			token = authHeader[1]
		}

		username, err := jwt.ValidUsername(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, nil)
			return
		}

		newCtx := context.WithValue(r.Context(), ctxUsernameKey, username)
		w.Header().Set("HoldemServer-Username", username)
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}

// tableMiddleware requires authMiddleware to execute first
func (m *Mux) tableMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tableID := gmux.Vars(r)["id"]
		if tableID == "" {
			tableID = room.DefaultTableID
		}

		newCtx := context.WithValue(r.Context(), ctxTableKey, tableID)
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}
