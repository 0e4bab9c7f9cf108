package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"scribe-portal/internal/auth"
	"scribe-portal/internal/metrics"
)

// AuthHandler exposes the login, callback, and logout endpoints of the
// authorization code flow.
type AuthHandler struct {
	gate   *auth.Gate
	secure bool
	log    zerolog.Logger
}

// NewAuthHandler creates the auth endpoints handler.
func NewAuthHandler(gate *auth.Gate, secure bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		gate:   gate,
		secure: secure,
		log:    log.With().Str("handler", "auth").Logger(),
	}
}

// Routes registers the auth endpoints.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Get("/auth/login", h.Login)
	r.Get("/auth/callback", h.Callback)
	r.Post("/auth/logout", h.Logout)
}

// redirectError sends the user back to the home page with an inline error.
func redirectError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// Login stashes a fresh verifier and redirects to the provider's hosted UI.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	store := auth.NewCookieStorage(w, r, h.secure)
	loginURL, err := h.gate.LoginURL(store)
	if err != nil {
		h.log.Error().Err(err).Msg("login start failed")
		redirectError(w, r, "unable to start login")
		return
	}
	metrics.LoginsStartedTotal.Inc()
	http.Redirect(w, r, loginURL, http.StatusFound)
}

// Callback completes the flow. A provider error redirect surfaces verbatim
// and never triggers an exchange.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	store := auth.NewCookieStorage(w, r, h.secure)
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		h.log.Warn().Str("error", e).Msg("provider declined login")
		redirectError(w, r, e)
		return
	}

	code := q.Get("code")
	if code == "" {
		redirectError(w, r, "missing authorization code")
		return
	}
	if !h.gate.ConsumeState(store, q.Get("state")) {
		redirectError(w, r, "invalid login state")
		return
	}

	stored, err := h.gate.Exchange(r.Context(), store, code)
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("error").Inc()
		h.log.Warn().Err(err).Msg("token exchange failed")
		redirectError(w, r, "token exchange failed")
		return
	}
	metrics.TokenExchangesTotal.WithLabelValues("ok").Inc()
	if !stored {
		redirectError(w, r, "provider returned no tokens")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears tokens locally and hands the user to the provider's logout
// endpoint when one is configured.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store := auth.NewCookieStorage(w, r, h.secure)
	target := h.gate.Logout(store)
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
