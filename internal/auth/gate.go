package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Config describes the OAuth2 provider the portal authenticates against.
// Login is disabled entirely when Domain or ClientID is missing.
type Config struct {
	Domain      string // provider base URL, e.g. https://myapp.auth.us-east-1.amazoncognito.com
	ClientID    string
	RedirectURI string
	LogoutURI   string
	Scope       string // space-separated scopes
	Authority   string // optional OIDC issuer; enables ID token verification
}

// Enabled reports whether login can be offered at all.
func (c Config) Enabled() bool {
	return c.Domain != "" && c.ClientID != ""
}

var (
	ErrLoginDisabled = errors.New("auth: login is not configured")
	ErrNoVerifier    = errors.New("auth: no pending code verifier")
)

// TokenSet holds the opaque tokens returned by the provider's token endpoint.
type TokenSet struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

// tokenTTL is how long token cookies survive. They stand in for the
// browser build's localStorage, so they outlive the session cookie jar.
const tokenTTL = 30 * 24 * time.Hour

// Gate runs the Authorization Code + PKCE flow and keeps token state in the
// caller-supplied Storage. Token presence is the only authentication check;
// a Gate with a configured Authority additionally verifies ID tokens at
// exchange time before storing them.
type Gate struct {
	cfg      Config
	http     *http.Client
	verifier *oidc.IDTokenVerifier
	log      zerolog.Logger
}

// NewGate creates a gate for the given provider config.
func NewGate(cfg Config, log zerolog.Logger) *Gate {
	return &Gate{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log.With().Str("component", "auth").Logger(),
	}
}

// Config returns the provider configuration the gate was built with.
func (g *Gate) Config() Config { return g.cfg }

// EnableVerification resolves cfg.Authority via OIDC discovery and installs
// an ID token verifier. Once installed, Exchange rejects token responses
// whose ID token fails signature or audience checks.
func (g *Gate) EnableVerification(ctx context.Context) error {
	if g.cfg.Authority == "" {
		return nil
	}
	provider, err := oidc.NewProvider(ctx, g.cfg.Authority)
	if err != nil {
		return fmt.Errorf("discover authority: %w", err)
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	g.log.Info().Str("authority", g.cfg.Authority).Msg("id token verification enabled")
	return nil
}

func (g *Gate) oauth() oauth2.Config {
	return oauth2.Config{
		ClientID:    g.cfg.ClientID,
		RedirectURL: g.cfg.RedirectURI,
		Scopes:      strings.Fields(g.cfg.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  g.cfg.Domain + "/oauth2/authorize",
			TokenURL: g.cfg.Domain + "/oauth2/token",
		},
	}
}

// LoginURL starts a login attempt: it stashes a fresh PKCE verifier and CSRF
// state in session-scoped storage and returns the provider authorization URL
// to redirect the user to. A new attempt overwrites any pending verifier, so
// at most one is outstanding per session.
func (g *Gate) LoginURL(store Storage) (string, error) {
	if !g.cfg.Enabled() {
		return "", ErrLoginDisabled
	}
	verifier, err := NewVerifier()
	if err != nil {
		return "", err
	}
	state := uuid.NewString()
	store.Set(KeyVerifier, verifier, 0)
	store.Set(KeyState, state, 0)
	conf := g.oauth()
	return conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// ConsumeState checks the state parameter echoed back by the provider against
// the stashed value, and clears it. A state survives exactly one callback.
func (g *Gate) ConsumeState(store Storage, state string) bool {
	want, ok := store.Get(KeyState)
	store.Delete(KeyState)
	return ok && state != "" && state == want
}

// Exchange trades an authorization code for tokens. It fails without any
// network I/O when no verifier is pending (abandoned or replayed flow).
// Returns true when at least one token came back and was stored. The token
// POST is issued directly rather than through oauth2.Config.Exchange because
// a response carrying only an id_token still counts as success here.
func (g *Gate) Exchange(ctx context.Context, store Storage, code string) (bool, error) {
	if !g.cfg.Enabled() {
		return false, ErrLoginDisabled
	}
	verifier, ok := store.Get(KeyVerifier)
	if !ok || verifier == "" {
		return false, ErrNoVerifier
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {g.cfg.ClientID},
		"code":          {code},
		"redirect_uri":  {g.cfg.RedirectURI},
		"code_verifier": {verifier},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.Domain+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Warn().Int("status", resp.StatusCode).Msg("token endpoint rejected exchange")
		return false, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tokens TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return false, fmt.Errorf("decode token response: %w", err)
	}

	if tokens.IDToken != "" && g.verifier != nil {
		if _, err := g.verifier.Verify(ctx, tokens.IDToken); err != nil {
			return false, fmt.Errorf("verify id token: %w", err)
		}
	}

	stored := false
	if tokens.IDToken != "" {
		store.Set(KeyIDToken, tokens.IDToken, tokenTTL)
		stored = true
	}
	if tokens.AccessToken != "" {
		store.Set(KeyAccessToken, tokens.AccessToken, tokenTTL)
		stored = true
	}
	store.Delete(KeyVerifier)
	return stored, nil
}

// Authenticated reports whether either token is present. Presence is the
// whole check: tokens here are a display convenience, not a verified
// security boundary.
func Authenticated(store Storage) bool {
	if _, ok := store.Get(KeyIDToken); ok {
		return true
	}
	_, ok := store.Get(KeyAccessToken)
	return ok
}

// Logout clears local tokens and returns the provider logout URL to redirect
// to, or "" when the provider is not configured. No confirmation from the
// provider is awaited.
func (g *Gate) Logout(store Storage) string {
	store.Delete(KeyIDToken)
	store.Delete(KeyAccessToken)
	if !g.cfg.Enabled() {
		return ""
	}
	q := url.Values{
		"client_id":  {g.cfg.ClientID},
		"logout_uri": {g.cfg.LogoutURI},
	}
	return g.cfg.Domain + "/logout?" + q.Encode()
}
