package auth

import (
	"net/http"
	"time"
)

// Storage key names. These match the browser build of the portal so a
// deployment swap does not log everyone out.
const (
	KeyIDToken     = "cognito_id_token"
	KeyAccessToken = "cognito_access_token"
	KeyVerifier    = "cognito_pkce_verifier"
	KeyState       = "cognito_oauth_state"
)

// Storage persists small named values between requests. A zero ttl means
// session-scoped: the value is dropped when the browser session ends.
type Storage interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration)
	Delete(name string)
}

// CookieStorage implements Storage over HTTP cookies for a single
// request/response pair. Values written during the request are visible to
// later Gets in the same request.
type CookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	written map[string]*string // nil entry = deleted this request
}

// NewCookieStorage binds a Storage to one request/response pair.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, secure bool) *CookieStorage {
	return &CookieStorage{w: w, r: r, secure: secure, written: make(map[string]*string)}
}

func (s *CookieStorage) Get(name string) (string, bool) {
	if v, ok := s.written[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c, err := s.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStorage) Set(name, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(s.w, c)
	v := value
	s.written[name] = &v
}

func (s *CookieStorage) Delete(name string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	s.written[name] = nil
}

// MemStorage is an in-memory Storage for tests.
type MemStorage map[string]string

func (m MemStorage) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MemStorage) Set(name, value string, _ time.Duration) { m[name] = value }

func (m MemStorage) Delete(name string) { delete(m, name) }
