package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

// makeIDToken builds an unsigned JWT-shaped token for decode tests.
func makeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestUserLabel(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   string
	}{
		{"email_only", map[string]any{"email": "x@y.com"}, "x@y.com"},
		{"name_preferred_over_email", map[string]any{"name": "Ada", "email": "x@y.com"}, "Ada"},
		{"given_name_over_email", map[string]any{"given_name": "Ada", "email": "x@y.com"}, "Ada"},
		{"preferred_username_fallback", map[string]any{"preferred_username": "ada42"}, "ada42"},
		{"cognito_username_fallback", map[string]any{"cognito:username": "ada42"}, "ada42"},
		{"no_known_claims", map[string]any{"sub": "uuid-1"}, ""},
		{"empty_claim_skipped", map[string]any{"name": "", "email": "x@y.com"}, "x@y.com"},
		{"non_string_claim_skipped", map[string]any{"name": 42, "email": "x@y.com"}, "x@y.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := makeIDToken(t, tt.claims)
			if got := UserLabel(token); got != tt.want {
				t.Errorf("UserLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserLabel_Undecodable(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not_a_jwt", "hello"},
		{"two_segments", "a.b"},
		{"garbage_payload", "eyJhbGciOiJSUzI1NiJ9.!!!notbase64!!!.sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserLabel(tt.token); got != "" {
				t.Errorf("UserLabel(%q) = %q, want empty", tt.token, got)
			}
		})
	}
}
