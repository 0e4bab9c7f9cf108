package auth

import "github.com/golang-jwt/jwt/v5"

// labelClaims is the preference order for the display name.
var labelClaims = []string{"name", "given_name", "email", "preferred_username", "cognito:username"}

// UserLabel extracts a best-effort display name from an ID token without
// verifying it. Returns "" when the token is absent or undecodable.
// Display-only: anything that needs trusted claims goes through the gate's
// OIDC verifier instead.
func UserLabel(rawIDToken string) string {
	if rawIDToken == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return ""
	}
	for _, name := range labelClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
