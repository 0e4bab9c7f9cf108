package auth

import "testing"

// ── NewVerifier ─────────────────────────────────────────────────────────

func TestNewVerifier_Length(t *testing.T) {
	v, err := NewVerifier()
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	// 64 bytes → 86 base64url chars, within RFC 7636's 43-128 range.
	if len(v) != 86 {
		t.Errorf("len(verifier) = %d, want 86", len(v))
	}
}

func TestNewVerifier_Unique(t *testing.T) {
	a, err := NewVerifier()
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	b, err := NewVerifier()
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if a == b {
		t.Error("two verifiers are identical")
	}
}

// ── Challenge ───────────────────────────────────────────────────────────

func TestChallenge_RFC7636Vector(t *testing.T) {
	// Test vector from RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := Challenge(verifier); got != want {
		t.Errorf("Challenge(%q) = %q, want %q", verifier, got, want)
	}
}

func TestChallenge_Deterministic(t *testing.T) {
	v, err := NewVerifier()
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if Challenge(v) != Challenge(v) {
		t.Error("Challenge is not deterministic")
	}
}
