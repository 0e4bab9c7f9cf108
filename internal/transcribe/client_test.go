package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(url string) *Client {
	return NewClient(url, 30*time.Second, zerolog.Nop())
}

// ── Segment ─────────────────────────────────────────────────────────────

func TestSegment_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/transcribe/segment" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.wav" {
			t.Errorf("filename = %q, want clip.wav", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "RIFF-fake-audio" {
			t.Errorf("file body = %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"text": "hello world",
			"language": "en",
			"segments": [
				{"start": 0, "end": 1.28, "text": "hello", "confidence": 0.97,
				 "words": [{"start": 0, "end": 0.6, "word": "hello", "probability": 0.99}]},
				{"start": 1.28, "end": 2.5, "text": "world"}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.Segment(context.Background(), "clip.wav", strings.NewReader("RIFF-fake-audio"), Options{Language: "en"})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if got.Text != "hello world" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Language != "en" {
		t.Errorf("Language = %q", got.Language)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(got.Segments))
	}
	s0 := got.Segments[0]
	if s0.End != 1.28 || s0.Text != "hello" {
		t.Errorf("segment 0 = %+v", s0)
	}
	if s0.Confidence == nil || *s0.Confidence != 0.97 {
		t.Errorf("segment 0 confidence = %v, want 0.97", s0.Confidence)
	}
	if len(s0.Words) != 1 || s0.Words[0].Word != "hello" {
		t.Errorf("segment 0 words = %+v", s0.Words)
	}
	if got.Segments[1].Confidence != nil {
		t.Error("segment 1 confidence should be nil when absent")
	}
}

func TestSegment_NullLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hi", "language": null, "segments": []}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Segment(context.Background(), "a.wav", strings.NewReader("x"), Options{})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if got.Language != "" {
		t.Errorf("Language = %q, want empty for null", got.Language)
	}
}

func TestSegment_OptionQueryParams(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"text":"","language":null,"segments":[]}`))
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	vad := false
	_, err := c.Segment(context.Background(), "a.wav", strings.NewReader("x"), Options{
		Language:  "  de  ", // trimmed before sending
		BeamSize:  8,
		VadFilter: &vad,
	})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	for _, want := range []string{"language=de", "beam_size=8", "vad_filter=false"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestSegment_ZeroOptionsOmitted(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"text":"","language":null,"segments":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Segment(context.Background(), "a.wav", strings.NewReader("x"), Options{})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if query != "" {
		t.Errorf("query = %q, want empty", query)
	}
}

// ── Error handling ──────────────────────────────────────────────────────

func TestSegment_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte(`{"detail":"file too large"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Segment(context.Background(), "a.wav", strings.NewReader("x"), Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	be, ok := err.(*BackendError)
	if !ok {
		t.Fatalf("error type = %T, want *BackendError", err)
	}
	if be.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("Status = %d", be.Status)
	}
	if err.Error() != "file too large" {
		t.Errorf("Error() = %q, want the backend detail verbatim", err.Error())
	}
}

func TestSegment_ErrorUnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Segment(context.Background(), "a.wav", strings.NewReader("x"), Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "transcription failed (status 500)" {
		t.Errorf("Error() = %q, want the generic fallback", err.Error())
	}
}

// ── Ping ────────────────────────────────────────────────────────────────

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestPing_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).Ping(context.Background()); err == nil {
		t.Error("expected error for 503 health response")
	}
}
