package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"scribe-portal/internal/auth"
	"scribe-portal/internal/config"
	"scribe-portal/internal/metrics"
	"scribe-portal/internal/transcribe"
)

// pageData is the view model shared by both page variants.
type pageData struct {
	Variant       string
	LoginEnabled  bool
	Authenticated bool
	UserLabel     string
	Error         string
	Language      string // echoed language hint
	Result        *transcribe.Result
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tpl *template.Template
}

// NewRenderer parses all page templates from the given FS.
func NewRenderer(files fs.FS) (*Renderer, error) {
	tpl, err := template.New("").Funcs(template.FuncMap{
		"secs": formatSeconds,
	}).ParseFS(files, "*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl}, nil
}

// formatSeconds renders a segment timestamp like "12.4" or "0".
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// Render writes a page. Template execution happens into a buffer first so a
// failure can still return a clean 500.
func (re *Renderer) Render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := re.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// PortalHandler serves the page variants and the upload form submission.
type PortalHandler struct {
	renderer  *Renderer
	gate      *auth.Gate
	backend   *transcribe.Client
	variant   string
	maxUpload int64
	secure    bool
	log       zerolog.Logger

	inflight  sync.Map // user key → struct{}
	inflightN atomic.Int64
}

// NewPortalHandler creates the page handler for the configured variant.
func NewPortalHandler(renderer *Renderer, gate *auth.Gate, backend *transcribe.Client, cfg *config.Config, log zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		renderer:  renderer,
		gate:      gate,
		backend:   backend,
		variant:   cfg.PageVariant,
		maxUpload: cfg.MaxUploadBytes,
		secure:    cfg.SecureCookies,
		log:       log.With().Str("handler", "portal").Logger(),
	}
}

// Routes registers the page endpoints.
func (h *PortalHandler) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Post("/transcribe", h.Transcribe)
}

// UploadsInFlight reports how many uploads are currently waiting on the
// backend. Exposed for the metrics collector.
func (h *PortalHandler) UploadsInFlight() int {
	return int(h.inflightN.Load())
}

func (h *PortalHandler) baseData(store auth.Storage) pageData {
	data := pageData{
		Variant:       h.variant,
		LoginEnabled:  h.gate.Config().Enabled(),
		Authenticated: auth.Authenticated(store),
	}
	if raw, ok := store.Get(auth.KeyIDToken); ok {
		data.UserLabel = auth.UserLabel(raw)
	}
	return data
}

// Home renders the configured page variant. An error query parameter (set by
// the provider redirect or by our own auth handlers) renders as inline text.
func (h *PortalHandler) Home(w http.ResponseWriter, r *http.Request) {
	store := auth.NewCookieStorage(w, r, h.secure)
	data := h.baseData(store)
	data.Error = r.URL.Query().Get("error")
	h.renderer.Render(w, http.StatusOK, h.variant, data)
}

// Transcribe handles the upload form submission. Without a selected file no
// backend request is made. A second submission from the same user while one
// is in flight is a no-op.
func (h *PortalHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	store := auth.NewCookieStorage(w, r, h.secure)
	data := h.baseData(store)

	if !data.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	key := userKey(store)
	if _, busy := h.inflight.LoadOrStore(key, struct{}{}); busy {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.inflightN.Add(1)
	defer func() {
		h.inflight.Delete(key)
		h.inflightN.Add(-1)
	}()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		data.Error = "invalid upload: " + err.Error()
		h.renderer.Render(w, http.StatusBadRequest, h.variant, data)
		return
	}
	defer r.MultipartForm.RemoveAll()

	data.Language = strings.TrimSpace(r.FormValue("language"))

	file, header, err := r.FormFile("file")
	if err != nil {
		data.Error = "choose an audio file first"
		h.renderer.Render(w, http.StatusOK, h.variant, data)
		return
	}
	defer file.Close()

	opts := transcribe.Options{Language: data.Language}
	if v := r.FormValue("beam_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 10 {
			opts.BeamSize = n
		}
	}
	switch r.FormValue("vad_filter") {
	case "true":
		t := true
		opts.VadFilter = &t
	case "false":
		f := false
		opts.VadFilter = &f
	}

	start := time.Now()
	result, err := h.backend.Segment(r.Context(), header.Filename, file, opts)
	metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		h.log.Warn().Err(err).Str("filename", header.Filename).Msg("transcription failed")
		data.Error = err.Error()
		h.renderer.Render(w, http.StatusOK, h.variant, data)
		return
	}

	metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()
	data.Result = result
	h.renderer.Render(w, http.StatusOK, h.variant, data)
}

// userKey identifies a user for the in-flight guard. Token values are hashed
// so they never end up as map keys in heap dumps.
func userKey(store auth.Storage) string {
	raw, ok := store.Get(auth.KeyIDToken)
	if !ok {
		raw, _ = store.Get(auth.KeyAccessToken)
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
