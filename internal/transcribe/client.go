package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client calls the transcription backend's segment endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a backend client. The timeout covers the whole upload
// and transcription round-trip, so size it for long audio.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "transcribe").Logger(),
	}
}

// Options are per-request knobs forwarded to the backend as query
// parameters. Zero values are omitted so the backend's defaults apply.
type Options struct {
	Language  string // ISO-639-1 hint, e.g. "en"
	BeamSize  int    // decoder beam width, 1-10
	VadFilter *bool  // voice activity detection pre-filter
}

// BackendError is a non-2xx response from the backend. Detail carries the
// backend's structured {"detail": ...} message when one was parsable.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("transcription failed (status %d)", e.Status)
}

// Segment uploads one audio file and returns the transcript. Transport
// errors propagate as-is; HTTP errors come back as *BackendError.
func (c *Client) Segment(ctx context.Context, filename string, audio io.Reader, opts Options) (*Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	q := url.Values{}
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		q.Set("language", lang)
	}
	if opts.BeamSize > 0 {
		q.Set("beam_size", strconv.Itoa(opts.BeamSize))
	}
	if opts.VadFilter != nil {
		q.Set("vad_filter", strconv.FormatBool(*opts.VadFilter))
	}
	endpoint := c.baseURL + "/api/transcribe/segment"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		be := &BackendError{Status: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &detail); err == nil {
			be.Detail = detail.Detail
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("detail", be.Detail).Msg("backend rejected upload")
		return nil, be
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.log.Debug().
		Str("filename", filename).
		Str("language", result.Language).
		Int("segments", len(result.Segments)).
		Dur("elapsed", time.Since(start)).
		Msg("segment transcribed")
	return &result, nil
}

// Ping checks backend reachability via its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health returned status %d", resp.StatusCode)
	}
	return nil
}
