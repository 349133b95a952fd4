package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danmuck/qpuctl/internal/credentials"
	"github.com/danmuck/qpuctl/internal/observability"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.quantum-computing.ibm.com/runtime"

// Config holds runtime client settings.
type Config struct {
	BaseURL        string
	Channel        string
	RequestTimeout time.Duration
	PollInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        defaultBaseURL,
		Channel:        "ibm_quantum",
		RequestTimeout: 30 * time.Second,
		PollInterval:   5 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = def.BaseURL
	}
	if strings.TrimSpace(c.Channel) == "" {
		c.Channel = def.Channel
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	return c
}

// Client is the connected handle to the quantum runtime service. It is
// read-only after Connect and reusable across sequential calls; no claims are
// made about concurrent use from multiple goroutines.
type Client struct {
	cfg   Config
	creds credentials.Credentials
	http  *http.Client
}

// Connect establishes the service handle. On a failed account probe it
// persists the credentials once (overwrite allowed) and retries; a second
// failure wraps ErrConnection with the underlying cause.
func Connect(ctx context.Context, creds credentials.Credentials, cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	c := &Client{
		cfg:   cfg,
		creds: creds,
		http:  &http.Client{Timeout: cfg.RequestTimeout},
	}

	if err := c.probeAccount(ctx); err == nil {
		log.Info().Str("instance", creds.Instance).Msg("connected to quantum runtime")
		return c, nil
	}

	log.Info().Str("channel", cfg.Channel).Msg("saving runtime account credentials")
	if err := c.saveAccount(ctx); err != nil {
		return nil, fmt.Errorf("%w: save account: %v (check the credentials in your secrets file)", ErrConnection, err)
	}
	if err := c.probeAccount(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v (check the credentials in your secrets file)", ErrConnection, err)
	}
	log.Info().Str("instance", creds.Instance).Msg("credentials saved, connected to quantum runtime")
	return c, nil
}

// PollInterval exposes the configured job status poll cadence.
func (c *Client) PollInterval() time.Duration {
	return c.cfg.PollInterval
}

func (c *Client) probeAccount(ctx context.Context) error {
	q := url.Values{}
	q.Set("channel", c.cfg.Channel)
	q.Set("instance", c.creds.Instance)
	return c.do(ctx, http.MethodGet, "/account?"+q.Encode(), "account.probe", nil, nil)
}

func (c *Client) saveAccount(ctx context.Context) error {
	body := saveAccountPayload{
		Channel:   c.cfg.Channel,
		Token:     c.creds.APIKey,
		Instance:  c.creds.Instance,
		Overwrite: true,
	}
	return c.do(ctx, http.MethodPost, "/account", "account.save", body, nil)
}

// Backends returns the full backend listing with adapter defaults applied.
func (c *Client) Backends(ctx context.Context) ([]BackendInfo, error) {
	var payload backendListPayload
	if err := c.do(ctx, http.MethodGet, "/backends", "backends", nil, &payload); err != nil {
		return nil, fmt.Errorf("list backends: %w", err)
	}
	infos := make([]BackendInfo, 0, len(payload.Devices))
	for _, device := range payload.Devices {
		info := device.toInfo()
		if info.Name == "" {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Session is a scoped execution reservation against one backend. Close
// detaches the local reference; it never cancels jobs submitted through it.
type Session struct {
	client  *Client
	id      string
	backend string
	closed  bool
}

// OpenSession reserves an execution session on the named backend.
func (c *Client) OpenSession(ctx context.Context, backend string) (*Session, error) {
	backend = strings.TrimSpace(backend)
	if backend == "" {
		return nil, fmt.Errorf("open session: backend name required")
	}
	var payload sessionPayload
	if err := c.do(ctx, http.MethodPost, "/sessions", "sessions.open", openSessionPayload{Backend: backend}, &payload); err != nil {
		return nil, fmt.Errorf("open session on %s: %w", backend, err)
	}
	return &Session{client: c, id: payload.ID, backend: backend}, nil
}

func (s *Session) ID() string      { return s.id }
func (s *Session) Backend() string { return s.backend }

// Close releases the session reservation. Idempotent. Uses its own short
// deadline so release still happens when the caller's context is cancelled.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	ctx, cancel := context.WithTimeout(context.Background(), s.client.cfg.RequestTimeout)
	defer cancel()
	if err := s.client.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(s.id), "sessions.close", nil, nil); err != nil {
		return fmt.Errorf("close session %s: %w", s.id, err)
	}
	return nil
}

// SubmitJob enqueues one execution and returns the job identifier as soon as
// the remote queue accepts it.
func (s *Session) SubmitJob(ctx context.Context, spec JobSpec) (string, error) {
	if spec.Shots <= 0 {
		return "", fmt.Errorf("submit job: shots must be positive, got %d", spec.Shots)
	}
	if strings.TrimSpace(spec.Program) == "" {
		return "", fmt.Errorf("submit job: empty program")
	}
	body := submitJobPayload{
		SessionID:         s.id,
		Program:           spec.Program,
		Shots:             spec.Shots,
		OptimizationLevel: spec.OptimizationLevel,
	}
	var payload jobPayload
	if err := s.client.do(ctx, http.MethodPost, "/jobs", "jobs.submit", body, &payload); err != nil {
		return "", fmt.Errorf("submit job on %s: %w", s.backend, err)
	}
	return payload.ID, nil
}

// JobStatus queries the remote lifecycle state for one job id.
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	var payload jobPayload
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), "jobs.status", nil, &payload)
	if err != nil {
		if httpStatus(err) == http.StatusNotFound {
			return "", fmt.Errorf("%w: job %q: %v", ErrLookup, jobID, err)
		}
		return "", fmt.Errorf("job status %s: %w", jobID, err)
	}
	status := JobStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
	switch status {
	case StatusQueued, StatusRunning, StatusDone, StatusError, StatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("job status %s: unrecognized status %q", jobID, payload.Status)
}

// JobError returns the remote failure reason for a job in error status.
func (c *Client) JobError(ctx context.Context, jobID string) string {
	var payload jobPayload
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), "jobs.status", nil, &payload); err != nil {
		return ""
	}
	return payload.Reason
}

// JobResults fetches the measurement histogram for a completed job. The
// histogram is validated at this boundary: keys must share the declared
// width and the total must be positive.
func (c *Client) JobResults(ctx context.Context, jobID string) (Histogram, error) {
	var payload jobResultsPayload
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/results", "jobs.results", nil, &payload)
	if err != nil {
		if httpStatus(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: job %q: %v", ErrLookup, jobID, err)
		}
		return nil, fmt.Errorf("%w: fetch results for %s: %v", ErrExecution, jobID, err)
	}

	hist := Histogram(payload.Counts)
	total := hist.TotalShots()
	if total <= 0 {
		return nil, fmt.Errorf("%w: job %s returned an empty histogram", ErrExecution, jobID)
	}
	width := payload.Width
	if width == 0 {
		for state := range hist {
			width = len(state)
			break
		}
	}
	for state, count := range hist {
		if len(state) != width {
			return nil, fmt.Errorf("%w: job %s histogram key %q does not match width %d", ErrExecution, jobID, state, width)
		}
		if count < 0 {
			return nil, fmt.Errorf("%w: job %s histogram has negative count for %q", ErrExecution, jobID, state)
		}
	}
	return hist, nil
}

// statusError carries the HTTP status through error wrapping.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if strings.TrimSpace(e.message) == "" {
		return fmt.Sprintf("runtime api status %d", e.status)
	}
	return fmt.Sprintf("runtime api status %d: %s", e.status, e.message)
}

func httpStatus(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

func (c *Client) do(ctx context.Context, method, path, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.APIKey)
	req.Header.Set("Service-CRN", c.creds.Instance)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordRuntimeRequest(endpoint, 0, time.Since(start))
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	observability.RecordRuntimeRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorPayload
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		_ = json.Unmarshal(raw, &apiErr)
		return fmt.Errorf("%s: %w", endpoint, &statusError{status: resp.StatusCode, message: apiErr.Error})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
	}
	return nil
}
