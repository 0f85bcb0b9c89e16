package quantum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quantumLottoServer/config"
)

var (
	ErrNoToken          = errors.New("missing IBM Quantum API token")
	ErrInstanceRequired = errors.New("service instance required, set IBM_QUANTUM_INSTANCE to your instance CRN")
	ErrNoBackend        = errors.New("no operational backend with enough qubits")
	ErrJobFailed        = errors.New("quantum job failed")
)

// Runtime job states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// Config holds the credentials and endpoints for one runtime client.
// Callers construct a Client explicitly and pass it where it is needed;
// nothing is cached process-wide.
type Config struct {
	Token    string
	Instance string // IBM Cloud CRN, required by some accounts
	BaseURL  string
	Timeout  time.Duration
}

// Client talks to the IBM Quantum Runtime REST API. It is stateless
// apart from its credentials and safe for concurrent use.
type Client struct {
	token    string
	instance string
	baseURL  string
	http     *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.IBMRuntimeBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = config.HTTPTimeout
	}
	return &Client{
		token:    cfg.Token,
		instance: cfg.Instance,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type Backend struct {
	Name        string `json:"backend_name"`
	Qubits      int    `json:"n_qubits"`
	Simulator   bool   `json:"simulator"`
	Operational bool   `json:"operational"`
}

type BackendStatus struct {
	Name        string `json:"backend_name"`
	Operational bool   `json:"operational"`
	QueueLength int    `json:"length_queue"`
	Message     string `json:"message,omitempty"`
}

type JobInfo struct {
	ID      string `json:"id"`
	Backend string `json:"backend"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// JobOutcome is the final product of one sampler run.
type JobOutcome struct {
	JobID   string
	Backend string
	Status  string
	Counts  map[string]int
}

func (c *Client) ListBackends(ctx context.Context) ([]Backend, error) {
	var out struct {
		Devices []Backend `json:"devices"`
	}
	if err := c.do(ctx, http.MethodGet, "/backends", nil, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

func (c *Client) BackendStatus(ctx context.Context, name string) (BackendStatus, error) {
	var out BackendStatus
	err := c.do(ctx, http.MethodGet, "/backends/"+name+"/status", nil, &out)
	return out, err
}

// LeastBusy picks the operational hardware backend with at least
// minQubits qubits and the shortest job queue.
func (c *Client) LeastBusy(ctx context.Context, minQubits int) (Backend, error) {
	devices, err := c.ListBackends(ctx)
	if err != nil {
		return Backend{}, err
	}

	var best Backend
	bestQueue := -1
	for _, d := range devices {
		if d.Simulator || !d.Operational || d.Qubits < minQubits {
			continue
		}
		status, err := c.BackendStatus(ctx, d.Name)
		if err != nil || !status.Operational {
			continue
		}
		if bestQueue < 0 || status.QueueLength < bestQueue {
			best = d
			bestQueue = status.QueueLength
		}
	}
	if bestQueue < 0 {
		return Backend{}, fmt.Errorf("%w: need %d qubits", ErrNoBackend, minQubits)
	}
	return best, nil
}

// SubmitJob sends one circuit to the sampler primitive and returns the
// runtime job id.
func (c *Client) SubmitJob(ctx context.Context, backend, qasm string, shots int) (string, error) {
	payload := map[string]any{
		"program_id": "sampler",
		"backend":    backend,
		"params": map[string]any{
			"circuits":           []string{qasm},
			"shots":              shots,
			"optimization_level": config.TranspileOptimizationLevel,
		},
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/jobs", payload, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) JobStatus(ctx context.Context, jobID string) (JobInfo, error) {
	var out JobInfo
	err := c.do(ctx, http.MethodGet, "/jobs/"+jobID, nil, &out)
	return out, err
}

func (c *Client) JobResults(ctx context.Context, jobID string) (map[string]int, error) {
	var out struct {
		Counts map[string]int `json:"counts"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs/"+jobID+"/results", nil, &out); err != nil {
		return nil, err
	}
	return out.Counts, nil
}

func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/jobs/"+jobID+"/cancel", nil, nil)
}

// RunSampler submits a circuit and polls until the job reaches a
// terminal state or the context expires. On context expiry the job is
// cancelled best-effort before returning.
func (c *Client) RunSampler(ctx context.Context, backend, qasm string, shots int) (JobOutcome, error) {
	jobID, err := c.SubmitJob(ctx, backend, qasm, shots)
	if err != nil {
		return JobOutcome{}, err
	}
	outcome := JobOutcome{JobID: jobID, Backend: backend, Status: JobQueued}

	ticker := time.NewTicker(config.JobPollInterval)
	defer ticker.Stop()

	for {
		info, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return outcome, err
		}
		outcome.Status = info.Status

		switch info.Status {
		case JobCompleted:
			counts, err := c.JobResults(ctx, jobID)
			if err != nil {
				return outcome, err
			}
			outcome.Counts = counts
			return outcome, nil
		case JobFailed:
			if info.Reason != "" {
				return outcome, fmt.Errorf("%w: %s", ErrJobFailed, info.Reason)
			}
			return outcome, ErrJobFailed
		case JobCancelled:
			return outcome, fmt.Errorf("%w: job was cancelled", ErrJobFailed)
		}

		select {
		case <-ctx.Done():
			cancelCtx, cancel := context.WithTimeout(context.Background(), config.HTTPTimeout)
			c.CancelJob(cancelCtx, jobID)
			cancel()
			return outcome, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if c.instance != "" {
		req.Header.Set("Service-CRN", c.instance)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) apiError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(raw))

	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(raw, &payload) == nil && len(payload.Errors) > 0 {
		message = payload.Errors[0].Message
	}

	// Accounts bound to a specific service instance reject requests
	// that omit the CRN; surface the fix instead of the raw rejection.
	if c.instance == "" && strings.Contains(strings.ToLower(message), "instance") {
		return fmt.Errorf("%w: %s", ErrInstanceRequired, message)
	}
	return fmt.Errorf("%s %s failed (%d): %s", method, path, resp.StatusCode, message)
}
