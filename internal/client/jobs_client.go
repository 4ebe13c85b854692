package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/deanwaring-hub/voicecraft/internal/config"
	"github.com/deanwaring-hub/voicecraft/internal/model"
)

// ErrJobNotFound is returned when the backend answers 404 for a job — the job
// was deleted or never materialized server-side.
var ErrJobNotFound = errors.New("job not found")

// APIError is a non-2xx, non-404 response from the jobs API. The poller treats
// it as transient; one-shot operations surface it to the user.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jobs API error (status %d): %s", e.StatusCode, e.Body)
}

// JobsAPI defines the REST operations the narration backend exposes.
type JobsAPI interface {
	GetJob(ctx context.Context, token, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, token, userID string) ([]model.Job, error)
	DeleteJob(ctx context.Context, token, jobID string) error
	GetDownloadURL(ctx context.Context, token, outputKey string) (string, error)
}

// JobsClient implements JobsAPI over HTTP.
type JobsClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewJobsClient creates a new jobs API client
func NewJobsClient(cfg *config.APIConfig) *JobsClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobsClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.BaseURL,
	}
}

// GetJob fetches one job by id. Returns ErrJobNotFound on 404.
func (c *JobsClient) GetJob(ctx context.Context, token, jobID string) (*model.Job, error) {
	endpoint := fmt.Sprintf("/jobs/%s", url.PathEscape(jobID))
	var job model.Job
	if err := c.get(ctx, token, endpoint, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs fetches all jobs for a user.
func (c *JobsClient) ListJobs(ctx context.Context, token, userID string) ([]model.Job, error) {
	endpoint := "/jobs?userId=" + url.QueryEscape(userID)
	var jobs []model.Job
	if err := c.get(ctx, token, endpoint, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// DeleteJob removes a job. 200 and 204 both count as success.
func (c *JobsClient) DeleteJob(ctx context.Context, token, jobID string) error {
	endpoint := fmt.Sprintf("/jobs/%s", url.PathEscape(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.doRequest(req, token, nil)
}

// GetDownloadURL mints a pre-signed, time-limited download link for a finished
// artifact. Links are requested close to the moment of use, never cached.
func (c *JobsClient) GetDownloadURL(ctx context.Context, token, outputKey string) (string, error) {
	endpoint := "/download-url?key=" + url.QueryEscape(outputKey)
	var result struct {
		URL string `json:"url"`
	}
	if err := c.get(ctx, token, endpoint, &result); err != nil {
		return "", err
	}
	return result.URL, nil
}

// get sends a GET request and parses the JSON response
func (c *JobsClient) get(ctx context.Context, token, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.doRequest(req, token, result)
}

// doRequest executes an HTTP request and parses the response
func (c *JobsClient) doRequest(req *http.Request, token string, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	log.Printf("[Jobs API] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Jobs API] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Jobs API] ✗ %s %s — failed to read response: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[Jobs API] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	if resp.StatusCode == http.StatusNotFound {
		return ErrJobNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		log.Printf("[Jobs API] ✗ unmarshal error for %s %s: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
