package voiceapi

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

	"github.com/google/uuid"

	"simwatch/internal/config"
	"simwatch/internal/services"
	"simwatch/internal/sim"
)

// HTTPDoer describes the HTTP client used by the store client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the call batch store.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a store client.
func New(baseURL, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("voiceapi base url required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig creates a store client from application configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("voiceapi config required")
	}
	return New(cfg.API.BaseURL, cfg.API.Token, time.Duration(cfg.API.TimeoutSeconds)*time.Second, opts...)
}

// BatchDetails fetches the batch record with all jobs and nested calls.
func (c *Client) BatchDetails(ctx context.Context, batchID string) (*BatchDetails, error) {
	var payload BatchDetails
	if err := c.get(ctx, "batch details", "/api/v1/calls/batch/"+url.PathEscape(batchID)+"/details", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// BatchAnalysis fetches the current analysis summary and results for a batch.
func (c *Client) BatchAnalysis(ctx context.Context, batchID string) (*BatchAnalysis, error) {
	var payload BatchAnalysis
	if err := c.get(ctx, "batch analysis", "/api/v1/calls/batch/"+url.PathEscape(batchID)+"/analysis", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// JobStatus fetches a single job record.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*sim.Job, error) {
	var payload sim.Job
	if err := c.get(ctx, "job status", "/api/v1/calls/status/"+url.PathEscape(jobID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AnalyzeCall triggers analysis of a single call, addressed by its UUID.
func (c *Client) AnalyzeCall(ctx context.Context, callUUID string) (*sim.AnalysisResult, error) {
	var payload sim.AnalysisResult
	if err := c.post(ctx, "analyze call", "/api/v1/calls/call/"+url.PathEscape(callUUID)+"/analyze", nil, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AnalyzeBatch triggers bulk re-analysis of every eligible call in a batch.
// A receipt with status "no_calls" means nothing was started.
func (c *Client) AnalyzeBatch(ctx context.Context, batchID string, forceRefresh bool) (*BatchAnalyzeReceipt, error) {
	query := url.Values{}
	if forceRefresh {
		query.Set("force_refresh", "true")
	}
	var payload BatchAnalyzeReceipt
	if err := c.post(ctx, "analyze batch", "/api/v1/calls/batch/"+url.PathEscape(batchID)+"/analyze", query, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// RetryJob creates a fresh job from a failed one and returns the new job id.
// The original job is preserved on the backend.
func (c *Client) RetryJob(ctx context.Context, jobID string) (string, error) {
	var payload retryReceipt
	if err := c.post(ctx, "retry job", "/api/v1/calls/job/"+url.PathEscape(jobID)+"/retry", nil, nil, &payload); err != nil {
		return "", err
	}
	if payload.JobID == "" {
		return "", services.Wrap(services.ErrBackend, "voiceapi", "retry job", "backend returned no job id", nil)
	}
	return payload.JobID, nil
}

// PhoneNumbers fetches the telephony slot inventory, optionally restricted to
// a country prefix.
func (c *Client) PhoneNumbers(ctx context.Context, countryCode string) (*NumberInventory, error) {
	var query url.Values
	if countryCode = strings.TrimSpace(countryCode); countryCode != "" {
		query = url.Values{}
		query.Set("country_code", countryCode)
	}
	var payload NumberInventory
	if err := c.get(ctx, "phone numbers", "/api/v1/telephony/numbers", query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ActivateJobs asks the backend to assign numbers to the given inactive jobs.
// The backend performs the actual assignment and reports it per job.
func (c *Client) ActivateJobs(ctx context.Context, batchID string, jobIDs []string, countryCode string) (*ActivationReceipt, error) {
	var query url.Values
	if countryCode = strings.TrimSpace(countryCode); countryCode != "" {
		query = url.Values{}
		query.Set("country_code", countryCode)
	}
	body := map[string]any{"job_ids": jobIDs}
	var payload ActivationReceipt
	if err := c.post(ctx, "activate jobs", "/api/v1/inbound/batch/"+url.PathEscape(batchID)+"/activate", query, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeactivateJobs releases the numbers held by the given active jobs.
func (c *Client) DeactivateJobs(ctx context.Context, batchID string, jobIDs []string) (*DeactivationReceipt, error) {
	body := map[string]any{"job_ids": jobIDs}
	var payload DeactivationReceipt
	if err := c.post(ctx, "deactivate jobs", "/api/v1/inbound/batch/"+url.PathEscape(batchID)+"/deactivate", nil, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FreeNumber forces release of a phone number. The backend refuses when a
// job on that number is mid-call.
func (c *Client) FreeNumber(ctx context.Context, phoneNumber string) error {
	body := map[string]any{"phone_number": phoneNumber}
	return c.post(ctx, "free number", "/api/v1/telephony/numbers/free", nil, body, nil)
}

// GeneratePayloads asks the backend to generate call payloads for a batch
// from the supplied field definitions.
func (c *Client) GeneratePayloads(ctx context.Context, batchID string, fields []FieldDefinition, regenerate bool) (*PayloadGenerationReceipt, error) {
	body := map[string]any{
		"field_definitions":   fields,
		"regenerate_existing": regenerate,
	}
	var payload PayloadGenerationReceipt
	if err := c.post(ctx, "generate payloads", "/api/v1/calls/batch/"+url.PathEscape(batchID)+"/generate-payloads", nil, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	return c.do(ctx, operation, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, operation, path string, query url.Values, body, out any) error {
	return c.do(ctx, operation, http.MethodPost, path, query, body, out)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "voiceapi", operation, "encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return services.Wrap(services.ErrValidation, "voiceapi", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.backendError(operation, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrBackend, "voiceapi", operation, "decode response", err)
	}
	return nil
}

// backendError surfaces the backend-provided message verbatim when present,
// a generic status line otherwise.
func (c *Client) backendError(operation string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var parsed errorBody
	message := ""
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Detail != "" {
			message = parsed.Detail
		} else if parsed.Message != "" {
			message = parsed.Message
		}
	}
	if message == "" {
		message = fmt.Sprintf("store returned status %d", resp.StatusCode)
	}
	return services.Wrap(services.ErrBackend, "voiceapi", operation, message, nil)
}

func classifyTransportError(operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrNetwork, "voiceapi", operation, "request canceled", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "voiceapi", operation, "request timed out", err)
	}
	return services.Wrap(services.ErrNetwork, "voiceapi", operation, "request failed", err)
}
