package meshy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Task terminal states as reported by the Meshy API.
const (
	taskSucceeded = "SUCCEEDED"
	taskFailed    = "FAILED"
	taskExpired   = "EXPIRED"
)

// Options controls how the Meshy client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	Logger       *zerolog.Logger
	PollInterval time.Duration
}

// Client wraps the Meshy task API: a task is created with one POST and then
// polled until it reaches a terminal state. When no API key is configured the
// client produces deterministic synthetic results so pipelines can run in
// local and CI environments.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	logger       *zerolog.Logger
	pollInterval time.Duration
}

// ModelRequest carries the inputs for a 3D model generation task.
type ModelRequest struct {
	Prompt     string
	ImageURL   string
	Style      string
	Quality    string
	PipelineID string
}

// ModelResult is the normalized 3D generation output.
type ModelResult struct {
	TaskID   string
	ModelURL string
}

// RefineRequest drives post-processing sub-tasks on an existing model.
type RefineRequest struct {
	TaskID     string
	ModelURL   string
	PipelineID string
}

// RefineResult is the output of a rig/retexture sub-task.
type RefineResult struct {
	TaskID   string
	ModelURL string
}

type createTaskRequest struct {
	Mode        string `json:"mode,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ArtStyle    string `json:"art_style,omitempty"`
	TargetPoly  string `json:"target_polycount,omitempty"`
	InputTaskID string `json:"input_task_id,omitempty"`
}

type createTaskResponse struct {
	Result string `json:"result"`
}

type taskResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	ModelURL  string `json:"model_url,omitempty"`
	ModelURLs struct {
		GLB string `json:"glb,omitempty"`
	} `json:"model_urls"`
	TaskError struct {
		Message string `json:"message,omitempty"`
	} `json:"task_error"`
}

type apiErrorResponse struct {
	Message string `json:"message,omitempty"`
}

// NewClient constructs a Meshy client with sane defaults.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.meshy.ai/openapi/v2"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		httpClient:   client,
		logger:       logger,
		pollInterval: interval,
	}
}

// GenerateModel creates a text-to-3d (or image-to-3d when ImageURL is set)
// task and polls it to completion.
func (c *Client) GenerateModel(ctx context.Context, req ModelRequest) (*ModelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return c.syntheticModel(req.PipelineID, "model"), nil
	}

	payload := createTaskRequest{
		Mode:     "preview",
		Prompt:   req.Prompt,
		ImageURL: req.ImageURL,
		ArtStyle: req.Style,
	}
	if req.Quality == "high" {
		payload.TargetPoly = "high"
	}
	path := "/text-to-3d"
	if req.ImageURL != "" {
		path = "/image-to-3d"
	}
	taskID, err := c.createTask(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	task, err := c.pollTask(ctx, path, taskID)
	if err != nil {
		return nil, err
	}
	return &ModelResult{TaskID: task.ID, ModelURL: modelURL(task)}, nil
}

// Rig runs a rigging sub-task against the generated model.
func (c *Client) Rig(ctx context.Context, req RefineRequest) (*RefineResult, error) {
	return c.refine(ctx, "/rigging", req)
}

// Retexture runs a retexturing sub-task against the generated model.
func (c *Client) Retexture(ctx context.Context, req RefineRequest) (*RefineResult, error) {
	return c.refine(ctx, "/retexture", req)
}

func (c *Client) refine(ctx context.Context, path string, req RefineRequest) (*RefineResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		m := c.syntheticModel(req.PipelineID, strings.Trim(path, "/"))
		return &RefineResult{TaskID: m.TaskID, ModelURL: m.ModelURL}, nil
	}
	taskID, err := c.createTask(ctx, path, createTaskRequest{InputTaskID: req.TaskID})
	if err != nil {
		return nil, err
	}
	task, err := c.pollTask(ctx, path, taskID)
	if err != nil {
		return nil, err
	}
	return &RefineResult{TaskID: task.ID, ModelURL: modelURL(task)}, nil
}

func modelURL(task *taskResponse) string {
	if task.ModelURLs.GLB != "" {
		return task.ModelURLs.GLB
	}
	return task.ModelURL
}

func (c *Client) syntheticModel(pipelineID, kind string) *ModelResult {
	sum := sha256.Sum256([]byte(pipelineID + "|" + kind))
	seed := hex.EncodeToString(sum[:8])
	c.logger.Debug().
		Str("pipeline_id", pipelineID).
		Str("kind", kind).
		Msg("meshy: generated synthetic model")
	return &ModelResult{
		TaskID:   "synthetic-" + seed,
		ModelURL: fmt.Sprintf("synthetic://%s/%s.glb", kind, seed),
	}
}

func (c *Client) createTask(ctx context.Context, path string, payload createTaskRequest) (string, error) {
	var response createTaskResponse
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return "", err
	}
	if response.Result == "" {
		return "", fmt.Errorf("meshy: create task returned no id")
	}
	return response.Result, nil
}

// pollTask re-reads the task until Meshy reports a terminal state. The only
// deadline is the caller's context.
func (c *Client) pollTask(ctx context.Context, path, taskID string) (*taskResponse, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		var task taskResponse
		if err := c.invoke(ctx, http.MethodGet, path+"/"+taskID, nil, &task); err != nil {
			return nil, err
		}
		switch task.Status {
		case taskSucceeded:
			return &task, nil
		case taskFailed, taskExpired:
			msg := task.TaskError.Message
			if msg == "" {
				msg = strings.ToLower(task.Status)
			}
			return nil, fmt.Errorf("meshy task %s: %s", taskID, msg)
		}
		c.logger.Debug().
			Str("task_id", taskID).
			Str("status", task.Status).
			Int("progress", task.Progress).
			Msg("meshy: task pending")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke meshy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("meshy status %d: %s", resp.StatusCode, apiErr.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("meshy status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("meshy status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode meshy response: %w", err)
	}
	return nil
}
