package meshy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		APIKey:       "msy-test",
		BaseURL:      baseURL,
		PollInterval: 5 * time.Millisecond,
	})
}

func TestGenerateModelCreatesAndPolls(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer msy-test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/text-to-3d":
			var req createTaskRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "preview", req.Mode)
			assert.NotEmpty(t, req.Prompt)
			json.NewEncoder(w).Encode(createTaskResponse{Result: "task-42"})
		case r.Method == http.MethodGet && r.URL.Path == "/text-to-3d/task-42":
			task := taskResponse{ID: "task-42"}
			if polls.Add(1) < 3 {
				task.Status = "IN_PROGRESS"
				task.Progress = 50
			} else {
				task.Status = taskSucceeded
				task.ModelURLs.GLB = "https://assets.meshy.ai/task-42.glb"
			}
			json.NewEncoder(w).Encode(task)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).GenerateModel(context.Background(), ModelRequest{
		Prompt:     "a low-poly quest giver",
		PipelineID: "p-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-42", res.TaskID)
	assert.Equal(t, "https://assets.meshy.ai/task-42.glb", res.ModelURL)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestGenerateModelUsesImageToThreeDWithReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/image-to-3d":
			var req createTaskRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "https://cdn.test/art.png", req.ImageURL)
			json.NewEncoder(w).Encode(createTaskResponse{Result: "task-7"})
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(taskResponse{ID: "task-7", Status: taskSucceeded, ModelURL: "https://assets.meshy.ai/task-7.glb"})
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).GenerateModel(context.Background(), ModelRequest{
		Prompt:     "a sword",
		ImageURL:   "https://cdn.test/art.png",
		PipelineID: "p-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://assets.meshy.ai/task-7.glb", res.ModelURL)
}

func TestGenerateModelTaskFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(createTaskResponse{Result: "task-9"})
			return
		}
		task := taskResponse{ID: "task-9", Status: taskFailed}
		task.TaskError.Message = "mesh generation exceeded quota"
		json.NewEncoder(w).Encode(task)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateModel(context.Background(), ModelRequest{Prompt: "x", PipelineID: "p-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mesh generation exceeded quota")
}

func TestPollTaskHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(createTaskResponse{Result: "task-1"})
			return
		}
		json.NewEncoder(w).Encode(taskResponse{ID: "task-1", Status: "PENDING"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := newTestClient(srv.URL).GenerateModel(ctx, ModelRequest{Prompt: "x", PipelineID: "p-4"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefineSubTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rigging":
			var req createTaskRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "task-base", req.InputTaskID)
			json.NewEncoder(w).Encode(createTaskResponse{Result: "task-rig"})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/rigging/"):
			json.NewEncoder(w).Encode(taskResponse{ID: "task-rig", Status: taskSucceeded, ModelURL: "https://assets.meshy.ai/rigged.glb"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Rig(context.Background(), RefineRequest{TaskID: "task-base", PipelineID: "p-5"})
	require.NoError(t, err)
	assert.Equal(t, "task-rig", res.TaskID)
	assert.Equal(t, "https://assets.meshy.ai/rigged.glb", res.ModelURL)
}

func TestSyntheticModelWithoutAPIKey(t *testing.T) {
	c := NewClient(Options{})
	first, err := c.GenerateModel(context.Background(), ModelRequest{Prompt: "x", PipelineID: "p-6"})
	require.NoError(t, err)
	second, err := c.GenerateModel(context.Background(), ModelRequest{Prompt: "x", PipelineID: "p-6"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.ModelURL, "synthetic://"))
	assert.Equal(t, first.ModelURL, second.ModelURL)
}

func TestCreateTaskSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(apiErrorResponse{Message: "insufficient credits"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateModel(context.Background(), ModelRequest{Prompt: "x", PipelineID: "p-7"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient credits")
}
