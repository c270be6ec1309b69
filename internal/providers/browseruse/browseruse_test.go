package browseruse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/pkg/schema"
)

func testStore(t *testing.T, baseURL string) *config.Store {
	t.Helper()
	store := config.NewStore(config.WithEnv(func(string) string { return "" }))
	_, err := store.Get(Spec(), map[string]string{"api_key": "bu-key", "base_url": baseURL})
	require.NoError(t, err)
	return store
}

func findAction(t *testing.T, store *config.Store, client *httpx.Client, name string) func(context.Context, map[string]any) (string, error) {
	t.Helper()
	for _, a := range (Provider{}).Actions(store, client) {
		if a.Name() == name {
			return a.Invoke
		}
	}
	t.Fatalf("action %q not found", name)
	return nil
}

func TestRunTask_WaitReturnsOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/run-task":
			assert.Equal(t, "Bearer bu-key", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id": "task-1"}`))
		case "/task/task-1":
			w.Write([]byte(`{"status": "finished", "output": "pricing table extracted"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	store := testStore(t, srv.URL)
	invoke := findAction(t, store, httpx.NewClient(0), "browseruse.run_task")

	out, err := invoke(context.Background(), map[string]any{"task": "extract the pricing table"})
	require.NoError(t, err)
	assert.Contains(t, out, "Browser task task-1 finished.")
	assert.Contains(t, out, "pricing table extracted")
}

func TestRunTask_NoWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/run-task", r.URL.Path)
		w.Write([]byte(`{"id": "task-2"}`))
	}))
	defer srv.Close()

	store := testStore(t, srv.URL)
	invoke := findAction(t, store, httpx.NewClient(0), "browseruse.run_task")

	out, err := invoke(context.Background(), map[string]any{"task": "anything", "wait": false})
	require.NoError(t, err)
	assert.Contains(t, out, "task-2")
	assert.Contains(t, out, "browseruse.check_task_status")
}

func TestCheckTaskStatus_MapsProviderStatuses(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"stopped counts as failed", `{"status": "stopped"}`, "failed (status: stopped)"},
		{"failed", `{"status": "failed"}`, "failed (status: failed)"},
		{"running passes through", `{"status": "running"}`, "still running (status: running)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.response))
			}))
			defer srv.Close()

			store := testStore(t, srv.URL)
			invoke := findAction(t, store, httpx.NewClient(0), "browseruse.check_task_status")

			out, err := invoke(context.Background(), map[string]any{"task_id": "task-3"})
			require.NoError(t, err)
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestRunTask_MissingKey(t *testing.T) {
	store := config.NewStore(config.WithEnv(func(string) string { return "" }))
	invoke := findAction(t, store, httpx.NewClient(0), "browseruse.run_task")

	_, err := invoke(context.Background(), map[string]any{"task": "anything"})
	require.Error(t, err)

	var terr *schema.ToolError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, schema.ErrCodeConfiguration, terr.Code)
	assert.Contains(t, terr.Message, "BROWSER_USE_API_KEY")
}
