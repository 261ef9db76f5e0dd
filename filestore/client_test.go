package filestore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

func TestClientUpload(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	var gotPath, gotKey, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]any{"file": map[string]string{
			"name":        "files/xyz",
			"uri":         "https://files.example/xyz",
			"displayName": "dQw4w9WgXcQ",
			"state":       "PROCESSING",
		}})
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "dQw4w9WgXcQ.mp4")
	require.NoError(t, os.WriteFile(local, []byte("fake video bytes"), 0644))

	c := NewClient(srv.URL)
	h, err := c.Upload(context.Background(), local, "video/mp4", "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "/upload/v1beta/files", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotContentType, "multipart/related")
	assert.Contains(t, string(gotBody), `"displayName":"dQw4w9WgXcQ"`)
	assert.Contains(t, string(gotBody), "fake video bytes")
	assert.Equal(t, "files/xyz", h.Name)
	assert.Equal(t, types.StateProcessing, h.State)
}

func TestClientGetAndList(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1beta/files":
			assert.Equal(t, "50", r.URL.Query().Get("pageSize"))
			json.NewEncoder(w).Encode(map[string]any{
				"files":         []map[string]string{{"name": "files/a", "displayName": "vidA", "state": "ACTIVE"}},
				"nextPageToken": "tok2",
			})
		case strings.HasPrefix(r.URL.Path, "/v1beta/files/"):
			json.NewEncoder(w).Encode(map[string]string{"name": "files/a", "state": "ACTIVE"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	files, next, err := c.List(context.Background(), 50, "")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "vidA", files[0].DisplayName)
	assert.Equal(t, "tok2", next)

	h, err := c.Get(context.Background(), "files/a")
	require.NoError(t, err)
	assert.Equal(t, types.StateActive, h.State)
}

func TestClientSurfacesAPIError(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
			"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED",
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Get(context.Background(), "files/a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClientMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	c := NewClient("http://unused.example")
	_, err := c.Get(context.Background(), "files/a")
	require.Error(t, err)

	var stageErr *types.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageConfig, stageErr.Stage)
}
