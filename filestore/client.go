package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// Client talks to the generative-AI file store over its REST API. The store
// accepts media uploads, exposes an async PROCESSING→ACTIVE state machine
// per file, and deletes files on its own schedule (~48h) — nothing here
// controls that expiry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a file-store client. baseURL is the API root without a
// trailing slash; pass the config value so tests can point it at a stub.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Uploads carry whole videos, so the timeout is generous.
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func apiKey() (string, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return "", &types.StageError{
			Stage: types.StageConfig,
			Err:   fmt.Errorf("GEMINI_API_KEY not set — create an API key in Google AI Studio and export it"),
		}
	}
	return key, nil
}

// Upload registers a local video with the file store using a multipart
// upload: a JSON metadata part carrying the displayName, then the media
// bytes. The returned handle is usually still PROCESSING.
func (c *Client) Upload(ctx context.Context, localPath, mimeType, displayName string) (*types.RemoteFileHandle, error) {
	key, err := apiKey()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"file": map[string]string{"displayName": displayName}}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, err
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", mimeType)
	mediaPart, err := mw.CreatePart(mediaHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(mediaPart, f); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/upload/v1beta/files?uploadType=multipart", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	req.Header.Set("x-goog-api-key", key)

	var uploaded struct {
		File *types.RemoteFileHandle `json:"file"`
	}
	if err := c.do(req, &uploaded); err != nil {
		return nil, fmt.Errorf("upload %q: %w", displayName, err)
	}
	if uploaded.File == nil {
		return nil, fmt.Errorf("upload %q: response contained no file", displayName)
	}
	return uploaded.File, nil
}

// Get returns the current state of a registered file. name is the opaque
// remote identifier (e.g. "files/abc123").
func (c *Client) Get(ctx context.Context, name string) (*types.RemoteFileHandle, error) {
	key, err := apiKey()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1beta/"+name, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", key)

	var handle types.RemoteFileHandle
	if err := c.do(req, &handle); err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return &handle, nil
}

// List returns one page of registered files plus the token for the next
// page ("" when exhausted). The store offers no query-by-name, so dedup
// lookups have to scan pages.
func (c *Client) List(ctx context.Context, pageSize int, pageToken string) ([]types.RemoteFileHandle, string, error) {
	key, err := apiKey()
	if err != nil {
		return nil, "", err
	}
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1beta/files?"+q.Encode(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("x-goog-api-key", key)

	var page struct {
		Files         []types.RemoteFileHandle `json:"files"`
		NextPageToken string                   `json:"nextPageToken"`
	}
	if err := c.do(req, &page); err != nil {
		return nil, "", fmt.Errorf("list files: %w", err)
	}
	return page.Files, page.NextPageToken, nil
}

// Delete removes a registered file.
func (c *Client) Delete(ctx context.Context, name string) error {
	key, err := apiKey()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/v1beta/"+name, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", key)
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Error != nil {
			return fmt.Errorf("file store error (%d): %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("file store HTTP %d: %s", resp.StatusCode, truncate(string(respBytes), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("parse file store response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
