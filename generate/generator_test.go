package generate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

const validArtifact = `{
	"titles": ["How X Works", "X Explained", "The Truth About X"],
	"article": "A long article body.",
	"seo_description": "A meta description for search engines.",
	"screenshots": [{"timestamp": "01:30", "reason": "key demo"}]
}`

func TestBuildPartsOrdering(t *testing.T) {
	parts := buildParts(Request{
		VideoURI:        "https://files.example/vid",
		ReferenceFiles:  []string{"https://files.example/style-guide"},
		ReferenceVideos: []string{"https://files.example/other-video"},
		Prompt:          "write it",
	})

	require.Len(t, parts, 4)
	// media before instructions, video first
	assert.Equal(t, "https://files.example/vid", parts[0].FileData.FileURI)
	assert.Equal(t, "video/mp4", parts[0].FileData.MimeType)
	assert.Equal(t, "https://files.example/style-guide", parts[1].FileData.FileURI)
	assert.Equal(t, "https://files.example/other-video", parts[2].FileData.FileURI)
	assert.Nil(t, parts[3].FileData)
	assert.Equal(t, "write it", parts[3].Text)
}

func TestParseArtifactValid(t *testing.T) {
	artifact, err := ParseArtifact(validArtifact)
	require.NoError(t, err)
	assert.Len(t, artifact.Titles, 3)
	assert.Equal(t, "A long article body.", artifact.Article)
	require.Len(t, artifact.Screenshots, 1)
	assert.Equal(t, "01:30", artifact.Screenshots[0].Timestamp)
}

func TestParseArtifactStripsFences(t *testing.T) {
	fenced := "```json\n" + validArtifact + "\n```"
	artifact, err := ParseArtifact(fenced)
	require.NoError(t, err)
	assert.Len(t, artifact.Titles, 3)
}

func TestParseArtifactMissingSEODescription(t *testing.T) {
	// syntactically valid JSON, semantically incomplete
	raw := `{"titles":["a","b","c"],"article":"body","screenshots":[]}`
	_, err := ParseArtifact(raw)
	require.Error(t, err)

	var stageErr *types.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageParsing, stageErr.Stage)
	assert.Contains(t, err.Error(), "seo_description")
}

func TestParseArtifactWrongTitleCount(t *testing.T) {
	raw := `{"titles":["only one"],"article":"body","seo_description":"desc"}`
	_, err := ParseArtifact(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 titles")
}

func TestParseArtifactInvalidJSON(t *testing.T) {
	_, err := ParseArtifact("I'm sorry, I can't do that")
	require.Error(t, err)

	var stageErr *types.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageParsing, stageErr.Stage)
	assert.Contains(t, err.Error(), "raw content")
}

func TestParseArtifactBadScreenshotTimestamp(t *testing.T) {
	raw := `{"titles":["a","b","c"],"article":"body","seo_description":"d",
		"screenshots":[{"timestamp":"midway","reason":"x"}]}`
	_, err := ParseArtifact(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "midway")
}

func TestGenerateEndToEnd(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]string{{"text": validArtifact}}},
			}},
		})
	}))
	defer srv.Close()

	g := New("gemini-2.0-flash", 0.7, 8192, srv.URL)
	artifact, err := g.Generate(context.Background(), Request{
		VideoURI: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Prompt:   "write it",
	})
	require.NoError(t, err)
	assert.Len(t, artifact.Titles, 3)

	require.Len(t, gotReq.Contents, 1)
	parts := gotReq.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", parts[0].FileData.FileURI)
	assert.Equal(t, "write it", parts[1].Text)
	assert.Equal(t, "application/json", gotReq.GenerationConfig.ResponseMimeType)
}

func TestGenerateModelError(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 400, "message": "unsupported video"}})
	}))
	defer srv.Close()

	g := New("gemini-2.0-flash", 0.7, 8192, srv.URL)
	_, err := g.Generate(context.Background(), Request{VideoURI: "u", Prompt: "p"})
	require.Error(t, err)

	var stageErr *types.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageGeneration, stageErr.Stage)
	assert.Contains(t, err.Error(), "unsupported video")
}

func TestGenerateMissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	g := New("gemini-2.0-flash", 0.7, 8192, "http://unused.example")
	_, err := g.Generate(context.Background(), Request{VideoURI: "u", Prompt: "p"})

	var stageErr *types.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageConfig, stageErr.Stage)
}

func TestBuildPromptIncludesManifestAndInstructions(t *testing.T) {
	p := BuildPrompt("My Video", "keep it casual", []string{"style guide (pdf)", "previous article"})
	assert.Contains(t, p, "My Video")
	assert.Contains(t, p, "keep it casual")
	assert.Contains(t, p, "style guide (pdf)")
	assert.Contains(t, p, "seo_description")
}
