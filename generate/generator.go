package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// Generator calls the generative model with a multi-part request (video
// reference first, instruction text last) and returns a validated
// ContentArtifact.
type Generator struct {
	model       string
	temperature float64
	maxTokens   int
	baseURL     string
	httpClient  *http.Client
}

func New(model string, temperature float64, maxTokens int, baseURL string) *Generator {
	return &Generator{
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Request describes one generation call. VideoURI is either the public
// YouTube URL or the remote file-store URI of an uploaded copy.
type Request struct {
	VideoURI        string
	ReferenceFiles  []string
	ReferenceVideos []string
	Prompt          string
}

type part struct {
	FileData *fileData `json:"file_data,omitempty"`
	Text     string    `json:"text,omitempty"`
}

type fileData struct {
	FileURI  string `json:"file_uri"`
	MimeType string `json:"mime_type,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"response_mime_type"`
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"max_output_tokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// buildParts orders the request parts the way the model expects: media and
// reference material first, the instruction text last.
func buildParts(req Request) []part {
	parts := []part{{FileData: &fileData{FileURI: req.VideoURI, MimeType: "video/mp4"}}}
	for _, uri := range req.ReferenceFiles {
		parts = append(parts, part{FileData: &fileData{FileURI: uri}})
	}
	for _, uri := range req.ReferenceVideos {
		parts = append(parts, part{FileData: &fileData{FileURI: uri, MimeType: "video/mp4"}})
	}
	parts = append(parts, part{Text: req.Prompt})
	return parts
}

// Generate runs one generation call. Any malformed or incomplete model
// response is fatal for the request; the raw text is carried in the error
// for diagnostics, never silently defaulted.
func (g *Generator) Generate(ctx context.Context, req Request) (*types.ContentArtifact, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, &types.StageError{
			Stage: types.StageConfig,
			Err:   fmt.Errorf("GEMINI_API_KEY not set — create an API key in Google AI Studio and export it"),
		}
	}

	body := generateRequest{
		Contents: []content{{Parts: buildParts(req)}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      g.temperature,
			MaxOutputTokens:  g.maxTokens,
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	log.Printf("[generate] calling %s (%d parts)...", g.model, len(body.Contents[0].Parts))
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &types.StageError{Stage: types.StageGeneration, Err: fmt.Errorf("model request: %w", err)}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.StageError{Stage: types.StageGeneration, Err: err}
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBytes, &genResp); err != nil {
		return nil, &types.StageError{
			Stage: types.StageGeneration,
			Err:   fmt.Errorf("parse model response: %w\nraw: %s", err, truncate(string(respBytes), 300)),
		}
	}
	if genResp.Error != nil {
		return nil, &types.StageError{
			Stage: types.StageGeneration,
			Err:   fmt.Errorf("model error (%d): %s", genResp.Error.Code, genResp.Error.Message),
		}
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, &types.StageError{
			Stage: types.StageGeneration,
			Err:   fmt.Errorf("model returned no candidates"),
		}
	}

	raw := genResp.Candidates[0].Content.Parts[0].Text
	artifact, err := ParseArtifact(raw)
	if err != nil {
		return nil, err
	}
	log.Printf("[generate] ✅ artifact ready: %d screenshot suggestion(s)", len(artifact.Screenshots))
	return artifact, nil
}
