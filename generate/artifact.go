package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JasChiang/ai-video-writer-sub002/frames"
	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// ParseArtifact validates the raw model text into a ContentArtifact. Every
// required field must be present: missing fields would mean content with
// undetectable quality gaps, so there is no partial acceptance.
func ParseArtifact(raw string) (*types.ContentArtifact, error) {
	content := cleanJSON(raw)

	var artifact types.ContentArtifact
	if err := json.Unmarshal([]byte(content), &artifact); err != nil {
		return nil, parseErr(fmt.Errorf("invalid JSON: %w", err), content)
	}

	if len(artifact.Titles) != 3 {
		return nil, parseErr(fmt.Errorf("expected 3 titles, got %d", len(artifact.Titles)), content)
	}
	for i, title := range artifact.Titles {
		if strings.TrimSpace(title) == "" {
			return nil, parseErr(fmt.Errorf("title %d is empty", i+1), content)
		}
	}
	if strings.TrimSpace(artifact.Article) == "" {
		return nil, parseErr(fmt.Errorf("missing article"), content)
	}
	if strings.TrimSpace(artifact.SEODescription) == "" {
		return nil, parseErr(fmt.Errorf("missing seo_description"), content)
	}
	for _, spec := range artifact.Screenshots {
		if _, err := frames.ParseTimestamp(spec.Timestamp); err != nil {
			return nil, parseErr(fmt.Errorf("screenshot timestamp %q: %w", spec.Timestamp, err), content)
		}
	}
	return &artifact, nil
}

func parseErr(err error, content string) error {
	return &types.StageError{
		Stage: types.StageParsing,
		Err:   fmt.Errorf("%w\nraw content: %s", err, truncate(content, 300)),
	}
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ``` despite the JSON response mime type.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
