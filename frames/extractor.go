package frames

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// offsets sampled around each target second. Three frames give the editor
// a choice when the exact second lands on a cut or a blur.
var offsets = []struct {
	delta int
	label string
}{
	{-2, "before"},
	{0, "at"},
	{2, "after"},
}

// Extractor captures still frames from a local video file with ffmpeg.
type Extractor struct {
	outDir string

	runCmd func(ctx context.Context, name string, args ...string) error
}

func New(outDir string) *Extractor {
	e := &Extractor{outDir: outDir}
	e.runCmd = func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	return e
}

// ParseTimestamp converts a "mm:ss" string to whole seconds. Minutes may
// exceed 59 for long videos.
func ParseTimestamp(ts string) (int, error) {
	m, s, found := strings.Cut(strings.TrimSpace(ts), ":")
	if !found {
		return 0, fmt.Errorf("timestamp %q is not mm:ss", ts)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("timestamp %q has invalid minutes", ts)
	}
	seconds, err := strconv.Atoi(s)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("timestamp %q has invalid seconds", ts)
	}
	return minutes*60 + seconds, nil
}

// ClampQuality bounds q to ffmpeg's 2-31 JPEG quality scale (lower value =
// higher quality, inverted from intuition).
func ClampQuality(q int) int {
	if q < 2 {
		return 2
	}
	if q > 31 {
		return 31
	}
	return q
}

// Capture produces one CapturedImageGroup per spec, sampling frames at
// -2s/0s/+2s around the target second (clamped at 0). A failed offset only
// shrinks its group; a group with zero captures is dropped. Specs are
// processed sequentially by index so output ordering and subprocess count
// stay predictable.
func (e *Extractor) Capture(ctx context.Context, videoPath, videoID string, specs []types.ScreenshotSpec, quality int) ([]types.CapturedImageGroup, error) {
	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return nil, &types.StageError{Stage: types.StageExtraction, Err: err}
	}
	quality = ClampQuality(quality)

	var groups []types.CapturedImageGroup
	for i, spec := range specs {
		target, err := ParseTimestamp(spec.Timestamp)
		if err != nil {
			log.Printf("[frames] ⚠️  spec %d: %v — skipping", i+1, err)
			continue
		}

		group := types.CapturedImageGroup{Spec: spec, TargetSec: target}
		for _, off := range offsets {
			sec := target + off.delta
			if sec < 0 {
				sec = 0
			}
			outPath := filepath.Join(e.outDir,
				fmt.Sprintf("%s_shot%02d_%s_%ds.jpg", videoID, i+1, off.label, sec))
			if err := e.captureOne(ctx, videoPath, sec, quality, outPath); err != nil {
				log.Printf("[frames] ⚠️  spec %d offset %s (t=%ds) failed: %v", i+1, off.label, sec, err)
				continue
			}
			group.Images = append(group.Images, outPath)
		}

		if len(group.Images) == 0 {
			log.Printf("[frames] ⚠️  spec %d (%s) produced no frames — dropping group", i+1, spec.Timestamp)
			continue
		}
		log.Printf("[frames] spec %d (%s): %d/%d frames captured", i+1, spec.Timestamp, len(group.Images), len(offsets))
		groups = append(groups, group)
	}

	log.Printf("[frames] ✅ %d group(s) for %s", len(groups), videoID)
	return groups, nil
}

func (e *Extractor) captureOne(ctx context.Context, videoPath string, sec, quality int, outPath string) error {
	return e.runCmd(ctx, "ffmpeg",
		"-ss", strconv.Itoa(sec),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(quality),
		"-y",
		outPath,
	)
}
