package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// Downloader fetches YouTube videos into the local cache via yt-dlp.
type Downloader struct {
	binary   string
	retries  int
	cacheDir string

	// runCmd is swapped in tests; default shells out.
	runCmd func(ctx context.Context, name string, args ...string) error
}

// New creates a Downloader writing into cacheDir.
func New(binary string, retries int, cacheDir string) *Downloader {
	d := &Downloader{binary: binary, retries: retries, cacheDir: cacheDir}
	d.runCmd = func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	return d
}

// FormatChain maps the screenshot quality (2-31, lower = higher fidelity)
// to a yt-dlp format selector with a resolution fallback chain. High
// quality screenshots deserve a high resolution source; past quality 10
// there is no point paying for 1080p.
func FormatChain(quality int) string {
	if quality <= 10 {
		return "bestvideo[height<=1080]+bestaudio/bestvideo[height<=720]+bestaudio/best"
	}
	return "bestvideo[height<=720]+bestaudio/bestvideo[height<=480]+bestaudio/best"
}

// Path returns where the cached copy of a video lives, whether or not it
// exists yet.
func (d *Downloader) Path(videoID string) string {
	return filepath.Join(d.cacheDir, videoID+".mp4")
}

// Fetch downloads the video and returns the resulting LocalAsset. yt-dlp
// reports success through its exit code, but the real test is whether the
// merged output file exists afterwards.
func (d *Downloader) Fetch(ctx context.Context, videoID string, quality int) (*types.LocalAsset, error) {
	if _, err := exec.LookPath(d.binary); err != nil {
		return nil, &types.StageError{
			Stage: types.StageDownload,
			Err:   fmt.Errorf("%s not found in PATH — install it with: pip install yt-dlp", d.binary),
		}
	}

	outPath := d.Path(videoID)
	args := d.args(videoID, quality, outPath)

	log.Printf("[download] fetching %s (quality %d)...", videoID, quality)
	if err := d.runCmd(ctx, d.binary, args...); err != nil {
		return nil, &types.StageError{
			Stage: types.StageDownload,
			Err:   fmt.Errorf("%s failed for %s: %w", d.binary, videoID, err),
		}
	}

	fi, err := os.Stat(outPath)
	if err != nil {
		return nil, &types.StageError{
			Stage: types.StageDownload,
			Err:   fmt.Errorf("download claimed success but produced no file at %s", outPath),
		}
	}

	log.Printf("[download] ✅ %s → %s (%.1f MB)", videoID, outPath, float64(fi.Size())/1024/1024)
	return &types.LocalAsset{
		VideoID:   videoID,
		FilePath:  outPath,
		ModTime:   fi.ModTime(),
		SizeBytes: fi.Size(),
	}, nil
}

func (d *Downloader) args(videoID string, quality int, outPath string) []string {
	return []string{
		"-f", FormatChain(quality),
		"--merge-output-format", "mp4",
		"--retries", strconv.Itoa(d.retries),
		"--fragment-retries", strconv.Itoa(d.retries),
		"-o", outPath,
		"https://www.youtube.com/watch?v=" + videoID,
	}
}
