package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/JasChiang/ai-video-writer-sub002/assets"
	"github.com/JasChiang/ai-video-writer-sub002/frames"
	"github.com/JasChiang/ai-video-writer-sub002/generate"
	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// Collaborator ports. The concrete implementations live in their own
// packages; the orchestrator only needs these slices of them.
type Downloader interface {
	Fetch(ctx context.Context, videoID string, quality int) (*types.LocalAsset, error)
}

type Registry interface {
	RegisterOrReuse(ctx context.Context, id, localPath string, staged bool) (*types.RemoteFileHandle, error)
	AwaitActive(ctx context.Context, handle *types.RemoteFileHandle) (*types.RemoteFileHandle, error)
}

type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*types.ContentArtifact, error)
}

type Extractor interface {
	Capture(ctx context.Context, videoPath, videoID string, specs []types.ScreenshotSpec, quality int) ([]types.CapturedImageGroup, error)
}

type TitleResolver interface {
	Title(ctx context.Context, videoID string) string
}

// Orchestrator runs the full video→content pipeline: local acquisition,
// remote registration with dedup, generation, frame extraction. Steps
// within one request are strictly sequential; concurrent requests only
// serialize inside the registry's per-id registration lock.
type Orchestrator struct {
	store      *assets.Store
	downloader Downloader
	registry   Registry
	generator  Generator
	extractor  Extractor
	titles     TitleResolver
}

func New(store *assets.Store, dl Downloader, reg Registry, gen Generator, ext Extractor, titles TitleResolver) *Orchestrator {
	return &Orchestrator{
		store:      store,
		downloader: dl,
		registry:   reg,
		generator:  gen,
		extractor:  ext,
		titles:     titles,
	}
}

// Request carries one content-generation job.
type Request struct {
	VideoID         string
	Quality         int
	Title           string
	Instructions    string
	Public          bool
	ReferenceFiles  []string
	ReferenceVideos []string
	Screenshots     []types.ScreenshotSpec // used by the re-extraction flow only
}

// Result is what the HTTP layer returns to the UI.
type Result struct {
	RunID      string                     `json:"run_id"`
	VideoID    string                     `json:"video_id"`
	RemoteFile string                     `json:"remote_file,omitempty"`
	Artifact   *types.ContentArtifact     `json:"artifact,omitempty"`
	Groups     []types.CapturedImageGroup `json:"screenshots,omitempty"`
}

// Generate runs the whole pipeline for one request.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()[:8]
	quality := frames.ClampQuality(req.Quality)
	log.Printf("[pipeline] run %s: video %s, quality %d", runID, req.VideoID, quality)

	title := req.Title
	if title == "" {
		title = o.titles.Title(ctx, req.VideoID)
	}

	result := &Result{RunID: runID, VideoID: req.VideoID}

	var videoURI string
	if req.Public {
		// publicly reachable videos go straight into the request by URL,
		// no upload round-trip
		videoURI = "https://www.youtube.com/watch?v=" + req.VideoID
	} else {
		asset, err := o.ensureLocal(ctx, req.VideoID, quality)
		if err != nil {
			return nil, err
		}
		handle, err := o.registry.RegisterOrReuse(ctx, req.VideoID, asset.FilePath, false)
		if err != nil {
			return nil, stageWrap(types.StageRegistry, err)
		}
		handle, err = o.registry.AwaitActive(ctx, handle)
		if err != nil {
			return nil, stageWrap(types.StageRegistry, err)
		}
		videoURI = handle.URI
		result.RemoteFile = handle.Name
	}

	manifest := referenceManifest(req)
	prompt := generate.BuildPrompt(title, req.Instructions, manifest)

	artifact, err := o.generator.Generate(ctx, generate.Request{
		VideoURI:        videoURI,
		ReferenceFiles:  req.ReferenceFiles,
		ReferenceVideos: req.ReferenceVideos,
		Prompt:          prompt,
	})
	if err != nil {
		return nil, stageWrap(types.StageGeneration, err)
	}
	result.Artifact = artifact

	if len(artifact.Screenshots) > 0 {
		asset, err := o.ensureLocal(ctx, req.VideoID, quality)
		if err != nil {
			return nil, err
		}
		groups, err := o.extractor.Capture(ctx, asset.FilePath, req.VideoID, artifact.Screenshots, quality)
		if err != nil {
			return nil, stageWrap(types.StageExtraction, err)
		}
		result.Groups = groups
	}

	log.Printf("[pipeline] ✅ run %s complete", runID)
	return result, nil
}

// Screenshots re-runs frame extraction for caller-supplied specs, reusing
// (or refreshing) the cached video. Nothing remote is touched.
func (o *Orchestrator) Screenshots(ctx context.Context, req Request) (*Result, error) {
	if len(req.Screenshots) == 0 {
		return nil, &types.StageError{
			Stage: types.StageValidation,
			Err:   errors.New("no screenshot timestamps supplied"),
		}
	}
	runID := uuid.NewString()[:8]
	quality := frames.ClampQuality(req.Quality)

	asset, err := o.ensureLocal(ctx, req.VideoID, quality)
	if err != nil {
		return nil, err
	}
	groups, err := o.extractor.Capture(ctx, asset.FilePath, req.VideoID, req.Screenshots, quality)
	if err != nil {
		return nil, stageWrap(types.StageExtraction, err)
	}
	return &Result{RunID: runID, VideoID: req.VideoID, Groups: groups}, nil
}

// ensureLocal returns the cached copy of the video, downloading a fresh
// one when the cache misses. Cached copies are kept for later
// re-extraction; the janitor owns their deletion.
func (o *Orchestrator) ensureLocal(ctx context.Context, videoID string, quality int) (*types.LocalAsset, error) {
	if asset, ok := o.store.Lookup(videoID); ok {
		log.Printf("[pipeline] local cache hit for %s (%s)", videoID, asset.FilePath)
		return asset, nil
	}
	asset, err := o.downloader.Fetch(ctx, videoID, quality)
	if err != nil {
		return nil, stageWrap(types.StageDownload, err)
	}
	return asset, nil
}

func referenceManifest(req Request) []string {
	var manifest []string
	for i := range req.ReferenceFiles {
		manifest = append(manifest, fmt.Sprintf("reference file %d", i+1))
	}
	for i := range req.ReferenceVideos {
		manifest = append(manifest, fmt.Sprintf("reference video %d", i+1))
	}
	return manifest
}

// stageWrap tags err with a stage unless a more specific tag is already
// attached further down the chain.
func stageWrap(stage string, err error) error {
	var stageErr *types.StageError
	if errors.As(err, &stageErr) {
		return err
	}
	return &types.StageError{Stage: stage, Err: err}
}
