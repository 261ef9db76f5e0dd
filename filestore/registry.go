package filestore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// API is the slice of the file-store surface the registry needs; Client
// implements it, tests substitute fakes.
type API interface {
	Upload(ctx context.Context, localPath, mimeType, displayName string) (*types.RemoteFileHandle, error)
	Get(ctx context.Context, name string) (*types.RemoteFileHandle, error)
	List(ctx context.Context, pageSize int, pageToken string) ([]types.RemoteFileHandle, string, error)
	Delete(ctx context.Context, name string) error
}

var (
	// ErrPollTimeout means the remote file never left PROCESSING within the
	// attempt budget. Retrying the whole request is the caller's call.
	ErrPollTimeout = errors.New("file processing timed out")
	// ErrRemoteFailed means the remote side marked the file FAILED.
	ErrRemoteFailed = errors.New("file processing failed remotely")
)

// Registry layers dedup-by-displayName and state polling over the raw
// file-store API. At most one handle should exist per video id; the store
// has no unique constraint, so the registry always searches before
// uploading and serializes concurrent registrations per id.
type Registry struct {
	api          API
	PageSize     int
	PollInterval time.Duration
	PollAttempts int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRegistry(api API) *Registry {
	return &Registry{
		api:          api,
		PageSize:     100,
		PollInterval: 5 * time.Second,
		PollAttempts: 60,
		locks:        make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-video-id mutex guarding the check-then-act
// window between lookup and upload.
func (r *Registry) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[id] = l
	return l
}

// FindByDisplayName scans the file listing page by page and returns the
// first handle registered under the given video id, in any state. Cost is
// linear in everything the account ever uploaded — the store offers no
// server-side name query.
func (r *Registry) FindByDisplayName(ctx context.Context, id string) (*types.RemoteFileHandle, error) {
	pageToken := ""
	for {
		files, next, err := r.api.List(ctx, r.PageSize, pageToken)
		if err != nil {
			return nil, err
		}
		for i := range files {
			if files[i].DisplayName == id {
				return &files[i], nil
			}
		}
		if next == "" {
			return nil, nil
		}
		pageToken = next
	}
}

// RegisterOrReuse returns a remote handle for the video, uploading
// localPath only when no handle exists yet. When staged is true the local
// file was written purely to feed this upload, so a cache hit also removes
// it. The returned handle may still be PROCESSING; follow with AwaitActive.
func (r *Registry) RegisterOrReuse(ctx context.Context, id, localPath string, staged bool) (*types.RemoteFileHandle, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	handle, err := r.FindByDisplayName(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dedup lookup for %s: %w", id, err)
	}
	if handle != nil {
		log.Printf("[filestore] cache hit: %s already registered as %s (%s)", id, handle.Name, handle.State)
		if staged {
			if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
				log.Printf("[filestore] ⚠️  could not remove staged file %s: %v", localPath, err)
			}
		}
		return handle, nil
	}

	log.Printf("[filestore] uploading %s...", id)
	handle, err = r.api.Upload(ctx, localPath, "video/mp4", id)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", id, err)
	}
	log.Printf("[filestore] ✅ uploaded %s as %s (%s)", id, handle.Name, handle.State)
	return handle, nil
}

// AwaitActive blocks until the handle becomes ACTIVE, polling Get once per
// interval. A FAILED state is fatal; exhausting the attempt budget returns
// ErrPollTimeout. Transient Get errors only consume attempts, they do not
// abort the wait. Cancel via ctx.
func (r *Registry) AwaitActive(ctx context.Context, handle *types.RemoteFileHandle) (*types.RemoteFileHandle, error) {
	switch handle.State {
	case types.StateActive:
		return handle, nil
	case types.StateFailed:
		return nil, fmt.Errorf("%w: %s", ErrRemoteFailed, handle.Name)
	}

	log.Printf("[filestore] waiting for %s to become ACTIVE...", handle.Name)
	for attempt := 1; attempt <= r.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.PollInterval):
		}

		current, err := r.api.Get(ctx, handle.Name)
		if err != nil {
			log.Printf("[filestore] poll %d/%d failed: %v — retrying", attempt, r.PollAttempts, err)
			continue
		}
		switch current.State {
		case types.StateActive:
			log.Printf("[filestore] ✅ %s is ACTIVE", current.Name)
			return current, nil
		case types.StateFailed:
			return nil, fmt.Errorf("%w: %s", ErrRemoteFailed, current.Name)
		}
	}
	return nil, fmt.Errorf("%w: %s still PROCESSING after %d attempts", ErrPollTimeout, handle.Name, r.PollAttempts)
}
