package ytinfo

import (
	"context"
	"fmt"
	"log"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Resolver looks up video metadata through the YouTube Data API. Only the
// read-only, API-key-authenticated snippet lookup lives here; anything
// needing OAuth (uploads, channel listings) is out of this service's scope.
type Resolver struct {
	newService func(ctx context.Context) (*youtube.Service, error)
}

func New() *Resolver {
	return &Resolver{
		newService: func(ctx context.Context) (*youtube.Service, error) {
			key := os.Getenv("YOUTUBE_API_KEY")
			if key == "" {
				return nil, fmt.Errorf("YOUTUBE_API_KEY not set")
			}
			return youtube.NewService(ctx, option.WithAPIKey(key))
		},
	}
}

// Title resolves a video's title for prompt assembly. The title is
// advisory: any failure degrades to the bare video id with a warning
// instead of failing the request.
func (r *Resolver) Title(ctx context.Context, videoID string) string {
	svc, err := r.newService(ctx)
	if err != nil {
		log.Printf("[ytinfo] ⚠️  %v — using video id as title", err)
		return videoID
	}

	resp, err := svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		log.Printf("[ytinfo] ⚠️  title lookup for %s failed: %v — using video id", videoID, err)
		return videoID
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		log.Printf("[ytinfo] ⚠️  no snippet for %s — using video id", videoID)
		return videoID
	}
	return resp.Items[0].Snippet.Title
}
