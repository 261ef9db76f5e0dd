package types

import "time"

// FileState is the processing state of a remotely registered video.
type FileState string

const (
	StateProcessing FileState = "PROCESSING"
	StateActive     FileState = "ACTIVE"
	StateFailed     FileState = "FAILED"
)

// RemoteFileHandle references a video registered with the AI file store.
// DisplayName is set to the YouTube video id and acts as the dedup key.
type RemoteFileHandle struct {
	Name           string    `json:"name"`
	URI            string    `json:"uri"`
	DisplayName    string    `json:"displayName"`
	State          FileState `json:"state"`
	CreateTime     string    `json:"createTime,omitempty"`
	ExpirationTime string    `json:"expirationTime,omitempty"`
}

// LocalAsset is a downloaded video file kept on disk for reuse.
type LocalAsset struct {
	VideoID   string    `json:"video_id"`
	FilePath  string    `json:"file_path"`
	ModTime   time.Time `json:"mod_time"`
	SizeBytes int64     `json:"size_bytes"`
}

// ScreenshotSpec is a model-suggested capture point: a "mm:ss" timestamp
// plus the model's reason for picking it.
type ScreenshotSpec struct {
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
}

// ContentArtifact is the validated structured output of one generation call.
type ContentArtifact struct {
	Titles         []string         `json:"titles"`
	Article        string           `json:"article"`
	SEODescription string           `json:"seo_description"`
	Screenshots    []ScreenshotSpec `json:"screenshots"`
}

// CapturedImageGroup holds the images captured for one ScreenshotSpec:
// up to three files at offsets -2s/0s/+2s around the target second.
type CapturedImageGroup struct {
	Spec      ScreenshotSpec `json:"spec"`
	TargetSec int            `json:"target_sec"`
	Images    []string       `json:"images"`
}

// Pipeline stages used in StageError, one per external dependency the
// operator might need to investigate.
const (
	StageConfig     = "config"
	StageValidation = "validation"
	StageDownload   = "download"
	StageRegistry   = "remote-registration"
	StageGeneration = "generation"
	StageParsing    = "parsing"
	StageExtraction = "extraction"
)

// StageError tags an error with the pipeline stage it came from so the
// caller can tell which external dependency failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
