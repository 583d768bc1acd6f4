package service

import (
	"context"
	"errors"

	"github.com/timmy/clipseek/internal/media"
	"github.com/timmy/clipseek/internal/repository"
)

// ErrNotReady is returned by search operations before any video has been
// processed. Callers translate it into a friendly message rather than a
// system fault.
var ErrNotReady = errors.New("no processed video data available")

// TextEmbedder produces dense vectors for text. Passage and query
// embeddings use different task modes, so both are exposed.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// ImageEmbedder produces dense vectors for raw image bytes.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, imageData []byte) ([]float32, error)
}

// Transcriber converts an audio file on disk into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Captioner generates a natural language description of an image.
type Captioner interface {
	CaptionImage(ctx context.Context, imageData []byte, format string) (string, error)
}

// VectorIndex is one similarity index over segment vectors. The concrete
// implementation is a Qdrant collection; tests substitute in-memory fakes.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, pointID string, vector []float32, payload *repository.SegmentPayload) error
	Search(ctx context.Context, vector []float32, topK int, videoIDs []string) ([]repository.VectorHit, error)
	Delete(ctx context.Context, pointID string) error
	DeleteByVideo(ctx context.Context, videoID string) error
}

// MediaProcessor covers the ffmpeg operations ingestion and clip
// extraction need.
type MediaProcessor interface {
	Probe(ctx context.Context, path string) (*media.ProbeInfo, error)
	ExtractAudio(ctx context.Context, videoPath, outPath string) error
	CutAudio(ctx context.Context, audioPath string, startSec, endSec float64, outPath string) error
	ExtractFrame(ctx context.Context, videoPath string, atSec float64, outPath string) error
	ExtractClip(ctx context.Context, videoPath string, startSec, endSec float64, outPath string) error
}
