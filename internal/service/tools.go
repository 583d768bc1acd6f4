package service

import (
	"context"
	"errors"

	"github.com/timmy/clipseek/internal/domain"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/validate"
)

// ToolService is the agent-facing boundary. Every operation validates its
// inputs and degrades failures into text results so callers always receive
// a well-formed ToolResult instead of a transport error.
type ToolService struct {
	ingest *IngestService
	search *SearchService
	clips  *ClipService
	logger *logger.Logger
}

// NewToolService creates a new tool service
func NewToolService(ingest *IngestService, search *SearchService, clips *ClipService, log *logger.Logger) *ToolService {
	return &ToolService{
		ingest: ingest,
		search: search,
		clips:  clips,
		logger: log,
	}
}

func (s *ToolService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// failure maps an error to the text result the caller sees. Validation
// messages pass through verbatim; internal errors are logged and replaced
// with generic text.
func (s *ToolService) failure(ctx context.Context, err error) domain.ToolResult {
	switch {
	case validate.IsValidationError(err):
		return domain.TextResult(err.Error())
	case errors.Is(err, ErrNotReady):
		return domain.TextResult("No videos have been processed yet. Process a video before searching.")
	case errors.Is(err, ErrNoMatch):
		return domain.TextResult("No matching content found.")
	}

	var clipErr *ClipExtractionError
	if errors.As(err, &clipErr) {
		s.log(ctx).WithError(err).Error("Clip extraction failed")
		return domain.TextResult("Failed to extract the video clip. Please try again.")
	}

	s.log(ctx).WithError(err).Error("Tool request failed")
	return domain.TextResult("An internal error occurred while processing the request.")
}

// GetClipFromQuery returns the clip best matching a text query.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - query: user search text.
//   - videoIDs: optional scope; empty searches all videos.
//
// Returns:
//   - domain.ToolResult: video result with the clip path on success,
//     text result describing the problem otherwise.
func (s *ToolService) GetClipFromQuery(ctx context.Context, query string, videoIDs []string) domain.ToolResult {
	cleaned, err := validate.Query(query)
	if err != nil {
		return s.failure(ctx, err)
	}
	ids, err := validate.VideoIDs(videoIDs)
	if err != nil {
		return s.failure(ctx, err)
	}

	if err := s.search.Ready(ctx); err != nil {
		return s.failure(ctx, err)
	}

	clipPath, err := s.clips.ClipForQuery(ctx, cleaned, ids)
	if err != nil {
		return s.failure(ctx, err)
	}
	return domain.VideoResult(clipPath)
}

// GetClipFromImage returns the clip around the frame most similar to a
// base64-encoded reference image.
func (s *ToolService) GetClipFromImage(ctx context.Context, imageBase64 string, videoIDs []string) domain.ToolResult {
	imageData, err := validate.ImageBase64(imageBase64)
	if err != nil {
		return s.failure(ctx, err)
	}
	ids, err := validate.VideoIDs(videoIDs)
	if err != nil {
		return s.failure(ctx, err)
	}

	if err := s.search.Ready(ctx); err != nil {
		return s.failure(ctx, err)
	}

	clipPath, err := s.clips.ClipForImage(ctx, imageData, ids)
	if err != nil {
		return s.failure(ctx, err)
	}
	return domain.VideoResult(clipPath)
}

// AskVideoQuestion answers a question using the most relevant frame
// captions as context.
func (s *ToolService) AskVideoQuestion(ctx context.Context, question string, videoIDs []string) domain.ToolResult {
	cleaned, err := validate.Query(question)
	if err != nil {
		return s.failure(ctx, err)
	}
	ids, err := validate.VideoIDs(videoIDs)
	if err != nil {
		return s.failure(ctx, err)
	}

	if err := s.search.Ready(ctx); err != nil {
		return s.failure(ctx, err)
	}

	answer, err := s.clips.AnswerQuestion(ctx, cleaned, ids)
	if err != nil {
		return s.failure(ctx, err)
	}
	return domain.TextResult(answer)
}

// DeleteVideo removes all processed data for a video. Returns true when
// data existed and was removed.
func (s *ToolService) DeleteVideo(ctx context.Context, videoID string) (bool, error) {
	return s.ingest.DeleteVideo(ctx, videoID)
}
