package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/timmy/clipseek/internal/config"
	"github.com/timmy/clipseek/internal/domain"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/repository"
)

// ErrNoMatch is returned when a search produced no usable segment.
var ErrNoMatch = errors.New("no matching video segment found")

// ClipExtractionError wraps ffmpeg failures during clip cutting so the
// tool boundary can report them distinctly from search errors.
type ClipExtractionError struct {
	VideoID string
	Err     error
}

func (e *ClipExtractionError) Error() string {
	return fmt.Sprintf("failed to extract clip from video %s: %v", e.VideoID, e.Err)
}

func (e *ClipExtractionError) Unwrap() error {
	return e.Err
}

// ClipService turns the best search match into a playable clip file under
// the shared media directory, and formats caption context for questions.
type ClipService struct {
	search *SearchService
	videos *repository.VideoRepository
	proc   MediaProcessor

	mediaCfg config.MediaConfig
	deltaSec float64

	logger *logger.Logger
}

// NewClipService creates a new clip service. deltaSec is the half-window
// applied around single-frame matches.
func NewClipService(
	search *SearchService,
	videos *repository.VideoRepository,
	proc MediaProcessor,
	mediaCfg config.MediaConfig,
	deltaSec float64,
	log *logger.Logger,
) *ClipService {
	return &ClipService{
		search:   search,
		videos:   videos,
		proc:     proc,
		mediaCfg: mediaCfg,
		deltaSec: deltaSec,
		logger:   log,
	}
}

func (s *ClipService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// ClipForQuery finds the best-matching moment for a text query and cuts a
// clip around it.
//
// Both the transcript index and the caption index are searched. The higher
// similarity wins; on an exact tie the transcript match is preferred since
// its window carries real duration. Caption matches are single frames, so
// their window is widened by deltaSec on both sides.
//
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - query: cleaned search text.
//   - videoIDs: optional scope; nil searches all videos.
//
// Returns:
//   - string: clip path relative to the shared media directory.
//   - error: ErrNoMatch when nothing matched, *ClipExtractionError on cut failure.
func (s *ClipService) ClipForQuery(ctx context.Context, query string, videoIDs []string) (string, error) {
	cfg := s.search.Config()

	speech, err := s.search.SearchSpeech(ctx, query, videoIDs, cfg.SpeechTopK)
	if err != nil {
		return "", err
	}
	captions, err := s.search.SearchCaptions(ctx, query, videoIDs, cfg.CaptionTopK)
	if err != nil {
		return "", err
	}

	if len(speech) == 0 && len(captions) == 0 {
		return "", ErrNoMatch
	}

	var best domain.SearchResult
	var fromSpeech bool
	switch {
	case len(captions) == 0:
		best, fromSpeech = speech[0], true
	case len(speech) == 0:
		best, fromSpeech = captions[0], false
	case speech[0].Similarity >= captions[0].Similarity:
		best, fromSpeech = speech[0], true
	default:
		best, fromSpeech = captions[0], false
	}

	startSec, endSec := best.StartTime, best.EndTime
	if !fromSpeech {
		startSec = best.StartTime - s.deltaSec
		endSec = best.EndTime + s.deltaSec
	}

	s.log(ctx).WithFields(logger.Fields{
		"video_id":    best.VideoID,
		"similarity":  best.Similarity,
		"from_speech": fromSpeech,
	}).Info("Selected best clip match")

	return s.extractClip(ctx, best.VideoID, startSec, endSec)
}

// ClipForImage finds the frame most similar to a reference image and cuts
// a clip of deltaSec on each side around it.
func (s *ClipService) ClipForImage(ctx context.Context, imageData []byte, videoIDs []string) (string, error) {
	cfg := s.search.Config()

	results, err := s.search.SearchImage(ctx, imageData, videoIDs, cfg.ImageTopK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNoMatch
	}

	best := results[0]
	s.log(ctx).WithFields(logger.Fields{
		"video_id":   best.VideoID,
		"similarity": best.Similarity,
	}).Info("Selected best image match")

	return s.extractClip(ctx, best.VideoID, best.StartTime-s.deltaSec, best.EndTime+s.deltaSec)
}

// extractClip cuts [startSec, endSec] from the source video into a new
// file under the clip output directory and returns its path relative to
// the shared media root.
func (s *ClipService) extractClip(ctx context.Context, videoID string, startSec, endSec float64) (string, error) {
	record, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return "", &ClipExtractionError{VideoID: videoID, Err: err}
	}

	// Clamp the window to the video bounds
	if startSec < 0 {
		startSec = 0
	}
	info, err := s.proc.Probe(ctx, record.SourcePath)
	if err != nil {
		return "", &ClipExtractionError{VideoID: videoID, Err: err}
	}
	if endSec > info.DurationSec {
		endSec = info.DurationSec
	}
	if endSec <= startSec {
		return "", &ClipExtractionError{VideoID: videoID, Err: fmt.Errorf("empty clip window [%f, %f]", startSec, endSec)}
	}

	outDir := filepath.Join(s.mediaCfg.SharedDir, s.mediaCfg.ClipOutputSubdir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", &ClipExtractionError{VideoID: videoID, Err: err}
	}

	outPath := filepath.Join(outDir, uuid.New().String()+".mp4")
	if err := s.proc.ExtractClip(ctx, record.SourcePath, startSec, endSec, outPath); err != nil {
		return "", &ClipExtractionError{VideoID: videoID, Err: err}
	}

	rel, err := filepath.Rel(s.mediaCfg.SharedDir, outPath)
	if err != nil {
		return "", &ClipExtractionError{VideoID: videoID, Err: err}
	}

	s.log(ctx).WithFields(logger.Fields{
		"video_id": videoID,
		"clip":     rel,
	}).Info("Clip extracted")

	return filepath.ToSlash(rel), nil
}

// AnswerQuestion gathers the caption segments most relevant to a question
// and formats them as context blocks, one per match:
//
//	Video: <display name>
//	Content: <caption>
//
// Blocks are separated by blank lines.
func (s *ClipService) AnswerQuestion(ctx context.Context, question string, videoIDs []string) (string, error) {
	cfg := s.search.Config()

	infos, err := s.search.CaptionInfo(ctx, question, videoIDs, cfg.QuestionTopK)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", ErrNoMatch
	}

	blocks := make([]string, 0, len(infos))
	for _, info := range infos {
		blocks = append(blocks, fmt.Sprintf("Video: %s\nContent: %s", info.VideoName, info.Text))
	}
	return strings.Join(blocks, "\n\n"), nil
}
