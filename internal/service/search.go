package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timmy/clipseek/internal/config"
	"github.com/timmy/clipseek/internal/domain"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/repository"
)

// SearchService answers similarity queries over the three indices: speech
// transcripts, frame captions, and frame visuals.
type SearchService struct {
	videos *repository.VideoRepository
	frames *repository.FrameRepository
	audio  *repository.AudioRepository

	textEmbed    TextEmbedder
	imageEmbed   ImageEmbedder
	visualIndex  VectorIndex
	captionIndex VectorIndex
	audioIndex   VectorIndex

	cfg    config.SearchConfig
	logger *logger.Logger
}

// NewSearchService creates a new search service
func NewSearchService(
	videos *repository.VideoRepository,
	frames *repository.FrameRepository,
	audio *repository.AudioRepository,
	textEmbed TextEmbedder,
	imageEmbed ImageEmbedder,
	visualIndex VectorIndex,
	captionIndex VectorIndex,
	audioIndex VectorIndex,
	cfg config.SearchConfig,
	log *logger.Logger,
) *SearchService {
	return &SearchService{
		videos:       videos,
		frames:       frames,
		audio:        audio,
		textEmbed:    textEmbed,
		imageEmbed:   imageEmbed,
		visualIndex:  visualIndex,
		captionIndex: captionIndex,
		audioIndex:   audioIndex,
		cfg:          cfg,
		logger:       log,
	}
}

func (s *SearchService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Ready reports whether any processed data exists. Returns ErrNotReady
// when both segment tables are empty.
func (s *SearchService) Ready(ctx context.Context) error {
	frameCount, err := s.frames.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to count frame segments: %w", err)
	}
	audioCount, err := s.audio.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to count audio segments: %w", err)
	}
	if frameCount == 0 && audioCount == 0 {
		return ErrNotReady
	}
	return nil
}

// Config returns the configured top-k defaults.
func (s *SearchService) Config() config.SearchConfig {
	return s.cfg
}

// SearchSpeech finds transcript segments similar to a text query,
// optionally scoped to a set of video IDs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - query: cleaned search text.
//   - videoIDs: optional scope; nil searches all videos.
//   - topK: maximum number of results.
//
// Returns:
//   - []domain.SearchResult: matches ordered by similarity descending.
//   - error: non-nil if embedding or the index search fails.
func (s *SearchService) SearchSpeech(ctx context.Context, query string, videoIDs []string, topK int) ([]domain.SearchResult, error) {
	start := time.Now()

	vector, err := s.textEmbed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.audioIndex.Search(ctx, vector, topK, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("speech search failed: %w", err)
	}

	results := rankHits(hits)
	s.log(ctx).WithFields(logger.Fields{
		"count":       len(results),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Speech search completed")
	return results, nil
}

// SearchCaptions finds frame caption segments similar to a text query.
func (s *SearchService) SearchCaptions(ctx context.Context, query string, videoIDs []string, topK int) ([]domain.SearchResult, error) {
	start := time.Now()

	vector, err := s.textEmbed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.captionIndex.Search(ctx, vector, topK, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("caption search failed: %w", err)
	}

	results := rankHits(hits)
	s.log(ctx).WithFields(logger.Fields{
		"count":       len(results),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Caption search completed")
	return results, nil
}

// SearchImage finds frames visually similar to a reference image.
func (s *SearchService) SearchImage(ctx context.Context, imageData []byte, videoIDs []string, topK int) ([]domain.SearchResult, error) {
	start := time.Now()

	vector, err := s.imageEmbed.EmbedImage(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to embed image: %w", err)
	}

	hits, err := s.visualIndex.Search(ctx, vector, topK, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("image search failed: %w", err)
	}

	results := rankHits(hits)
	s.log(ctx).WithFields(logger.Fields{
		"count":       len(results),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Image search completed")
	return results, nil
}

// SegmentInfo is one matched segment with its video's display name, used
// by the info endpoints that return raw matches instead of clips.
type SegmentInfo struct {
	VideoID    string  `json:"video_id"`
	VideoName  string  `json:"video_name"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Similarity float32 `json:"similarity"`
	Text       string  `json:"text"`
}

// SpeechInfo returns matched transcript segments with display names.
func (s *SearchService) SpeechInfo(ctx context.Context, query string, videoIDs []string, topK int) ([]SegmentInfo, error) {
	results, err := s.SearchSpeech(ctx, query, videoIDs, topK)
	if err != nil {
		return nil, err
	}
	return s.withDisplayNames(ctx, results)
}

// CaptionInfo returns matched caption segments with display names.
func (s *SearchService) CaptionInfo(ctx context.Context, query string, videoIDs []string, topK int) ([]SegmentInfo, error) {
	results, err := s.SearchCaptions(ctx, query, videoIDs, topK)
	if err != nil {
		return nil, err
	}
	return s.withDisplayNames(ctx, results)
}

func (s *SearchService) withDisplayNames(ctx context.Context, results []domain.SearchResult) ([]SegmentInfo, error) {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.VideoID)
	}

	names, err := s.videos.GetDisplayNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve display names: %w", err)
	}

	infos := make([]SegmentInfo, 0, len(results))
	for _, r := range results {
		name := names[r.VideoID]
		if name == "" {
			name = r.VideoID
		}
		infos = append(infos, SegmentInfo{
			VideoID:    r.VideoID,
			VideoName:  name,
			StartTime:  r.StartTime,
			EndTime:    r.EndTime,
			Similarity: r.Similarity,
			Text:       r.Text,
		})
	}
	return infos, nil
}

// rankHits converts vector hits into search results ordered by similarity
// descending, with ingestion order breaking ties.
func rankHits(hits []repository.VectorHit) []domain.SearchResult {
	type scored struct {
		result domain.SearchResult
		seq    int64
	}

	items := make([]scored, 0, len(hits))
	for _, h := range hits {
		if h.Payload == nil {
			continue
		}
		items = append(items, scored{
			result: domain.SearchResult{
				VideoID:    h.Payload.VideoID,
				StartTime:  h.Payload.StartTime,
				EndTime:    h.Payload.EndTime,
				Similarity: h.Score,
				Text:       h.Payload.Text,
			},
			seq: h.Payload.Seq,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].result.Similarity != items[j].result.Similarity {
			return items[i].result.Similarity > items[j].result.Similarity
		}
		return items[i].seq < items[j].seq
	})

	results := make([]domain.SearchResult, len(items))
	for i, it := range items {
		results[i] = it.result
	}
	return results
}
