package repository

import (
	"context"

	"github.com/timmy/clipseek/internal/domain"
	"gorm.io/gorm"
)

// FrameRepository handles frame segment rows. Segments are append-only:
// rows are inserted during ingestion and removed only by whole-video cleanup.
type FrameRepository struct {
	db *gorm.DB
}

// NewFrameRepository creates a new FrameRepository.
func NewFrameRepository(db *gorm.DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// Create inserts a frame segment row.
func (r *FrameRepository) Create(ctx context.Context, seg *domain.FrameSegment) error {
	return r.db.WithContext(ctx).Create(seg).Error
}

// ListByVideo retrieves all frame segments for a video ordered by position.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: catalog video identifier.
// Returns:
//   - []domain.FrameSegment: matching segments.
//   - error: non-nil if the query fails.
func (r *FrameRepository) ListByVideo(ctx context.Context, videoID string) ([]domain.FrameSegment, error) {
	var segs []domain.FrameSegment
	if err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("position_ms ASC").
		Find(&segs).Error; err != nil {
		return nil, err
	}
	return segs, nil
}

// CountAll counts all frame segments across videos.
func (r *FrameRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.FrameSegment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByVideo removes all frame segments for a video.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: catalog video identifier.
// Returns:
//   - int64: number of rows removed.
//   - error: non-nil if the delete fails.
func (r *FrameRepository) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.FrameSegment{}, "video_id = ?", videoID)
	return res.RowsAffected, res.Error
}

// AudioRepository handles audio segment rows, with the same append-only
// lifecycle as frame segments.
type AudioRepository struct {
	db *gorm.DB
}

// NewAudioRepository creates a new AudioRepository.
func NewAudioRepository(db *gorm.DB) *AudioRepository {
	return &AudioRepository{db: db}
}

// Create inserts an audio segment row.
func (r *AudioRepository) Create(ctx context.Context, seg *domain.AudioSegment) error {
	return r.db.WithContext(ctx).Create(seg).Error
}

// ListByVideo retrieves all audio segments for a video ordered by start time.
func (r *AudioRepository) ListByVideo(ctx context.Context, videoID string) ([]domain.AudioSegment, error) {
	var segs []domain.AudioSegment
	if err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("start_time_sec ASC").
		Find(&segs).Error; err != nil {
		return nil, err
	}
	return segs, nil
}

// CountAll counts all audio segments across videos.
func (r *AudioRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.AudioSegment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByVideo removes all audio segments for a video.
func (r *AudioRepository) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.AudioSegment{}, "video_id = ?", videoID)
	return res.RowsAffected, res.Error
}
