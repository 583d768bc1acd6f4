package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/clipseek/internal/domain"
	"github.com/timmy/clipseek/internal/logger"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookup methods when no matching row exists.
var ErrNotFound = gorm.ErrRecordNotFound

// VideoRepository handles catalog operations for video records.
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new VideoRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *VideoRepository: repository instance bound to db.
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - video: video record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *VideoRepository) Create(ctx context.Context, video *domain.VideoRecord) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// GetByID retrieves a video record by its video ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: catalog video identifier.
// Returns:
//   - *domain.VideoRecord: record if found.
//   - error: ErrNotFound if missing, other non-nil on query failure.
func (r *VideoRepository) GetByID(ctx context.Context, videoID string) (*domain.VideoRecord, error) {
	var video domain.VideoRecord
	if err := r.db.WithContext(ctx).First(&video, "video_id = ?", videoID).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// GetByDisplayName retrieves a video record by display name. Display names
// act as the ingestion idempotency key, so at most one row is expected.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: display name derived from the source file.
// Returns:
//   - *domain.VideoRecord: record if found.
//   - error: ErrNotFound if missing, other non-nil on query failure.
func (r *VideoRepository) GetByDisplayName(ctx context.Context, name string) (*domain.VideoRecord, error) {
	var video domain.VideoRecord
	if err := r.db.WithContext(ctx).First(&video, "display_name = ?", name).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// SetStatus updates the processing status and timestamp of a video record.
// Status writes are side effects of pipeline progress and must never block
// cleanup: failures are logged and swallowed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: catalog video identifier.
//   - status: new processing status.
// Returns: none.
func (r *VideoRepository) SetStatus(ctx context.Context, videoID string, status domain.VideoStatus) {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&domain.VideoRecord{}).
		Where("video_id = ?", videoID).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_at": &now,
			"updated_at":   now,
		}).Error
	if err != nil {
		logger.CtxWarn(ctx, "Failed to update video status: video_id=%s, status=%s, error=%v",
			videoID, status, err)
	}
}

// List retrieves video records ordered by creation time descending.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return; <=0 means no limit.
//   - offset: number of records to skip.
// Returns:
//   - []domain.VideoRecord: matching records.
//   - error: non-nil if the query fails.
func (r *VideoRepository) List(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error) {
	var videos []domain.VideoRecord
	query := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// GetDisplayNames resolves display names for a list of video IDs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoIDs: list of catalog video identifiers.
// Returns:
//   - map[string]string: video_id -> display_name for found rows.
//   - error: non-nil if the query fails.
func (r *VideoRepository) GetDisplayNames(ctx context.Context, videoIDs []string) (map[string]string, error) {
	if len(videoIDs) == 0 {
		return map[string]string{}, nil
	}
	var videos []domain.VideoRecord
	if err := r.db.WithContext(ctx).
		Select("video_id", "display_name").
		Where("video_id IN ?", videoIDs).
		Find(&videos).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(videos))
	for _, v := range videos {
		names[v.VideoID] = v.DisplayName
	}
	return names, nil
}

// CountByStatus counts video records by status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: video status to count.
// Returns:
//   - int64: number of matching records.
//   - error: non-nil if the query fails.
func (r *VideoRepository) CountByStatus(ctx context.Context, status domain.VideoStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.VideoRecord{}).
		Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a video record by video ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: catalog video identifier.
// Returns:
//   - bool: true if a row was removed.
//   - error: non-nil if the delete fails.
func (r *VideoRepository) Delete(ctx context.Context, videoID string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&domain.VideoRecord{}, "video_id = ?", videoID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsNotFound reports whether err indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
