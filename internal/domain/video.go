package domain

import "time"

// VideoStatus represents the processing status of a video record.
// Values include VideoStatusProcessing, VideoStatusDone, and VideoStatusFailed.
type VideoStatus string

const (
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusDone       VideoStatus = "done"
	VideoStatusFailed     VideoStatus = "failed"
)

// Valid reports whether s is one of the closed set of statuses.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusProcessing, VideoStatusDone, VideoStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal pipeline state.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusDone || s == VideoStatusFailed
}

// VideoRecord represents one ingested video in the catalog.
// Status is the single source of truth for whether the derived segments
// of this video are queryable.
type VideoRecord struct {
	VideoID     string      `gorm:"type:text;primaryKey" json:"video_id"`
	SourcePath  string      `gorm:"type:text;not null" json:"source_path"`
	DisplayName string      `gorm:"type:text;not null;index:idx_videos_name" json:"display_name"`
	Status      VideoStatus `gorm:"type:text;index:idx_videos_status;default:processing" json:"status"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName returns the database table name for VideoRecord.
func (VideoRecord) TableName() string {
	return "videos"
}
