package domain

import "time"

// FrameSegment represents one sampled frame of a video. Rows are
// append-only: a segment is written once during ingestion and removed only
// as part of whole-video cleanup.
type FrameSegment struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	VideoID       string    `gorm:"type:text;not null;index:idx_frames_video" json:"video_id"`
	PositionMs    int64     `gorm:"not null" json:"position_ms"`
	FrameKey      string    `gorm:"type:text" json:"frame_key"`
	ThumbnailKey  string    `gorm:"type:text" json:"thumbnail_key"`
	Caption       string    `gorm:"type:text" json:"caption"`
	VisualPointID string    `gorm:"type:text" json:"visual_point_id"`
	TextPointID   string    `gorm:"type:text" json:"text_point_id"`
	Seq           int64     `gorm:"not null;index" json:"seq"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for FrameSegment.
func (FrameSegment) TableName() string {
	return "frame_segments"
}

// AudioSegment represents one transcribed audio chunk of a video.
// Chunk windows overlap; segments are immutable once written.
type AudioSegment struct {
	ID             string    `gorm:"type:text;primaryKey" json:"id"`
	VideoID        string    `gorm:"type:text;not null;index:idx_audio_video" json:"video_id"`
	StartTimeSec   float64   `gorm:"not null" json:"start_time_sec"`
	EndTimeSec     float64   `gorm:"not null" json:"end_time_sec"`
	ChunkKey       string    `gorm:"type:text" json:"chunk_key"`
	TranscriptText string    `gorm:"type:text" json:"transcript_text"`
	TextPointID    string    `gorm:"type:text" json:"text_point_id"`
	Seq            int64     `gorm:"not null;index" json:"seq"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for AudioSegment.
func (AudioSegment) TableName() string {
	return "audio_segments"
}

// SearchResult is the ephemeral result of a single similarity search:
// a time window within a video plus a similarity score (higher is better).
// It is never persisted.
type SearchResult struct {
	VideoID    string  `json:"video_id"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Similarity float32 `json:"similarity"`
	Text       string  `json:"text,omitempty"`
}
