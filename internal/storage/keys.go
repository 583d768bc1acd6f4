package storage

import "fmt"

// Artifact key layout. All derived artifacts for a video live under a
// per-video prefix so a single prefix delete removes everything.
//
//	frames/<video_id>/<position_ms>.jpg
//	frames/<video_id>/<position_ms>_thumb.jpg
//	audio/<video_id>/full.mp3
//	audio/<video_id>/<start_ms>_<end_ms>.mp3

// FrameKey returns the storage key for a full-size frame image.
func FrameKey(videoID string, positionMs int64) string {
	return fmt.Sprintf("frames/%s/%d.jpg", videoID, positionMs)
}

// ThumbnailKey returns the storage key for a frame thumbnail.
func ThumbnailKey(videoID string, positionMs int64) string {
	return fmt.Sprintf("frames/%s/%d_thumb.jpg", videoID, positionMs)
}

// AudioTrackKey returns the storage key for the full extracted audio track.
func AudioTrackKey(videoID string) string {
	return fmt.Sprintf("audio/%s/full.mp3", videoID)
}

// AudioChunkKey returns the storage key for one transcription chunk.
func AudioChunkKey(videoID string, startMs, endMs int64) string {
	return fmt.Sprintf("audio/%s/%d_%d.mp3", videoID, startMs, endMs)
}

// FramePrefix returns the prefix covering all frame artifacts of a video.
func FramePrefix(videoID string) string {
	return fmt.Sprintf("frames/%s/", videoID)
}

// AudioPrefix returns the prefix covering all audio artifacts of a video.
func AudioPrefix(videoID string) string {
	return fmt.Sprintf("audio/%s/", videoID)
}
