package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/clipseek/internal/config"
	"github.com/timmy/clipseek/internal/domain"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/media"
	"github.com/timmy/clipseek/internal/repository"
	"github.com/timmy/clipseek/internal/storage"
	"github.com/timmy/clipseek/internal/validate"
)

// IngestService runs the video processing pipeline: audio chunking and
// transcription, frame sampling and captioning, embedding generation, and
// index/catalog writes.
type IngestService struct {
	videos *repository.VideoRepository
	frames *repository.FrameRepository
	audio  *repository.AudioRepository

	store        storage.ObjectStorage
	proc         MediaProcessor
	transcriber  Transcriber
	captioner    Captioner
	textEmbed    TextEmbedder
	imageEmbed   ImageEmbedder
	visualIndex  VectorIndex
	captionIndex VectorIndex
	audioIndex   VectorIndex

	mediaCfg  config.MediaConfig
	audioCfg  config.AudioConfig
	framesCfg config.FramesConfig

	logger *logger.Logger

	// per-display-name locks serialize concurrent runs for the same name
	mu        sync.Mutex
	nameLocks map[string]*sync.Mutex
}

// NewIngestService creates a new ingest service
func NewIngestService(
	videos *repository.VideoRepository,
	frames *repository.FrameRepository,
	audio *repository.AudioRepository,
	store storage.ObjectStorage,
	proc MediaProcessor,
	transcriber Transcriber,
	captioner Captioner,
	textEmbed TextEmbedder,
	imageEmbed ImageEmbedder,
	visualIndex VectorIndex,
	captionIndex VectorIndex,
	audioIndex VectorIndex,
	cfg *config.Config,
	log *logger.Logger,
) *IngestService {
	return &IngestService{
		videos:       videos,
		frames:       frames,
		audio:        audio,
		store:        store,
		proc:         proc,
		transcriber:  transcriber,
		captioner:    captioner,
		textEmbed:    textEmbed,
		imageEmbed:   imageEmbed,
		visualIndex:  visualIndex,
		captionIndex: captionIndex,
		audioIndex:   audioIndex,
		mediaCfg:     cfg.Media,
		audioCfg:     cfg.Audio,
		framesCfg:    cfg.Frames,
		logger:       log,
		nameLocks:    make(map[string]*sync.Mutex),
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// ProcessResult summarizes one ingestion run.
type ProcessResult struct {
	VideoID          string  `json:"video_id"`
	DisplayName      string  `json:"display_name"`
	AlreadyProcessed bool    `json:"already_processed"`
	DurationSec      float64 `json:"duration_sec"`
	FrameCount       int     `json:"frame_count"`
	AudioChunkCount  int     `json:"audio_chunk_count"`
}

// VideoStatusInfo is the poll-friendly view of a video's processing state.
type VideoStatusInfo struct {
	VideoID         string     `json:"video_id"`
	DisplayName     string     `json:"display_name"`
	Status          string     `json:"status"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	FrameCount      int        `json:"frame_count"`
	AudioChunkCount int        `json:"audio_chunk_count"`
}

// lockName acquires the per-display-name mutex and returns its unlock func.
func (s *IngestService) lockName(name string) func() {
	s.mu.Lock()
	m, ok := s.nameLocks[name]
	if !ok {
		m = &sync.Mutex{}
		s.nameLocks[name] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// ProcessVideo ingests a video from the shared media directory.
//
// Display names are the idempotency key: a name already in Done state is a
// no-op, while a name stuck in processing or failed state is purged and
// reprocessed under a fresh video ID.
//
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoPath: path to the source video, must resolve inside the shared media directory.
//   - displayName: human-readable name; defaults to the file stem when empty.
//   - videoID: caller-supplied identifier; a fresh UUID is minted when empty.
//
// Returns:
//   - *ProcessResult: ingestion summary including the assigned video ID.
//   - error: validation error for bad input, otherwise pipeline failure.
func (s *IngestService) ProcessVideo(ctx context.Context, videoPath, displayName, videoID string) (*ProcessResult, error) {
	absPath, err := validate.SourcePath(videoPath, s.mediaCfg.SharedDir)
	if err != nil {
		return nil, err
	}

	// The container must be decodable before any row is written
	info, err := s.proc.Probe(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}
	if !info.HasVideo {
		return nil, fmt.Errorf("file has no video stream")
	}
	if info.DurationSec <= 0 {
		return nil, fmt.Errorf("video has zero duration")
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		base := filepath.Base(absPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	unlock := s.lockName(name)
	defer unlock()

	// Idempotency check by display name
	existing, err := s.videos.GetByDisplayName(ctx, name)
	if err == nil {
		if existing.Status == domain.VideoStatusDone {
			s.log(ctx).WithFields(logger.Fields{
				"video_id":     existing.VideoID,
				"display_name": name,
			}).Info("Video already processed, skipping")
			return &ProcessResult{
				VideoID:          existing.VideoID,
				DisplayName:      name,
				AlreadyProcessed: true,
			}, nil
		}

		// Non-done leftovers from a crashed or failed run are purged so the
		// new run starts from a clean slate.
		s.log(ctx).WithFields(logger.Fields{
			"video_id": existing.VideoID,
			"status":   existing.Status,
		}).Warn("Purging stale video state before reprocessing")
		if err := s.purgeVideoData(ctx, existing.VideoID); err != nil {
			return nil, fmt.Errorf("failed to purge stale video data: %w", err)
		}
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check display name: %w", err)
	}

	id := strings.TrimSpace(videoID)
	if id == "" {
		id = uuid.New().String()
	}
	ctx = logger.SetVideoID(ctx, id)

	record := &domain.VideoRecord{
		VideoID:     id,
		SourcePath:  absPath,
		DisplayName: name,
		Status:      domain.VideoStatusProcessing,
	}
	if err := s.videos.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to register video: %w", err)
	}

	result, err := s.runPipeline(ctx, id, absPath, info)
	if err != nil {
		// Partially written segments must never be queryable: roll back the
		// derived state, then mark the run failed. Both steps are
		// best-effort and must not mask the pipeline error.
		s.cleanupDerivedData(ctx, id)
		s.videos.SetStatus(ctx, id, domain.VideoStatusFailed)
		s.log(ctx).WithError(err).Error("Video processing failed")
		return nil, fmt.Errorf("video processing failed: %w", err)
	}

	s.videos.SetStatus(ctx, id, domain.VideoStatusDone)

	result.VideoID = id
	result.DisplayName = name

	s.log(ctx).WithFields(logger.Fields{
		"frames":       result.FrameCount,
		"audio_chunks": result.AudioChunkCount,
		"duration_sec": result.DurationSec,
	}).Info("Video processing completed")

	return result, nil
}

func (s *IngestService) runPipeline(ctx context.Context, videoID, videoPath string, info *media.ProbeInfo) (*ProcessResult, error) {
	tmpDir, err := os.MkdirTemp("", "clipseek-ingest-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	result := &ProcessResult{DurationSec: info.DurationSec}

	if info.HasAudio {
		count, err := s.processAudio(ctx, videoID, videoPath, info.DurationSec, tmpDir)
		if err != nil {
			return nil, fmt.Errorf("audio processing failed: %w", err)
		}
		result.AudioChunkCount = count
	} else {
		s.log(ctx).Info("Video has no audio stream, skipping transcription")
	}

	frameCount, err := s.processFrames(ctx, videoID, videoPath, info.DurationSec, tmpDir)
	if err != nil {
		return nil, fmt.Errorf("frame processing failed: %w", err)
	}
	result.FrameCount = frameCount

	return result, nil
}

// processAudio extracts the audio track, splits it into overlapping chunks,
// transcribes each chunk, and indexes non-empty transcripts.
func (s *IngestService) processAudio(ctx context.Context, videoID, videoPath string, durationSec float64, tmpDir string) (int, error) {
	trackPath := filepath.Join(tmpDir, "audio.mp3")
	if err := s.proc.ExtractAudio(ctx, videoPath, trackPath); err != nil {
		return 0, fmt.Errorf("failed to extract audio track: %w", err)
	}

	if err := s.uploadFile(ctx, storage.AudioTrackKey(videoID), trackPath, "audio/mpeg"); err != nil {
		return 0, err
	}

	windows := media.ChunkWindows(durationSec,
		s.audioCfg.ChunkDurationSec,
		s.audioCfg.OverlapSec,
		s.audioCfg.MinChunkDurationSec)

	for i, w := range windows {
		chunkPath := filepath.Join(tmpDir, fmt.Sprintf("chunk_%d.mp3", i))
		if err := s.proc.CutAudio(ctx, trackPath, w.StartSec, w.EndSec, chunkPath); err != nil {
			return i, fmt.Errorf("failed to cut audio chunk %d: %w", i, err)
		}

		transcript, err := s.transcriber.Transcribe(ctx, chunkPath)
		if err != nil {
			return i, fmt.Errorf("failed to transcribe chunk %d: %w", i, err)
		}

		chunkKey := storage.AudioChunkKey(videoID, toMillis(w.StartSec), toMillis(w.EndSec))
		if err := s.uploadFile(ctx, chunkKey, chunkPath, "audio/mpeg"); err != nil {
			return i, err
		}

		seg := &domain.AudioSegment{
			ID:             uuid.New().String(),
			VideoID:        videoID,
			StartTimeSec:   w.StartSec,
			EndTimeSec:     w.EndSec,
			ChunkKey:       chunkKey,
			TranscriptText: transcript,
			Seq:            nextSeq(),
		}

		// Silent chunks keep their catalog row but are not indexed
		if transcript != "" {
			vector, err := s.textEmbed.EmbedText(ctx, transcript)
			if err != nil {
				return i, fmt.Errorf("failed to embed transcript %d: %w", i, err)
			}

			pointID := uuid.New().String()
			payload := &repository.SegmentPayload{
				VideoID:   videoID,
				StartTime: w.StartSec,
				EndTime:   w.EndSec,
				Text:      transcript,
				Seq:       seg.Seq,
			}
			if err := s.audioIndex.Upsert(ctx, pointID, vector, payload); err != nil {
				return i, fmt.Errorf("failed to index transcript %d: %w", i, err)
			}
			seg.TextPointID = pointID
		}

		if err := s.audio.Create(ctx, seg); err != nil {
			return i, fmt.Errorf("failed to save audio segment %d: %w", i, err)
		}
	}

	s.log(ctx).WithField("chunks", len(windows)).Info("Audio processing completed")
	return len(windows), nil
}

// processFrames samples frames evenly across the video, captions each one,
// and indexes both the visual embedding and the caption embedding.
func (s *IngestService) processFrames(ctx context.Context, videoID, videoPath string, durationSec float64, tmpDir string) (int, error) {
	timestamps := media.FrameTimestamps(durationSec, s.framesCfg.NumFrames)

	for i, ts := range timestamps {
		framePath := filepath.Join(tmpDir, fmt.Sprintf("frame_%d.jpg", i))
		if err := s.proc.ExtractFrame(ctx, videoPath, ts, framePath); err != nil {
			return i, fmt.Errorf("failed to extract frame %d: %w", i, err)
		}

		frameData, err := os.ReadFile(framePath)
		if err != nil {
			return i, fmt.Errorf("failed to read frame %d: %w", i, err)
		}

		thumb, err := media.Thumbnail(frameData, s.framesCfg.ResizeWidth, s.framesCfg.ResizeHeight)
		if err != nil {
			s.log(ctx).WithError(err).Warn("Failed to resize frame, using original")
			thumb = frameData
		}

		// External APIs first, nothing persisted yet if they fail
		caption, err := s.captioner.CaptionImage(ctx, thumb, "jpg")
		if err != nil {
			return i, fmt.Errorf("failed to caption frame %d: %w", i, err)
		}

		visualVector, err := s.imageEmbed.EmbedImage(ctx, thumb)
		if err != nil {
			return i, fmt.Errorf("failed to embed frame %d: %w", i, err)
		}

		captionVector, err := s.textEmbed.EmbedText(ctx, caption)
		if err != nil {
			return i, fmt.Errorf("failed to embed caption %d: %w", i, err)
		}

		positionMs := toMillis(ts)
		frameKey := storage.FrameKey(videoID, positionMs)
		thumbKey := storage.ThumbnailKey(videoID, positionMs)

		if err := s.store.Upload(ctx, frameKey, bytes.NewReader(frameData), int64(len(frameData)), "image/jpeg"); err != nil {
			return i, fmt.Errorf("failed to upload frame %d: %w", i, err)
		}
		if err := s.store.Upload(ctx, thumbKey, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
			return i, fmt.Errorf("failed to upload thumbnail %d: %w", i, err)
		}

		seq := nextSeq()
		payload := &repository.SegmentPayload{
			VideoID:   videoID,
			StartTime: ts,
			EndTime:   ts,
			Text:      caption,
			Seq:       seq,
		}

		visualPointID := uuid.New().String()
		if err := s.visualIndex.Upsert(ctx, visualPointID, visualVector, payload); err != nil {
			return i, fmt.Errorf("failed to index frame visual %d: %w", i, err)
		}

		textPointID := uuid.New().String()
		if err := s.captionIndex.Upsert(ctx, textPointID, captionVector, payload); err != nil {
			return i, fmt.Errorf("failed to index frame caption %d: %w", i, err)
		}

		seg := &domain.FrameSegment{
			ID:            uuid.New().String(),
			VideoID:       videoID,
			PositionMs:    positionMs,
			FrameKey:      frameKey,
			ThumbnailKey:  thumbKey,
			Caption:       caption,
			VisualPointID: visualPointID,
			TextPointID:   textPointID,
			Seq:           seq,
		}
		if err := s.frames.Create(ctx, seg); err != nil {
			return i, fmt.Errorf("failed to save frame segment %d: %w", i, err)
		}
	}

	s.log(ctx).WithField("frames", len(timestamps)).Info("Frame processing completed")
	return len(timestamps), nil
}

func (s *IngestService) uploadFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := s.store.Upload(ctx, key, f, info.Size(), contentType); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// cleanupDerivedData removes the derived state of a video: vector points,
// segment rows, and stored artifacts. The catalog row and the source file
// are left alone. Cleanup is best-effort: each failure is logged and the
// remaining steps still run, so callers must not assume full success.
func (s *IngestService) cleanupDerivedData(ctx context.Context, videoID string) {
	for _, index := range []VectorIndex{s.visualIndex, s.captionIndex, s.audioIndex} {
		if err := index.DeleteByVideo(ctx, videoID); err != nil {
			s.log(ctx).WithField("video_id", videoID).WithError(err).Warn("Failed to delete vector points")
		}
	}

	if _, err := s.frames.DeleteByVideo(ctx, videoID); err != nil {
		s.log(ctx).WithField("video_id", videoID).WithError(err).Warn("Failed to delete frame segments")
	}
	if _, err := s.audio.DeleteByVideo(ctx, videoID); err != nil {
		s.log(ctx).WithField("video_id", videoID).WithError(err).Warn("Failed to delete audio segments")
	}

	for _, prefix := range []string{storage.FramePrefix(videoID), storage.AudioPrefix(videoID)} {
		if _, err := s.store.DeleteByPrefix(ctx, prefix); err != nil {
			// Orphaned artifacts are re-created or overwritten on the next
			// run, so storage cleanup failures are logged, not fatal
			s.log(ctx).WithFields(logger.Fields{
				"prefix": prefix,
			}).WithError(err).Warn("Failed to delete stored artifacts")
		}
	}
}

// purgeVideoData removes all state for a video: the derived segment and
// index data plus the catalog record. Segment cleanup failures are logged
// and never block removal of the catalog row.
func (s *IngestService) purgeVideoData(ctx context.Context, videoID string) error {
	s.cleanupDerivedData(ctx, videoID)

	if _, err := s.videos.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("failed to delete video record: %w", err)
	}
	return nil
}

// DeleteVideo removes all processed data for a video.
//
// This is the first phase of deletion; the source file stays on disk until
// DeleteSourceFile is called.
//
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: identifier returned by ProcessVideo.
//
// Returns:
//   - bool: true if data was removed, false if the video was unknown.
//   - error: non-nil if the purge fails partway.
func (s *IngestService) DeleteVideo(ctx context.Context, videoID string) (bool, error) {
	id, err := validate.VideoID(videoID)
	if err != nil {
		return false, err
	}

	if _, err := s.videos.GetByID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up video: %w", err)
	}

	if err := s.purgeVideoData(ctx, id); err != nil {
		return false, err
	}

	s.log(ctx).WithField("video_id", id).Info("Video data deleted")
	return true, nil
}

// DeleteSourceFile removes a source video file from the shared media
// directory. The second phase of deletion, called after DeleteVideo once no
// processed data references the file.
func (s *IngestService) DeleteSourceFile(ctx context.Context, videoPath string) error {
	absPath, err := validate.SourcePath(videoPath, s.mediaCfg.SharedDir)
	if err != nil {
		return err
	}

	if err := os.Remove(absPath); err != nil {
		return fmt.Errorf("failed to delete video file: %w", err)
	}

	s.log(ctx).WithField("path", absPath).Info("Source video file deleted")
	return nil
}

// GetStatus returns the processing state of a video together with its
// current segment counts.
func (s *IngestService) GetStatus(ctx context.Context, videoID string) (*VideoStatusInfo, error) {
	id, err := validate.VideoID(videoID)
	if err != nil {
		return nil, err
	}

	record, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	frames, err := s.frames.ListByVideo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list frame segments: %w", err)
	}
	chunks, err := s.audio.ListByVideo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio segments: %w", err)
	}

	return &VideoStatusInfo{
		VideoID:         record.VideoID,
		DisplayName:     record.DisplayName,
		Status:          string(record.Status),
		ProcessedAt:     record.ProcessedAt,
		FrameCount:      len(frames),
		AudioChunkCount: len(chunks),
	}, nil
}

// GetStatusByName resolves a display name to its video and returns the
// processing state. Useful for polling after an asynchronous process call.
func (s *IngestService) GetStatusByName(ctx context.Context, displayName string) (*VideoStatusInfo, error) {
	record, err := s.videos.GetByDisplayName(ctx, strings.TrimSpace(displayName))
	if err != nil {
		return nil, err
	}
	return s.GetStatus(ctx, record.VideoID)
}

// ValidateSource checks a video path without starting processing, so
// asynchronous callers get obvious mistakes rejected up front.
func (s *IngestService) ValidateSource(videoPath string) error {
	_, err := validate.SourcePath(videoPath, s.mediaCfg.SharedDir)
	return err
}

// ListVideos returns catalog records ordered by creation time.
func (s *IngestService) ListVideos(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error) {
	return s.videos.List(ctx, limit, offset)
}

func toMillis(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}

// seqCounter hands out monotonically increasing ordering values so results
// with equal similarity rank in ingestion order.
var seqCounter struct {
	mu   sync.Mutex
	last int64
}

func nextSeq() int64 {
	seqCounter.mu.Lock()
	defer seqCounter.mu.Unlock()

	now := time.Now().UnixNano()
	if now <= seqCounter.last {
		now = seqCounter.last + 1
	}
	seqCounter.last = now
	return now
}
