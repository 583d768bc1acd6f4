package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/timmy/clipseek/internal/domain"
)

func TestProcessVideo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "lecture.mp4")

	result, err := h.ingest.ProcessVideo(ctx, path, "", "")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}

	if result.VideoID == "" {
		t.Error("expected a video ID to be assigned")
	}
	if result.DisplayName != "lecture" {
		t.Errorf("display name = %q, want file stem %q", result.DisplayName, "lecture")
	}
	if result.AlreadyProcessed {
		t.Error("first run should not report already processed")
	}
	// 20s at 10s chunks with 2s overlap yields two windows
	if result.AudioChunkCount != 2 {
		t.Errorf("audio chunk count = %d, want 2", result.AudioChunkCount)
	}
	if result.FrameCount != h.cfg.Frames.NumFrames {
		t.Errorf("frame count = %d, want %d", result.FrameCount, h.cfg.Frames.NumFrames)
	}

	record, err := h.videos.GetByID(ctx, result.VideoID)
	if err != nil {
		t.Fatalf("video record not found: %v", err)
	}
	if record.Status != domain.VideoStatusDone {
		t.Errorf("status = %q, want %q", record.Status, domain.VideoStatusDone)
	}

	// Each frame indexes a visual point and a caption point; each spoken
	// chunk indexes one transcript point.
	if got := h.visualIdx.pointCount(); got != 2 {
		t.Errorf("visual points = %d, want 2", got)
	}
	if got := h.captionIdx.pointCount(); got != 2 {
		t.Errorf("caption points = %d, want 2", got)
	}
	if got := h.audioIdx.pointCount(); got != 2 {
		t.Errorf("audio points = %d, want 2", got)
	}

	// Artifacts: 2 frames + 2 thumbnails + full track + 2 audio chunks
	if got := h.store.count(); got != 7 {
		t.Errorf("stored objects = %d, want 7", got)
	}
}

func TestProcessVideoIdempotentByDisplayName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "talk.mp4")

	first, err := h.ingest.ProcessVideo(ctx, path, "my talk", "")
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	second, err := h.ingest.ProcessVideo(ctx, path, "my talk", "")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !second.AlreadyProcessed {
		t.Error("second run should be a no-op")
	}
	if second.VideoID != first.VideoID {
		t.Errorf("no-op run returned video_id %q, want %q", second.VideoID, first.VideoID)
	}

	// A completed run was not re-indexed
	if got := h.visualIdx.pointCount(); got != 2 {
		t.Errorf("visual points = %d, want 2", got)
	}
}

func TestProcessVideoPurgesStaleState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "crashed.mp4")

	// Simulate leftovers from a run that never reached done
	stale := &domain.VideoRecord{
		VideoID:     "stale-id",
		SourcePath:  path,
		DisplayName: "crashed",
		Status:      domain.VideoStatusProcessing,
	}
	if err := h.videos.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if err := h.frames.Create(ctx, &domain.FrameSegment{ID: "f1", VideoID: "stale-id", Seq: 1}); err != nil {
		t.Fatal(err)
	}

	result, err := h.ingest.ProcessVideo(ctx, path, "crashed", "")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if result.AlreadyProcessed {
		t.Error("stale state must be reprocessed, not skipped")
	}
	if result.VideoID == "stale-id" {
		t.Error("reprocessing must assign a fresh video ID")
	}

	if _, err := h.videos.GetByID(ctx, "stale-id"); err == nil {
		t.Error("stale video record should be purged")
	}
	frames, err := h.frames.ListByVideo(ctx, "stale-id")
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Errorf("stale frame segments remain: %d", len(frames))
	}
}

func TestProcessVideoMarksFailedOnPipelineError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "broken.mp4")

	h.captioner.err = errors.New("caption api unavailable")

	if _, err := h.ingest.ProcessVideo(ctx, path, "broken", ""); err == nil {
		t.Fatal("expected pipeline failure")
	}

	record, err := h.videos.GetByDisplayName(ctx, "broken")
	if err != nil {
		t.Fatalf("failed run should keep its catalog record: %v", err)
	}
	if record.Status != domain.VideoStatusFailed {
		t.Errorf("status = %q, want %q", record.Status, domain.VideoStatusFailed)
	}

	// The captioner fails after audio processing, so transcript rows and
	// points were already written. None of it may survive the failure.
	audio, err := h.audio.ListByVideo(ctx, record.VideoID)
	if err != nil {
		t.Fatal(err)
	}
	if len(audio) != 0 {
		t.Errorf("audio rows remain after failure: %d", len(audio))
	}
	frames, err := h.frames.ListByVideo(ctx, record.VideoID)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Errorf("frame rows remain after failure: %d", len(frames))
	}
	if got := h.audioIdx.pointCount(); got != 0 {
		t.Errorf("audio points remain after failure: %d", got)
	}
	if got := h.visualIdx.pointCount(); got != 0 {
		t.Errorf("visual points remain after failure: %d", got)
	}
	if got := h.captionIdx.pointCount(); got != 0 {
		t.Errorf("caption points remain after failure: %d", got)
	}
	if err := h.search.Ready(ctx); !errors.Is(err, ErrNotReady) {
		t.Errorf("Ready after failed run = %v, want ErrNotReady", err)
	}
}

func TestProcessVideoUndecodableFileLeavesNoRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "garbage.mp4")

	h.proc.probeErr = errors.New("moov atom not found")

	if _, err := h.ingest.ProcessVideo(ctx, path, "garbage", ""); err == nil {
		t.Fatal("expected rejection of an undecodable file")
	}

	if _, err := h.videos.GetByDisplayName(ctx, "garbage"); err == nil {
		t.Error("undecodable file must not be registered in the catalog")
	}
	records, err := h.videos.List(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("catalog rows = %d, want 0", len(records))
	}
}

func TestProcessVideoRejectsZeroDuration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "empty.mp4")

	h.proc.probeInfo.DurationSec = 0

	if _, err := h.ingest.ProcessVideo(ctx, path, "empty", ""); err == nil {
		t.Fatal("expected zero-duration rejection")
	}
	if _, err := h.videos.GetByDisplayName(ctx, "empty"); err == nil {
		t.Error("zero-duration file must not be registered in the catalog")
	}
}

func TestProcessVideoRejectsFileWithoutVideoStream(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "podcast.mp4")

	h.proc.probeInfo.HasVideo = false

	if _, err := h.ingest.ProcessVideo(ctx, path, "podcast", ""); err == nil {
		t.Fatal("expected rejection of audio-only file")
	}
	if _, err := h.videos.GetByDisplayName(ctx, "podcast"); err == nil {
		t.Error("audio-only file must not be registered in the catalog")
	}
}

func TestProcessVideoUsesSuppliedID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "keynote.mp4")

	result, err := h.ingest.ProcessVideo(ctx, path, "keynote", "keynote-2026")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if result.VideoID != "keynote-2026" {
		t.Errorf("video ID = %q, want the supplied %q", result.VideoID, "keynote-2026")
	}
	record, err := h.videos.GetByID(ctx, "keynote-2026")
	if err != nil {
		t.Fatalf("record not found under supplied ID: %v", err)
	}
	if record.Status != domain.VideoStatusDone {
		t.Errorf("status = %q, want %q", record.Status, domain.VideoStatusDone)
	}
}

func TestProcessVideoRejectsPathOutsideSharedDir(t *testing.T) {
	h := newHarness(t)

	_, err := h.ingest.ProcessVideo(context.Background(), "/etc/passwd.mp4", "", "")
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestProcessVideoSilentChunksNotIndexed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "silent.mp4")

	h.transcriber.text = ""

	result, err := h.ingest.ProcessVideo(ctx, path, "", "")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}

	// Catalog rows exist for every chunk, but nothing reached the index
	if result.AudioChunkCount != 2 {
		t.Errorf("audio chunk count = %d, want 2", result.AudioChunkCount)
	}
	chunks, err := h.audio.ListByVideo(ctx, result.VideoID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("audio rows = %d, want 2", len(chunks))
	}
	for _, c := range chunks {
		if c.TextPointID != "" {
			t.Errorf("silent chunk %s should have no index point", c.ID)
		}
	}
	if got := h.audioIdx.pointCount(); got != 0 {
		t.Errorf("audio points = %d, want 0", got)
	}
}

func TestProcessVideoNoAudioStream(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "mute.mp4")

	h.proc.probeInfo.HasAudio = false

	result, err := h.ingest.ProcessVideo(ctx, path, "", "")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if result.AudioChunkCount != 0 {
		t.Errorf("audio chunk count = %d, want 0", result.AudioChunkCount)
	}
	if result.FrameCount != h.cfg.Frames.NumFrames {
		t.Errorf("frame count = %d, want %d", result.FrameCount, h.cfg.Frames.NumFrames)
	}
}

func TestDeleteVideo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "gone.mp4")

	result, err := h.ingest.ProcessVideo(ctx, path, "", "")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}

	removed, err := h.ingest.DeleteVideo(ctx, result.VideoID)
	if err != nil {
		t.Fatalf("DeleteVideo failed: %v", err)
	}
	if !removed {
		t.Error("expected deletion to report removed data")
	}

	if _, err := h.videos.GetByID(ctx, result.VideoID); err == nil {
		t.Error("video record should be gone")
	}
	if got := h.visualIdx.pointCount(); got != 0 {
		t.Errorf("visual points remain: %d", got)
	}
	if got := h.captionIdx.pointCount(); got != 0 {
		t.Errorf("caption points remain: %d", got)
	}
	if got := h.audioIdx.pointCount(); got != 0 {
		t.Errorf("audio points remain: %d", got)
	}
	if got := h.store.count(); got != 0 {
		t.Errorf("stored objects remain: %d", got)
	}

	// Source file is untouched: deletion of the file is a separate step
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source file should survive data deletion: %v", err)
	}
}

func TestDeleteVideoSurvivesIndexFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "stuck.mp4")

	result, err := h.ingest.ProcessVideo(ctx, path, "", "")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}

	// An unreachable index must not block catalog deletion
	h.audioIdx.deleteErr = errors.New("connection refused")

	removed, err := h.ingest.DeleteVideo(ctx, result.VideoID)
	if err != nil {
		t.Fatalf("DeleteVideo should tolerate index failures: %v", err)
	}
	if !removed {
		t.Error("expected deletion to report removed data")
	}
	if _, err := h.videos.GetByID(ctx, result.VideoID); err == nil {
		t.Error("video record should be gone despite the index failure")
	}
}

func TestDeleteVideoUnknownID(t *testing.T) {
	h := newHarness(t)

	removed, err := h.ingest.DeleteVideo(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Error("unknown video should report nothing removed")
	}
}

func TestDeleteSourceFile(t *testing.T) {
	h := newHarness(t)
	path := h.addSourceFile(t, "trash.mp4")

	if err := h.ingest.DeleteSourceFile(context.Background(), path); err != nil {
		t.Fatalf("DeleteSourceFile failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("source file should be removed")
	}
}

func TestGetStatusByName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.addSourceFile(t, "status.mp4")

	result, err := h.ingest.ProcessVideo(ctx, path, "status check", "")
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}

	info, err := h.ingest.GetStatusByName(ctx, "status check")
	if err != nil {
		t.Fatalf("GetStatusByName failed: %v", err)
	}
	if info.VideoID != result.VideoID {
		t.Errorf("video_id = %q, want %q", info.VideoID, result.VideoID)
	}
	if info.Status != string(domain.VideoStatusDone) {
		t.Errorf("status = %q, want done", info.Status)
	}
	if info.FrameCount != result.FrameCount {
		t.Errorf("frame count = %d, want %d", info.FrameCount, result.FrameCount)
	}
	if info.AudioChunkCount != result.AudioChunkCount {
		t.Errorf("audio chunk count = %d, want %d", info.AudioChunkCount, result.AudioChunkCount)
	}
}
