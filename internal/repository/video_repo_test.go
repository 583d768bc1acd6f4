package repository

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/timmy/clipseek/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.VideoRecord{}, &domain.FrameSegment{}, &domain.AudioSegment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestVideoRepositoryLifecycle(t *testing.T) {
	repo := NewVideoRepository(testDB(t))
	ctx := context.Background()

	record := &domain.VideoRecord{
		VideoID:     "v1",
		SourcePath:  "/media/a.mp4",
		DisplayName: "First",
		Status:      domain.VideoStatusProcessing,
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "v1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.DisplayName != "First" {
		t.Errorf("display name = %q", got.DisplayName)
	}

	byName, err := repo.GetByDisplayName(ctx, "First")
	if err != nil {
		t.Fatalf("GetByDisplayName failed: %v", err)
	}
	if byName.VideoID != "v1" {
		t.Errorf("video_id = %q", byName.VideoID)
	}

	repo.SetStatus(ctx, "v1", domain.VideoStatusDone)
	got, err = repo.GetByID(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.VideoStatusDone {
		t.Errorf("status = %q, want done", got.Status)
	}
	if got.ProcessedAt == nil {
		t.Error("processed_at should be set")
	}

	removed, err := repo.Delete(ctx, "v1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !removed {
		t.Error("expected a row to be removed")
	}
	if _, err := repo.GetByID(ctx, "v1"); !IsNotFound(err) {
		t.Errorf("expected not-found after delete, got %v", err)
	}

	removed, err = repo.Delete(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Error("second delete should remove nothing")
	}
}

func TestVideoRepositoryGetDisplayNames(t *testing.T) {
	repo := NewVideoRepository(testDB(t))
	ctx := context.Background()

	for _, v := range []struct{ id, name string }{
		{"v1", "First"},
		{"v2", "Second"},
	} {
		if err := repo.Create(ctx, &domain.VideoRecord{
			VideoID:     v.id,
			SourcePath:  "/media/" + v.id + ".mp4",
			DisplayName: v.name,
			Status:      domain.VideoStatusDone,
		}); err != nil {
			t.Fatal(err)
		}
	}

	names, err := repo.GetDisplayNames(ctx, []string{"v1", "v2", "missing"})
	if err != nil {
		t.Fatalf("GetDisplayNames failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	if names["v1"] != "First" || names["v2"] != "Second" {
		t.Errorf("unexpected names: %v", names)
	}

	empty, err := repo.GetDisplayNames(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty map, got %v", empty)
	}
}

func TestVideoRepositoryNotFound(t *testing.T) {
	repo := NewVideoRepository(testDB(t))

	_, err := repo.GetByID(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
	_, err = repo.GetByDisplayName(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestSegmentRepositories(t *testing.T) {
	db := testDB(t)
	frames := NewFrameRepository(db)
	audio := NewAudioRepository(db)
	ctx := context.Background()

	for i, videoID := range []string{"v1", "v1", "v2"} {
		if err := frames.Create(ctx, &domain.FrameSegment{
			ID:         string(rune('a' + i)),
			VideoID:    videoID,
			PositionMs: int64(i * 1000),
			Seq:        int64(i + 1),
		}); err != nil {
			t.Fatal(err)
		}
		if err := audio.Create(ctx, &domain.AudioSegment{
			ID:           string(rune('x' + i)),
			VideoID:      videoID,
			StartTimeSec: float64(i * 10),
			EndTimeSec:   float64(i*10 + 10),
			Seq:          int64(i + 1),
		}); err != nil {
			t.Fatal(err)
		}
	}

	frameCount, err := frames.CountAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if frameCount != 3 {
		t.Errorf("frame count = %d, want 3", frameCount)
	}

	v1Frames, err := frames.ListByVideo(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(v1Frames) != 2 {
		t.Fatalf("v1 frames = %d, want 2", len(v1Frames))
	}
	if v1Frames[0].PositionMs > v1Frames[1].PositionMs {
		t.Error("frames should be ordered by position")
	}

	removed, err := frames.DeleteByVideo(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed %d frame rows, want 2", removed)
	}

	audioRemoved, err := audio.DeleteByVideo(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if audioRemoved != 2 {
		t.Errorf("removed %d audio rows, want 2", audioRemoved)
	}

	audioCount, err := audio.CountAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if audioCount != 1 {
		t.Errorf("audio count = %d, want 1", audioCount)
	}
}
