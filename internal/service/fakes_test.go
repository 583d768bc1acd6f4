package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/timmy/clipseek/internal/config"
	"github.com/timmy/clipseek/internal/domain"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/media"
	"github.com/timmy/clipseek/internal/repository"
)

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "text", Output: io.Discard})
}

// fakeStore is an in-memory ObjectStorage.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) GetURL(key string) string {
	return "fake://" + key
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type clipCall struct {
	startSec float64
	endSec   float64
	outPath  string
}

// fakeProcessor stands in for ffmpeg: it writes small placeholder files
// instead of real media and records clip extractions.
type fakeProcessor struct {
	probeInfo media.ProbeInfo
	probeErr  error

	mu        sync.Mutex
	clipCalls []clipCall
}

func (p *fakeProcessor) Probe(ctx context.Context, path string) (*media.ProbeInfo, error) {
	if p.probeErr != nil {
		return nil, p.probeErr
	}
	info := p.probeInfo
	return &info, nil
}

func (p *fakeProcessor) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	return os.WriteFile(outPath, []byte("audio"), 0o644)
}

func (p *fakeProcessor) CutAudio(ctx context.Context, audioPath string, startSec, endSec float64, outPath string) error {
	return os.WriteFile(outPath, []byte("chunk"), 0o644)
}

func (p *fakeProcessor) ExtractFrame(ctx context.Context, videoPath string, atSec float64, outPath string) error {
	return os.WriteFile(outPath, []byte("frame"), 0o644)
}

func (p *fakeProcessor) ExtractClip(ctx context.Context, videoPath string, startSec, endSec float64, outPath string) error {
	p.mu.Lock()
	p.clipCalls = append(p.clipCalls, clipCall{startSec: startSec, endSec: endSec, outPath: outPath})
	p.mu.Unlock()
	return os.WriteFile(outPath, []byte("clip"), 0o644)
}

func (p *fakeProcessor) lastClip(t *testing.T) clipCall {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.clipCalls) == 0 {
		t.Fatal("no clip was extracted")
	}
	return p.clipCalls[len(p.clipCalls)-1]
}

// fakeEmbedder returns a fixed vector for any input.
type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return e.EmbedText(ctx, query)
}

func (e *fakeEmbedder) EmbedImage(ctx context.Context, imageData []byte) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.4, 0.5, 0.6}, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f.text, f.err
}

type fakeCaptioner struct {
	caption string
	err     error
}

func (f *fakeCaptioner) CaptionImage(ctx context.Context, imageData []byte, format string) (string, error) {
	return f.caption, f.err
}

// fakeIndex is an in-memory VectorIndex. Upserted points are tracked for
// cleanup assertions; Search returns preset hits filtered by video scope.
type fakeIndex struct {
	mu     sync.Mutex
	points map[string]*repository.SegmentPayload

	hits      []repository.VectorHit
	searchErr error
	deleteErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{points: make(map[string]*repository.SegmentPayload)}
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error {
	return nil
}

func (f *fakeIndex) Upsert(ctx context.Context, pointID string, vector []float32, payload *repository.SegmentPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[pointID] = payload
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, topK int, videoIDs []string) ([]repository.VectorHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	scope := make(map[string]bool, len(videoIDs))
	for _, id := range videoIDs {
		scope[id] = true
	}
	var out []repository.VectorHit
	for _, h := range f.hits {
		if len(scope) > 0 && h.Payload != nil && !scope[h.Payload.VideoID] {
			continue
		}
		out = append(out, h)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (f *fakeIndex) Delete(ctx context.Context, pointID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.points, pointID)
	return nil
}

func (f *fakeIndex) DeleteByVideo(ctx context.Context, videoID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.points {
		if p != nil && p.VideoID == videoID {
			delete(f.points, id)
		}
	}
	return nil
}

func (f *fakeIndex) pointCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points)
}

// harness wires the full service stack against in-memory fakes and a
// throwaway SQLite database.
type harness struct {
	db     *gorm.DB
	videos *repository.VideoRepository
	frames *repository.FrameRepository
	audio  *repository.AudioRepository

	store       *fakeStore
	proc        *fakeProcessor
	transcriber *fakeTranscriber
	captioner   *fakeCaptioner
	embed       *fakeEmbedder

	visualIdx  *fakeIndex
	captionIdx *fakeIndex
	audioIdx   *fakeIndex

	cfg *config.Config

	ingest *IngestService
	search *SearchService
	clips  *ClipService
	tools  *ToolService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.VideoRecord{}, &domain.FrameSegment{}, &domain.AudioSegment{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		Media: config.MediaConfig{
			SharedDir:        t.TempDir(),
			ClipOutputSubdir: "clips",
		},
		Audio: config.AudioConfig{
			ChunkDurationSec:    10,
			OverlapSec:          2,
			MinChunkDurationSec: 1,
		},
		Frames: config.FramesConfig{
			NumFrames:    2,
			ResizeWidth:  1024,
			ResizeHeight: 768,
			DeltaSeconds: 5,
		},
		Search: config.SearchConfig{
			SpeechTopK:   1,
			CaptionTopK:  1,
			ImageTopK:    1,
			QuestionTopK: 3,
		},
	}

	h := &harness{
		db:          db,
		videos:      repository.NewVideoRepository(db),
		frames:      repository.NewFrameRepository(db),
		audio:       repository.NewAudioRepository(db),
		store:       newFakeStore(),
		proc:        &fakeProcessor{probeInfo: media.ProbeInfo{DurationSec: 20, HasVideo: true, HasAudio: true}},
		transcriber: &fakeTranscriber{text: "hello from the audio track"},
		captioner:   &fakeCaptioner{caption: "a person standing in a room"},
		embed:       &fakeEmbedder{},
		visualIdx:   newFakeIndex(),
		captionIdx:  newFakeIndex(),
		audioIdx:    newFakeIndex(),
		cfg:         cfg,
	}

	log := testLogger()
	h.ingest = NewIngestService(h.videos, h.frames, h.audio, h.store, h.proc,
		h.transcriber, h.captioner, h.embed, h.embed,
		h.visualIdx, h.captionIdx, h.audioIdx, cfg, log)
	h.search = NewSearchService(h.videos, h.frames, h.audio, h.embed, h.embed,
		h.visualIdx, h.captionIdx, h.audioIdx, cfg.Search, log)
	h.clips = NewClipService(h.search, h.videos, h.proc, cfg.Media, cfg.Frames.DeltaSeconds, log)
	h.tools = NewToolService(h.ingest, h.search, h.clips, log)
	return h
}

// addSourceFile writes a placeholder video file into the shared media
// directory and returns its path.
func (h *harness) addSourceFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.cfg.Media.SharedDir, name)
	data := bytes.Repeat([]byte("v"), 256)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	return path
}
