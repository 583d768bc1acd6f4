package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg runs media operations by shelling out to ffmpeg/ffprobe.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates an FFmpeg runner. Empty paths default to binaries on PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// ProbeInfo describes the decodable content of a media container.
type ProbeInfo struct {
	DurationSec float64
	FrameCount  int64
	HasVideo    bool
	HasAudio    bool
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		NbFrames  string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe inspects a media file and reports its streams and duration.
// A file that ffprobe cannot parse yields an error.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w\nstderr: %s", err, stderr.String())
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &ProbeInfo{}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
			if n, err := strconv.ParseInt(s.NbFrames, 10, 64); err == nil {
				info.FrameCount = n
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if d := strings.TrimSpace(out.Format.Duration); d != "" {
		if sec, err := strconv.ParseFloat(d, 64); err == nil {
			info.DurationSec = sec
		}
	}

	return info, nil
}

// run executes an ffmpeg command and wraps failures with stderr context.
func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nstderr: %s", err, stderr.String())
	}
	return nil
}

// ExtractAudio extracts the audio track of a video into an mp3 file.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	return f.run(ctx,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		outPath)
}

// CutAudio copies a time window of an audio file into a new file.
func (f *FFmpeg) CutAudio(ctx context.Context, audioPath string, startSec, endSec float64, outPath string) error {
	return f.run(ctx,
		"-y",
		"-ss", formatSeconds(startSec),
		"-to", formatSeconds(endSec),
		"-i", audioPath,
		"-acodec", "copy",
		outPath)
}

// ExtractFrame grabs a single frame at the given offset as a JPEG image.
func (f *FFmpeg) ExtractFrame(ctx context.Context, videoPath string, atSec float64, outPath string) error {
	return f.run(ctx,
		"-y",
		"-ss", formatSeconds(atSec),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath)
}

// ExtractClip cuts a sub-range of a video into a new file. Streams are
// copied without re-encoding.
func (f *FFmpeg) ExtractClip(ctx context.Context, videoPath string, startSec, endSec float64, outPath string) error {
	if startSec < 0 {
		startSec = 0
	}
	return f.run(ctx,
		"-y",
		"-ss", formatSeconds(startSec),
		"-to", formatSeconds(endSec),
		"-i", videoPath,
		"-c", "copy",
		outPath)
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
