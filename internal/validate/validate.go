// Package validate centralizes input validation for the video tool
// entrypoints: queries, base64 images, video ID scopes, and source paths.
package validate

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxQueryLength bounds user search queries.
	MaxQueryLength = 2000

	// MaxImageEncodedBytes bounds the base64-encoded image payload.
	MaxImageEncodedBytes = 10 * 1024 * 1024

	// MinImageDecodedBytes rejects payloads too small to be a real image.
	MinImageDecodedBytes = 100

	// MaxVideoIDs bounds the video_ids scoping list.
	MaxVideoIDs = 20

	// MaxVideoSizeBytes bounds source video files (5GB).
	MaxVideoSizeBytes = int64(5) * 1024 * 1024 * 1024
)

// videoExtensions is the set of supported container extensions.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
	".flv":  true,
}

// ValidationError indicates malformed or out-of-policy input. It carries a
// user-safe message and is always recovered into a text result at the tool
// boundary, never propagated as a system fault.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// Query validates and trims a user search query.
func Query(query string) (string, error) {
	cleaned := strings.TrimSpace(query)
	if cleaned == "" {
		return "", newError("Query cannot be empty")
	}
	if len(cleaned) > MaxQueryLength {
		return "", newError("Query too long (max %d characters)", MaxQueryLength)
	}
	return cleaned, nil
}

// ImageBase64 validates a base64 image payload and returns the decoded bytes.
func ImageBase64(imageBase64 string) ([]byte, error) {
	cleaned := strings.TrimSpace(imageBase64)
	if cleaned == "" {
		return nil, newError("Image base64 string cannot be empty")
	}
	if len(cleaned) > MaxImageEncodedBytes {
		return nil, newError("Image too large (max %dMB)", MaxImageEncodedBytes/(1024*1024))
	}

	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, newError("Invalid base64 format: %v", err)
	}
	if len(decoded) < MinImageDecodedBytes {
		return nil, newError("Image data too small to be valid")
	}
	return decoded, nil
}

// VideoIDs validates an optional video ID scope list. Blank entries are
// stripped; an empty result normalizes to nil ("no filter").
func VideoIDs(videoIDs []string) ([]string, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	if len(videoIDs) > MaxVideoIDs {
		return nil, newError("Too many videos specified (max %d)", MaxVideoIDs)
	}

	cleaned := make([]string, 0, len(videoIDs))
	for _, id := range videoIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	return cleaned, nil
}

// VideoID validates a single video identifier.
func VideoID(videoID string) (string, error) {
	cleaned := strings.TrimSpace(videoID)
	if cleaned == "" {
		return "", newError("Video ID cannot be empty")
	}
	return cleaned, nil
}

// SourcePath validates that a video path resolves inside the shared media
// root and points at a readable, size-bounded, supported video file.
func SourcePath(videoPath, sharedMediaDir string) (string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return "", newError("Video path cannot be empty")
	}

	abs, err := filepath.Abs(videoPath)
	if err != nil {
		return "", newError("Invalid video path format: %v", err)
	}

	sharedAbs, err := filepath.Abs(sharedMediaDir)
	if err != nil {
		return "", newError("Invalid shared media directory: %v", err)
	}

	rel, err := filepath.Rel(sharedAbs, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newError("Video path must be within the shared media directory")
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", newError("Video file not found: %s", videoPath)
		}
		return "", newError("Video file is not accessible: %v", err)
	}
	if !info.Mode().IsRegular() {
		return "", newError("Path is not a regular file: %s", videoPath)
	}
	if info.Size() == 0 {
		return "", newError("Video file is empty: %s", videoPath)
	}
	if info.Size() > MaxVideoSizeBytes {
		return "", newError("Video file too large (max 5GB): %s", videoPath)
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if !videoExtensions[ext] {
		return "", newError("Unsupported video format: %s", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", newError("Video file is not readable: %s", videoPath)
	}
	f.Close()

	return abs, nil
}

// SupportedExtension reports whether ext (including the dot) is a supported
// video container extension.
func SupportedExtension(ext string) bool {
	return videoExtensions[strings.ToLower(ext)]
}
