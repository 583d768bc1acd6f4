package validate

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestQuery(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid query", input: "a cat on a table", want: "a cat on a table"},
		{name: "trims whitespace", input: "  hello  ", want: "hello"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "at limit", input: strings.Repeat("x", MaxQueryLength), want: strings.Repeat("x", MaxQueryLength)},
		{name: "over limit", input: strings.Repeat("x", MaxQueryLength+1), wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Query(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestImageBase64(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString(make([]byte, 200))
	tooSmall := base64.StdEncoding.EncodeToString(make([]byte, 10))

	testCases := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{name: "valid payload", input: valid, wantLen: 200},
		{name: "empty", input: "", wantErr: true},
		{name: "not base64", input: "!!!not-base64!!!", wantErr: true},
		{name: "decoded too small", input: tooSmall, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ImageBase64(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.wantLen {
				t.Errorf("decoded length = %d, want %d", len(got), tc.wantLen)
			}
		})
	}
}

func TestVideoIDs(t *testing.T) {
	testCases := []struct {
		name    string
		input   []string
		want    []string
		wantErr bool
	}{
		{name: "nil stays nil", input: nil, want: nil},
		{name: "empty stays nil", input: []string{}, want: nil},
		{name: "blanks stripped", input: []string{" a ", "", "b", "  "}, want: []string{"a", "b"}},
		{name: "all blank normalizes to nil", input: []string{"", "  "}, want: nil},
		{name: "too many", input: make([]string, MaxVideoIDs+1), wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := VideoIDs(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got %v, want %v", got, tc.want)
					break
				}
			}
		})
	}
}

func TestSourcePath(t *testing.T) {
	shared := t.TempDir()

	videoPath := filepath.Join(shared, "movie.mp4")
	if err := os.WriteFile(videoPath, []byte("fake video data"), 0o644); err != nil {
		t.Fatal(err)
	}
	textPath := filepath.Join(shared, "notes.txt")
	if err := os.WriteFile(textPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	emptyPath := filepath.Join(shared, "empty.mp4")
	if err := os.WriteFile(emptyPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	outside := t.TempDir()
	outsidePath := filepath.Join(outside, "escape.mp4")
	if err := os.WriteFile(outsidePath, []byte("fake video data"), 0o644); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid video inside shared dir", path: videoPath},
		{name: "outside shared dir", path: outsidePath, wantErr: true},
		{name: "traversal escape", path: filepath.Join(shared, "..", filepath.Base(outside), "escape.mp4"), wantErr: true},
		{name: "unsupported extension", path: textPath, wantErr: true},
		{name: "empty file", path: emptyPath, wantErr: true},
		{name: "missing file", path: filepath.Join(shared, "nope.mp4"), wantErr: true},
		{name: "empty path", path: "", wantErr: true},
		{name: "directory", path: shared, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			abs, err := SourcePath(tc.path, shared)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !filepath.IsAbs(abs) {
				t.Errorf("expected absolute path, got %q", abs)
			}
		})
	}
}

func TestSupportedExtension(t *testing.T) {
	for _, ext := range []string{".mp4", ".MP4", ".mkv", ".webm"} {
		if !SupportedExtension(ext) {
			t.Errorf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{".txt", ".jpg", ""} {
		if SupportedExtension(ext) {
			t.Errorf("expected %s to be unsupported", ext)
		}
	}
}
