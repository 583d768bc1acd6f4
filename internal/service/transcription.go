package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/clipseek/internal/config"
	"github.com/timmy/clipseek/internal/prompts"
)

// TranscriptionService converts audio chunks to text through an
// OpenAI-compatible transcription endpoint (Groq Whisper by default).
type TranscriptionService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewTranscriptionService creates a new transcription service.
// Parameters:
//   - cfg: transcription configuration including provider, model, and API key.
//
// Returns:
//   - *TranscriptionService: initialized transcription client wrapper.
func NewTranscriptionService(cfg *config.TranscriptionConfig) *TranscriptionService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	// Whisper on long chunks can be slow
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}

	return &TranscriptionService{
		client:   client,
		model:    cfg.Model,
		endpoint: strings.TrimSuffix(baseURL, "/") + "/audio/transcriptions",
	}
}

// GetModel returns the model name being used.
func (s *TranscriptionService) GetModel() string {
	return s.model
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Transcribe uploads an audio file and returns the recognized text,
// trimmed. Silence comes back as an empty string, not an error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - audioPath: path to the audio file on local disk.
//
// Returns:
//   - string: transcript text (may be empty for silent audio).
//   - error: non-nil if the API request fails.
func (s *TranscriptionService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	var resp transcriptionResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetFile("file", audioPath).
		SetFormData(map[string]string{
			"model":           s.model,
			"response_format": "json",
			"prompt":          prompts.TranscriptionPrompt,
		}).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call transcription API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return "", fmt.Errorf("transcription API error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("transcription API error: HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}

	if resp.Error != nil {
		return "", fmt.Errorf("transcription API error: %s", resp.Error.Message)
	}

	return strings.TrimSpace(resp.Text), nil
}
