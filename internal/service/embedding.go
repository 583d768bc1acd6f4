package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/clipseek/internal/config"
)

const (
	jinaEndpoint = "https://api.jina.ai/v1/embeddings"
)

// EmbeddingService generates text and image embeddings. Text uses the
// configured text model; images go through the CLIP-style image model so a
// reference image can be matched against indexed frame vectors.
type EmbeddingService struct {
	client     *resty.Client
	textModel  string
	imageModel string
	textDims   int
	imageDims  int
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(cfg *config.EmbeddingConfig) *EmbeddingService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	return &EmbeddingService{
		client:     client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		textDims:   cfg.TextDimensions,
		imageDims:  cfg.ImageDimensions,
	}
}

// Jina API request/response structures
type jinaTextRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type jinaClipInput struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type jinaClipRequest struct {
	Model         string          `json:"model"`
	Dimensions    int             `json:"dimensions,omitempty"`
	Input         []jinaClipInput `json:"input"`
	EmbeddingType string          `json:"embedding_type,omitempty"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

func (s *EmbeddingService) post(ctx context.Context, body interface{}) (*jinaResponse, error) {
	var resp jinaResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		Post(jinaEndpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call Jina API: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("Jina API error: %s", resp.Detail)
		}
		return nil, fmt.Errorf("Jina API error: status %d", httpResp.StatusCode())
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return &resp, nil
}

// EmbedText generates a passage embedding for indexed text (captions and
// transcripts).
func (s *EmbeddingService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	req := jinaTextRequest{
		Model:         s.textModel,
		Task:          "retrieval.passage",
		Dimensions:    s.textDims,
		Input:         []string{text},
		EmbeddingType: "float",
	}

	resp, err := s.post(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Data[0].Embedding, nil
}

// EmbedQuery generates an embedding optimized for query/search
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	req := jinaTextRequest{
		Model:         s.textModel,
		Task:          "retrieval.query",
		Dimensions:    s.textDims,
		Input:         []string{query},
		EmbeddingType: "float",
	}

	resp, err := s.post(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Data[0].Embedding, nil
}

// EmbedImage generates an embedding for raw image bytes using the CLIP
// model. The same model embeds both indexed frames and query images, so
// vectors are directly comparable.
func (s *EmbeddingService) EmbedImage(ctx context.Context, imageData []byte) ([]float32, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	req := jinaClipRequest{
		Model:         s.imageModel,
		Dimensions:    s.imageDims,
		Input:         []jinaClipInput{{Image: base64.StdEncoding.EncodeToString(imageData)}},
		EmbeddingType: "float",
	}

	resp, err := s.post(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Data[0].Embedding, nil
}
