package embeddings

import (
	"context"
	"fmt"
	"net/http"
)

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleModel represents a supported Google embedding model.
type GoogleModel string

const (
	ModelGeminiEmbedding001 GoogleModel = "gemini-embedding-001"
	ModelTextEmbedding004   GoogleModel = "text-embedding-004"
)

func (m GoogleModel) dimensions() int {
	if m == ModelTextEmbedding004 {
		return 768
	}
	return 3072
}

// GoogleEmbedder generates embeddings using Google's Generative AI API.
type GoogleEmbedder struct {
	apiKey     string
	model      GoogleModel
	baseURL    string
	httpClient *http.Client
}

// NewGoogleEmbedder creates a new Google embedder.
func NewGoogleEmbedder(apiKey string, model GoogleModel) *GoogleEmbedder {
	return &GoogleEmbedder{
		apiKey:     apiKey,
		model:      model,
		baseURL:    googleBaseURL,
		httpClient: &http.Client{},
	}
}

// WithBaseURL points the embedder at a different API root.
func (e *GoogleEmbedder) WithBaseURL(u string) *GoogleEmbedder {
	e.baseURL = u
	return e
}

func (e *GoogleEmbedder) Name() string {
	return string(e.model)
}

func (e *GoogleEmbedder) Dimensions() int {
	return e.model.dimensions()
}

type googleEmbedRequest struct {
	Content struct {
		Parts []googlePart `json:"parts"`
	} `json:"content"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		var req googleEmbedRequest
		req.Content.Parts = []googlePart{{Text: text}}

		var resp googleEmbedResponse
		url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", e.baseURL, e.model, e.apiKey)
		if err := postJSON(ctx, e.httpClient, "google", url, req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("google returned empty embedding")
		}
		results = append(results, resp.Embedding.Values)
	}
	return results, nil
}
