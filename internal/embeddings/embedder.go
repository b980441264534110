// Package embeddings turns prompts into vectors for similar-prompt search.
package embeddings

import (
	"context"
	"fmt"
	"os"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/circuitchat/internal/llm"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// New builds the embedder for provider. An empty provider or "none"
// returns a nil Embedder and no error: similar search is then disabled.
func New(provider, model string, keys llm.KeyLookup) (Embedder, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "openai":
		key := keys("openai")
		if key == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for openai embeddings", llm.ErrMissingAPIKey)
		}
		if model == "" {
			model = string(ModelTextEmbedding3Small)
		}
		return NewOpenAIEmbedder(key, OpenAIModel(model)), nil
	case "google":
		key := keys("google")
		if key == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is required for google embeddings", llm.ErrMissingAPIKey)
		}
		if model == "" {
			model = string(ModelGeminiEmbedding001)
		}
		return NewGoogleEmbedder(key, GoogleModel(model)), nil
	case "ollama":
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(model, 768, os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// ToChromemFunc converts an Embedder into a chromem.EmbeddingFunc.
// chromem-go expects a function that embeds a single text at a time.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("%s returned no embedding", e.Name())
		}
		return results[0], nil
	}
}
