package cluster

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Embedder turns text into vectors. Satisfied by *GenAIEmbedder in
// production and a fake in tests.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// GenAIEmbedder calls the configured embedding model through a shared
// genai client, grounded on the pack's Gemini client usage
// (najim2004-mrcrypto-go's AIService: one client, one model, text in,
// structured data out).
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

func NewGenAIEmbedder(client *genai.Client, model string) *GenAIEmbedder {
	return &GenAIEmbedder{client: client, model: model}
}

// Embed returns one vector per input text, in the same order. Callers are
// responsible for keeping each call's batch at or below B_embed.
func (e *GenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed content: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	out := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}
