package knowledge

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"
)

// NewEmbeddingFunc bridges a Genkit ai.Embedder into the chromem-go
// EmbeddingFunc the index collection requires. One call embeds one
// knowledge fragment or query. chromem-go normalizes vectors itself.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			return nil, fmt.Errorf("embedding text: %w", err)
		}

		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("embedder returned no vectors")
		}

		return resp.Embeddings[0].Embedding, nil
	}
}
