// Package rag bridges the knowledge index to Genkit's ai.Retriever
// interface so retrieval participates in Genkit flows and tracing.
package rag

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/zolve/advisor/internal/knowledge"
)

// RetrieverName is the registered name of the knowledge retriever.
const RetrieverName = "knowledge"

// defaultTopK is used when the request carries no "k" option.
const defaultTopK = 3

// maxTopK bounds retrieval fan-out regardless of caller options.
const maxTopK = 10

// DefineRetriever registers a Genkit retriever backed by the knowledge
// index. The request's Options may carry {"k": n} to override the
// number of documents retrieved.
func DefineRetriever(g *genkit.Genkit, ix *knowledge.Index) ai.Retriever {
	return genkit.DefineRetriever(
		g, RetrieverName, nil,
		func(ctx context.Context, req *ai.RetrieverRequest) (*ai.RetrieverResponse, error) {
			query := extractQueryText(req)
			topK := extractTopK(req, defaultTopK)

			results, err := ix.Search(ctx, query, topK)
			if err != nil {
				return nil, err
			}

			return &ai.RetrieverResponse{
				Documents: convertResults(results),
			}, nil
		},
	)
}

// extractQueryText extracts text from RetrieverRequest.Query.
func extractQueryText(req *ai.RetrieverRequest) string {
	if req.Query != nil && len(req.Query.Content) > 0 {
		return req.Query.Content[0].Text
	}
	return ""
}

// extractTopK extracts topK from request options, returning defaultK
// when absent or out of the [1, maxTopK] range.
func extractTopK(req *ai.RetrieverRequest, defaultK int) int {
	opts, ok := req.Options.(map[string]any)
	if !ok {
		return defaultK
	}

	var k int
	switch v := opts["k"].(type) {
	case int:
		k = v
	case int32:
		k = int(v)
	case int64:
		k = int(v)
	case float64:
		k = int(v)
	default:
		return defaultK
	}

	if k < 1 || k > maxTopK {
		return defaultK
	}
	return k
}

// convertResults converts knowledge results to Genkit documents,
// carrying the similarity score in metadata.
func convertResults(results []knowledge.Result) []*ai.Document {
	docs := make([]*ai.Document, len(results))
	for i, result := range results {
		metadata := make(map[string]any, len(result.Document.Metadata)+1)
		for k, v := range result.Document.Metadata {
			metadata[k] = v
		}
		metadata["similarity"] = result.Similarity

		docs[i] = ai.DocumentFromText(result.Document.Content, metadata)
	}
	return docs
}
