package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	chromem "github.com/philippgille/chromem-go"
)

// collectionName identifies the single chromem-go collection holding
// the knowledge corpus.
const collectionName = "knowledge"

// Document is one indexed knowledge fragment.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a single search hit with its similarity score.
type Result struct {
	Document   Document
	Similarity float32
}

// Index is the in-memory semantic index over the knowledge corpus.
//
// Build it once at startup via Add calls, then treat it as read-only.
// Search is safe for concurrent use.
type Index struct {
	collection *chromem.Collection
	logger     *slog.Logger
}

// New creates an empty Index using the given embedding function.
func New(embed chromem.EmbeddingFunc, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return &Index{
		collection: collection,
		logger:     logger,
	}, nil
}

// Add embeds and indexes a single document.
func (ix *Index) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is empty")
	}
	if doc.Content == "" {
		return fmt.Errorf("document %q has no content", doc.ID)
	}

	err := ix.collection.AddDocument(ctx, chromem.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	})
	if err != nil {
		return fmt.Errorf("adding document %q: %w", doc.ID, err)
	}

	ix.logger.Debug("indexed document", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

// Search returns up to topK documents most similar to the query,
// ordered by descending similarity. topK is clamped to the number of
// indexed documents; an empty index returns no results rather than an
// error.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 1
	}
	if topK > count {
		topK = count
	}

	hits, err := ix.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			Document: Document{
				ID:       hit.ID,
				Content:  hit.Content,
				Metadata: hit.Metadata,
			},
			Similarity: hit.Similarity,
		}
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	return ix.collection.Count()
}
