package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/circuitchat/internal/embeddings"
)

const collectionName = "prompts"

// Match is a past generation whose prompt resembles a query.
type Match struct {
	ID         string  `json:"id"`
	Prompt     string  `json:"prompt"`
	Status     Status  `json:"status"`
	Similarity float32 `json:"similarity"`
}

// Index is an in-memory semantic index over generation prompts, persisted
// as a gzipped chromem export next to the database.
type Index struct {
	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewIndex creates an empty Index using embedder.
func NewIndex(embedder embeddings.Embedder) (*Index, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col, embedFunc: ef}, nil
}

// Add indexes one generation's prompt.
func (x *Index) Add(ctx context.Context, e Entry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collection.AddDocument(ctx, chromem.Document{
		ID:       e.ID,
		Content:  e.Prompt,
		Metadata: map[string]string{"status": string(e.Status)},
	})
}

// Similar returns up to limit indexed prompts closest to query. When
// onlyOK is set, failed generations are skipped.
func (x *Index) Similar(ctx context.Context, query string, limit int, onlyOK bool) ([]Match, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if limit <= 0 {
		limit = 5
	}
	var where map[string]string
	if onlyOK {
		where = map[string]string{"status": string(StatusOK)}
	}

	// chromem-go requires nResults <= number of candidate documents.
	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}
	limit = min(limit, count)

	results, err := x.collection.Query(ctx, query, limit, where, nil)
	if err != nil && where != nil {
		// The filtered set can be smaller than limit; fall back to a
		// full query and filter here.
		results, err = x.collection.Query(ctx, query, count, nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	var out []Match
	for _, r := range results {
		status := Status(r.Metadata["status"])
		if onlyOK && status != StatusOK {
			continue
		}
		out = append(out, Match{ID: r.ID, Prompt: r.Content, Status: status, Similarity: r.Similarity})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of indexed prompts.
func (x *Index) Count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collection.Count()
}

func exportPath(dir string) string {
	return filepath.Join(dir, "prompts.gob.gz")
}

// Persist writes the index to dir.
func (x *Index) Persist(dir string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	return x.db.ExportToFile(exportPath(dir), true, "")
}

// Load restores a previously persisted index. A missing file is not an error.
func (x *Index) Load(dir string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	path := exportPath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := x.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := x.db.GetCollection(collectionName, x.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	x.collection = col
	return nil
}

// Rebuild indexes every stored generation. It is used when the persisted
// index is missing or stale.
func (x *Index) Rebuild(ctx context.Context, store *Store) (int, error) {
	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := x.Add(ctx, e); err != nil {
			return 0, fmt.Errorf("indexing %s: %w", e.ID, err)
		}
	}
	return len(entries), nil
}
