package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

const chromemCollection = "chunks"

// ChromemStore implements VectorStore using chromem-go, an embeddable pure-Go
// vector database with gob persistence. All vectors arrive precomputed, so
// the collection's embedding function is never invoked.
type ChromemStore struct {
	db  *chromem.DB
	col *chromem.Collection
}

// NewChromemStore opens (or creates) a persistent store in dir.
func NewChromemStore(dir string) (*ChromemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db: %w", err)
	}
	col, err := db.GetOrCreateCollection(chromemCollection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}
	return &ChromemStore{db: db, col: col}, nil
}

// rejectEmbedding guards against accidental server-side embedding; every
// document and query must carry its own vector.
func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("store does not embed; vectors must be provided")
}

func (s *ChromemStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Content,
			Embedding: e.Vector,
			Metadata:  payloadToMetadata(e.Payload),
		}
	}
	if err := s.col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Get(ctx context.Context, ids []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		doc, err := s.col.GetByID(ctx, id)
		if err != nil {
			continue // missing IDs are skipped
		}
		entries = append(entries, Entry{
			ID:      doc.ID,
			Vector:  doc.Embedding,
			Content: doc.Content,
			Payload: metadataToPayload(doc.Metadata),
		})
	}
	return entries, nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	count := s.col.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Entry: Entry{
				ID:      r.ID,
				Vector:  r.Embedding,
				Content: r.Content,
				Payload: metadataToPayload(r.Metadata),
			},
			Score: r.Similarity,
		}
	}
	return matches, nil
}

func (s *ChromemStore) Count(context.Context) (int, error) {
	return s.col.Count(), nil
}

func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(chromemCollection); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(chromemCollection, nil, rejectEmbedding)
	if err != nil {
		return fmt.Errorf("recreating collection: %w", err)
	}
	s.col = col
	return nil
}

func (s *ChromemStore) Close() error {
	return nil
}

func payloadToMetadata(p Payload) map[string]string {
	return map[string]string{
		"path":       p.Path,
		"start_line": strconv.Itoa(p.StartLine),
		"end_line":   strconv.Itoa(p.EndLine),
		"kind":       p.Kind,
	}
}

func metadataToPayload(m map[string]string) Payload {
	start, _ := strconv.Atoi(m["start_line"])
	end, _ := strconv.Atoi(m["end_line"])
	return Payload{
		Path:      m["path"],
		StartLine: start,
		EndLine:   end,
		Kind:      m["kind"],
	}
}
