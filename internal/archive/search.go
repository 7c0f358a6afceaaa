package archive

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Hit is one search result over archived stage content.
type Hit struct {
	SessionID string
	Stage     string
	Question  string
	Score     float64
}

// searchIndex wraps the bleve index over stage documents. Document IDs are
// "<session_id>#<position>" so re-recording a session overwrites cleanly.
type searchIndex struct {
	index bleve.Index
}

func openSearchIndex(path string) (*searchIndex, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return &searchIndex{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	stageMapping := bleve.NewDocumentMapping()

	// Stored identifiers, not analyzed.
	sessionIDField := bleve.NewTextFieldMapping()
	sessionIDField.Analyzer = keyword.Name
	sessionIDField.Store = true
	sessionIDField.Index = true
	stageMapping.AddFieldMappingsAt("session_id", sessionIDField)

	stageField := bleve.NewTextFieldMapping()
	stageField.Analyzer = keyword.Name
	stageField.Store = true
	stageField.Index = true
	stageMapping.AddFieldMappingsAt("stage", stageField)

	questionField := bleve.NewTextFieldMapping()
	questionField.Analyzer = standard.Name
	questionField.Store = true
	questionField.Index = true
	stageMapping.AddFieldMappingsAt("question", questionField)

	// Searchable stage text, analyzed but not stored.
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = false
	contentField.Index = true
	stageMapping.AddFieldMappingsAt("content", contentField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = stageMapping
	return indexMapping
}

func (si *searchIndex) indexRecord(rec Record) error {
	batch := si.index.NewBatch()
	for _, stage := range rec.Stages {
		doc := map[string]interface{}{
			"session_id": rec.SessionID,
			"stage":      stage.Name,
			"question":   rec.Question,
			"content":    stage.Content,
		}
		docID := fmt.Sprintf("%s#%d", rec.SessionID, stage.Position)
		if err := batch.Index(docID, doc); err != nil {
			return fmt.Errorf("failed to index stage %s: %w", docID, err)
		}
	}
	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}
	return nil
}

func (si *searchIndex) search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"session_id", "stage", "question"}

	result, err := si.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("archive search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		h := Hit{Score: hit.Score}
		if sessionID, ok := hit.Fields["session_id"].(string); ok {
			h.SessionID = sessionID
		}
		if stage, ok := hit.Fields["stage"].(string); ok {
			h.Stage = stage
		}
		if question, ok := hit.Fields["question"].(string); ok {
			h.Question = question
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func (si *searchIndex) Close() error {
	return si.index.Close()
}
