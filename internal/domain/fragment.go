package domain

import "fmt"

// KnowledgeFragment is the immutable unit stored in the vector index.
// A source document is split into one or more fragments; the fragment's
// chunk index is contiguous within its source document.
type KnowledgeFragment struct {
	ID          string
	BusinessID  string
	WidgetID    string
	ItemID      string
	Title       string
	DocType     string
	ChunkIndex  int
	TotalChunks int
	Content     string
	FileName    string
	FileSize    int64
}

// ValidateFragment validates a KnowledgeFragment instance
func ValidateFragment(f *KnowledgeFragment) error {
	if f == nil {
		return fmt.Errorf("fragment cannot be nil")
	}
	if f.ID == "" {
		return fmt.Errorf("fragment ID is required")
	}
	if f.BusinessID == "" && f.WidgetID == "" {
		return fmt.Errorf("fragment must have a business ID or widget ID")
	}
	if f.Content == "" {
		return fmt.Errorf("fragment Content is required")
	}
	if f.TotalChunks <= 0 {
		return fmt.Errorf("fragment TotalChunks must be positive")
	}
	if f.ChunkIndex < 0 || f.ChunkIndex >= f.TotalChunks {
		return fmt.Errorf("fragment ChunkIndex %d out of range [0, %d)", f.ChunkIndex, f.TotalChunks)
	}
	return nil
}

// RetrievalResult pairs a fragment with the similarity score it was
// retrieved under. Constructed per search call, never persisted.
type RetrievalResult struct {
	Fragment KnowledgeFragment
	Score    float32
	Query    string
}

// SourceSummary is the caller-facing digest of one retrieval result.
type SourceSummary struct {
	Content string  `json:"content"`
	Title   string  `json:"title"`
	Type    string  `json:"type"`
	Score   float32 `json:"score"`
}
