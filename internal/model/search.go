package model

// SearchResult is a ranked match from the similarity index. Score is a
// similarity, not a distance: higher is better.
type SearchResult struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float32           `json:"score"`
}
