package model

// SourceDocument holds the extracted text of one uploaded file together
// with extraction facts. It is immutable after extraction.
type SourceDocument struct {
	FileName string            `json:"file_name"`
	Format   string            `json:"format"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Chunk is one overlapping word window of a document's normalized text.
// ChunkID is the ordinal within the document, starting at 0.
type Chunk struct {
	ChunkID  int               `json:"chunk_id"`
	Content  string            `json:"content"`
	FileName string            `json:"file_name"`
	Format   string            `json:"format"`
	Metadata map[string]string `json:"metadata"`
}

// Document is the persisted record of one ingested file.
type Document struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	FileName   string `json:"file_name"`
	Format     string `json:"format"`
	FileKey    string `json:"file_key"`
	ChunkCount int    `json:"chunk_count"`
	Ctime      int64  `json:"ctime"`
}

// StoredChunk is a persisted chunk with its embedding.
type StoredChunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	ChunkID    int               `json:"chunk_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
	Embedding  []float32         `json:"-"`
	Mirrored   bool              `json:"-"`
}
