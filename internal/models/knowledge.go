package models

import "time"

// Статусы обработки документа на стороне сервера.
const (
	DocumentPending    = "pending"
	DocumentProcessing = "processing"
	DocumentCompleted  = "completed"
	DocumentFailed     = "failed"
)

type Document struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	FilePath   string    `json:"file_path"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchResult - поля без json-тегов на сервере, отсюда PascalCase.
type SearchResult struct {
	ChunkID    uint    `json:"ChunkID"`
	DocumentID uint    `json:"DocumentID"`
	Content    string  `json:"Content"`
	Score      float32 `json:"Score"`
}
