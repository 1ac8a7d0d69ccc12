package models

import "time"

const (
	PPTPending    = "pending"
	PPTGenerating = "generating"
	PPTCompleted  = "completed"
	PPTFailed     = "failed"
)

type PPTRecord struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	Title        string    `json:"title"`
	Prompt       string    `json:"prompt"`
	LatexContent string    `json:"latex_content"`
	PDFPath      string    `json:"pdf_path"`
	Template     string    `json:"template"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type GeneratePPTRequest struct {
	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	Template    string `json:"template,omitempty"`
	DocumentIDs []uint `json:"document_ids,omitempty"`
	UseOpenAI   bool   `json:"use_openai,omitempty"`
}

type CompileRequest struct {
	LatexContent string `json:"latex_content"`
}

type TemplatesResponse struct {
	Templates []string `json:"templates"`
}
