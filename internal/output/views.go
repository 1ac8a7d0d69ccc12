package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/go-slides-client/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Local().Format(timeLayout)
}

// HumanSize - размер файла в B/KB/MB.
func HumanSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}

func id(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func Documents(w io.Writer, p *Printer, docs []models.Document) error {
	t := NewTable(w, []string{"ID", "Filename", "Type", "Size", "Status", "Chunks", "Created"})
	for _, d := range docs {
		t.AddRow(id(d.ID), d.Filename, d.FileType, HumanSize(d.FileSize), p.Status(d.Status),
			strconv.Itoa(d.ChunkCount), formatTime(d.CreatedAt))
	}

	return t.Render()
}

func Decks(w io.Writer, p *Printer, decks []models.PPTRecord) error {
	t := NewTable(w, []string{"ID", "Title", "Template", "Status", "Created"})
	for _, d := range decks {
		t.AddRow(id(d.ID), d.Title, d.Template, p.Status(d.Status), formatTime(d.CreatedAt))
	}

	return t.Render()
}

// SearchResults обрезает фрагменты до одной строки.
func SearchResults(w io.Writer, results []models.SearchResult) error {
	t := NewTable(w, []string{"Score", "Document", "Chunk", "Content"})
	for _, r := range results {
		t.AddRow(fmt.Sprintf("%.3f", r.Score), id(r.DocumentID), id(r.ChunkID), Snippet(r.Content, 80))
	}

	return t.Render()
}

// Snippet схлопывает пробелы и режет строку до max рун.
func Snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")

	r := []rune(s)
	if len(r) <= max {
		return s
	}

	return string(r[:max-1]) + "…"
}

func User(w io.Writer, u *models.User) error {
	if u == nil {
		_, err := fmt.Fprintln(w, "profile not loaded")
		return err
	}

	t := NewTable(w, []string{"Field", "Value"})
	t.AddRow("id", id(u.ID))
	t.AddRow("username", u.Username)
	t.AddRow("email", u.Email)
	t.AddRow("created", formatTime(u.CreatedAt))

	return t.Render()
}
