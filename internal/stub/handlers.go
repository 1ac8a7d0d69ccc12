package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-slides-client/internal/models"
	logctx "github.com/pribylovaa/go-slides-client/internal/pkg/log"
)

const maxUpload = 32 << 20

// Templates - темы beamer, которые понимает генератор.
var Templates = []string{"default", "metropolis", "madrid", "berlin"}

type handlers struct {
	store  *Store
	tokens *Tokens
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed json body: %w", ErrInvalidArgument)
	}

	return nil
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("bad id: %w", ErrInvalidArgument)
	}

	return uint(id), nil
}

func (h *handlers) issue(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	token, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		logctx.From(r.Context()).Error("token_issue_failed", slog.String("err", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, status, models.AuthResponse{Token: token, User: u})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.store.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	logctx.From(r.Context()).Info("user_registered", slog.Uint64("user_id", uint64(u.ID)))
	h.issue(w, r, u, http.StatusCreated)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.issue(w, r, u, http.StatusOK)
}

func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.User(userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("file is required: %w", ErrInvalidArgument))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", ErrInvalidArgument))
		return
	}

	doc := h.store.AddDocument(userID(r.Context()), hdr.Filename, content)
	writeJSON(w, http.StatusCreated, doc)
}

func (h *handlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Documents(userID(r.Context())))
}

func (h *handlers) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.store.Document(userID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *handlers) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeleteDocument(userID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, fmt.Errorf("query is required: %w", ErrInvalidArgument))
		return
	}

	writeJSON(w, http.StatusOK, h.store.Search(userID(r.Context()), req.Query, req.TopK))
}

func (h *handlers) templates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.TemplatesResponse{Templates: Templates})
}

func knownTemplate(name string) bool {
	for _, t := range Templates {
		if t == name {
			return true
		}
	}

	return false
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req models.GeneratePPTRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Prompt) == "" {
		writeError(w, fmt.Errorf("title and prompt are required: %w", ErrInvalidArgument))
		return
	}

	if req.Template == "" {
		req.Template = Templates[0]
	}

	if !knownTemplate(req.Template) {
		writeError(w, fmt.Errorf("unknown template %q: %w", req.Template, ErrInvalidArgument))
		return
	}

	uid := userID(r.Context())

	var sources []string
	for _, id := range req.DocumentIDs {
		doc, err := h.store.Document(uid, id)
		if err != nil {
			writeError(w, fmt.Errorf("document %d: %w", id, err))
			return
		}
		sources = append(sources, doc.Filename)
	}

	latex := renderLatex(req.Title, req.Template, req.Prompt, sources)
	rec := h.store.AddDeck(models.PPTRecord{
		UserID:       uid,
		Title:        req.Title,
		Prompt:       req.Prompt,
		LatexContent: latex,
		Template:     req.Template,
		Status:       models.PPTCompleted,
	}, renderPDF(req.Title))

	writeJSON(w, http.StatusCreated, rec)
}

func (h *handlers) compile(w http.ResponseWriter, r *http.Request) {
	var req models.CompileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(req.LatexContent) == "" {
		writeError(w, fmt.Errorf("latex_content is required: %w", ErrInvalidArgument))
		return
	}

	rec := models.PPTRecord{
		UserID:       userID(r.Context()),
		Title:        latexTitle(req.LatexContent),
		LatexContent: req.LatexContent,
		Template:     Templates[0],
		Status:       models.PPTCompleted,
	}

	var pdf []byte
	if !strings.Contains(req.LatexContent, `\begin{document}`) {
		rec.Status = models.PPTFailed
		rec.ErrorMessage = `compilation failed: missing \begin{document}`
	} else {
		pdf = renderPDF(rec.Title)
	}

	writeJSON(w, http.StatusCreated, h.store.AddDeck(rec, pdf))
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Decks(userID(r.Context())))
}

func (h *handlers) getDeck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.store.Deck(userID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) deleteDeck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeleteDeck(userID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pdf, err := h.store.PDF(userID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="deck-%d.pdf"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
