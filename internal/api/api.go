// Package api - тонкие клиенты эндпоинтов поверх pipeline.
// Своей логики ошибок здесь нет: всё, что вернул pipeline, уходит наверх как есть.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/pipeline"
)

// Transport - то, что api требует от pipeline.
type Transport interface {
	Send(ctx context.Context, env pipeline.Envelope, out any) error
	Fetch(ctx context.Context, env pipeline.Envelope) (*pipeline.Raw, error)
}

func idPath(prefix string, id uint) string {
	return prefix + "/" + strconv.FormatUint(uint64(id), 10)
}

// Auth - /auth/*. Реализует session.Authenticator.
type Auth struct {
	t Transport
}

func NewAuth(t Transport) *Auth { return &Auth{t: t} }

func (a *Auth) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := a.t.Send(ctx, pipeline.Envelope{
		Method: http.MethodPost, Path: "/auth/login", Body: req, AuthAttempt: true,
	}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (a *Auth) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := a.t.Send(ctx, pipeline.Envelope{
		Method: http.MethodPost, Path: "/auth/register", Body: req, AuthAttempt: true,
	}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (a *Auth) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := a.t.Send(ctx, pipeline.Envelope{Method: http.MethodGet, Path: "/auth/profile"}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Knowledge - /knowledge/*.
type Knowledge struct {
	t Transport
}

func NewKnowledge(t Transport) *Knowledge { return &Knowledge{t: t} }

// Upload отправляет файл полем "file" (multipart/form-data).
func (k *Knowledge) Upload(ctx context.Context, filename string, content io.Reader) (*models.Document, error) {
	var out models.Document
	if err := k.t.Send(ctx, pipeline.Envelope{
		Method: http.MethodPost,
		Path:   "/knowledge/upload",
		Body:   &pipeline.Multipart{Field: "file", Filename: filename, Content: content},
	}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (k *Knowledge) List(ctx context.Context) ([]models.Document, error) {
	var out []models.Document
	if err := k.t.Send(ctx, pipeline.Envelope{Method: http.MethodGet, Path: "/knowledge/list"}, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (k *Knowledge) Get(ctx context.Context, id uint) (*models.Document, error) {
	var out models.Document
	if err := k.t.Send(ctx, pipeline.Envelope{Method: http.MethodGet, Path: idPath("/knowledge", id)}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (k *Knowledge) Delete(ctx context.Context, id uint) error {
	return k.t.Send(ctx, pipeline.Envelope{Method: http.MethodDelete, Path: idPath("/knowledge", id)}, nil)
}

// DefaultTopK - сколько фрагментов просить у поиска по умолчанию.
const DefaultTopK = 5

func (k *Knowledge) Search(ctx context.Context, req models.SearchRequest) ([]models.SearchResult, error) {
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}

	var out []models.SearchResult
	if err := k.t.Send(ctx, pipeline.Envelope{Method: http.MethodPost, Path: "/knowledge/search", Body: req}, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// PPT - /ppt/*.
type PPT struct {
	t Transport
}

func NewPPT(t Transport) *PPT { return &PPT{t: t} }

func (p *PPT) Generate(ctx context.Context, req models.GeneratePPTRequest) (*models.PPTRecord, error) {
	var out models.PPTRecord
	if err := p.t.Send(ctx, pipeline.Envelope{Method: http.MethodPost, Path: "/ppt/generate", Body: req}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (p *PPT) Templates(ctx context.Context) ([]string, error) {
	var out models.TemplatesResponse
	if err := p.t.Send(ctx, pipeline.Envelope{Method: http.MethodGet, Path: "/ppt/templates"}, &out); err != nil {
		return nil, err
	}

	return out.Templates, nil
}

func (p *PPT) Compile(ctx context.Context, latex string) (*models.PPTRecord, error) {
	var out models.PPTRecord
	if err := p.t.Send(ctx, pipeline.Envelope{
		Method: http.MethodPost, Path: "/ppt/compile", Body: models.CompileRequest{LatexContent: latex},
	}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (p *PPT) History(ctx context.Context) ([]models.PPTRecord, error) {
	var out []models.PPTRecord
	if err := p.t.Send(ctx, pipeline.Envelope{Method: http.MethodGet, Path: "/ppt/history"}, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (p *PPT) Get(ctx context.Context, id uint) (*models.PPTRecord, error) {
	var out models.PPTRecord
	if err := p.t.Send(ctx, pipeline.Envelope{Method: http.MethodGet, Path: idPath("/ppt", id)}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (p *PPT) Delete(ctx context.Context, id uint) error {
	return p.t.Send(ctx, pipeline.Envelope{Method: http.MethodDelete, Path: idPath("/ppt", id)}, nil)
}

// Download отдаёт бинарный поток PDF. Вызывающий закрывает Raw.Body.
func (p *PPT) Download(ctx context.Context, id uint) (*pipeline.Raw, error) {
	return p.t.Fetch(ctx, pipeline.Envelope{Method: http.MethodGet, Path: idPath("/ppt", id) + "/download"})
}

// DownloadTo копирует PDF в w и возвращает имя файла, предложенное сервером
// (или deck-<id>.pdf).
func (p *PPT) DownloadTo(ctx context.Context, id uint, w io.Writer) (string, int64, error) {
	const op = "api.PPT.DownloadTo"

	raw, err := p.Download(ctx, id)
	if err != nil {
		return "", 0, err
	}
	defer raw.Body.Close()

	n, err := io.Copy(w, raw.Body)
	if err != nil {
		return "", n, fmt.Errorf("%s: %w", op, err)
	}

	name := raw.Filename
	if name == "" {
		name = fmt.Sprintf("deck-%d.pdf", id)
	}

	return name, n, nil
}
