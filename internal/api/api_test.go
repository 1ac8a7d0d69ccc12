package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/pipeline"
)

// fakeTransport запоминает конверты и отвечает заранее заданным JSON.
type fakeTransport struct {
	envs  []pipeline.Envelope
	reply string
	raw   *pipeline.Raw
	err   error
}

func (f *fakeTransport) Send(_ context.Context, env pipeline.Envelope, out any) error {
	f.envs = append(f.envs, env)
	if f.err != nil {
		return f.err
	}

	if out != nil && f.reply != "" {
		return json.Unmarshal([]byte(f.reply), out)
	}

	return nil
}

func (f *fakeTransport) Fetch(_ context.Context, env pipeline.Envelope) (*pipeline.Raw, error) {
	f.envs = append(f.envs, env)
	if f.err != nil {
		return nil, f.err
	}

	return f.raw, nil
}

func (f *fakeTransport) last(t *testing.T) pipeline.Envelope {
	t.Helper()
	require.NotEmpty(t, f.envs)
	return f.envs[len(f.envs)-1]
}

func TestEndpoints_MethodAndPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cases := []struct {
		name   string
		reply  string
		call   func(tr Transport) error
		method string
		path   string
	}{
		{"login", `{"token":"t1","user":{"id":1}}`, func(tr Transport) error {
			_, err := NewAuth(tr).Login(ctx, models.LoginRequest{Username: "alice", Password: "secret"})
			return err
		}, http.MethodPost, "/auth/login"},
		{"register", `{"token":"t1","user":{"id":1}}`, func(tr Transport) error {
			_, err := NewAuth(tr).Register(ctx, models.RegisterRequest{Username: "alice"})
			return err
		}, http.MethodPost, "/auth/register"},
		{"profile", `{"id":1}`, func(tr Transport) error {
			_, err := NewAuth(tr).Profile(ctx)
			return err
		}, http.MethodGet, "/auth/profile"},
		{"upload", `{"id":3}`, func(tr Transport) error {
			_, err := NewKnowledge(tr).Upload(ctx, "a.txt", strings.NewReader("x"))
			return err
		}, http.MethodPost, "/knowledge/upload"},
		{"list documents", `[]`, func(tr Transport) error {
			_, err := NewKnowledge(tr).List(ctx)
			return err
		}, http.MethodGet, "/knowledge/list"},
		{"get document", `{"id":3}`, func(tr Transport) error {
			_, err := NewKnowledge(tr).Get(ctx, 3)
			return err
		}, http.MethodGet, "/knowledge/3"},
		{"delete document", ``, func(tr Transport) error {
			return NewKnowledge(tr).Delete(ctx, 3)
		}, http.MethodDelete, "/knowledge/3"},
		{"search", `[]`, func(tr Transport) error {
			_, err := NewKnowledge(tr).Search(ctx, models.SearchRequest{Query: "q"})
			return err
		}, http.MethodPost, "/knowledge/search"},
		{"generate", `{"id":9}`, func(tr Transport) error {
			_, err := NewPPT(tr).Generate(ctx, models.GeneratePPTRequest{Title: "t", Prompt: "p"})
			return err
		}, http.MethodPost, "/ppt/generate"},
		{"templates", `{"templates":["default"]}`, func(tr Transport) error {
			_, err := NewPPT(tr).Templates(ctx)
			return err
		}, http.MethodGet, "/ppt/templates"},
		{"compile", `{"id":9}`, func(tr Transport) error {
			_, err := NewPPT(tr).Compile(ctx, `\documentclass{beamer}`)
			return err
		}, http.MethodPost, "/ppt/compile"},
		{"history", `[]`, func(tr Transport) error {
			_, err := NewPPT(tr).History(ctx)
			return err
		}, http.MethodGet, "/ppt/history"},
		{"get deck", `{"id":9}`, func(tr Transport) error {
			_, err := NewPPT(tr).Get(ctx, 9)
			return err
		}, http.MethodGet, "/ppt/9"},
		{"delete deck", ``, func(tr Transport) error {
			return NewPPT(tr).Delete(ctx, 9)
		}, http.MethodDelete, "/ppt/9"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := &fakeTransport{reply: tc.reply}
			require.NoError(t, tc.call(tr))

			env := tr.last(t)
			require.Equal(t, tc.method, env.Method)
			require.Equal(t, tc.path, env.Path)
		})
	}
}

func TestAuth_MarksAuthAttempts(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{reply: `{"token":"t1","user":{"id":1,"username":"alice"}}`}
	a := NewAuth(tr)

	resp, err := a.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "t1", resp.Token)
	require.Equal(t, "alice", resp.User.Username)
	require.True(t, tr.last(t).AuthAttempt)

	_, err = a.Profile(context.Background())
	require.NoError(t, err)
	require.False(t, tr.last(t).AuthAttempt)
}

func TestKnowledge_SearchDefaultsTopK(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{reply: `[{"ChunkID":1,"DocumentID":2,"Content":"c","Score":0.5}]`}

	res, err := NewKnowledge(tr).Search(context.Background(), models.SearchRequest{Query: "graphs"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.EqualValues(t, 2, res[0].DocumentID)

	body := tr.last(t).Body.(models.SearchRequest)
	require.Equal(t, DefaultTopK, body.TopK)
}

func TestKnowledge_UploadUsesMultipart(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{reply: `{"id":1}`}
	_, err := NewKnowledge(tr).Upload(context.Background(), "notes.md", strings.NewReader("# hi"))
	require.NoError(t, err)

	mp, ok := tr.last(t).Body.(*pipeline.Multipart)
	require.True(t, ok)
	require.Equal(t, "file", mp.Field)
	require.Equal(t, "notes.md", mp.Filename)
}

func TestPPT_ErrorsPassThrough(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{err: pipeline.ErrForbidden}

	_, err := NewPPT(tr).History(context.Background())
	require.ErrorIs(t, err, pipeline.ErrForbidden)

	_, _, err = NewPPT(tr).DownloadTo(context.Background(), 1, io.Discard)
	require.ErrorIs(t, err, pipeline.ErrForbidden)
}

func TestPPT_DownloadTo(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{raw: &pipeline.Raw{Body: io.NopCloser(strings.NewReader("%PDF"))}}

	var buf bytes.Buffer
	name, n, err := NewPPT(tr).DownloadTo(context.Background(), 4, &buf)
	require.NoError(t, err)
	require.Equal(t, "deck-4.pdf", name)
	require.EqualValues(t, 4, n)
	require.Equal(t, "%PDF", buf.String())
	require.Equal(t, "/ppt/4/download", tr.last(t).Path)
}
