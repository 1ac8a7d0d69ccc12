package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrEmptyMethod = errors.New("empty method")
	ErrEmptyPath   = errors.New("empty path")
)

// Envelope - исходящий запрос в терминах API, без транспортных деталей.
//
// Body кодируется как JSON, кроме *Multipart (multipart/form-data).
// Authorization в Headers игнорируется: заголовок ставит только pipeline.
type Envelope struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers http.Header
	// AuthAttempt помечает login/register (см. Error.IsCredentialRejection).
	AuthAttempt bool
}

// Multipart - загрузка одного файла полем формы.
type Multipart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// PrepareRequest собирает *http.Request из конверта. Чистая функция:
// токен передаётся аргументом, пустой токен = без Authorization.
func PrepareRequest(ctx context.Context, base *url.URL, env Envelope, token, userAgent, requestID string) (*http.Request, error) {
	const op = "pipeline.PrepareRequest"

	if env.Method == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyMethod)
	}

	if strings.TrimSpace(env.Path) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyPath)
	}

	if base == nil {
		return nil, fmt.Errorf("%s: nil base url", op)
	}

	target := base.JoinPath(env.Path)
	if len(env.Query) > 0 {
		target.RawQuery = env.Query.Encode()
	}

	body, contentType, err := encodeBody(env.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, env.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for k, vs := range env.Headers {
		if http.CanonicalHeaderKey(k) == "Authorization" {
			continue
		}
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	if tok := strings.TrimSpace(token); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	return req, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return encodeMultipart(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode json body: %w", err)
		}

		return bytes.NewReader(raw), "application/json", nil
	}
}

func encodeMultipart(m *Multipart) (io.Reader, string, error) {
	if m == nil || m.Content == nil {
		return nil, "", fmt.Errorf("multipart: empty content")
	}

	field := m.Field
	if field == "" {
		field = "file"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, m.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("multipart: %w", err)
	}

	if _, err := io.Copy(part, m.Content); err != nil {
		return nil, "", fmt.Errorf("multipart: copy: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart: close: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}
