// pipeline - единственный шлюз исходящих вызовов к API.
//
// Каждый вызов проходит одинаковый путь:
//  1. pre-send: PrepareRequest ставит Bearer-токен (если он есть в TokenSource
//     на момент отправки), X-Request-Id и User-Agent;
//  2. дедлайн api.timeout поверх контекста вызывающего;
//  3. post-receive: успешный ответ разворачивается до тела, ошибка
//     классифицируется (ClassifyStatus / сеть / сборка запроса);
//  4. на ошибке: ровно одно уведомление через Notifier, для Unauthorized
//     ещё OnUnauthorized; затем ошибка всегда возвращается вызывающему.
//
// Ретраев и обновления токена нет.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	logctx "github.com/pribylovaa/go-slides-client/internal/pkg/log"
)

// DefaultTimeout - верхняя граница любого вызова.
const DefaultTimeout = 60 * time.Second

// Тело ответа с ошибкой читаем не целиком: нужен только текст ошибки.
const maxErrorBody = 64 << 10

// TokenSource - откуда брать токен в момент отправки.
type TokenSource interface {
	Token() string
}

// Notice - уведомление для пользователя.
type Notice struct {
	Kind    Kind
	Status  int
	Message string
}

// Notifier показывает уведомление пользователю.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// UnauthorizedFunc - реакция на 401: очистка сессии и переход на логин.
type UnauthorizedFunc func(ctx context.Context, err *Error)

type Options struct {
	BaseURL        string
	Timeout        time.Duration
	UserAgent      string
	HTTPClient     *http.Client
	Tokens         TokenSource
	Notifier       Notifier
	OnUnauthorized UnauthorizedFunc
	Logger         *slog.Logger
	Metrics        *Metrics
}

type Pipeline struct {
	base           *url.URL
	timeout        time.Duration
	userAgent      string
	client         *http.Client
	tokens         TokenSource
	notifier       Notifier
	onUnauthorized UnauthorizedFunc
	log            *slog.Logger
	metrics        *Metrics
}

// Raw - ответ бинарного вызова. Body обязательно закрыть.
type Raw struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

type noToken struct{}

func (noToken) Token() string { return "" }

type silent struct{}

func (silent) Notify(context.Context, Notice) {}

func New(opts Options) (*Pipeline, error) {
	const op = "pipeline.New"

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: base url: %w", op, err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, opts.BaseURL)
	}

	p := &Pipeline{
		base:           base,
		timeout:        opts.Timeout,
		userAgent:      opts.UserAgent,
		client:         opts.HTTPClient,
		tokens:         opts.Tokens,
		notifier:       opts.Notifier,
		onUnauthorized: opts.OnUnauthorized,
		log:            opts.Logger,
		metrics:        opts.Metrics,
	}

	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.client == nil {
		p.client = &http.Client{}
	}
	if p.tokens == nil {
		p.tokens = noToken{}
	}
	if p.notifier == nil {
		p.notifier = silent{}
	}
	if p.log == nil {
		p.log = slog.Default()
	}

	return p, nil
}

// Send выполняет JSON-вызов и декодирует тело успешного ответа в out.
// out == nil - тело отбрасывается (DELETE и т.п.).
func (p *Pipeline) Send(ctx context.Context, env Envelope, out any) error {
	resp, cancel, done, perr := p.roundTrip(ctx, env)
	if perr != nil {
		return perr
	}
	defer cancel()
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		done(resp.StatusCode, outcomeOK)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		done(0, string(KindNetworkError))
		return p.fail(ctx, &Error{
			Kind: KindNetworkError, Message: MsgNetwork,
			Method: env.Method, Path: env.Path, AuthAttempt: env.AuthAttempt, Err: err,
		})
	}

	if len(body) == 0 {
		done(resp.StatusCode, outcomeOK)
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		done(resp.StatusCode, string(KindUnknown))
		return p.fail(ctx, &Error{
			Kind: KindUnknown, Status: resp.StatusCode, Message: MsgUnknown,
			Method: env.Method, Path: env.Path, AuthAttempt: env.AuthAttempt,
			Err: fmt.Errorf("decode response: %w", err),
		})
	}

	done(resp.StatusCode, outcomeOK)
	return nil
}

// Fetch выполняет вызов без JSON-разворачивания (скачивание бинарных файлов).
// Семантика ошибок та же, что у Send, включая 401.
func (p *Pipeline) Fetch(ctx context.Context, env Envelope) (*Raw, error) {
	if env.Headers == nil {
		env.Headers = http.Header{}
	}
	if env.Headers.Get("Accept") == "" {
		env.Headers.Set("Accept", "*/*")
	}

	resp, cancel, done, perr := p.roundTrip(ctx, env)
	if perr != nil {
		return nil, perr
	}

	done(resp.StatusCode, outcomeOK)

	raw := &Raw{
		Body:          &cancelBody{ReadCloser: resp.Body, cancel: cancel},
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			raw.Filename = params["filename"]
		}
	}

	return raw, nil
}

// roundTrip отправляет запрос и отдаёт успешный ответ. Все ветки ошибок
// обрабатываются здесь же (уведомление, 401-реакция, лог, метрики).
// done пишет итоговую запись лога и метрики для успешного ответа.
func (p *Pipeline) roundTrip(ctx context.Context, env Envelope) (*http.Response, context.CancelFunc, func(status int, outcome string), *Error) {
	start := time.Now()
	rid := uuid.NewString()
	token := p.tokens.Token()

	ctx, l := logctx.With(p.loggerCtx(ctx),
		slog.String("request_id", rid),
		slog.String("method", env.Method),
		slog.String("path", env.Path),
	)

	// Более ранний дедлайн вызывающего сохраняется.
	ctx, cancel := context.WithTimeout(ctx, p.timeout)

	finish := func(status int, outcome string) {
		dur := time.Since(start)
		p.metrics.observe(env.Method, outcome, dur)

		lvl := slog.LevelInfo
		if outcome != outcomeOK {
			lvl = slog.LevelWarn
		}

		l.LogAttrs(ctx, lvl, "http",
			slog.Int("status", status),
			slog.String("kind", outcome),
			slog.Bool("bearer", token != ""),
			slog.Duration("dur", dur),
		)
	}

	failWith := func(e *Error) (*http.Response, context.CancelFunc, func(int, string), *Error) {
		finish(e.Status, string(e.Kind))
		// Побочные эффекты не должны зависеть от истёкшего дедлайна вызова.
		_ = p.fail(context.WithoutCancel(ctx), e)
		cancel()
		return nil, nil, nil, e
	}

	base := &Error{Method: env.Method, Path: env.Path, AuthAttempt: env.AuthAttempt}

	req, err := PrepareRequest(ctx, p.base, env, token, p.userAgent, rid)
	if err != nil {
		e := *base
		e.Kind, e.Message, e.Err = KindClientError, MsgClient, err
		return failWith(&e)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		e := *base
		e.Kind, e.Message, e.Err = KindNetworkError, MsgNetwork, err
		return failWith(&e)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()

		e := *base
		e.Status = resp.StatusCode
		e.Kind, e.Message, e.Detail = ClassifyStatus(resp.StatusCode, body)
		return failWith(&e)
	}

	return resp, cancel, finish, nil
}

// fail выполняет побочные эффекты ошибки и возвращает её же.
func (p *Pipeline) fail(ctx context.Context, e *Error) error {
	p.notifier.Notify(ctx, Notice{Kind: e.Kind, Status: e.Status, Message: e.Message})

	if e.Kind == KindUnauthorized && p.onUnauthorized != nil {
		p.onUnauthorized(ctx, e)
	}

	return e
}

// loggerCtx подставляет логгер pipeline, если вызывающий свой не положил.
func (p *Pipeline) loggerCtx(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	if logctx.From(ctx) == slog.Default() {
		return logctx.Into(ctx, p.log)
	}

	return ctx
}

// cancelBody снимает дедлайн вызова только после закрытия тела.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
