// Package notice реализует pipeline.Notifier: то, что видит пользователь
// при ошибке вызова.
package notice

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/pribylovaa/go-slides-client/internal/pipeline"
)

// Printer пишет уведомления в терминал (обычно stderr).
type Printer struct {
	mu        sync.Mutex
	w         io.Writer
	useColors bool
}

func NewPrinter(w io.Writer, useColors bool) *Printer {
	return &Printer{w: w, useColors: useColors}
}

func (p *Printer) Notify(_ context.Context, n pipeline.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := color.New(color.FgRed)
	switch n.Kind {
	case pipeline.KindNetworkError, pipeline.KindClientError:
		c = color.New(color.FgYellow)
	}

	if p.useColors {
		_, _ = c.Fprintf(p.w, "✗ %s\n", n.Message)
		return
	}

	_, _ = fmt.Fprintf(p.w, "✗ %s\n", n.Message)
}

// Recorder запоминает уведомления. Нужен тестам и неинтерактивным режимам.
type Recorder struct {
	mu      sync.Mutex
	notices []pipeline.Notice
}

func (r *Recorder) Notify(_ context.Context, n pipeline.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, n)
}

func (r *Recorder) Notices() []pipeline.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]pipeline.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.notices)
}

// Last возвращает последнее уведомление и признак его наличия.
func (r *Recorder) Last() (pipeline.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notices) == 0 {
		return pipeline.Notice{}, false
	}

	return r.notices[len(r.notices)-1], true
}

var (
	_ pipeline.Notifier = (*Printer)(nil)
	_ pipeline.Notifier = (*Recorder)(nil)
)
