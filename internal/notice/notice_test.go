package notice

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-slides-client/internal/pipeline"
)

func TestPrinter_PlainText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Notify(context.Background(), pipeline.Notice{Kind: pipeline.KindForbidden, Status: 403, Message: pipeline.MsgForbidden})

	require.Equal(t, "✗ Access denied.\n", buf.String())
}

func TestRecorder_KeepsOrder(t *testing.T) {
	t.Parallel()

	var r Recorder
	_, ok := r.Last()
	require.False(t, ok)

	r.Notify(context.Background(), pipeline.Notice{Kind: pipeline.KindNotFound})
	r.Notify(context.Background(), pipeline.Notice{Kind: pipeline.KindServerError})

	require.Equal(t, 2, r.Count())
	last, ok := r.Last()
	require.True(t, ok)
	require.Equal(t, pipeline.KindServerError, last.Kind)
	require.Equal(t, pipeline.KindNotFound, r.Notices()[0].Kind)
}
