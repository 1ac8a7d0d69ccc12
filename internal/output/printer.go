package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer - сообщения команд (не ошибки pipeline, те идут через notice).
type Printer struct {
	out       io.Writer
	useColors bool
}

func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{out: out, useColors: useColors}
}

func (p *Printer) Writer() io.Writer { return p.out }

func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		_, _ = color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

func (p *Printer) Info(format string, args ...any) {
	if p.useColors {
		_, _ = color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		_, _ = color.New(color.FgYellow).Fprintf(p.out, "⚠ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.out, "[WARN] "+format+"\n", args...)
}

// Status раскрашивает статус документа/презентации.
func (p *Printer) Status(status string) string {
	if !p.useColors {
		return status
	}

	switch status {
	case "completed":
		return color.GreenString(status)
	case "failed":
		return color.RedString(status)
	case "pending", "processing", "generating":
		return color.YellowString(status)
	default:
		return status
	}
}
