package stub

import (
	"fmt"
	"regexp"
	"strings"
)

var titleRe = regexp.MustCompile(`\\title\{([^}]*)\}`)

// renderLatex собирает beamer-исходник: титульный слайд, слайд с запросом
// и слайд с источниками, если они заданы.
func renderLatex(title, theme, prompt string, sources []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\\documentclass{beamer}\n\\usetheme{%s}\n\\title{%s}\n", theme, title)
	b.WriteString("\\begin{document}\n\\frame{\\titlepage}\n")
	fmt.Fprintf(&b, "\\begin{frame}{Overview}\n%s\n\\end{frame}\n", prompt)

	if len(sources) > 0 {
		b.WriteString("\\begin{frame}{Sources}\n\\begin{itemize}\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "\\item %s\n", s)
		}
		b.WriteString("\\end{itemize}\n\\end{frame}\n")
	}

	b.WriteString("\\end{document}\n")

	return b.String()
}

func latexTitle(src string) string {
	if m := titleRe.FindStringSubmatch(src); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}

	return "Untitled"
}

// renderPDF - минимальный одностраничный PDF с заголовком.
func renderPDF(title string) []byte {
	return []byte(fmt.Sprintf("%%PDF-1.4\n%% %s\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%%%EOF\n", title))
}
