// Package markdown renders reminder previews for the terminal.
package markdown

import (
	"strings"
	"sync"

	internalstrings "github.com/amonks/taskplanner/internal/strings"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

type renderer interface {
	Render(string) (string, error)
}

// Renderers are keyed by wrap width and built on first use.
var cache = struct {
	sync.Mutex
	byWidth map[int]renderer
}{byWidth: map[int]renderer{}}

// Render formats markdown for a terminal width columns wide, shifting every
// line right by indent spaces. Blank input renders as nil. If glamour
// cannot format the text it is returned as plain text.
func Render(width, indent int, input []byte) []byte {
	text := plainText(input)
	if text == "" {
		return nil
	}
	indent = max(indent, 0)

	out := text
	if r := rendererFor(max(width-indent, 1)); r != nil {
		if formatted, err := r.Render(text); err == nil {
			out = internalstrings.TrimTrailingNewlines(formatted)
		}
	}
	if internalstrings.IsBlank(out) {
		return nil
	}
	return []byte(indentLines(out, indent))
}

// SafeRender is Render, returning the plain input if the renderer panics.
func SafeRender(width, indent int, input []byte) (out []byte) {
	defer func() {
		if recover() != nil {
			out = []byte(indentLines(plainText(input), max(indent, 0)))
		}
	}()
	return Render(width, indent, input)
}

// plainText normalizes line endings and drops trailing newlines; blank
// input becomes "".
func plainText(input []byte) string {
	text := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(string(input)))
	if internalstrings.IsBlank(text) {
		return ""
	}
	return text
}

func rendererFor(width int) renderer {
	cache.Lock()
	defer cache.Unlock()
	if r, ok := cache.byWidth[width]; ok {
		return r
	}

	// Plain ASCII styling: no ANSI escapes in the output.
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	r, err := glamour.NewTermRenderer(glamour.WithStyles(style), glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	cache.byWidth[width] = r
	return r
}

func indentLines(text string, spaces int) string {
	if spaces == 0 || text == "" {
		return text
	}
	pad := strings.Repeat(" ", spaces)
	return pad + strings.ReplaceAll(text, "\n", "\n"+pad)
}
