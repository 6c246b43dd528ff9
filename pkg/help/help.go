// Package help renders help output for the gmpaudit interactive shell.
//
// Commands are listed by category with inline examples. Styling goes
// through lipgloss, which drops colors when the output is not a terminal.
//
//	renderer := help.NewRenderer(os.Stdout)
//	renderer.RenderFull()             // every category
//	renderer.RenderCommand("answer")  // one command with all examples
package help

import "io"

// Box drawing characters for listings.
const (
	BoxTeeLeft    = "├"
	BoxHorizontal = "─"
	BoxVertical   = "│"
)

// Renderer formats and writes help output.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a new help renderer that writes to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}
