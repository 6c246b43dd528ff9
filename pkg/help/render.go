package help

import (
	"fmt"
	"strings"
)

const (
	// commandColumnWidth fits the longest "/command (or /x)" entry.
	commandColumnWidth = 22

	indentCategory = "  "
	indentCommand  = "    "
	indentExample  = "      "

	maxInlineExamples = 2
)

// RenderFull renders every category followed by the shortcuts section.
func (r *Renderer) RenderFull() {
	r.writeln("")
	r.writeln(indentCategory + Header("GMP Audit Commands"))
	r.writeln("")
	for _, cat := range CategoryOrder {
		r.renderCategory(cat)
	}
	r.RenderShortcuts()
}

// RenderCommand renders usage and all examples for one command. It returns
// false when the command is unknown.
func (r *Renderer) RenderCommand(name string) bool {
	cmd, found := GetCommand(name)
	if !found {
		r.writeln(fmt.Sprintf(indentCategory+"Command '%s' not found. Use /help to see all commands.", name))
		return false
	}

	r.writeln("")
	r.writeln(indentCategory + CommandWithShortcut(cmd.Name, cmd.Shortcut))
	r.writeln(indentCategory + Dim(cmd.Description))
	r.writeln("")
	r.writeln(indentCategory + Bold("Usage:") + " " + HighlightExampleCommand(cmd.Usage))
	r.writeln("")

	if len(cmd.Examples) > 0 {
		r.writeln(indentCategory + Bold("Examples:"))
		for _, ex := range cmd.Examples {
			r.writeln(indentCommand + ExampleLine(ex.Command, ex.Description))
		}
		r.writeln("")
	}
	return true
}

// RenderShortcuts renders aliases, question id format and keys.
func (r *Renderer) RenderShortcuts() {
	bar := Dim(BoxVertical + " ")
	r.writeln("")
	r.writeln(indentCategory + StyleCategory("Shortcuts & Tips"))
	r.writeln(indentCategory + Dim(BoxTeeLeft+strings.Repeat(BoxHorizontal, commandColumnWidth+20)))
	r.writeln(indentCommand + bar + Dim("Aliases:  ") +
		Shortcut("/a") + Dim("→answer  ") +
		Shortcut("/n") + Dim("→note  ") +
		Shortcut("/h") + Dim("→help  ") +
		Shortcut("/q") + Dim("→quit"))
	r.writeln(indentCommand + bar + Dim("Statuses: ") +
		Argument("c") + Dim(" compliant  ") +
		Argument("nc") + Dim(" not compliant  ") +
		Argument("na") + Dim(" not applicable"))
	r.writeln(indentCommand + bar + Dim("Keys:     ") +
		Shortcut("Tab") + Dim(" complete  ") +
		Shortcut("Ctrl+D") + Dim(" exit  ") +
		Shortcut("↑↓") + Dim(" history"))
	r.writeln("")
}

func (r *Renderer) renderCategory(cat Category) {
	commands := GetCommandsByCategory(cat)
	if len(commands) == 0 {
		return
	}

	r.writeln(indentCategory + StyleCategory(strings.TrimSpace(cat.Icon()+" "+cat.DisplayName())))
	r.writeln(indentCategory + Dim(BoxTeeLeft+strings.Repeat(BoxHorizontal, commandColumnWidth+20)))
	for _, cmd := range commands {
		r.renderCommandLine(cmd)
	}
	r.writeln("")
}

func (r *Renderer) renderCommandLine(cmd Command) {
	name := PadRight(CommandWithShortcut(cmd.Name, cmd.Shortcut), commandColumnWidth)
	r.writeln(indentCommand + Dim(BoxVertical+" ") + name + Dim(cmd.Description))

	for i, ex := range cmd.Examples {
		if i == maxInlineExamples {
			break
		}
		r.writeln(indentExample + Dim(BoxVertical+"   e.g. ") + HighlightExampleCommand(ex.Command))
	}
}

func (r *Renderer) writeln(s string) {
	fmt.Fprintln(r.w, s)
}
