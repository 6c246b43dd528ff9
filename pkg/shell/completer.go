package shell

import (
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	"github.com/r3d91ll/gmpaudit/pkg/help"
)

// QuestionLister supplies question ids for completion.
type QuestionLister interface {
	QuestionIDs() []string
}

// questionCommands take a question id as their first argument.
var questionCommands = map[string]bool{
	"answer": true, "a": true,
	"note": true, "n": true,
	"category": true,
	"photo":    true,
	"unphoto":  true,
	"show":     true,
}

var statusWords = []string{"c", "nc", "na", "clear"}

// ShellCompleter provides tab completion for commands, question ids,
// company fields, statuses and export formats.
type ShellCompleter struct {
	questions QuestionLister
}

// NewShellCompleter creates a completer. questions may be nil.
func NewShellCompleter(questions QuestionLister) *ShellCompleter {
	return &ShellCompleter{questions: questions}
}

var _ readline.AutoCompleter = (*ShellCompleter)(nil)

// commandNames returns every command name and alias without the slash.
func commandNames() []string {
	names := []string{"exit"}
	for _, c := range help.Commands {
		names = append(names, strings.TrimPrefix(c.Name, "/"))
		if c.Shortcut != "" {
			names = append(names, strings.TrimPrefix(c.Shortcut, "/"))
		}
	}
	sort.Strings(names)
	return names
}

// Do implements readline.AutoCompleter. It returns candidate suffixes for
// the word under the cursor and the length of that word.
func (c *ShellCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if len(line) == 0 || pos <= 0 {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}
	lineStr := string(line[:pos])
	wordStart := findWordStart(lineStr)
	word := lineStr[wordStart:]
	before := strings.Fields(lineStr[:wordStart])

	if len(before) == 0 {
		if !strings.HasPrefix(word, "/") {
			return nil, 0
		}
		return complete(commandNames(), strings.TrimPrefix(word, "/"), len(word))
	}

	cmd := strings.TrimPrefix(before[0], "/")
	argIndex := len(before) - 1

	switch {
	case argIndex == 0 && questionCommands[cmd]:
		if c.questions == nil {
			return nil, 0
		}
		return complete(c.questions.QuestionIDs(), strings.ToLower(word), len(word))
	case argIndex == 0 && cmd == "company":
		return complete(audit.CompanyFields, word, len(word))
	case argIndex == 0 && cmd == "export":
		return complete([]string{"csv", "html", "pdf"}, strings.ToLower(word), len(word))
	case argIndex == 0 && (cmd == "help" || cmd == "h"):
		return complete(commandNames(), word, len(word))
	case argIndex == 1 && (cmd == "answer" || cmd == "a"):
		return complete(statusWords, strings.ToLower(word), len(word))
	}
	return nil, 0
}

// complete returns the suffixes of candidates that extend prefix.
func complete(candidates []string, prefix string, length int) ([][]rune, int) {
	var matches [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, prefix) {
			matches = append(matches, []rune(cand[len(prefix):]+" "))
		}
	}
	return matches, length
}

// findWordStart returns the index after the last space or tab in s.
func findWordStart(s string) int {
	return strings.LastIndexAny(s, " \t") + 1
}
