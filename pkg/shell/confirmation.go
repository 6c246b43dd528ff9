package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// Prompter asks the user to confirm a destructive operation.
type Prompter interface {
	// Confirm shows message and returns true only for "y" or "yes".
	Confirm(message string) (bool, error)
}

// isYes accepts "y" and "yes" in any case; everything else, including an
// empty answer, means no.
func isYes(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}

// InteractivePrompter reads the answer from a plain reader.
type InteractivePrompter struct {
	reader io.Reader
	writer io.Writer
}

// NewInteractivePrompter creates a prompter on stdin and stdout.
func NewInteractivePrompter() *InteractivePrompter {
	return NewInteractivePrompterWithIO(os.Stdin, os.Stdout)
}

// NewInteractivePrompterWithIO creates a prompter with custom I/O.
func NewInteractivePrompterWithIO(reader io.Reader, writer io.Writer) *InteractivePrompter {
	return &InteractivePrompter{reader: reader, writer: writer}
}

// Confirm implements Prompter.
func (p *InteractivePrompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.writer, "%s [y/N]: ", message)

	scanner := bufio.NewScanner(p.reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		return false, nil
	}
	return isYes(scanner.Text()), nil
}

// readlinePrompter asks through the running readline instance, which owns
// the terminal while the shell runs.
type readlinePrompter struct {
	rl     *readline.Instance
	prompt string
}

func (p *readlinePrompter) Confirm(message string) (bool, error) {
	p.rl.SetPrompt(message + " [y/N]: ")
	defer p.rl.SetPrompt(p.prompt)

	answer, err := p.rl.Readline()
	if err == readline.ErrInterrupt || err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return isYes(answer), nil
}

var (
	_ Prompter = (*InteractivePrompter)(nil)
	_ Prompter = (*readlinePrompter)(nil)
	_ Prompter = (*MockPrompter)(nil)
)

// MockPrompter returns a fixed answer and records every prompt.
type MockPrompter struct {
	Response  bool
	Error     error
	Prompts   []string
	CallCount int
}

// NewMockPrompter creates a MockPrompter answering response.
func NewMockPrompter(response bool) *MockPrompter {
	return &MockPrompter{Response: response}
}

// NewMockPrompterWithError creates a MockPrompter failing with err.
func NewMockPrompterWithError(err error) *MockPrompter {
	return &MockPrompter{Error: err}
}

// Confirm implements Prompter.
func (m *MockPrompter) Confirm(message string) (bool, error) {
	m.CallCount++
	m.Prompts = append(m.Prompts, message)
	if m.Error != nil {
		return false, m.Error
	}
	return m.Response, nil
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockPrompter) LastPrompt() string {
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}
