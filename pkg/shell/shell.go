// Package shell provides the interactive REPL for filling in an audit.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/help"
	"github.com/r3d91ll/gmpaudit/pkg/photo"
	"github.com/r3d91ll/gmpaudit/pkg/report"
	"github.com/r3d91ll/gmpaudit/pkg/store"
)

// ResetPrompt is the confirmation shown before /reset.
const ResetPrompt = "Are you sure you want to reset all form data? This cannot be undone."

const prompt = "\033[32mgmpaudit>\033[0m "

// Shell is the interactive command-line interface.
type Shell struct {
	store     *store.FormStore
	backend   store.Backend
	saver     *store.AutoSaver
	photos    *photo.Store
	paginator *report.Paginator
	prompter  Prompter
	errs      *werrors.Formatter
	logger    *zap.Logger
	out       io.Writer
	cfg       Config
}

// Config holds shell configuration.
type Config struct {
	HistoryFile string

	// OutputDir receives exports written without an explicit path.
	OutputDir string

	Report report.Options
	CSV    *report.CSVConfig
}

// Deps are the collaborators a Shell drives. Store is required; Backend
// enables /save, Saver is flushed on /save and Photos enables /photo.
type Deps struct {
	Store     *store.FormStore
	Backend   store.Backend
	Saver     *store.AutoSaver
	Photos    *photo.Store
	Paginator *report.Paginator
	Prompter  Prompter
	Logger    *zap.Logger

	// Out defaults to os.Stdout.
	Out io.Writer
}

// New creates a shell. It does not touch the terminal until Run.
func New(d Deps, cfg Config) *Shell {
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Paginator == nil {
		d.Paginator = report.NewPaginator().WithLogger(d.Logger)
	}
	if cfg.CSV == nil {
		cfg.CSV = report.DefaultCSVConfig()
	}
	if cfg.Report.Now == nil {
		cfg.Report.Now = report.DefaultOptions().Now
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	errs := werrors.DefaultFormatter()
	errs.Writer = d.Out
	if f, ok := d.Out.(*os.File); !ok || !werrors.IsTTY(f) {
		errs.UseColor = false
	}
	return &Shell{
		store:     d.Store,
		backend:   d.Backend,
		saver:     d.Saver,
		photos:    d.Photos,
		paginator: d.Paginator,
		prompter:  d.Prompter,
		errs:      errs,
		logger:    d.Logger,
		out:       d.Out,
		cfg:       cfg,
	}
}

// Run starts the interactive loop. It returns nil on /quit or EOF.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     s.cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewShellCompleter(s.store),
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	if s.prompter == nil {
		s.prompter = &readlinePrompter{rl: rl, prompt: prompt}
	}

	fmt.Fprintf(s.out, "GMP audit checklist, %d%% complete.\n", s.store.Completion())
	fmt.Fprintln(s.out, "Type /help for commands, /quit to exit.")
	fmt.Fprintln(s.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.errs.Display(err)
		}
	}
}

var errQuit = errors.New("quit")

// Execute runs one input line. It returns errQuit for /quit.
func (s *Shell) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return werrors.Commandf(werrors.ErrCommandNotFound, "commands start with '/', got %q", line)
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s.logger.Debug("shell command", zap.String("command", name))

	switch name {
	case "/quit", "/exit", "/q":
		return s.quit(ctx)
	case "/help", "/h":
		s.printHelp(rest)
	case "/company":
		return s.setCompany(rest)
	case "/answer", "/a":
		return s.answer(rest)
	case "/note", "/n":
		return s.note(rest)
	case "/category":
		return s.category(rest)
	case "/photo":
		return s.attachPhotos(ctx, rest)
	case "/unphoto":
		return s.removePhoto(rest)
	case "/sections":
		s.printSections()
	case "/show":
		return s.show(rest)
	case "/stats":
		s.printStats()
	case "/export":
		return s.export(ctx, rest)
	case "/save":
		return s.save(ctx)
	case "/reset":
		return s.reset()
	default:
		return werrors.Commandf(werrors.ErrCommandNotFound, "unknown command: %s", name).
			WithContext("command", name)
	}
	return nil
}

func (s *Shell) quit(ctx context.Context) error {
	if s.saver != nil {
		if err := s.saver.Flush(ctx); err != nil {
			s.errs.Display(err)
		}
	}
	return errQuit
}

func (s *Shell) printHelp(topic string) {
	r := help.NewRenderer(s.out)
	if topic == "" {
		r.RenderFull()
		return
	}
	r.RenderCommand(strings.Fields(topic)[0])
}

// args splits rest into n words, the last one taking the remainder of the
// line unchanged. It fails with usage when fewer than min words are present.
func args(rest string, n, min int, usage string) ([]string, error) {
	var out []string
	for len(out) < n-1 {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		word, tail, _ := strings.Cut(rest, " ")
		out = append(out, word)
		rest = tail
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		out = append(out, rest)
	}
	if len(out) < min {
		return nil, werrors.Command(werrors.ErrCommandMissingArgs, "usage: "+usage).
			WithContext("usage", usage)
	}
	for len(out) < n {
		out = append(out, "")
	}
	return out, nil
}
