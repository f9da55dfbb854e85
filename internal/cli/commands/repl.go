package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/config"
	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/pkg/formula"
)

const replPrompt = "uvcalc> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "repl",
		Aliases: []string{"shell"},
		Short:   "Interactive molar mass calculator",
		Long: `Start an interactive session. Each line is read as a chemical formula and
its molar mass is printed. Lines starting with '.' are commands; type .help
for the list.`,
		Example: `  uvcalc repl
  uvcalc repl --short`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Start with one-line results")

	return cmd
}

func runREPL(cmd *cobra.Command, short bool) error {
	cmdCtx := NewCommandContext(cmd)

	historyFile := prepareHistoryFile(cmdCtx.Cfg, cmdCtx.Logger)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newFormulaCompleter(formula.Standard),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "uvcalc molar mass REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type a formula, .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	session := newREPLSession(cmdCtx.Renderer, formula.NewCalculator(formula.Standard), short)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if quit := session.handleLine(line); quit {
			break
		}
	}

	return nil
}

// prepareHistoryFile makes sure the history directory exists. It returns ""
// (no history) when history is disabled or the directory can't be created.
func prepareHistoryFile(cfg *config.Config, logger *slog.Logger) string {
	if cfg.HistoryFile == "" {
		return ""
	}
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0750); err != nil {
		logger.Warn("REPL history disabled", slog.String("path", cfg.HistoryFile), slog.String("error", err.Error()))
		return ""
	}
	return cfg.HistoryFile
}

// replSession evaluates REPL input lines.
type replSession struct {
	r     *output.Renderer
	calc  *formula.Calculator
	short bool
}

func newREPLSession(r *output.Renderer, calc *formula.Calculator, short bool) *replSession {
	return &replSession{r: r, calc: calc, short: short}
}

// handleLine evaluates one line and reports whether the session should end.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	res, err := s.calc.Breakdown(line)
	if err != nil {
		s.r.Error(err.Error())
		return false
	}
	if s.short {
		renderMassLine(s.r, res)
		return false
	}
	renderMassResult(s.r, res)
	s.r.Println()
	return false
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".elements":
		elements := formula.Standard.Elements()
		if len(parts) > 1 {
			elements = elements[:0:0]
			for _, sym := range parts[1:] {
				el, ok := formula.Standard.Lookup(sym)
				if !ok {
					s.r.Error(fmt.Sprintf("%v %q%s", formula.ErrUnknownElement, sym, symbolHint(sym)))
					return false
				}
				elements = append(elements, el)
			}
		}
		renderElements(s.r, elements)

	case ".short":
		s.short = true
		s.r.Muted("one-line results")

	case ".full":
		s.short = false
		s.r.Muted("full breakdown")

	case ".precision":
		if len(parts) < 2 {
			s.r.Printf("precision %d\n", s.r.Precision())
			return false
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 || n > config.MaxPrecision {
			s.r.Error(fmt.Sprintf("precision must be an integer between 0 and %d", config.MaxPrecision))
			return false
		}
		s.r.SetPrecision(n)

	case ".clear":
		s.r.Printf("\033[H\033[2J")

	default:
		s.r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .elements [sym..]  Show atomic masses
  .short / .full     One-line results or full breakdown
  .precision [n]     Show or set decimal places
  .clear             Clear the screen
  .quit / .exit      Exit the REPL

Tips:
  - Enter a formula such as Ca(OH)2 or CuSO4.5H2O
  - Use arrow keys to navigate history
  - Tab completion works for commands and element symbols
`
	_, _ = fmt.Fprintln(w, help)
}

// newFormulaCompleter completes dot-commands and element symbols.
func newFormulaCompleter(table *formula.MassTable) *readline.PrefixCompleter {
	symbols := make([]readline.PrefixCompleterInterface, 0, table.Len())
	for _, sym := range table.Symbols() {
		symbols = append(symbols, readline.PcItem(sym))
	}

	items := make([]readline.PrefixCompleterInterface, 0, table.Len()+8)
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".elements", symbols...),
		readline.PcItem(".short"),
		readline.PcItem(".full"),
		readline.PcItem(".precision"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	for _, sym := range table.Symbols() {
		items = append(items, readline.PcItem(sym))
	}

	return readline.NewPrefixCompleter(items...)
}
