package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/document"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("list"),
	readline.PcItem("get"),
	readline.PcItem("set"),
	readline.PcItem("delete"),
	readline.PcItem("move"),
	readline.PcItem("search"),
	readline.PcItem("dups"),
	readline.PcItem("import"),
	readline.PcItem("save"),
	readline.PcItem("quit"),
)

const shellHelp = `Commands:
  list                  List every entry
  get <key>             Show the value of a key
  set <key> <value...>  Set a value, appending the key if it is new
  delete <key>          Delete an entry
  move <key> <n>        Move an entry n rows (negative moves up)
  search <text...>      Find entries by key or value
  dups                  List duplicate keys
  import <file>         Append the entries of another file
  save [file]           Save, optionally to another file or format
  quit                  Leave the shell (quit! discards unsaved changes)
`

var errQuit = errors.New("quit")

// shell executes editing commands against one document
type shell struct {
	cmd   *cobra.Command
	doc   *document.Document
	out   io.Writer
	dirty bool
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell <file>",
		Short: "Edit a file interactively",
		Long: `Open a file in an interactive editing shell with history and
completion. The file is created on first save when it does not exist.

Example:
  bsfedit shell strings.bsf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openOrCreateDocument(args[0])
			if err != nil {
				return err
			}
			return runShell(cmd, doc)
		},
	}
}

// runShell reads commands with readline until quit or EOF
func runShell(cmd *cobra.Command, doc *document.Document) error {
	historyFile := filepath.Join(os.TempDir(), ".bsfedit_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("bsfedit:%s> ", filepath.Base(doc.Path)),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    completer,
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	sh := &shell{cmd: cmd, doc: doc, out: rl.Stdout()}
	fmt.Fprintf(sh.out, "Editing %s (%d entries). Enter help for commands.\n", doc.Path, doc.Len())

	for {
		line, readErr := rl.Readline()
		if readErr == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if readErr == io.EOF {
			if sh.dirty {
				fmt.Fprintln(sh.out, "Unsaved changes discarded")
			}
			return nil
		} else if readErr != nil {
			return readErr
		}

		if err := sh.exec(line); errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
	}
}

// exec runs one shell line. It returns errQuit when the shell should exit.
func (s *shell) exec(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)

	case "list", "ls":
		return s.printEntries(s.doc.Search(""))

	case "get":
		if len(args) != 1 {
			return errors.New("get requires a key")
		}
		m, err := findEntry(s.doc, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, m.Entry.Value.String())

	case "set":
		if len(args) < 1 {
			return errors.New("set requires a key and a value")
		}
		key, value := args[0], rest(line, 2)
		if err := codec.CheckEntry(codec.NewEntry(key, value)); err != nil {
			return err
		}
		if s.doc.Set(key, value) {
			fmt.Fprintf(s.out, "Added %s\n", key)
		} else {
			fmt.Fprintf(s.out, "Updated %s\n", key)
		}
		s.dirty = true

	case "delete", "rm":
		if len(args) != 1 {
			return errors.New("delete requires a key")
		}
		if !s.doc.Delete(args[0]) {
			return fmt.Errorf("key not found: %s", args[0])
		}
		fmt.Fprintf(s.out, "Deleted %s\n", args[0])
		s.dirty = true

	case "move", "mv":
		if len(args) != 2 {
			return errors.New("move requires a key and a row count")
		}
		by, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid row count %q", args[1])
		}
		m, err := findEntry(s.doc, args[0])
		if err != nil {
			return err
		}
		newIndex, err := s.doc.Move(m.Row-1, by)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Moved %s to row %d\n", args[0], newIndex+1)
		s.dirty = true

	case "search", "find":
		return s.printEntries(s.doc.Search(rest(line, 1)))

	case "dups":
		dups := s.doc.DuplicateKeys()
		if len(dups) == 0 {
			fmt.Fprintln(s.out, "No duplicate keys")
		}
		for _, k := range dups {
			fmt.Fprintln(s.out, k)
		}

	case "import":
		if len(args) != 1 {
			return errors.New("import requires a file")
		}
		n, err := s.doc.Import(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Imported %d entries\n", n)
		s.dirty = n > 0 || s.dirty

	case "save":
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		if err := saveDocument(s.cmd, s.doc, path); err != nil {
			return err
		}
		s.dirty = false

	case "quit", "exit", "q":
		if s.dirty {
			return errors.New("unsaved changes: save first or use quit! to discard them")
		}
		return errQuit

	case "quit!", "exit!", "q!":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q, enter help for commands", parts[0])
	}
	return nil
}

// rest returns line after its first n fields, keeping inner whitespace
func rest(line string, n int) string {
	for i := 0; i < n; i++ {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		end := strings.IndexFunc(line, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		line = line[end:]
	}
	return strings.TrimLeftFunc(line, unicode.IsSpace)
}

func (s *shell) printEntries(matches []document.Match) error {
	if len(matches) == 0 {
		fmt.Fprintln(s.out, "No entries found")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(s.out, "%4d  %s = %s\n", m.Row, display(m.Entry.Key), display(m.Entry.Value))
	}
	return nil
}
