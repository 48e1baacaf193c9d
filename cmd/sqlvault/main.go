// Command sqlvault is the interactive prompt around internal/engine.Engine:
// reads multi-line SQL terminated by ';', loads/saves a history file, and
// prints either the formatted result or the error form. Grounded on the
// teacher's cmd/client/main.go, collapsed from a TCP client/server pair
// into a single embedded process (SPEC_FULL.md §6 "networking is out of
// this spec's scope").
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/Kara-Zor-El/sqlvault/internal/config"
	"github.com/Kara-Zor-El/sqlvault/internal/engine"
)

// history mirrors the teacher's own-file History type: an in-memory tail of
// executed statements, appended to a file as they run, preloaded into
// readline so arrow-key recall works from the first prompt.
type history struct {
	path  string
	lines []string
}

func newHistory(path string) *history { return &history{path: path} }

func (h *history) load(max int) error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		h.lines = append(h.lines, s)
		if max > 0 && len(h.lines) > max {
			h.lines = h.lines[len(h.lines)-max:]
		}
	}
	return sc.Err()
}

func (h *history) append(stmt string) error {
	stmt = compactOneLine(strings.TrimSpace(stmt))
	if stmt == "" || h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintln(f, stmt); err != nil {
		return err
	}
	h.lines = append(h.lines, stmt)
	return nil
}

func compactOneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Join(strings.Fields(s), " ")
}

// statementComplete reports whether buf has a terminating ';' outside a
// quoted string, honoring backslash escapes.
func statementComplete(buf string) bool {
	inQuote := false
	escaped := false
	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' || r == '"' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	oneShotSQL := flag.String("c", "", "execute one SQL statement and exit (must end with ';')")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	eng, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}

	if strings.TrimSpace(*oneShotSQL) != "" {
		fmt.Println(eng.Execute(*oneShotSQL))
		return
	}

	h := newHistory(expandHome(cfg.CLI.HistoryPath))
	_ = h.load(cfg.CLI.HistoryMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sqlvault> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	fmt.Println(cfg.AppName + " — type \\help for help")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("sqlvault> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" && buf.Len() == 0 {
			continue
		}

		if buf.Len() == 0 {
			switch line {
			case "\\q", "quit", "exit":
				return
			case "\\help":
				fmt.Println(`meta commands:
  \q | quit | exit   quit
  \help              show help

sql:
  end a statement with ';'; multi-line input is accumulated until then`)
				continue
			case "\\history":
				for i, l := range h.lines {
					fmt.Printf("%5d  %s\n", i+1, l)
				}
				continue
			}
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("sqlvault> ")

		_ = h.append(stmt)
		_ = rl.SaveHistory(compactOneLine(stmt))

		fmt.Println(eng.Execute(stmt))
	}
}
