// Package interactive provides the interactive shell of smartdoor.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// Commands is what the shell drives.
type Commands interface {
	Unlock(ctx context.Context) error
	Scan(ctx context.Context, w io.Writer) error
	Status(w io.Writer) error
	SetClock(clock int64) error
	SetSecret(secret string) error
	Reset() error

	// SetOutput redirects session diagnostics.
	SetOutput(w io.Writer)
}

// Shell is a readline command loop.
type Shell struct {
	cmds        Commands
	historyFile string
}

// New creates a shell. historyFile may be empty.
func New(cmds Commands, historyFile string) *Shell {
	return &Shell{cmds: cmds, historyFile: historyFile}
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "smartdoor> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryFile:     s.historyFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	s.cmds.SetOutput(rl.Stdout())
	printHelp(rl.Stdout())

	for {
		select {
		case <-ctx.Done():
			return nil
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

		if quit := s.exec(ctx, line, rl.Stdout()); quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (s *Shell) exec(ctx context.Context, line string, w io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		printHelp(w)

	case "unlock", "open", "u":
		// The failure was already reported with the session output.
		_ = s.cmds.Unlock(ctx)

	case "scan", "s":
		err = s.cmds.Scan(ctx, w)

	case "status", "st":
		err = s.cmds.Status(w)

	case "set-clock", "clock":
		if len(args) != 1 {
			fmt.Fprintln(w, "Usage: set-clock <value>")
			return false
		}
		var clock int64
		clock, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(w, "Invalid clock value: %s\n", args[0])
			return false
		}
		if err = s.cmds.SetClock(clock); err == nil {
			fmt.Fprintf(w, "Clock value set to %d\n", clock)
		}

	case "set-secret", "secret":
		if len(args) != 1 {
			fmt.Fprintln(w, "Usage: set-secret <base32>")
			return false
		}
		if err = s.cmds.SetSecret(args[0]); err == nil {
			fmt.Fprintln(w, "Secret stored")
		}

	case "reset":
		if err = s.cmds.Reset(); err == nil {
			fmt.Fprintln(w, "Stored clock value and secret cleared")
		}

	case "quit", "exit", "q":
		fmt.Fprintln(w, "Exiting...")
		return true

	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return false
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
SmartDoor Commands:
  unlock                 - Run an unlock session
  scan                   - List nearby locks
  status                 - Show configuration and stored values
  set-clock <value>      - Store the clock value
  set-secret <base32>    - Store the key for stored-key sessions
  reset                  - Clear the stored clock value and secret
  help                   - Show this help
  quit                   - Exit`)
}
