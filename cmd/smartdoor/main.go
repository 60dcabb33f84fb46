// Command smartdoor unlocks a BLE smart door lock.
//
// A session scans for the lock, connects, reads the shared key (or uses
// the stored one), writes a signed token and then the one-time unlock
// command. The clock value sent with the command comes from the state
// directory and must be set once with set-clock.
//
// Usage:
//
//	smartdoor [flags] [command] [args]
//
// Commands:
//
//	unlock              Run an unlock session (default)
//	scan                List nearby locks
//	status              Show configuration and stored values
//	set-clock <value>   Store the clock value
//	set-secret <base32> Store the key for -key-source stored
//	reset               Clear the stored clock value and secret
//	shell               Start the interactive shell
//
// Every setting can also come from a YAML file (-config), from
// SMARTDOOR_* environment variables or from a .env file.
//
// Examples:
//
//	# Configure once, then unlock
//	smartdoor set-clock 1700000000
//	smartdoor
//
//	# Unlock the simulator over TCP with a stored key
//	smartdoor -transport tcp -peer front=127.0.0.1:7420 -key-source stored
//
//	# Show every nearby peripheral whose name contains "door"
//	smartdoor -filter door scan
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oiascix/ble-app/cmd/smartdoor/interactive"
	"github.com/oiascix/ble-app/pkg/config"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("smartdoor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	retries := fs.Int("retries", 2, "Extra unlock sessions after a retryable failure")
	reset := fs.Bool("reset", false, "Clear the stored clock value and secret first")
	fs.Usage = func() {
		fmt.Fprint(stderr, "Usage: smartdoor [flags] [unlock|scan|status|set-clock|set-secret|reset|shell]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "smartdoor: %v\n", err)
		return exitUsage
	}
	if *retries < 0 {
		fmt.Fprintln(stderr, "smartdoor: -retries must not be negative")
		return exitUsage
	}

	cmd, cmdArgs := "unlock", fs.Args()
	if len(cmdArgs) > 0 {
		cmd, cmdArgs = cmdArgs[0], cmdArgs[1:]
	}

	logger := cfg.NewLogger(stderr)
	app, err := newApp(cfg, appOptions{Retries: *retries, Out: stdout, Logger: logger})
	if err != nil {
		fmt.Fprintf(stderr, "smartdoor: %v\n", err)
		return exitFailure
	}
	defer app.Close()

	if *reset {
		if err := app.Reset(); err != nil {
			fmt.Fprintf(stderr, "smartdoor: reset: %v\n", err)
			return exitFailure
		}
		logger.Info("stored state cleared", "dir", cfg.StateDir)
	}

	if err := dispatch(ctx, app, cfg, cmd, cmdArgs, stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "smartdoor: %v\n", err)
			fs.Usage()
			return exitUsage
		}
		fmt.Fprintf(stderr, "smartdoor: %s: %v\n", cmd, err)
		return exitFailure
	}
	return exitOK
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, app *App, cfg *config.Config, cmd string, args []string, stdout io.Writer) error {
	switch cmd {
	case "unlock":
		return app.Unlock(ctx)

	case "scan":
		return app.Scan(ctx, stdout)

	case "status":
		return app.Status(stdout)

	case "set-clock":
		if len(args) != 1 {
			return fmt.Errorf("%w: set-clock <value>", errUsage)
		}
		clock, err := parseClock(args[0])
		if err != nil {
			return err
		}
		if err := app.SetClock(clock); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Clock value set to %d\n", clock)
		return nil

	case "set-secret":
		if len(args) != 1 {
			return fmt.Errorf("%w: set-secret <base32>", errUsage)
		}
		if err := app.SetSecret(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Secret stored")
		return nil

	case "reset":
		if err := app.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Stored clock value and secret cleared")
		return nil

	case "shell":
		history := filepath.Join(cfg.StateDir, "history")
		return interactive.New(app, history).Run(ctx)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
