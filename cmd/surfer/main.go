package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
)

var version = "0.1.0"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError carries a process exit code out of a RunE without cobra
// printing anything for it.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// app is shared by all subcommands.
type app struct {
	stdout, stderr io.Writer

	configFile string
	cfg        *config.Config
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}

	root := a.browseCmd()
	root.AddCommand(a.doctorCmd(), a.searchCmd(), a.serveCmd())
	root.SetArgs(dropUnknownFlags(root, args))
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var code exitError
	if errors.As(err, &code) {
		return int(code)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// dropUnknownFlags removes flags no command defines, one token each, so an
// unknown flag never takes the following argument (usually the URL) as its
// value. A value flag with nothing after it is dropped too and resolves to
// its default.
func dropUnknownFlags(root *cobra.Command, args []string) []string {
	known := knownFlags(root)
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			out = append(out, arg)
			continue
		}

		name, _, inline := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "--") && len(arg) > 2 {
			name, inline = arg[:2], true // -cvalue
		}
		f, ok := known[name]
		switch {
		case !ok:
		case inline || f.NoOptDefVal != "":
			out = append(out, arg)
		case i+1 < len(args):
			out = append(out, arg, args[i+1])
			i++
		}
	}
	return out
}

// knownFlags indexes every flag in the command tree by "--name" and "-x".
func knownFlags(root *cobra.Command) map[string]*pflag.Flag {
	known := make(map[string]*pflag.Flag)
	add := func(f *pflag.Flag) {
		known["--"+f.Name] = f
		if f.Shorthand != "" {
			known["-"+f.Shorthand] = f
		}
	}
	root.InitDefaultVersionFlag()
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.InitDefaultHelpFlag()
		c.Flags().VisitAll(add)
		c.PersistentFlags().VisitAll(add)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(root)
	return known
}

// setup loads configuration and installs the logger. It runs before every
// command.
func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	initLogger(a.stderr, cfg.Log)
	return nil
}

// fail prints err the way users see every fatal error and returns exit 1.
func (a *app) fail(err error) error {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		fmt.Fprintf(a.stderr, "Error: %s\n", se.UserMessage())
		if se.Hint != "" {
			fmt.Fprintln(a.stderr, se.Hint)
		}
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return exitError(1)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// initLogger configures slog based on the LogConfig. Logs go to w (stderr)
// so stdout carries only results.
func initLogger(w io.Writer, cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
