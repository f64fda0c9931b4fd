// vegitate locks all keyboard and mouse input and keeps the Mac awake
// until the unlock combo is pressed.
//
//	vegitate                      lock with the configured combo
//	vegitate -c ctrl+shift+q      override the combo for this session
//	vegitate --allow-mouse-move   let the pointer move (clicks stay blocked)
//	vegitate init                 write the default config file
//	vegitate config               print the resolved configuration
//	vegitate doctor               run preflight checks
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"vegitate/internal/combo"
	"vegitate/internal/config"
	"vegitate/internal/eventtap"
	"vegitate/internal/notify"
	"vegitate/internal/wakelock"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.1"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitCrash   = 2
)

// exitError carries an exit code for a failure that was already shown to
// the user.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type options struct {
	combo          string
	comboShort     string
	allowMouseMove bool
	noCaffeinate   bool
	version        bool
	configPath     string
	logLevel       string
	logFormat      string
	logFile        string
	json           bool
}

// overrides converts flags into config overrides. Only a non-empty combo
// flag overrides the file; -c wins over --combo, which may come from the
// environment.
func (o *options) overrides() config.Overrides {
	ov := config.Overrides{
		AllowMouseMove: o.allowMouseMove,
		NoCaffeinate:   o.noCaffeinate,
	}
	c := o.combo
	if o.comboShort != "" {
		c = o.comboShort
	}
	if c != "" {
		ov.Combo = &c
	}
	return ov
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	opts   options

	// Swappable for tests.
	newFilter           func() eventtap.Filter
	newWakeBackend      func() wakelock.Backend
	newNotifier         func(...notify.Option) *notify.Desktop
	promptAccessibility func() bool
	checkAccessibility  func() bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:              stdout,
		stderr:              stderr,
		newFilter:           eventtap.NewFilter,
		newWakeBackend:      wakelock.DefaultBackend,
		newNotifier:         notify.New,
		promptAccessibility: eventtap.PromptAccessibility,
		checkAccessibility:  eventtap.CheckAccessibility,
	}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return newApp(stdout, stderr).run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	err := a.command().ParseAndRun(ctx, args)
	return exitCode(err, a.stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "vegitate: %v\n", err)
	return exitFailure
}

func (a *app) command() *ffcli.Command {
	rootFlags := flag.NewFlagSet("vegitate", flag.ContinueOnError)
	rootFlags.SetOutput(a.stderr)
	rootFlags.StringVar(&a.opts.combo, "combo", "", "unlock key combination (default: from config or ctrl+cmd+u)")
	rootFlags.StringVar(&a.opts.comboShort, "c", "", "shorthand for --combo")
	rootFlags.BoolVar(&a.opts.allowMouseMove, "allow-mouse-move", false, "allow pointer movement while locked (clicks still blocked)")
	rootFlags.BoolVar(&a.opts.noCaffeinate, "no-caffeinate", false, "don't keep the machine awake")
	rootFlags.BoolVar(&a.opts.version, "version", false, "print version and exit")
	rootFlags.BoolVar(&a.opts.version, "V", false, "shorthand for --version")
	a.commonFlags(rootFlags)

	initFlags := flag.NewFlagSet("vegitate init", flag.ContinueOnError)
	initFlags.SetOutput(a.stderr)
	initFlags.StringVar(&a.opts.configPath, "config", "", "config file path")

	configFlags := flag.NewFlagSet("vegitate config", flag.ContinueOnError)
	configFlags.SetOutput(a.stderr)
	configFlags.StringVar(&a.opts.configPath, "config", "", "config file path")
	configFlags.StringVar(&a.opts.combo, "combo", "", "unlock key combination override")

	doctorFlags := flag.NewFlagSet("vegitate doctor", flag.ContinueOnError)
	doctorFlags.SetOutput(a.stderr)
	doctorFlags.StringVar(&a.opts.configPath, "config", "", "config file path")
	doctorFlags.BoolVar(&a.opts.json, "json", false, "print the report as JSON")

	initCmd := &ffcli.Command{
		Name:       "init",
		ShortUsage: "vegitate init [--config PATH]",
		ShortHelp:  "Create the default config file",
		FlagSet:    initFlags,
		Exec:       a.execInit,
	}

	configCmd := &ffcli.Command{
		Name:       "config",
		ShortUsage: "vegitate config [--config PATH]",
		ShortHelp:  "Print the resolved configuration",
		FlagSet:    configFlags,
		Exec:       a.execConfig,
	}

	doctorCmd := &ffcli.Command{
		Name:       "doctor",
		ShortUsage: "vegitate doctor [--json]",
		ShortHelp:  "Check permissions, config and wake lock support",
		FlagSet:    doctorFlags,
		Exec:       a.execDoctor,
	}

	return &ffcli.Command{
		Name:        "vegitate",
		ShortUsage:  "vegitate [flags] [init | config | doctor]",
		ShortHelp:   "Keep your Mac awake while locking all input",
		LongHelp:    longHelp(),
		FlagSet:     rootFlags,
		Options:     []ff.Option{ff.WithEnvVarPrefix("VEGITATE")},
		Subcommands: []*ffcli.Command{initCmd, configCmd, doctorCmd},
		Exec:        a.execLock,
	}
}

func (a *app) commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&a.opts.configPath, "config", "", "config file path (default "+config.Path()+")")
	fs.StringVar(&a.opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&a.opts.logFormat, "log-format", "text", "log format: text, json")
	fs.StringVar(&a.opts.logFile, "log-file", "", "log file path (default platform log directory)")
}

func longHelp() string {
	return strings.Join([]string{
		"Combo format:",
		"  modifiers : ctrl (control), cmd (command), shift, alt (option, opt)",
		"  keys      : " + strings.Join(combo.KeyNames(), " "),
		"",
		"Config is read from " + config.Path() + ".",
		"Run `vegitate init` to generate it. Flags and VEGITATE_* environment",
		"variables override config file values.",
		"",
		"Requires Accessibility permission in System Settings.",
	}, "\n")
}

func (a *app) execInit(_ context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("init: unexpected argument %q", args[0])
	}
	path := a.configPath()
	if err := config.WriteDefault(path); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			fmt.Fprintf(a.stderr, "  Config already exists: %s\n", path)
			fmt.Fprintln(a.stderr, "  Delete it first if you want to regenerate.")
			return &exitError{code: exitFailure, err: err}
		}
		return err
	}
	fmt.Fprintf(a.stdout, "  Created default config at: %s\n", path)
	fmt.Fprintln(a.stdout, "  Edit it to customise your unlock combo, panic key, etc.")
	return nil
}

func (a *app) execConfig(_ context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("config: unexpected argument %q", args[0])
	}
	rc, err := config.LoadAndResolve(a.configPath(), a.opts.overrides())
	if err != nil {
		return err
	}
	source := rc.Source
	if source == "" {
		source = "defaults (no config file at " + a.configPath() + ")"
	}
	fmt.Fprintf(a.stdout, "# source: %s\n", source)
	return config.Encode(a.stdout, rc)
}

func (a *app) configPath() string {
	if a.opts.configPath != "" {
		return a.opts.configPath
	}
	return config.Path()
}
