package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vegitate/internal/combo"
	"vegitate/internal/config"
	"vegitate/internal/display"
	"vegitate/internal/eventtap"
	"vegitate/internal/logging"
	"vegitate/internal/metrics"
	"vegitate/internal/notify"
	"vegitate/internal/wakelock"
)

func (a *app) execLock(ctx context.Context, args []string) (err error) {
	if a.opts.version {
		fmt.Fprintf(a.stdout, "vegitate %s\n", version)
		return nil
	}
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q (subcommands: init, config, doctor)", args[0])
	}

	disp := display.New(a.stdout)
	defer disp.Close()

	disp.Banner(version)

	// Everything that can be rejected is checked before any privileged
	// operation.
	rc, err := config.LoadAndResolve(a.configPath(), a.opts.overrides())
	if err != nil {
		disp.Error(err.Error())
		return &exitError{code: exitFailure, err: err}
	}
	if rc.Source != "" {
		disp.Step("Config loaded from " + rc.Source)
	}
	disp.Step("Combo validated: " + combo.Format(rc.Combo))

	log := a.logger()
	defer log.Close()
	logging.SetDefault(log)

	journal, jerr := logging.OpenJournal(logging.DefaultJournalPath())
	if jerr != nil {
		log.Warn("session journal unavailable", "error", jerr)
		journal = nil
	}
	defer journal.Close()

	var wake *wakelock.Controller
	if rc.Caffeinate {
		wake = wakelock.New(a.newWakeBackend(), wakelock.WithLogger(log.WithComponent("wakelock").Logger))
	}

	// Panics on helper goroutines go through the crash handler, which tears
	// the session down before the process dies.
	crash := logging.NewCrashHandler(logging.CrashHandlerConfig{
		Version: version,
		Stderr:  a.stderr,
	})

	notifier := a.newNotifier(
		notify.WithLogger(log.WithComponent("notify").Logger),
		notify.WithRecover(crash.Recover),
	)
	// Pending notifications are bounded by the notifier timeout.
	defer notifier.Wait()

	reporter := &journalReporter{Reporter: disp, journal: journal}
	locker := eventtap.NewLocker(
		eventtap.LockerConfig{
			Classifier: eventtap.ClassifierConfig{
				Combo:          rc.Combo,
				PanicKey:       rc.PanicKey,
				PanicTaps:      rc.PanicTaps,
				PanicWindow:    rc.PanicWindow,
				AllowMouseMove: rc.AllowMouseMove,
			},
			WakeLock: rc.Caffeinate,
		},
		a.newFilter(),
		wake,
		reporter,
		eventtap.WithNotifier(notifier),
		eventtap.WithLogger(log.WithComponent("eventtap").Logger),
		eventtap.WithMetrics(metrics.NewLockMetrics(nil)),
		eventtap.WithRecover(crash.Recover),
	)
	reporter.locker = locker

	crash.SetSessionID(locker.ID())
	crash.SetOnCrash(func() {
		locker.Teardown()
		disp.Close()
	})
	defer func() {
		if r := recover(); r != nil {
			crash.HandlePanic(r, map[string]any{"state": locker.State().String()})
			journal.Record(logging.JournalEvent{
				Type:      logging.JournalCrash,
				SessionID: locker.ID(),
				Details:   map[string]any{"panic": fmt.Sprint(r)},
			})
			err = &exitError{code: exitCrash, err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	log.Info("starting lock session",
		"session", locker.ID(),
		"version", version,
		"config", rc.String(),
	)

	switch runErr := locker.Run(ctx); {
	case runErr == nil:
		return nil
	case errors.Is(runErr, eventtap.ErrPermissionDenied):
		// Ask the OS to show its own Accessibility prompt as well.
		a.promptAccessibility()
		return &exitError{code: exitFailure, err: runErr}
	case errors.Is(runErr, eventtap.ErrAborted):
		log.Error("lock session aborted", "session", locker.ID())
		return &exitError{code: exitCrash, err: runErr}
	default:
		log.Error("lock session failed", "error", runErr)
		disp.Error(runErr.Error())
		return &exitError{code: exitFailure, err: runErr}
	}
}

// logger builds the file logger. Logging problems never stop a lock: the
// logger falls back to discarding output.
func (a *app) logger() *logging.Logger {
	cfg := logging.DefaultConfig()
	if a.opts.logFile != "" {
		cfg.FilePath = a.opts.logFile
	}

	var err error
	if cfg.Level, err = logging.ParseLevel(a.opts.logLevel); err != nil {
		fmt.Fprintf(a.stderr, "vegitate: %v, using info\n", err)
	}
	if cfg.Format, err = logging.ParseFormat(a.opts.logFormat); err != nil {
		fmt.Fprintf(a.stderr, "vegitate: %v, using text\n", err)
	}

	l, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(a.stderr, "vegitate: logging disabled: %v\n", err)
		return logging.Discard()
	}
	return l
}
