package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"vegitate/internal/combo"
	"vegitate/internal/config"
	"vegitate/internal/health"
	"vegitate/internal/logging"
	"vegitate/internal/wakelock"
)

func (a *app) execDoctor(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("doctor: unexpected argument %q", args[0])
	}

	report := a.preflight().Report(ctx)

	if a.opts.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, r := range report.Checks {
			line := fmt.Sprintf("  %-10s %-14s %s", r.Status, r.Name, r.Message)
			if r.Error != "" {
				line += ": " + r.Error
			}
			fmt.Fprintln(a.stdout, line)
		}
		fmt.Fprintf(a.stdout, "\n  overall: %s\n", report.Status)
	}

	if report.Status == health.StatusUnhealthy {
		return &exitError{code: exitFailure, err: errors.New("preflight failed")}
	}
	return nil
}

func (a *app) preflight() *health.Checker {
	c := health.NewChecker()

	c.RegisterFunc("config", true, func(context.Context) health.CheckResult {
		rc, err := config.LoadAndResolve(a.configPath(), a.opts.overrides())
		if err != nil {
			return health.Failed("invalid configuration", err)
		}
		src := rc.Source
		if src == "" {
			src = "defaults"
		}
		r := health.Healthy("loaded from " + src)
		r.Details = map[string]any{"combo": combo.Format(rc.Combo)}
		return r
	})

	c.RegisterFunc("accessibility", true, func(context.Context) health.CheckResult {
		if runtime.GOOS != "darwin" {
			return health.Failed("input locking requires macOS", nil)
		}
		if !a.checkAccessibility() {
			return health.Failed("terminal is not trusted for Accessibility", nil)
		}
		return health.Healthy("terminal is trusted")
	})

	c.RegisterFunc("wake lock", false, func(ctx context.Context) health.CheckResult {
		b := a.newWakeBackend()
		if err := wakelock.Probe(ctx, b); err != nil {
			return health.Failed("machine may sleep while locked", err)
		}
		return health.Healthy(b.Name() + " available")
	})

	c.RegisterFunc("logs", false, func(context.Context) health.CheckResult {
		path := a.opts.logFile
		if path == "" {
			path = logging.DefaultLogPath()
		}
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return health.Failed("log directory not writable", err)
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return health.Failed("log directory not writable", err)
		}
		f.Close()
		os.Remove(f.Name())
		return health.Healthy(dir)
	})

	c.RegisterFunc("crashes", false, func(context.Context) health.CheckResult {
		reports, err := logging.NewCrashHandler(logging.CrashHandlerConfig{}).CrashReports()
		if err != nil {
			return health.Failed("crash reports unreadable", err)
		}
		if len(reports) == 0 {
			return health.Healthy("no crash reports")
		}
		latest := reports[0]
		return health.CheckResult{
			Status:  health.StatusDegraded,
			Message: fmt.Sprintf("%d crash report(s), latest %s: %s", len(reports), latest.Timestamp.Local().Format(time.DateTime), latest.PanicValue),
			Details: map[string]any{
				"count":     len(reports),
				"dir":       logging.DefaultCrashDir(),
				"latest_id": latest.SessionID,
			},
		}
	})

	return c
}
