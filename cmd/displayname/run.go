// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/displayname/pkg/logging"
	"github.com/AleutianAI/displayname/pkg/ux"
	"github.com/AleutianAI/displayname/services/displayname/config"
	"github.com/AleutianAI/displayname/services/displayname/engine"
	"github.com/AleutianAI/displayname/services/displayname/runner"
	"github.com/AleutianAI/displayname/services/displayname/syntax"
	"github.com/AleutianAI/displayname/services/displayname/telemetry"
	"github.com/AleutianAI/displayname/services/displayname/watch"
)

// session is everything one invocation needs after setup.
type session struct {
	cfg         config.Config
	transformer *engine.Transformer
	metrics     *telemetry.Metrics
	logger      *slog.Logger
}

func (a *app) run(cmd *cobra.Command, args []string, f *flags) error {
	ctx := cmd.Context()
	stdin := len(args) == 0 || (len(args) == 1 && args[0] == "-")

	mode, err := selectMode(f, stdin)
	if err != nil {
		return usageError(err)
	}

	level, err := logging.ParseLevel(f.logLevel)
	if err != nil {
		return usageError(err)
	}
	logger := logging.New(logging.Config{
		Level:   level,
		JSON:    f.logJSON,
		LogDir:  f.logDir,
		Service: "displayname",
		Output:  a.stderr,
	})
	defer logger.Close()

	runID := uuid.NewString()
	slogger := logger.With("run_id", runID).Slog()
	previous := slog.Default()
	slog.SetDefault(slogger)
	defer slog.SetDefault(previous)

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return usageError(err)
	}
	applyFlags(cmd.Flags(), f, &cfg)
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return usageError(err)
	}

	shutdown, err := telemetry.Init(ctx, telemetryConfig(f))
	if err != nil {
		return usageError(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slogger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := telemetry.NewMetrics(otel.Meter("displayname.runner"))
	if err != nil {
		return err
	}

	parserOpts := []syntax.ParserOption{}
	if cfg.MaxFileSize > 0 {
		parserOpts = append(parserOpts, syntax.WithMaxFileSize(cfg.MaxFileSize))
	}
	transformer, err := engine.NewTransformer(opts,
		engine.WithLogger(slogger),
		engine.WithParser(syntax.NewParser(parserOpts...)))
	if err != nil {
		return usageError(err)
	}

	s := &session{cfg: cfg, transformer: transformer, metrics: metrics, logger: slogger}
	slogger.Debug("starting",
		slog.String("version", version),
		slog.String("mode", mode.String()),
		slog.String("style", opts.Style.String()),
		slog.String("import_source", opts.ImportSource))

	if stdin {
		return a.runStdin(ctx, s, mode, f.stdinName)
	}
	if f.watch {
		return a.runWatch(ctx, s, args, f)
	}
	return a.runFiles(ctx, s, mode, args)
}

// selectMode resolves the mode flags. Without a mode flag, stdin is
// printed and files are checked.
func selectMode(f *flags, stdin bool) (runner.Mode, error) {
	set := 0
	for _, on := range []bool{f.write, f.check, f.diff} {
		if on {
			set++
		}
	}
	if set > 1 {
		return 0, errors.New("--write, --check and --diff are mutually exclusive")
	}
	if f.watch {
		if stdin {
			return 0, errors.New("--watch needs at least one directory")
		}
		if f.check || f.diff {
			return 0, errors.New("--watch cannot be combined with --check or --diff")
		}
		return runner.ModeWrite, nil
	}

	switch {
	case f.check:
		return runner.ModeCheck, nil
	case f.diff:
		return runner.ModeDiff, nil
	case f.write && !stdin:
		return runner.ModeWrite, nil
	case stdin:
		return runner.ModePrint, nil
	default:
		return runner.ModeCheck, nil
	}
}

// loadConfig loads path, or the nearest configuration file above the
// working directory when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, err
		}
		if path, err = config.Discover(wd); err != nil {
			return config.Config{}, err
		}
	}
	if path != "" {
		slog.Debug("using configuration", slog.String("path", path))
	}
	return config.Load(path)
}

// applyFlags copies explicitly set flags over the configuration.
func applyFlags(fs *pflag.FlagSet, f *flags, cfg *config.Config) {
	if fs.Changed("style") {
		cfg.Style = f.style
	}
	if fs.Changed("require-pascal") {
		cfg.RequirePascalCase = f.requirePascal
	}
	if fs.Changed("semicolon") {
		cfg.InsertSemicolon = f.semicolon
	}
	if fs.Changed("nested-forward-ref") {
		cfg.RewriteNestedForwardRef = f.nestedForward
	}
	if fs.Changed("import-source") {
		cfg.ImportSource = f.importSource
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
}

func (s *session) newRunner(mode runner.Mode, stdout io.Writer, trigger string) (*runner.Runner, error) {
	return runner.New(s.transformer, runner.Options{
		Mode:        mode,
		Concurrency: s.cfg.Workers(),
		Include:     s.cfg.Include,
		Ignore:      s.cfg.Ignore,
		Stdout:      stdout,
		Logger:      s.logger,
		Metrics:     s.metrics,
		Trigger:     trigger,
	})
}

func (a *app) runStdin(ctx context.Context, s *session, mode runner.Mode, name string) error {
	src, err := io.ReadAll(a.stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	r, err := s.newRunner(mode, a.stdout, "cli")
	if err != nil {
		return err
	}

	res, err := r.RunSource(ctx, name, src)
	if err != nil {
		return err
	}
	if mode == runner.ModeCheck {
		p := ux.NewPrinter(a.stdout, ux.DetectPersonality(a.stdout))
		if res.Changed {
			p.FileStatus(name, ux.IconWarning, annotationNames(res.Annotations))
			return silentExit(exitNeedsNames)
		}
	}
	return nil
}

func (a *app) runFiles(ctx context.Context, s *session, mode runner.Mode, paths []string) error {
	r, err := s.newRunner(mode, a.stdout, "cli")
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := r.Run(ctx, paths)
	if err != nil {
		if errors.Is(err, runner.ErrNoFiles) {
			return usageError(err)
		}
		return err
	}

	p := a.statusPrinter(mode)
	printReport(p, mode, report, time.Since(start))

	switch {
	case report.Failed > 0:
		return silentExit(exitError)
	case mode == runner.ModeCheck && report.Changed > 0:
		return silentExit(exitNeedsNames)
	}
	return nil
}

// statusPrinter prints the file list of check mode to stdout. Other modes
// report on stderr so stdout carries only diffs.
func (a *app) statusPrinter(mode runner.Mode) *ux.Printer {
	w := a.stderr
	if mode == runner.ModeCheck {
		w = a.stdout
	}
	return ux.NewPrinter(w, ux.DetectPersonality(w))
}

func (a *app) runWatch(ctx context.Context, s *session, paths []string, f *flags) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return usageError(err)
		}
		if !info.IsDir() {
			return usageErrorf("--watch needs directories, %s is a file", path)
		}
	}

	if err := a.runFiles(ctx, s, runner.ModeWrite, paths); err != nil {
		var e *exitErr
		if !errors.As(err, &e) || e.err != nil {
			return err
		}
	}

	r, err := s.newRunner(runner.ModeWrite, a.stdout, "watch")
	if err != nil {
		return err
	}
	p := a.statusPrinter(runner.ModeWrite)

	if f.metricsAddr != "" {
		go func() {
			if err := telemetry.ServeMetrics(ctx, f.metricsAddr); err != nil {
				s.logger.Error("metrics endpoint stopped", slog.String("error", err.Error()))
			}
		}()
	}

	handler := func(ctx context.Context, changes []watch.Change) {
		files := watch.Existing(changes)
		if len(files) == 0 {
			return
		}
		start := time.Now()
		report, err := r.Run(ctx, files)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				p.Error(err.Error())
			}
			return
		}
		if report.Changed > 0 || report.Failed > 0 {
			printReport(p, runner.ModeWrite, report, time.Since(start))
		}
	}

	watchers := make([]*watch.Watcher, 0, len(paths))
	defer func() {
		for _, w := range watchers {
			w.Stop()
		}
	}()
	for _, root := range paths {
		w, err := watch.New(root, handler, watch.Options{
			Debounce: f.debounce,
			Ignore:   append(append([]string(nil), s.cfg.Ignore...), "*.tmp", "*.swp", "*~"),
			Include:  s.cfg.Include,
			Logger:   s.logger,
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
		watchers = append(watchers, w)
	}

	p.Title(fmt.Sprintf("watching %d path(s), press Ctrl+C to stop", len(paths)))
	<-ctx.Done()
	return nil
}
