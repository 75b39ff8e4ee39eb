// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner applies the displayname transform to files and directory
// trees.
//
// A Runner expands its input paths into source files, transforms them with
// bounded concurrency and then, depending on its Mode, reports, rewrites,
// diffs or prints them. Per-file failures are collected in the Report and
// never stop the batch; only context cancellation does.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/displayname/services/displayname/config"
	"github.com/AleutianAI/displayname/services/displayname/diff"
	"github.com/AleutianAI/displayname/services/displayname/engine"
	"github.com/AleutianAI/displayname/services/displayname/telemetry"
)

const tracerName = "displayname.runner"

var (
	// ErrNilTransformer is returned by New without a transformer.
	ErrNilTransformer = errors.New("transformer must not be nil")

	// ErrPrintMultiple is returned when ModePrint is asked to process more
	// than one file.
	ErrPrintMultiple = errors.New("print mode accepts a single file")

	// ErrNoFiles is returned when the input paths contain no source file.
	ErrNoFiles = errors.New("no source files found")
)

// Mode selects what happens to a transformed file.
type Mode int

const (
	// ModeCheck only reports files that would change.
	ModeCheck Mode = iota

	// ModeWrite rewrites changed files in place.
	ModeWrite

	// ModeDiff prints a unified diff for every changed file.
	ModeDiff

	// ModePrint prints the transformed source of a single file.
	ModePrint
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeWrite:
		return "write"
	case ModeDiff:
		return "diff"
	case ModePrint:
		return "print"
	default:
		return "unknown"
	}
}

// Options configures a Runner.
type Options struct {
	// Mode selects the output behavior. Default: ModeCheck.
	Mode Mode

	// Concurrency bounds the number of files processed at once.
	// Zero or negative means runtime.NumCPU().
	Concurrency int

	// Include lists the file extensions picked up from directories.
	// Default: config.DefaultInclude.
	Include []string

	// Ignore lists base names of files and directories skipped while
	// walking directories. Default: config.DefaultIgnore.
	Ignore []string

	// Stdout receives diffs and printed sources. Default: os.Stdout.
	Stdout io.Writer

	// Logger receives per-file log lines. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records per-file and per-run instruments. Optional.
	Metrics *telemetry.Metrics

	// Trigger labels runs in metrics, e.g. "cli" or "watch". Default: "cli".
	Trigger string
}

// FileResult is the outcome for one file.
type FileResult struct {
	// Path is the file path as expanded from the input.
	Path string

	// Changed reports whether the file needs (or received) annotations.
	Changed bool

	// Written reports whether the file was rewritten on disk.
	Written bool

	// Annotations lists the names emitted for the file.
	Annotations []engine.Annotation

	// Diff is the unified diff in ModeDiff, nil otherwise.
	Diff []byte

	// Output is the transformed source in ModePrint.
	Output []byte

	// Err is the per-file failure, if any.
	Err error

	// Duration is the processing time of the file.
	Duration time.Duration
}

// Report summarizes a batch run.
type Report struct {
	// Files holds one result per processed file, sorted by path.
	Files []FileResult

	// Changed counts files with annotations.
	Changed int

	// Failed counts files with a non-nil Err.
	Failed int
}

// Err joins the per-file errors of the report, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
		}
	}
	return errors.Join(errs...)
}

func (r *Report) add(f FileResult) {
	r.Files = append(r.Files, f)
	if f.Err != nil {
		r.Failed++
	} else if f.Changed {
		r.Changed++
	}
}

// Runner processes files with a shared Transformer.
//
// Thread Safety:
//
//	Run may be called concurrently, but output written to Stdout by
//	concurrent runs interleaves per run, not per file.
type Runner struct {
	t       *engine.Transformer
	opts    Options
	diff    *diff.Renderer
	include map[string]struct{}
	ignore  map[string]struct{}
}

// New creates a Runner.
//
// Inputs:
//
//	t - The transformer used for every file. Must not be nil.
//	opts - Runner options; zero values take the documented defaults.
//
// Outputs:
//
//	*Runner - The configured runner.
//	error - ErrNilTransformer if t is nil.
func New(t *engine.Transformer, opts Options) (*Runner, error) {
	if t == nil {
		return nil, ErrNilTransformer
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.Include == nil {
		opts.Include = config.DefaultInclude
	}
	if opts.Ignore == nil {
		opts.Ignore = config.DefaultIgnore
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Trigger == "" {
		opts.Trigger = "cli"
	}

	return &Runner{
		t:       t,
		opts:    opts,
		diff:    diff.NewRenderer(),
		include: toSet(opts.Include),
		ignore:  toSet(opts.Ignore),
	}, nil
}

// Mode returns the configured mode.
func (r *Runner) Mode() Mode {
	return r.opts.Mode
}

// Run expands paths and processes every file found.
//
// Description:
//
//	Directories are walked recursively. Entries whose base name is in
//	Ignore are skipped, and only files with an Include extension are kept.
//	Paths naming a file directly are always processed. Files are handled
//	concurrently; diffs and printed sources are written to Stdout in path
//	order once all files are done.
//
// Outputs:
//
//	*Report - Per-file results. Never nil when error is nil.
//	error - Non-nil on cancellation, unreadable input paths, ErrNoFiles or
//	ErrPrintMultiple. Per-file transform failures are in the Report.
func (r *Runner) Run(ctx context.Context, paths []string) (report *Report, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Runner.Run")
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
			return
		}
		span.SetAttributes(
			attribute.Int("files", len(report.Files)),
			attribute.Int("changed", report.Changed),
			attribute.Int("failed", report.Failed),
		)
		telemetry.SetSpanOK(span)
	}()

	files, err := r.Expand(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if r.opts.Mode == ModePrint && len(files) > 1 {
		return nil, fmt.Errorf("%w: got %d files", ErrPrintMultiple, len(files))
	}
	r.opts.Metrics.RecordRun(ctx, r.opts.Trigger)

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.ProcessFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	report = &Report{Files: make([]FileResult, 0, len(results))}
	for _, res := range results {
		report.add(res)
		if err := r.emit(res); err != nil {
			return report, err
		}
	}

	r.opts.Logger.Info("run finished",
		slog.String("mode", r.opts.Mode.String()),
		slog.Int("files", len(report.Files)),
		slog.Int("changed", report.Changed),
		slog.Int("failed", report.Failed))
	return report, nil
}

// RunSource transforms src read from a stream such as stdin. name is used
// for error positions and diff headers. ModeWrite behaves like ModePrint
// since there is no file to rewrite.
func (r *Runner) RunSource(ctx context.Context, name string, src []byte) (FileResult, error) {
	if err := ctx.Err(); err != nil {
		return FileResult{}, err
	}
	mode := r.opts.Mode
	if mode == ModeWrite {
		mode = ModePrint
	}
	res := r.process(ctx, name, src, mode, nil)
	if res.Err != nil {
		return res, res.Err
	}
	return res, r.emit(res)
}

// ProcessFile transforms one file and applies the configured mode to it.
// It does not write diffs or printed output to Stdout.
func (r *Runner) ProcessFile(ctx context.Context, path string) FileResult {
	info, err := os.Stat(path)
	if err != nil {
		return r.fail(ctx, path, time.Now(), err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return r.fail(ctx, path, time.Now(), err)
	}
	return r.process(ctx, path, src, r.opts.Mode, info)
}

func (r *Runner) process(ctx context.Context, path string, src []byte, mode Mode, info fs.FileInfo) FileResult {
	start := time.Now()
	m := r.opts.Metrics
	if m != nil {
		m.InFlight.Add(ctx, 1)
		defer m.InFlight.Add(ctx, -1)
	}

	res, err := r.t.Transform(ctx, src, path)
	if err != nil {
		return r.fail(ctx, path, start, err)
	}

	out := FileResult{
		Path:        path,
		Changed:     res.Changed,
		Annotations: res.Annotations,
	}

	switch mode {
	case ModeWrite:
		if res.Changed {
			if err := writeFile(path, []byte(res.Code), info); err != nil {
				return r.fail(ctx, path, start, err)
			}
			out.Written = true
		}
	case ModeDiff:
		if res.Changed {
			d, err := r.diff.Render(filepath.ToSlash(path), src, []byte(res.Code))
			if err != nil {
				return r.fail(ctx, path, start, err)
			}
			out.Diff = d
		}
	case ModePrint:
		out.Output = []byte(res.Code)
	}

	out.Duration = time.Since(start)
	outcome := telemetry.OutcomeUnchanged
	if out.Changed {
		outcome = telemetry.OutcomeChanged
	}
	m.RecordFile(ctx, mode.String(), outcome, out.Duration)

	r.opts.Logger.Debug("processed file",
		slog.String("path", path),
		slog.Bool("changed", out.Changed),
		slog.Int("annotations", len(out.Annotations)),
		slog.Duration("duration", out.Duration))
	return out
}

func (r *Runner) fail(ctx context.Context, path string, start time.Time, err error) FileResult {
	d := time.Since(start)
	r.opts.Metrics.RecordFile(ctx, r.opts.Mode.String(), telemetry.OutcomeFailed, d)
	r.opts.Logger.Warn("file failed",
		slog.String("path", path),
		slog.String("error", err.Error()))
	return FileResult{Path: path, Err: err, Duration: d}
}

func (r *Runner) emit(res FileResult) error {
	var payload []byte
	switch {
	case res.Err != nil:
		return nil
	case res.Diff != nil:
		payload = res.Diff
	case res.Output != nil:
		payload = res.Output
	default:
		return nil
	}
	if _, err := r.opts.Stdout.Write(payload); err != nil {
		return fmt.Errorf("writing output for %s: %w", res.Path, err)
	}
	return nil
}

// Expand resolves paths into a sorted, de-duplicated list of files.
func (r *Runner) Expand(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && r.Ignored(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && r.Included(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Included reports whether path has one of the Include extensions.
func (r *Runner) Included(path string) bool {
	_, ok := r.include[filepath.Ext(path)]
	return ok
}

// Ignored reports whether the base name of path is in Ignore.
func (r *Runner) Ignored(path string) bool {
	_, ok := r.ignore[filepath.Base(path)]
	return ok
}

// writeFile replaces path with data through a temporary file in the same
// directory, keeping the permission bits of the original.
func writeFile(path string, data []byte, info fs.FileInfo) (err error) {
	perm := fs.FileMode(0o644)
	if info != nil {
		perm = info.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
