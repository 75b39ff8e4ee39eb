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
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/displayname/services/displayname/telemetry"
)

// app holds the process streams so commands can be driven from tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// flags are the root command flags. Engine-related values only override
// the configuration file when set explicitly.
type flags struct {
	write bool
	check bool
	diff  bool
	watch bool

	configPath    string
	style         string
	requirePascal bool
	semicolon     bool
	nestedForward bool
	importSource  string
	concurrency   int
	stdinName     string
	debounce      time.Duration

	logLevel string
	logJSON  bool
	logDir   string

	traceExporter  string
	metricExporter string
	metricsAddr    string
}

func newRootCmd(a *app) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "displayname [flags] [paths...]",
		Short: "Name React memo and forwardRef components",
		Long: `displayname finds components created with memo or forwardRef and names
them, either by appending a displayName assignment or by turning the
anonymous function into a named function expression.

Directories are searched recursively. With no paths, or the path "-",
source is read from stdin and the result printed to stdout.

Exit codes: 0 success, 1 error, 2 usage error, 3 --check found files
that need names.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args, f)
		},
	}

	fl := cmd.Flags()
	fl.BoolVarP(&f.write, "write", "w", false, "rewrite files in place")
	fl.BoolVar(&f.check, "check", false, "list files that need names and exit 3 if any")
	fl.BoolVarP(&f.diff, "diff", "d", false, "print a unified diff of the changes")
	fl.BoolVar(&f.watch, "watch", false, "rewrite files, then keep watching the given directories")

	fl.StringVar(&f.configPath, "config", "", "configuration file (default: nearest .displayname.yaml)")
	fl.StringVar(&f.style, "style", "", `naming style: "displayName" or "namedFuncExpr"`)
	fl.BoolVar(&f.requirePascal, "require-pascal", true, "only name PascalCase bindings")
	fl.BoolVar(&f.semicolon, "semicolon", true, "terminate inserted statements with a semicolon")
	fl.BoolVar(&f.nestedForward, "nested-forward-ref", false, "also name forwardRef calls wrapped in memo")
	fl.StringVar(&f.importSource, "import-source", "", `module whose imports bind the pragmas (default "react")`)
	fl.IntVarP(&f.concurrency, "concurrency", "j", 0, "files processed at once (default: number of CPUs)")
	fl.StringVar(&f.stdinName, "stdin-filename", "stdin.tsx", "name used for stdin in errors and diffs")
	fl.DurationVar(&f.debounce, "debounce", 200*time.Millisecond, "watch mode quiet period before a rerun")

	fl.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fl.BoolVar(&f.logJSON, "log-json", false, "write logs to stderr as JSON")
	fl.StringVar(&f.logDir, "log-dir", "", "also write JSON logs to this directory")

	fl.StringVar(&f.traceExporter, "trace-exporter", "", "trace exporter: otlp, stdout, none (default $OTEL_TRACES_EXPORTER or none)")
	fl.StringVar(&f.metricExporter, "metric-exporter", "", "metric exporter: prometheus, stdout, none (default $OTEL_METRICS_EXPORTER or none)")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address in watch mode")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.AddCommand(newVersionCmd(a), newInitCmd(a))
	return cmd
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	code, report := exitCode(err)
	if report {
		fmt.Fprintf(stderr, "displayname: %v\n", err)
	}
	return code
}

func telemetryConfig(f *flags) telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	if f.traceExporter != "" {
		cfg.TraceExporter = f.traceExporter
	}
	if f.metricExporter != "" {
		cfg.MetricExporter = f.metricExporter
	}
	if f.metricsAddr != "" && f.metricExporter == "" {
		cfg.MetricExporter = telemetry.ExporterPrometheus
	}
	return cfg
}
