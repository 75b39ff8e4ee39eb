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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/displayname/pkg/ux"
	"github.com/AleutianAI/displayname/services/displayname/config"
	"github.com/AleutianAI/displayname/services/displayname/runner"
)

const (
	unnamed = `import { memo } from 'react';
const Foo = memo(() => null);
`
	named = `import { memo } from 'react';
const Foo = memo(() => null);
Foo.displayName = 'Foo';
`
	namedFunc = `import { memo } from 'react';
const Foo = memo(function Foo() { return null; });
`
)

type result struct {
	code   int
	stdout string
	stderr string
}

// cli runs the command in a fresh working directory with plain output.
func cli(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv(ux.EnvOutput, "machine")
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestVersion(t *testing.T) {
	project(t, nil)
	res := cli(t, "", "version")
	assert.Equal(t, exitOK, res.code)
	assert.Equal(t, "displayname dev\n", res.stdout)
}

func TestStdin_Print(t *testing.T) {
	project(t, nil)

	res := cli(t, unnamed)
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, named, res.stdout)

	res = cli(t, unnamed, "-")
	assert.Equal(t, named, res.stdout)

	res = cli(t, unnamed, "--style", "namedFuncExpr")
	assert.Equal(t, namedFunc, res.stdout)

	res = cli(t, named)
	assert.Equal(t, named, res.stdout, "already named sources pass through")
}

func TestStdin_Check(t *testing.T) {
	project(t, nil)

	res := cli(t, unnamed, "--check")
	assert.Equal(t, exitNeedsNames, res.code)
	assert.Equal(t, "needs-name\tstdin.tsx\tFoo\n", res.stdout)

	res = cli(t, named, "--check")
	assert.Equal(t, exitOK, res.code)
	assert.Empty(t, res.stdout)
}

func TestStdin_Diff(t *testing.T) {
	project(t, nil)
	res := cli(t, unnamed, "--diff", "--stdin-filename", "src/Foo.tsx")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "--- a/src/Foo.tsx")
	assert.Contains(t, res.stdout, "+Foo.displayName = 'Foo';")
}

func TestStdin_SyntaxError(t *testing.T) {
	project(t, nil)
	res := cli(t, "const Foo = memo(() => {;")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "displayname: stdin.tsx:1:")
	assert.Empty(t, res.stdout)
}

func TestFiles_CheckWriteCheck(t *testing.T) {
	root := project(t, map[string]string{
		"src/Foo.tsx":  unnamed,
		"src/Done.tsx": named,
		"src/util.ts":  "export const x = 1;\n",
	})

	res := cli(t, "", "--check", "src")
	assert.Equal(t, exitNeedsNames, res.code, res.stderr)
	assert.Contains(t, res.stdout, "needs-name\t"+filepath.Join("src", "Foo.tsx")+"\tFoo\n")
	assert.Contains(t, res.stdout, "SUMMARY: mode=check files=3 changed=1 failed=0")

	res = cli(t, "", "-w", "src")
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "written\t"+filepath.Join("src", "Foo.tsx")+"\tFoo")

	data, err := os.ReadFile(filepath.Join(root, "src", "Foo.tsx"))
	require.NoError(t, err)
	assert.Equal(t, named, string(data))

	res = cli(t, "", "src")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "changed=0")
}

func TestFiles_Diff(t *testing.T) {
	project(t, map[string]string{"Foo.tsx": unnamed})
	res := cli(t, "", "--diff", ".")
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "+++ b/Foo.tsx")
	assert.Contains(t, res.stderr, "SUMMARY: mode=diff")
}

func TestFiles_Failure(t *testing.T) {
	project(t, map[string]string{
		"Foo.tsx": unnamed,
		"Bad.tsx": "const Foo = memo(() => {;",
	})
	res := cli(t, "", "-w", ".")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "error\tBad.tsx\t")
	assert.Contains(t, res.stderr, "failed=1")
}

func TestFiles_ConfigFile(t *testing.T) {
	root := project(t, map[string]string{
		"Foo.tsx": unnamed,
		config.FileName: "style: namedFuncExpr\n",
	})

	res := cli(t, "", "-w", "Foo.tsx")
	require.Equal(t, exitOK, res.code, res.stderr)
	data, err := os.ReadFile(filepath.Join(root, "Foo.tsx"))
	require.NoError(t, err)
	assert.Equal(t, namedFunc, string(data))
}

func TestFiles_FlagOverridesConfig(t *testing.T) {
	project(t, map[string]string{config.FileName: "style: namedFuncExpr\n"})
	res := cli(t, unnamed, "--style", "displayName")
	assert.Equal(t, named, res.stdout)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"exclusive modes", []string{"--check", "--write", "."}, "mutually exclusive"},
		{"watch stdin", []string{"--watch"}, "--watch needs"},
		{"watch file", []string{"--watch", "Foo.tsx"}, "is a file"},
		{"bad level", []string{"--log-level", "loud", "."}, "unknown log level"},
		{"bad style", []string{"--style", "fancy", "."}, "invalid configuration"},
		{"unknown flag", []string{"--nope"}, "unknown flag"},
		{"no files", []string{"empty"}, "no source files"},
		{"bad exporter", []string{"--trace-exporter", "zipkin", "."}, "unknown exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project(t, map[string]string{"Foo.tsx": unnamed, "empty/readme.md": "hi"})
			res := cli(t, "", tt.args...)
			assert.Equal(t, exitUsage, res.code, res.stderr)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestInit(t *testing.T) {
	root := project(t, nil)

	res := cli(t, "", "init")
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, config.FileName)

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	res = cli(t, "", "init")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "already exists")
}

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name  string
		f     flags
		stdin bool
		want  runner.Mode
	}{
		{"files default", flags{}, false, runner.ModeCheck},
		{"stdin default", flags{}, true, runner.ModePrint},
		{"stdin write prints", flags{write: true}, true, runner.ModePrint},
		{"write", flags{write: true}, false, runner.ModeWrite},
		{"diff", flags{diff: true}, false, runner.ModeDiff},
		{"check", flags{check: true}, true, runner.ModeCheck},
		{"watch", flags{watch: true}, false, runner.ModeWrite},
		{"watch write", flags{watch: true, write: true}, false, runner.ModeWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectMode(&tt.f, tt.stdin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := selectMode(&flags{watch: true, diff: true}, false)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	code, report := exitCode(nil)
	assert.Equal(t, exitOK, code)
	assert.False(t, report)

	code, report = exitCode(silentExit(exitNeedsNames))
	assert.Equal(t, exitNeedsNames, code)
	assert.False(t, report)

	code, report = exitCode(assert.AnError)
	assert.Equal(t, exitError, code)
	assert.True(t, report)
}
