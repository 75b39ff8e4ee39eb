// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/displayname/services/displayname/engine"
	"github.com/AleutianAI/displayname/services/displayname/syntax"
)

const (
	needsName = `import { memo } from 'react';
const Foo = memo(() => null);
`
	namedOutput = `import { memo } from 'react';
const Foo = memo(() => null);
Foo.displayName = 'Foo';
`
	alreadyNamed = `import { memo } from 'react';
const Bar = memo(() => null);
Bar.displayName = 'Bar';
`
	noPragma = `const x = 1;
`
	broken = `import { memo } from 'react';
const Foo = memo(() => {;
`
)

func newRunner(t *testing.T, opts Options) (*Runner, *bytes.Buffer) {
	t.Helper()
	tr, err := engine.NewTransformer(engine.DefaultOptions())
	require.NoError(t, err)

	var out bytes.Buffer
	opts.Stdout = &out
	r, err := New(tr, opts)
	require.NoError(t, err)
	return r, &out
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "check", ModeCheck.String())
	assert.Equal(t, "write", ModeWrite.String())
	assert.Equal(t, "diff", ModeDiff.String())
	assert.Equal(t, "print", ModePrint.String())
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestNew(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrNilTransformer)

	tr, err := engine.NewTransformer(engine.DefaultOptions())
	require.NoError(t, err)
	r, err := New(tr, Options{})
	require.NoError(t, err)
	assert.Equal(t, ModeCheck, r.Mode())
	assert.Equal(t, runtime.NumCPU(), r.opts.Concurrency)
	assert.Equal(t, "cli", r.opts.Trigger)
	assert.True(t, r.Included("a.tsx"))
	assert.True(t, r.Ignored("/x/node_modules"))
}

func TestExpand(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.tsx":                 needsName,
		"src/b.js":                  noPragma,
		"src/readme.md":             "# hi",
		"src/nested/c.ts":           noPragma,
		"node_modules/lib/index.js": noPragma,
		"src/dist/bundle.js":        noPragma,
		"explicit.txt":              noPragma,
	})
	r, _ := newRunner(t, Options{})

	files, err := r.Expand([]string{root, filepath.Join(root, "explicit.txt"), filepath.Join(root, "src", "a.tsx")})
	require.NoError(t, err)

	rel := make([]string, 0, len(files))
	for _, f := range files {
		p, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(p))
	}
	assert.Equal(t, []string{"explicit.txt", "src/a.tsx", "src/b.js", "src/nested/c.ts"}, rel)
}

func TestExpand_MissingPath(t *testing.T) {
	r, _ := newRunner(t, Options{})
	_, err := r.Expand([]string{filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Check(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.tsx": needsName,
		"b.tsx": alreadyNamed,
		"c.js":  noPragma,
	})
	r, out := newRunner(t, Options{Mode: ModeCheck, Concurrency: 2})

	report, err := r.Run(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, report.Files, 3)
	assert.Equal(t, 1, report.Changed)
	assert.Equal(t, 0, report.Failed)
	assert.NoError(t, report.Err())

	assert.Equal(t, filepath.Join(root, "a.tsx"), report.Files[0].Path)
	assert.True(t, report.Files[0].Changed)
	require.Len(t, report.Files[0].Annotations, 1)
	assert.Equal(t, "Foo", report.Files[0].Annotations[0].Name)
	assert.False(t, report.Files[0].Written)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(filepath.Join(root, "a.tsx"))
	require.NoError(t, err)
	assert.Equal(t, needsName, string(data), "check mode must not touch files")
}

func TestRun_Write(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.tsx": needsName,
		"b.tsx": alreadyNamed,
	})
	path := filepath.Join(root, "a.tsx")
	require.NoError(t, os.Chmod(path, 0o600))

	r, _ := newRunner(t, Options{Mode: ModeWrite})
	report, err := r.Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)
	assert.True(t, report.Files[0].Written)
	assert.False(t, report.Files[1].Written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, namedOutput, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")

	// A second run finds nothing left to do.
	report, err = r.Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Changed)
}

func TestRun_Diff(t *testing.T) {
	root := writeTree(t, map[string]string{"a.tsx": needsName, "b.tsx": alreadyNamed})
	r, out := newRunner(t, Options{Mode: ModeDiff})

	report, err := r.Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)
	assert.NotEmpty(t, report.Files[0].Diff)
	assert.Nil(t, report.Files[1].Diff)

	got := out.String()
	assert.Contains(t, got, "+Foo.displayName = 'Foo';")
	assert.Contains(t, got, "a.tsx")
	assert.NotContains(t, got, "b.tsx")
}

func TestRun_Print(t *testing.T) {
	root := writeTree(t, map[string]string{"a.tsx": needsName, "b.tsx": alreadyNamed})
	r, out := newRunner(t, Options{Mode: ModePrint})

	_, err := r.Run(context.Background(), []string{root})
	assert.ErrorIs(t, err, ErrPrintMultiple)

	report, err := r.Run(context.Background(), []string{filepath.Join(root, "a.tsx")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)
	assert.Equal(t, namedOutput, out.String())

	out.Reset()
	_, err = r.Run(context.Background(), []string{filepath.Join(root, "b.tsx")})
	require.NoError(t, err)
	assert.Equal(t, alreadyNamed, out.String(), "unchanged sources are printed as is")
}

func TestRun_FailureDoesNotStopBatch(t *testing.T) {
	root := writeTree(t, map[string]string{"a.tsx": needsName, "bad.tsx": broken})
	r, _ := newRunner(t, Options{Mode: ModeWrite})

	report, err := r.Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)
	assert.Equal(t, 1, report.Failed)

	bad := report.Files[1]
	assert.True(t, strings.HasSuffix(bad.Path, "bad.tsx"))
	assert.ErrorIs(t, bad.Err, syntax.ErrSyntax)
	assert.ErrorIs(t, report.Err(), syntax.ErrSyntax)

	data, err := os.ReadFile(filepath.Join(root, "a.tsx"))
	require.NoError(t, err)
	assert.Equal(t, namedOutput, string(data))
}

func TestRun_NoFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"readme.md": "# hi"})
	r, _ := newRunner(t, Options{})
	_, err := r.Run(context.Background(), []string{root})
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestRun_Canceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.tsx": needsName})
	r, _ := newRunner(t, Options{Mode: ModeWrite})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, []string{root})
	assert.ErrorIs(t, err, context.Canceled)

	data, err := os.ReadFile(filepath.Join(root, "a.tsx"))
	require.NoError(t, err)
	assert.Equal(t, needsName, string(data))
}

func TestRunSource(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		src  string
		want string
	}{
		{"print changed", ModePrint, needsName, namedOutput},
		{"write prints", ModeWrite, needsName, namedOutput},
		{"print unchanged", ModePrint, noPragma, noPragma},
		{"check is silent", ModeCheck, needsName, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out := newRunner(t, Options{Mode: tt.mode})
			res, err := r.RunSource(context.Background(), "<stdin>", []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.src != noPragma, res.Changed)
			assert.False(t, res.Written)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRunSource_Diff(t *testing.T) {
	r, out := newRunner(t, Options{Mode: ModeDiff})
	_, err := r.RunSource(context.Background(), "stdin.tsx", []byte(needsName))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "--- a/stdin.tsx")
	assert.Contains(t, out.String(), "+Foo.displayName = 'Foo';")
}

func TestRunSource_DiffNamedFunction(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.Style = engine.StyleNamedFunction
	tr, err := engine.NewTransformer(opts)
	require.NoError(t, err)

	var out bytes.Buffer
	r, err := New(tr, Options{Mode: ModeDiff, Stdout: &out})
	require.NoError(t, err)

	res, err := r.RunSource(context.Background(), "stdin.tsx", []byte(needsName))
	require.NoError(t, err)

	want := "--- a/stdin.tsx\n+++ b/stdin.tsx\n@@ -1,2 +1,2 @@\n" +
		" import { memo } from 'react';\n" +
		"-const Foo = memo(() => null);\n" +
		"+const Foo = memo(function Foo() { return null; });\n"
	assert.Equal(t, want, string(res.Diff))
}

func TestRunSource_SyntaxError(t *testing.T) {
	r, out := newRunner(t, Options{Mode: ModePrint})
	res, err := r.RunSource(context.Background(), "<stdin>", []byte(broken))
	assert.ErrorIs(t, err, syntax.ErrSyntax)
	assert.Equal(t, err, res.Err)
	assert.Empty(t, out.String())
}

func TestProcessFile_Missing(t *testing.T) {
	r, _ := newRunner(t, Options{})
	res := r.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "gone.tsx"))
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
}
