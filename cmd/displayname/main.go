// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command displayname adds component names to React memo and forwardRef
// wrappers in JavaScript and TypeScript sources.
//
// Usage:
//
//	displayname [flags] [paths...]
//
// Examples:
//
//	# List files that need names (exit code 3 if any)
//	displayname --check src
//
//	# Rewrite files in place
//	displayname -w src
//
//	# Show what would change
//	displayname -d src/components
//
//	# Transform stdin to stdout
//	cat Button.tsx | displayname
//
//	# Keep a tree annotated while editing, with Prometheus metrics
//	displayname --watch --metrics-addr :9464 src
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
