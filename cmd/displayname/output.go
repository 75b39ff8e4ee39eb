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
	"strings"
	"time"

	"github.com/AleutianAI/displayname/pkg/ux"
	"github.com/AleutianAI/displayname/services/displayname/engine"
	"github.com/AleutianAI/displayname/services/displayname/runner"
)

// printReport lists failed and changed files, then the summary.
// Unchanged files are not listed.
func printReport(p *ux.Printer, mode runner.Mode, report *runner.Report, elapsed time.Duration) {
	for _, f := range report.Files {
		switch {
		case f.Err != nil:
			p.FileStatus(f.Path, ux.IconError, f.Err.Error())
		case f.Written:
			p.FileStatus(f.Path, ux.IconArrow, annotationNames(f.Annotations))
		case f.Changed:
			p.FileStatus(f.Path, ux.IconWarning, annotationNames(f.Annotations))
		}
	}
	p.Summary(ux.Summary{
		Mode:     mode.String(),
		Files:    len(report.Files),
		Changed:  report.Changed,
		Failed:   report.Failed,
		Duration: elapsed,
	})
}

func annotationNames(annotations []engine.Annotation) string {
	names := make([]string, 0, len(annotations))
	for _, a := range annotations {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
