// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the displayname CLI.
package ux

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
}

// Icon provides themed status icons.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
)

// Render returns the icon with its style applied.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// machineTag is the plain-text label of an icon in machine output.
func (i Icon) machineTag() string {
	switch i {
	case IconSuccess:
		return "ok"
	case IconWarning:
		return "needs-name"
	case IconError:
		return "error"
	case IconArrow:
		return "written"
	default:
		return "skip"
	}
}

// Summary is the tally printed at the end of a run.
type Summary struct {
	Mode     string
	Files    int
	Changed  int
	Failed   int
	Duration time.Duration
}

// Printer writes styled status lines to w.
//
// Thread Safety: Safe for concurrent use; lines are never interleaved.
type Printer struct {
	w     io.Writer
	level PersonalityLevel
	mu    sync.Mutex
}

// NewPrinter creates a Printer writing to w at level.
func NewPrinter(w io.Writer, level PersonalityLevel) *Printer {
	return &Printer{w: w, level: level}
}

// Level returns the personality level of the printer.
func (p *Printer) Level() PersonalityLevel {
	return p.level
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

// Title prints a styled title. Machine output omits it.
func (p *Printer) Title(text string) {
	if p.level == PersonalityMachine {
		return
	}
	p.printf("%s\n", Styles.Title.Render(text))
}

// Success prints a success message.
func (p *Printer) Success(text string) {
	switch p.level {
	case PersonalityMachine:
		p.printf("OK: %s\n", text)
	case PersonalityMinimal:
		p.printf("%s %s\n", IconSuccess.Render(), text)
	default:
		p.printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message.
func (p *Printer) Warning(text string) {
	switch p.level {
	case PersonalityMachine:
		p.printf("WARN: %s\n", text)
	case PersonalityMinimal:
		p.printf("%s %s\n", IconWarning.Render(), text)
	default:
		p.printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message.
func (p *Printer) Error(text string) {
	switch p.level {
	case PersonalityMachine:
		p.printf("ERROR: %s\n", text)
	case PersonalityMinimal:
		p.printf("%s %s\n", IconError.Render(), text)
	default:
		p.printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// FileStatus prints a file with its status and an optional reason.
func (p *Printer) FileStatus(path string, status Icon, reason string) {
	switch p.level {
	case PersonalityMachine:
		p.printf("%s\t%s\t%s\n", status.machineTag(), path, reason)
	case PersonalityMinimal:
		p.printf("%s %s\n", status.Render(), path)
	default:
		if reason != "" {
			p.printf("%s %s %s\n", status.Render(), path, Styles.Muted.Render("("+reason+")"))
		} else {
			p.printf("%s %s\n", status.Render(), path)
		}
	}
}

// Summary prints the run tally.
func (p *Printer) Summary(s Summary) {
	if p.level == PersonalityMachine {
		p.printf("SUMMARY: mode=%s files=%d changed=%d failed=%d duration=%s\n",
			s.Mode, s.Files, s.Changed, s.Failed, s.Duration.Round(time.Millisecond))
		return
	}

	changedLabel := "need names"
	if s.Mode == "write" {
		changedLabel = "annotated"
	}
	parts := []string{
		Styles.Bold.Render(fmt.Sprintf("%d", s.Files)) + " " + Styles.Muted.Render("files"),
		Styles.Warning.Render(fmt.Sprintf("%d", s.Changed)) + " " + Styles.Muted.Render(changedLabel),
	}
	if s.Failed > 0 {
		parts = append(parts, Styles.Error.Render(fmt.Sprintf("%d", s.Failed))+" "+Styles.Muted.Render("failed"))
	}
	parts = append(parts, Styles.Muted.Render(s.Duration.Round(time.Millisecond).String()))
	p.printf("\n%s\n", strings.Join(parts, "  "))
}
