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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/displayname/pkg/ux"
	"github.com/AleutianAI/displayname/services/displayname/config"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.FileName,
		Long: "Write a " + config.FileName + " holding the default settings to dir " +
			"(the current directory if omitted). An existing file is never overwritten.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName)

			p := ux.NewPrinter(a.stdout, ux.DetectPersonality(a.stdout))
			if err := config.WriteDefault(path); err != nil {
				if errors.Is(err, os.ErrExist) {
					return &exitErr{code: exitError, err: fmt.Errorf("%s already exists", path)}
				}
				return err
			}
			p.Success("wrote " + path)
			return nil
		},
	}
}
