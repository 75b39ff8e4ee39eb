// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the .displayname.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/displayname/services/displayname/engine"
	"github.com/AleutianAI/displayname/services/displayname/syntax"
)

// FileName is the configuration file looked up in the working directory
// and its parents.
const FileName = ".displayname.yaml"

// ErrInvalidConfig indicates a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultInclude lists the file extensions processed when walking directories.
var DefaultInclude = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}

// DefaultIgnore lists directory names skipped when walking directories.
var DefaultIgnore = []string{"node_modules", ".git", "dist", "build", "coverage"}

// Config is the on-disk configuration.
//
// Fields missing from the file keep their DefaultConfig value.
type Config struct {
	RequirePascalCase       bool     `yaml:"require_pascal_case"`
	InsertSemicolon         bool     `yaml:"insert_semicolon"`
	RewriteNestedForwardRef bool     `yaml:"rewrite_nested_forward_ref"`
	Style                   string   `yaml:"style" validate:"required,style"`
	ImportSource            string   `yaml:"import_source" validate:"required"`
	Include                 []string `yaml:"include" validate:"required,min=1,dive,startswith=."`
	Ignore                  []string `yaml:"ignore" validate:"dive,required,excludesall=/"`
	Concurrency             int      `yaml:"concurrency" validate:"gte=0,lte=256"`
	MaxFileSize             int64    `yaml:"max_file_size" validate:"gte=0"`
}

// configValidate is shared by all Validate calls. Validators are safe for
// concurrent use once registered.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("style", validateStyle)
}

func validateStyle(fl validator.FieldLevel) bool {
	_, err := engine.ParseStyle(fl.Field().String())
	return err == nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	opts := engine.DefaultOptions()
	return Config{
		RequirePascalCase:       opts.RequirePascalCase,
		InsertSemicolon:         opts.InsertSemicolon,
		RewriteNestedForwardRef: opts.RewriteNestedForwardRef,
		Style:                   opts.Style.String(),
		ImportSource:            opts.ImportSource,
		Include:                 append([]string(nil), DefaultInclude...),
		Ignore:                  append([]string(nil), DefaultIgnore...),
		Concurrency:             0,
		MaxFileSize:             syntax.DefaultMaxFileSize,
	}
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// EngineOptions converts the configuration into engine options.
func (c Config) EngineOptions() (engine.Options, error) {
	style, err := engine.ParseStyle(c.Style)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		RequirePascalCase:       c.RequirePascalCase,
		InsertSemicolon:         c.InsertSemicolon,
		RewriteNestedForwardRef: c.RewriteNestedForwardRef,
		Style:                   style,
		ImportSource:            c.ImportSource,
	}
	return opts, opts.Validate()
}

// Workers returns the effective concurrency. Zero means one worker per CPU.
func (c Config) Workers() int {
	if c.Concurrency <= 0 {
		return runtime.NumCPU()
	}
	return c.Concurrency
}
