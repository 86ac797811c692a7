/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging builds the zap loggers used across the server and
// monitor processes. It mirrors the teacher's controller-runtime/zap
// flag wiring (cmd/agent/main.go's zap.Options{Development: true} +
// BindFlags) without the controller-runtime dependency this repo does
// not otherwise need.
package logging

import (
	"flag"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction, bound to command-line flags the
// same way the teacher binds zap.Options to flag.CommandLine.
type Options struct {
	Development bool
	Level       string
}

// BindFlags registers -dev and -log-level on the given FlagSet.
func (o *Options) BindFlags(fs *flag.FlagSet) {
	fs.BoolVar(&o.Development, "dev", o.Development, "enable development-mode logging (human-readable, debug level)")
	fs.StringVar(&o.Level, "log-level", o.Level, "log level: debug, info, warn, error")
}

// New builds a *zap.Logger from Options.
func New(o Options) (*zap.Logger, error) {
	var cfg zap.Config
	if o.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if o.Level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(o.Level)); err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// Must panics if New returns an error; used at process startup where
// there is no logger yet to report the error through.
func Must(o Options) *zap.Logger {
	l, err := New(o)
	if err != nil {
		panic(err)
	}
	return l
}
