// Package pflagx implements extensions to pflag.
package pflagx

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
)

// LevelP defines a slog level flag on the command line flag set.
func LevelP(name, shorthand string, value slog.Level, usage string) *slog.LevelVar {
	return Level(pflag.CommandLine, name, shorthand, value, usage)
}

// Level defines a slog level flag on fs.
func Level(fs *pflag.FlagSet, name, shorthand string, value slog.Level, usage string) *slog.LevelVar {
	level := new(slog.LevelVar)
	def := new(slog.LevelVar)
	def.Set(value)
	fs.TextVarP(level, name, shorthand, def, usage)
	return level
}

// ParseEnv sets command line flags from environment variables starting
// with prefix.
func ParseEnv(prefix string) error {
	return ParseEnvSet(pflag.CommandLine, prefix, os.Environ())
}

// ParseEnvSet sets flags in fs from env entries (KEY=value) starting with
// prefix. The rest of the key is lowercased with underscores turned into
// dashes, so PREFIX_POOL_SIZE sets --pool-size.
func ParseEnvSet(fs *pflag.FlagSet, prefix string, env []string) error {
	for _, e := range env {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		s, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		n := strings.Map(func(r rune) rune {
			switch r {
			case '_':
				return '-'
			}
			return unicode.ToLower(r)
		}, s)
		f := fs.Lookup(n)
		if f == nil {
			fmt.Fprintf(fs.Output(), "env %s: unknown flag --%s\n", k, n)
			continue
		}
		if err := f.Value.Set(v); err != nil {
			return errors.Wrapf(err, "env %s: flag --%s: invalid argument", k, n)
		}
	}
	return nil
}
