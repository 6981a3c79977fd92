// Package flagx pulls individual flags out of a command line before the
// full command tree parses it. The config loader uses it to find the config
// file, whose contents supply the defaults of every other flag.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags, together with their
// values. Both "-c value" and "--config=value" forms are recognized; a token
// following a flag is taken as its value unless it starts with '-'.
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlag returns the config file path given with -c, -config or
// --config in args, or "" if there is none. When the flag is repeated the
// last value wins. Everything after a bare "--" is ignored.
func ConfigFileFlag(args []string) string {
	for i, a := range args {
		if a == "--" {
			args = args[:i]
			break
		}
	}

	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}

// NormalizeConfigFlag rewrites the single-dash -config form that
// ConfigFileFlag accepts into --config, so a pflag-based parser, which would
// read -config as -c with value "onfig", sees the same flag. Arguments after
// a bare "--" are left alone. args is not modified.
func NormalizeConfigFlag(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)

	for i, a := range out {
		if a == "--" {
			break
		}
		if a == "-config" || strings.HasPrefix(a, "-config=") {
			out[i] = "-" + a
		}
	}
	return out
}
