// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Parse parses args into flagSet. pflag.ErrHelp is returned unchanged
// so the caller can print its own usage; any other parse failure
// becomes a validation error, hinted with the closest defined flag
// when the failure was an unknown one.
func Parse(flagSet *pflag.FlagSet, args []string) error {
	flagSet.SetOutput(io.Discard)
	err := flagSet.Parse(args)
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return err
	}
	toolErr := Validation("%w", err)
	if suggestion := suggestFlag(args, flagSet); suggestion != "" {
		toolErr.WithHint("Did you mean " + suggestion + "?")
	}
	return toolErr
}

// PrintUsage writes summary followed by the flag defaults.
func PrintUsage(output io.Writer, summary string, flagSet *pflag.FlagSet) {
	fmt.Fprint(output, strings.TrimRight(summary, "\n"))
	fmt.Fprint(output, "\n\nFlags:\n")
	fmt.Fprint(output, flagSet.FlagUsages())
}

// suggestFlag finds the first argument naming an undefined flag and
// returns the closest defined flag, formatted with its prefix, or ""
// when nothing is within an edit distance of 3.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if index := strings.IndexByte(name, '='); index >= 0 {
			name = name[:index]
		}
		if flagSet.Lookup(name) != nil {
			continue
		}

		bestName := ""
		bestDistance := 4
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if distance := levenshtein(name, flag.Name); distance < bestDistance {
				bestDistance = distance
				bestName = flag.Name
			}
		})
		if bestName == "" {
			return ""
		}
		return "--" + bestName
	}
	return ""
}

// levenshtein computes the edit distance between two strings using a
// single row of the distance matrix.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return len(b)
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	current := make([]int, len(a)+1)
	for j := 1; j <= len(b); j++ {
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(a)]
}
