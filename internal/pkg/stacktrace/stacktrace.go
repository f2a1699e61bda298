// Package stacktrace trims runtime stacks down to the frames that belong to
// this module.
package stacktrace

import (
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// stack that points into an internal package, outermost call last.
func InternalPaths(stack []byte) []string {
	var paths []string

	for line := range bytes.Lines(stack) {
		// file lines are tab indented, function lines are not
		if len(line) == 0 || line[0] != '\t' {
			continue
		}

		loc := strings.TrimSpace(string(line))
		if sp := strings.IndexByte(loc, ' '); sp != -1 {
			loc = loc[:sp] // drop the "+0x1f" pc offset
		}

		idx := strings.Index(loc, marker)
		if idx == -1 || !strings.Contains(loc[idx:], ".go:") {
			continue
		}

		paths = append(paths, loc[idx+1:])
	}

	return paths
}
