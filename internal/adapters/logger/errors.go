package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// chainError is satisfied by *zerr.Error: a message without the chain plus
// the metadata attached with zerr.With.
type chainError interface {
	Message() string
	Metadata() map[string]any
}

// ErrorEntry is one link of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the chain of zerr errors. The first error that is
// not a zerr error ends the walk with its full message. Joined errors are
// rendered by their Error method.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	for current := err; current != nil; {
		ce, ok := current.(chainError)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error()})
			break
		}
		entries = append(entries, ErrorEntry{Message: ce.Message(), Metadata: ce.Metadata()})
		current = errors.Unwrap(current)
	}
	return entries
}

func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, e := range entries {
		msgLines := strings.Split(e.Message, "\n")
		head := msgLines[0] + formatMetadata(e.Metadata)

		switch i {
		case 0:
			lines = append(lines, "Error: "+head)
			for _, line := range msgLines[1:] {
				lines = append(lines, "       "+line)
			}
			continue
		case 1:
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+head)
		for _, line := range msgLines[1:] {
			lines = append(lines, "      "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func formatMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	parts := make([]string, 0, len(meta))
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
