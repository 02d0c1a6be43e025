package fs

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Solver input files are line oriented: "key: value" entries with '#'
// comment lines interspersed. Rewrites must touch only the targeted
// entries and leave comments and ordering alone, since the files are
// hand-maintained by the simulation engineers.

// ReadEntry returns the value of key in the input file at path.
func ReadEntry(fsys afero.Fs, path, key string) (string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("read input file %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := splitEntry(line)
		if ok && k == key {
			return v, nil
		}
	}
	return "", fmt.Errorf("input file %s: entry %q not found", path, key)
}

// UpdateEntries rewrites the values of the given keys in place. Every key
// must already exist in the file; a missing key is an error and the file
// is left untouched.
func UpdateEntries(fsys afero.Fs, path string, entries map[string]string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read input file %s: %w", path, err)
	}

	pending := make(map[string]string, len(entries))
	for k, v := range entries {
		pending[k] = v
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		k, _, ok := splitEntry(line)
		if !ok {
			continue
		}
		v, want := pending[k]
		if !want {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		lines[i] = indent + k + ": " + v
		delete(pending, k)
	}

	if len(pending) > 0 {
		missing := make([]string, 0, len(pending))
		for k := range pending {
			missing = append(missing, k)
		}
		return fmt.Errorf("input file %s: entries not found: %s", path, strings.Join(missing, ", "))
	}

	return afero.WriteFile(fsys, path, []byte(strings.Join(lines, "\n")), 0o644)
}

// splitEntry parses one "key: value" line, skipping blanks and comments.
func splitEntry(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	idx := strings.Index(trimmed, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(trimmed[:idx]), strings.TrimSpace(trimmed[idx+1:]), true
}
