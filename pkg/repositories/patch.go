package repositories

import (
	"sort"
	"strconv"
	"strings"
)

// buildPatch turns a field patch into SET clauses and args, keeping only
// allow-listed columns. Unrecognized fields are silently dropped, not an
// error; the caller decides what an empty effective patch means. Keys are
// processed in sorted order so the generated SQL is deterministic.
func buildPatch(allowed map[string]bool, patch map[string]any) ([]string, []any) {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		if allowed[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		clauses = append(clauses, k+" = $"+strconv.Itoa(i+1))
		args = append(args, patch[k])
	}
	return clauses, args
}

func joinClauses(clauses []string) string {
	return strings.Join(clauses, ", ")
}
