package types

import "sort"

// LineCounts maps a 1-based line number to the number of times it executed.
type LineCounts map[int]int

// CoverageMap maps a source file path to its per-line execution counts.
// A worker reports one of these as its coverage fragment; the aggregator
// merges fragments into a run-wide map.
type CoverageMap map[string]LineCounts

// Merge folds other into m. Files new to m are inserted wholesale (copied);
// for files present in both, line counts are summed. Summing models
// cumulative execution across workers: a line hit by two workers keeps both
// contributions.
func (m CoverageMap) Merge(other CoverageMap) {
	for file, lines := range other {
		existing, ok := m[file]
		if !ok {
			cp := make(LineCounts, len(lines))
			for line, count := range lines {
				cp[line] = count
			}
			m[file] = cp
			continue
		}
		for line, count := range lines {
			existing[line] += count
		}
	}
}

// Files returns the covered file paths in sorted order.
func (m CoverageMap) Files() []string {
	files := make([]string, 0, len(m))
	for file := range m {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// TotalLines returns the number of distinct covered lines across all files.
func (m CoverageMap) TotalLines() int {
	n := 0
	for _, lines := range m {
		n += len(lines)
	}
	return n
}
