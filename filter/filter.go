package filter

import (
	"github.com/viant/lintexec/model"
)

// ByFiles keeps violations of files present in modifiedFiles
func ByFiles(violations []model.LintViolation, modifiedFiles []string) []model.LintViolation {
	modified := make(map[string]bool, len(modifiedFiles))
	for _, file := range modifiedFiles {
		modified[file] = true
	}
	ret := make([]model.LintViolation, 0, len(violations))
	for _, violation := range violations {
		if modified[violation.File] {
			ret = append(ret, violation)
		}
	}
	return ret
}

// ByLines keeps violations whose line falls inside a modified range of the same file (both ends inclusive).
// Files left without violations are dropped.
func ByLines(violations []model.LintViolation, modifiedLines []model.ModifiedLine) []model.LintViolation {
	ranges := map[string][]model.ModifiedLine{}
	for _, line := range modifiedLines {
		ranges[line.File] = append(ranges[line.File], line)
	}
	ret := make([]model.LintViolation, 0, len(violations))
	for _, fileViolations := range violations {
		fileRanges, ok := ranges[fileViolations.File]
		if !ok {
			continue
		}
		var kept []model.Violation
		for _, violation := range fileViolations.Violations {
			if inRanges(violation.Line, fileRanges) {
				kept = append(kept, violation)
			}
		}
		if len(kept) == 0 {
			continue
		}
		ret = append(ret, model.LintViolation{File: fileViolations.File, Violations: kept})
	}
	return ret
}

func inRanges(line int, ranges []model.ModifiedLine) bool {
	for _, r := range ranges {
		if r.Contains(line) {
			return true
		}
	}
	return false
}
