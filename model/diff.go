package model

import (
	"fmt"
	"strings"
)

// ModifiedLine is a contiguous run of changed lines in a file
type ModifiedLine struct {
	File      string `json:"file" yaml:"file"`           // absolute path
	StartLine int    `json:"startLine" yaml:"startLine"` // 1-based
	LineCount int    `json:"lineCount" yaml:"lineCount"`
}

// EndLine returns the last line covered by the range (inclusive)
func (m ModifiedLine) EndLine() int {
	return m.StartLine + m.LineCount - 1
}

// Contains reports whether line falls inside the range, both ends inclusive
func (m ModifiedLine) Contains(line int) bool {
	return line >= m.StartLine && line <= m.EndLine()
}

// DiffMode restricts linting to changed files or changed lines
type DiffMode string

const (
	DiffNone  DiffMode = ""
	DiffFiles DiffMode = "FILES"
	DiffLines DiffMode = "LINES"
)

// ParseDiffMode parses a diff mode case-insensitively, empty meaning none
func ParseDiffMode(value string) (DiffMode, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		return DiffNone, nil
	case string(DiffFiles):
		return DiffFiles, nil
	case string(DiffLines):
		return DiffLines, nil
	}
	return DiffNone, fmt.Errorf("unsupported diff mode: %v", value)
}
