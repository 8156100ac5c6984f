package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/viant/lintexec/model"
	"gopkg.in/yaml.v3"
)

type format string

const (
	formatHuman format = "human"
	formatJSON  format = "json"
	formatYAML  format = "yaml"
)

func parseFormat(value string) (format, error) {
	switch ret := format(strings.ToLower(value)); ret {
	case formatHuman, formatJSON, formatYAML:
		return ret, nil
	}
	return "", fmt.Errorf("unsupported output format: %v", value)
}

var (
	fileStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	positionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	standardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

func isTTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// report writes result and returns errViolationsFound when it holds any violation
func report(w io.Writer, f format, result *model.Result) error {
	var err error
	switch f {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(result)
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err = encoder.Encode(result); err == nil {
			err = encoder.Close()
		}
	default:
		_, err = io.WriteString(w, renderHuman(result, isTerminal(w)))
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if result.Summary.TotalViolations > 0 {
		return errViolationsFound
	}
	return nil
}

func renderHuman(result *model.Result, styled bool) string {
	paint := func(style lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return style.Render(text)
	}
	builder := strings.Builder{}
	for _, item := range result.Violations {
		builder.WriteString(paint(fileStyle, displayPath(item.File)))
		builder.WriteString("\n")
		for _, violation := range item.Violations {
			severity := string(violation.Severity.OrDefault())
			style := errorStyle
			if violation.Severity == model.SeverityWarning {
				style = warningStyle
			}
			builder.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
				paint(positionStyle, fmt.Sprintf("%d:%d", violation.Line, violation.Character)),
				paint(style, fmt.Sprintf("%-7s", severity)),
				violation.Rule,
				paint(standardStyle, "@"+violation.Standard)))
		}
		builder.WriteString("\n")
	}
	summary := result.Summary
	if summary.TotalViolations == 0 {
		builder.WriteString(paint(successStyle, fmt.Sprintf("No violations found in %d file(s)", summary.TotalFiles)))
	} else {
		builder.WriteString(paint(errorStyle, fmt.Sprintf("%d violation(s) in %d of %d file(s)",
			summary.TotalViolations, summary.ViolatedFiles, summary.TotalFiles)))
	}
	builder.WriteString("\n")
	if len(summary.StandardsChecked) > 0 {
		builder.WriteString("Standards checked: " + strings.Join(summary.StandardsChecked, ", ") + "\n")
	}
	return builder.String()
}

// displayPath shows files below the working directory relative to it
func displayPath(file string) string {
	wd, err := os.Getwd()
	if err != nil {
		return file
	}
	rel, err := filepath.Rel(wd, filepath.FromSlash(file))
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return filepath.ToSlash(rel)
}
