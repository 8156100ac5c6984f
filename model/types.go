package model

import (
	"github.com/viant/lintexec/language"
)

// SourceCodeState tells the executor which input a program expects
type SourceCodeState string

const (
	// SourceCodeAST programs receive the simplified syntax tree
	SourceCodeAST SourceCodeState = "AST"
	// SourceCodeRaw programs receive the raw file content
	SourceCodeRaw SourceCodeState = "RAW"
)

// ProgramMode describes how a program is evaluated
type ProgramMode string

// SingleAST evaluates the program once per parsed file
const SingleAST ProgramMode = "SINGLE_AST"

// Severity of a reported violation
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// OrDefault returns the severity, falling back to error when unset
func (s Severity) OrDefault() Severity {
	if s == "" {
		return SeverityError
	}
	return s
}

// DetectionProgram is one executable rule check for one language
type DetectionProgram struct {
	Code            string            `json:"code" yaml:"code"`
	Language        language.Language `json:"language,omitempty" yaml:"language,omitempty"`
	SourceCodeState SourceCodeState   `json:"sourceCodeState,omitempty" yaml:"sourceCodeState,omitempty"`
	Mode            ProgramMode       `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// State returns the declared source code state, AST when unset
func (p *DetectionProgram) State() SourceCodeState {
	if p.SourceCodeState == "" {
		return SourceCodeAST
	}
	return p.SourceCodeState
}

// ActiveDetectionProgram binds a program to the language and severity it reports with
type ActiveDetectionProgram struct {
	Language         language.Language `json:"language" yaml:"language"`
	Severity         Severity          `json:"severity,omitempty" yaml:"severity,omitempty"`
	DetectionProgram DetectionProgram  `json:"detectionProgram" yaml:"detectionProgram"`
}

// Rule is a human readable rule with its detection programs
type Rule struct {
	Content                 string                   `json:"content" yaml:"content"`
	ActiveDetectionPrograms []ActiveDetectionProgram `json:"activeDetectionPrograms" yaml:"activeDetectionPrograms"`
}

// Standard groups rules under a slug and an optional scope
type Standard struct {
	Name  string `json:"name" yaml:"name"`
	Slug  string `json:"slug" yaml:"slug"`
	Scope Scope  `json:"scope" yaml:"scope"`
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Target is a deployment/config subtree, "/" being the repository root
type Target struct {
	Name      string     `json:"name" yaml:"name"`
	Path      string     `json:"path" yaml:"path"`
	Standards []Standard `json:"standards" yaml:"standards"`
}

// Violation is a single finding reported to the user
type Violation struct {
	Line      int      `json:"line" yaml:"line"`
	Character int      `json:"character" yaml:"character"`
	Rule      string   `json:"rule" yaml:"rule"`
	Standard  string   `json:"standard" yaml:"standard"`
	Severity  Severity `json:"severity" yaml:"severity"`
}

// LintViolation holds every violation found in one file
type LintViolation struct {
	File       string      `json:"file" yaml:"file"` // absolute path
	Violations []Violation `json:"violations" yaml:"violations"`
}

// Summary aggregates run statistics
type Summary struct {
	TotalFiles       int      `json:"totalFiles" yaml:"totalFiles"`
	ViolatedFiles    int      `json:"violatedFiles" yaml:"violatedFiles"`
	TotalViolations  int      `json:"totalViolations" yaml:"totalViolations"`
	StandardsChecked []string `json:"standardsChecked" yaml:"standardsChecked"`
}

// Result is the outcome of one lint run
type Result struct {
	Violations []LintViolation `json:"violations" yaml:"violations"`
	Summary    Summary         `json:"summary" yaml:"summary"`
}

// NewResult builds a result and computes its violation counters
func NewResult(violations []LintViolation, totalFiles int, standardsChecked []string) *Result {
	if violations == nil {
		violations = []LintViolation{}
	}
	if standardsChecked == nil {
		standardsChecked = []string{}
	}
	total := 0
	for _, v := range violations {
		total += len(v.Violations)
	}
	return &Result{
		Violations: violations,
		Summary: Summary{
			TotalFiles:       totalFiles,
			ViolatedFiles:    len(violations),
			TotalViolations:  total,
			StandardsChecked: standardsChecked,
		},
	}
}
