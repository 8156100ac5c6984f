package gateway

import (
	"context"
	"errors"

	"github.com/viant/lintexec/language"
	"github.com/viant/lintexec/model"
)

var (
	// ErrNotLoggedIn indicates that no API key was supplied
	ErrNotLoggedIn = errors.New("not logged in: no API key provided")
	// ErrInvalidAPIKey indicates an API key that cannot be decoded
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrServerUnreachable indicates the server could not be contacted
	ErrServerUnreachable = errors.New("server is not accessible")
	// ErrStandardNotFound indicates an unknown standard slug
	ErrStandardNotFound = errors.New("standard not found")
	// ErrRuleNotFound indicates an unknown rule id
	ErrRuleNotFound = errors.New("rule not found")
	// ErrPackageNotFound indicates an unknown package slug
	ErrPackageNotFound = errors.New("package not found")
)

// RuleQuery selects the programs of one rule
type RuleQuery struct {
	StandardSlug string            `validate:"required"`
	RuleID       string            `validate:"required"`
	Language     language.Language // optional
}

// RuleProgram is a detection program returned for a rule
type RuleProgram struct {
	Language        language.Language     `json:"language" yaml:"language"`
	Code            string                `json:"code" yaml:"code"`
	SourceCodeState model.SourceCodeState `json:"sourceCodeState,omitempty" yaml:"sourceCodeState,omitempty"`
	Mode            model.ProgramMode     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Severity        model.Severity        `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// RulePrograms is the response of a rule query
type RulePrograms struct {
	Programs    []RuleProgram `json:"programs" yaml:"programs"`
	RuleContent string        `json:"ruleContent,omitempty" yaml:"ruleContent,omitempty"`
	Scope       model.Scope   `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// PackagesQuery selects programs of every standard within packages
type PackagesQuery struct {
	PackagesSlugs []string `validate:"required,min=1,dive,required"`
}

// PackagesPrograms is the response of a packages query
type PackagesPrograms struct {
	Targets []model.Target `json:"targets" yaml:"targets"`
}

// Execution describes a lint run for usage tracking
type Execution struct {
	TargetCount   int `json:"targetCount"`
	StandardCount int `json:"standardCount"`
}

// Gateway supplies detection programs and receives usage tracking
type Gateway interface {
	GetActiveDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error)
	GetDraftDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error)
	GetDetectionProgramsForPackages(ctx context.Context, query PackagesQuery) (*PackagesPrograms, error)
	TrackLinterExecution(ctx context.Context, execution Execution) error
}

// DetectionProgram converts p into the executor representation
func (p *RuleProgram) DetectionProgram() model.ActiveDetectionProgram {
	return model.ActiveDetectionProgram{
		Language: p.Language,
		Severity: p.Severity,
		DetectionProgram: model.DetectionProgram{
			Code:            p.Code,
			Language:        p.Language,
			SourceCodeState: p.SourceCodeState,
			Mode:            p.Mode,
		},
	}
}
